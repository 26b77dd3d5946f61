package domain

// Evaluator はBoardを評価してスコアを返すインターフェース
type Evaluator interface {
	Evaluate(b Board) float64
}

// WeightedEvaluator は複数のEvaluatorを係数付きで組み合わせる
type WeightedEvaluator struct {
	evaluators []Evaluator
	weights    []float64
}

// NewWeightedEvaluator は係数付きEvaluatorを生成する
func NewWeightedEvaluator(evaluators []Evaluator, weights []float64) *WeightedEvaluator {
	return &WeightedEvaluator{
		evaluators: evaluators,
		weights:    weights,
	}
}

// NewHeuristicEvaluator は探索で使う6項目の評価関数を返す
func NewHeuristicEvaluator() *WeightedEvaluator {
	return NewWeightedEvaluator(
		[]Evaluator{
			MonotonicityEvaluator{},
			CornerEvaluator{},
			SmoothnessEvaluator{},
			FreeTilesEvaluator{},
			MaxTileEvaluator{},
			MergeableEvaluator{},
		},
		[]float64{5.0, 1.0, 2.0, 3.0, 0.5, 1.5},
	)
}

// Evaluate は全てのEvaluatorの重み付き和を返す
func (w *WeightedEvaluator) Evaluate(b Board) float64 {
	score := 0.0
	for i, ev := range w.evaluators {
		score += ev.Evaluate(b) * w.weights[i]
	}
	return score
}

// MonotonicityEvaluator は行・列ごとの単調性で評価する
// 最下行は左から右への降順、最左列は上から下への昇順を1.5倍で優遇する
type MonotonicityEvaluator struct{}

func (MonotonicityEvaluator) Evaluate(b Board) float64 {
	n := b.Size()
	score := 0.0

	// 行方向の単調性
	for r := 0; r < n; r++ {
		inc, dec := 0, 0
		for c := 0; c < n-1; c++ {
			inc, dec = accumulateRun(b.Get(r, c), b.Get(r, c+1), inc, dec)
		}
		if r == n-1 {
			score += float64(dec) * 1.5
		} else {
			score += float64(max(inc, dec))
		}
	}

	// 列方向の単調性
	for c := 0; c < n; c++ {
		inc, dec := 0, 0
		for r := 0; r < n-1; r++ {
			inc, dec = accumulateRun(b.Get(r, c), b.Get(r+1, c), inc, dec)
		}
		if c == 0 {
			score += float64(inc) * 1.5
		} else {
			score += float64(max(inc, dec))
		}
	}

	return score
}

// accumulateRun は空でない隣接ペアの差を増加側か減少側に加算する
func accumulateRun(cur, next, inc, dec int) (int, int) {
	if cur == 0 || next == 0 {
		return inc, dec
	}
	if cur < next {
		inc += next - cur
	} else if cur > next {
		dec += cur - next
	}
	return inc, dec
}

// CornerEvaluator は最大タイルが角にあると高評価（左下が最良）
type CornerEvaluator struct{}

func (CornerEvaluator) Evaluate(b Board) float64 {
	n := b.Size()
	top := b.MaxTile()

	switch {
	case b.Get(n-1, 0) == top:
		return 20000
	case b.Get(n-1, n-1) == top:
		return 18000
	case b.Get(0, 0) == top:
		return 10000
	case b.Get(0, n-1) == top:
		return 8000
	default:
		return -5000
	}
}

// SmoothnessEvaluator は隣接タイルのランク差で評価する（差が小さいほど高評価）
type SmoothnessEvaluator struct{}

func (SmoothnessEvaluator) Evaluate(b Board) float64 {
	n := b.Size()
	penalty := 0

	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := b.Get(r, c)
			if v == 0 {
				continue
			}
			// 右隣
			if c < n-1 {
				if right := b.Get(r, c+1); right != 0 {
					penalty += abs(v - right)
				}
			}
			// 下隣
			if r < n-1 {
				if down := b.Get(r+1, c); down != 0 {
					penalty += abs(v - down)
				}
			}
		}
	}

	return float64(-penalty)
}

// FreeTilesEvaluator は空きマス数の2乗で評価し、盤面が埋まりかけると減点する
type FreeTilesEvaluator struct{}

func (FreeTilesEvaluator) Evaluate(b Board) float64 {
	empty := b.CountEmpty()
	score := empty * empty * 300
	if empty <= 2 {
		score -= 10000
	} else if empty <= 3 {
		score -= 5000
	}
	return float64(score)
}

// MaxTileEvaluator は最大ランクの2乗で評価する
type MaxTileEvaluator struct{}

func (MaxTileEvaluator) Evaluate(b Board) float64 {
	top := b.MaxTile()
	return float64(top * top * 10)
}

// MergeableEvaluator は隣接する同じランクのペア数で評価する
// MaxRankのタイルはマージできないので数えない
type MergeableEvaluator struct{}

func (MergeableEvaluator) Evaluate(b Board) float64 {
	n := b.Size()
	count := 0
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := b.Get(r, c)
			if v == 0 || v >= MaxRank {
				continue
			}
			if c < n-1 && b.Get(r, c+1) == v {
				count++
			}
			if r < n-1 && b.Get(r+1, c) == v {
				count++
			}
		}
	}
	return float64(count * 100)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
