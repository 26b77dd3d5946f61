package domain

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
)

// Advisor は盤面から最良の手を求める
type Advisor interface {
	BestMove(ctx context.Context, b Board) (Direction, error)
	Analyze(ctx context.Context, b Board) (Analysis, error)
}

// TraceEvent はルートの各候補手の探索結果
type TraceEvent struct {
	Direction Direction
	Legal     bool
	Score     float64
}

// TraceFunc はルートの候補手ごとに呼ばれるフック
type TraceFunc func(TraceEvent)

// Option はSolverのオプション
type Option func(*Solver)

// WithTrace はルートの候補手の評価値を受け取るフックを設定する
func WithTrace(fn TraceFunc) Option {
	return func(s *Solver) {
		s.trace = fn
	}
}

// Analysis は1回の探索結果
type Analysis struct {
	Best Direction
	// Scores はDirectionで引く。不正な手は-Inf
	Scores    [4]float64
	Legal     [4]bool
	Terminal  bool
	Nodes     int64
	Truncated bool
	Config    SearchConfig
}

// Score は指定した方向の評価値を返す。不正な手ならfalse
func (a Analysis) Score(dir Direction) (float64, bool) {
	if dir < Up || dir > Right || !a.Legal[dir] {
		return math.Inf(-1), false
	}
	return a.Scores[dir], true
}

// Solver はExpectimaxアルゴリズムで最良の手を探索する
type Solver struct {
	evaluator Evaluator
	trace     TraceFunc

	mu     sync.RWMutex
	config SearchConfig
}

// NewSolver は新しいSolverを生成する
func NewSolver(evaluator Evaluator, config SearchConfig, opts ...Option) (*Solver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		evaluator: evaluator,
		config:    config,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config は現在の設定を返す
func (s *Solver) Config() SearchConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetConfig は設定を丸ごと置き換える。不正な値なら何も変更しない
func (s *Solver) SetConfig(config SearchConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.config = config
	s.mu.Unlock()
	return nil
}

// SetSearchDepth は探索深さを更新する
func (s *Solver) SetSearchDepth(depth int) error {
	if err := validateDepth(depth); err != nil {
		return err
	}
	s.mu.Lock()
	s.config.SearchDepth = depth
	s.mu.Unlock()
	return nil
}

// SetSpawnValue はCHANCEノードで置くランクを更新する
func (s *Solver) SetSpawnValue(value int) error {
	if err := validateSpawn(value); err != nil {
		return err
	}
	s.mu.Lock()
	s.config.SpawnValue = value
	s.mu.Unlock()
	return nil
}

// BestMove は現在の盤面から最良の手を返す
// 有効な手がない場合はNoDirectionを返す
func (s *Solver) BestMove(ctx context.Context, b Board) (Direction, error) {
	a, err := s.Analyze(ctx, b)
	if err != nil {
		return NoDirection, err
	}
	return a.Best, nil
}

// Analyze はルートの全候補手を探索し、評価値と最良の手を返す
func (s *Solver) Analyze(ctx context.Context, b Board) (Analysis, error) {
	if err := validateBoard(b); err != nil {
		return Analysis{Best: NoDirection}, err
	}
	cfg := s.Config()
	srch := newSearch(ctx, s.evaluator, cfg)
	a := newAnalysis(b, cfg)

	for _, dir := range SearchOrder {
		next := b.Move(dir)
		if next.Equal(b) {
			continue
		}
		// スポーン後の期待値を計算
		a.Legal[dir] = true
		a.Scores[dir] = srch.expectimax(next, cfg.SearchDepth-1, false)
	}

	s.finish(&a, srch)
	return a, nil
}

// Expectimax は盤面の期待値を返す
// maxLayerがtrueならプレイヤーの手番、falseならスポーンの手番
func (s *Solver) Expectimax(b Board, depth int, maxLayer bool) float64 {
	return newSearch(context.Background(), s.evaluator, s.Config()).expectimax(b, depth, maxLayer)
}

func (s *Solver) finish(a *Analysis, srch *search) {
	best := math.Inf(-1)
	for _, dir := range SearchOrder {
		if s.trace != nil {
			s.trace(TraceEvent{Direction: dir, Legal: a.Legal[dir], Score: a.Scores[dir]})
		}
		if a.Legal[dir] && a.Scores[dir] > best {
			best = a.Scores[dir]
			a.Best = dir
		}
	}
	a.Nodes = srch.nodes.Load()
	a.Truncated = srch.stopped.Load()
}

func newAnalysis(b Board, cfg SearchConfig) Analysis {
	a := Analysis{
		Best:     NoDirection,
		Terminal: b.IsTerminal(),
		Config:   cfg,
	}
	for i := range a.Scores {
		a.Scores[i] = math.Inf(-1)
	}
	return a
}

func validateBoard(b Board) error {
	if b.Size() < 1 {
		return &BoardError{Row: -1, Reason: "board has no cells"}
	}
	return nil
}

// ctxCheckInterval ノードごとにコンテキストを確認する間隔
const ctxCheckInterval = 1024

// search は1回の探索の状態。設定は探索中に変化しない
type search struct {
	ctx       context.Context
	evaluator Evaluator
	config    SearchConfig
	nodes     atomic.Int64
	stopped   atomic.Bool
}

func newSearch(ctx context.Context, evaluator Evaluator, config SearchConfig) *search {
	return &search{
		ctx:       ctx,
		evaluator: evaluator,
		config:    config,
	}
}

// exhausted はノード予算か期限を使い切ったかどうかを返す
func (s *search) exhausted() bool {
	if s.stopped.Load() {
		return true
	}
	n := s.nodes.Add(1)
	if s.config.NodeBudget > 0 && n > int64(s.config.NodeBudget) {
		s.stopped.Store(true)
		return true
	}
	if (n == 1 || n%ctxCheckInterval == 0) && s.ctx.Err() != nil {
		s.stopped.Store(true)
		return true
	}
	return false
}

// expectimax は葉も含めて呼び出しごとに1ノードとして数える
func (s *search) expectimax(b Board, depth int, maxLayer bool) float64 {
	stop := s.exhausted()
	if depth <= 0 || stop || b.IsTerminal() {
		return s.evaluator.Evaluate(b)
	}
	if maxLayer {
		return s.searchMax(b, depth)
	}
	return s.expectedScore(b, depth)
}

// searchMax はプレイヤーの最善手を探索
func (s *search) searchMax(b Board, depth int) float64 {
	bestScore := math.Inf(-1)

	for _, dir := range SearchOrder {
		next := b.Move(dir)
		if next.Equal(b) {
			continue
		}
		if score := s.expectimax(next, depth-1, false); score > bestScore {
			bestScore = score
		}
		// 打ち切り後は残りの兄弟を展開しない
		if s.stopped.Load() {
			break
		}
	}

	if math.IsInf(bestScore, -1) {
		return s.evaluator.Evaluate(b)
	}
	return bestScore
}

// expectedScore は全ての空きマスにスポーンした場合の平均を返す
func (s *search) expectedScore(b Board, depth int) float64 {
	empty := b.CountEmpty()
	if empty == 0 {
		return s.evaluator.Evaluate(b)
	}

	spawn := uint8(s.config.SpawnValue)
	total := 0.0
	visited := 0
	for i := 0; i < b.size*b.size; i++ {
		if b.cells[i] != 0 {
			continue
		}
		next := b
		next.cells[i] = spawn
		total += s.expectimax(next, depth-1, true)
		visited++
		// 打ち切り後は展開済みの配置だけで平均する
		if s.stopped.Load() {
			break
		}
	}

	return total / float64(visited)
}
