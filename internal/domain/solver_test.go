package domain

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
)

func newTestSolver(t *testing.T, depth, spawn int, opts ...Option) *Solver {
	t.Helper()
	s, err := NewSolver(NewHeuristicEvaluator(), SearchConfig{SearchDepth: depth, SpawnValue: spawn}, opts...)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	return s
}

func TestBestMoveFixture(t *testing.T) {
	tests := []struct {
		name     string
		depth    int
		spawn    int
		expected Direction
	}{
		{name: "depth 1", depth: 1, spawn: 1, expected: Down},
		{name: "depth 2", depth: 2, spawn: 1, expected: Down},
		{name: "depth 3", depth: 3, spawn: 1, expected: Down},
		{name: "depth 3 spawn 2", depth: 3, spawn: 2, expected: Left},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSolver(t, tt.depth, tt.spawn)
			got, err := s.BestMove(context.Background(), fixtureBoard)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Errorf("BestMove() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestAnalyzeFixtureScores(t *testing.T) {
	s := newTestSolver(t, 3, 1)
	a, err := s.Analyze(context.Background(), fixtureBoard)
	if err != nil {
		t.Fatal(err)
	}

	expected := map[Direction]float64{
		Left:  126747.54545454546,
		Down:  129008.31818181818,
		Right: 116999.90909090909,
		Up:    105703.86363636363,
	}
	for dir, want := range expected {
		got, ok := a.Score(dir)
		if !ok {
			t.Fatalf("%s reported illegal", dir)
		}
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("%s score = %v, want %v", dir, got, want)
		}
	}
	if a.Truncated {
		t.Error("unbounded search reported truncation")
	}
	if a.Nodes == 0 {
		t.Error("expected node count to be recorded")
	}
}

func TestExpectimaxDepthZero(t *testing.T) {
	s := newTestSolver(t, 3, 1)
	ev := NewHeuristicEvaluator()
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 50; i++ {
		b := randomBoard(rng, 4)
		want := ev.Evaluate(b)
		for _, maxLayer := range []bool{true, false} {
			if got := s.Expectimax(b, 0, maxLayer); got != want {
				t.Fatalf("Expectimax(depth=0, max=%v) = %v, want %v", maxLayer, got, want)
			}
		}
	}
}

func TestExpectimaxChanceLayerAverages(t *testing.T) {
	s := newTestSolver(t, 3, 2)
	ev := NewHeuristicEvaluator()

	total := 0.0
	spawns := fixtureBoard.Spawns(2)
	for _, next := range spawns {
		total += ev.Evaluate(next)
	}
	want := total / float64(len(spawns))

	if got := s.Expectimax(fixtureBoard, 1, false); got != want {
		t.Errorf("chance layer = %v, want %v", got, want)
	}
}

func TestExpectimaxMaxLayerPicksBest(t *testing.T) {
	s := newTestSolver(t, 3, 1)
	ev := NewHeuristicEvaluator()

	want := math.Inf(-1)
	for _, dir := range SearchOrder {
		next := fixtureBoard.Move(dir)
		if next.Equal(fixtureBoard) {
			continue
		}
		want = math.Max(want, ev.Evaluate(next))
	}

	if got := s.Expectimax(fixtureBoard, 1, true); got != want {
		t.Errorf("max layer = %v, want %v", got, want)
	}
}

func TestExpectimaxTerminalBoard(t *testing.T) {
	s := newTestSolver(t, 3, 1)
	stuck := NewBoardFromCells([4][4]int{
		{1, 2, 1, 2},
		{2, 1, 2, 1},
		{1, 2, 1, 2},
		{2, 1, 2, 1},
	})
	want := NewHeuristicEvaluator().Evaluate(stuck)

	for _, maxLayer := range []bool{true, false} {
		if got := s.Expectimax(stuck, 4, maxLayer); got != want {
			t.Errorf("Expectimax(stuck, max=%v) = %v, want %v", maxLayer, got, want)
		}
	}

	dir, err := s.BestMove(context.Background(), stuck)
	if err != nil {
		t.Fatal(err)
	}
	if dir != NoDirection {
		t.Errorf("BestMove(stuck) = %s, want NONE", dir)
	}
}

func TestBestMoveIsAlwaysLegal(t *testing.T) {
	s := newTestSolver(t, 2, 1)
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 100; i++ {
		b := randomBoard(rng, 4)
		dir, err := s.BestMove(context.Background(), b)
		if err != nil {
			t.Fatal(err)
		}
		if dir == NoDirection {
			if !b.IsTerminal() {
				t.Fatalf("no move returned for non-terminal board\n%s", b)
			}
			continue
		}
		if b.Move(dir).Equal(b) {
			t.Fatalf("BestMove returned no-op %s for\n%s", dir, b)
		}
	}
}

type constEvaluator float64

func (c constEvaluator) Evaluate(Board) float64 { return float64(c) }

func TestBestMoveTieBreakFollowsSearchOrder(t *testing.T) {
	s, err := NewSolver(constEvaluator(1), SearchConfig{SearchDepth: 2, SpawnValue: 1})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		cells    [4][4]int
		expected Direction
	}{
		{
			name:     "all legal",
			cells:    [4][4]int{{0, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			expected: Left,
		},
		{
			name:     "left illegal",
			cells:    [4][4]int{{1, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			expected: Down,
		},
		{
			name:     "only up",
			cells:    [4][4]int{{0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {1, 2, 3, 4}},
			expected: Up,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.BestMove(context.Background(), NewBoardFromCells(tt.cells))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Errorf("BestMove() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestBestMoveMalformedBoard(t *testing.T) {
	s := newTestSolver(t, 2, 1)
	_, err := s.BestMove(context.Background(), Board{})
	if !errors.Is(err, ErrMalformedBoard) {
		t.Errorf("expected ErrMalformedBoard, got %v", err)
	}
}

func TestNodeBudgetStillReturnsLegalMove(t *testing.T) {
	s, err := NewSolver(NewHeuristicEvaluator(), SearchConfig{SearchDepth: 6, SpawnValue: 1, NodeBudget: 1})
	if err != nil {
		t.Fatal(err)
	}

	a, err := s.Analyze(context.Background(), fixtureBoard)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Truncated {
		t.Error("expected budget to truncate the search")
	}
	if a.Best == NoDirection || fixtureBoard.Move(a.Best).Equal(fixtureBoard) {
		t.Errorf("expected a legal move, got %s", a.Best)
	}
}

// countingEvaluator は評価回数を数える
type countingEvaluator struct {
	inner Evaluator
	calls int
}

func (c *countingEvaluator) Evaluate(b Board) float64 {
	c.calls++
	return c.inner.Evaluate(b)
}

func TestNodesCountLeaves(t *testing.T) {
	ev := &countingEvaluator{inner: NewHeuristicEvaluator()}
	s, err := NewSolver(ev, SearchConfig{SearchDepth: 1, SpawnValue: 1})
	if err != nil {
		t.Fatal(err)
	}

	a, err := s.Analyze(context.Background(), fixtureBoard)
	if err != nil {
		t.Fatal(err)
	}
	// 4方向とも合法で、それぞれ葉を1回評価する
	if a.Nodes != 4 || ev.calls != 4 {
		t.Errorf("Nodes = %d, evaluations = %d, want 4 and 4", a.Nodes, ev.calls)
	}
	if a.Truncated {
		t.Error("unbounded search reported truncation")
	}
}

func TestNodeBudgetBoundsEvaluations(t *testing.T) {
	tests := []struct {
		depth  int
		budget int
	}{
		{depth: 2, budget: 1},
		{depth: 4, budget: 1},
		{depth: 4, budget: 10},
		{depth: 4, budget: 100},
		{depth: 4, budget: 500},
	}

	for _, tt := range tests {
		ev := &countingEvaluator{inner: NewHeuristicEvaluator()}
		s, err := NewSolver(ev, SearchConfig{SearchDepth: tt.depth, SpawnValue: 1, NodeBudget: tt.budget})
		if err != nil {
			t.Fatal(err)
		}
		a, err := s.Analyze(context.Background(), fixtureBoard)
		if err != nil {
			t.Fatal(err)
		}
		if !a.Truncated {
			t.Errorf("depth=%d budget=%d: expected truncation", tt.depth, tt.budget)
		}
		// 予算を超えた1ノードと、打ち切り後のルートの残り3方向の分だけ超えうる
		if a.Nodes > int64(tt.budget)+1 {
			t.Errorf("depth=%d budget=%d: Nodes = %d", tt.depth, tt.budget, a.Nodes)
		}
		if ev.calls > tt.budget+4 {
			t.Errorf("depth=%d budget=%d: %d evaluations", tt.depth, tt.budget, ev.calls)
		}
		if a.Best == NoDirection || fixtureBoard.Move(a.Best).Equal(fixtureBoard) {
			t.Errorf("depth=%d budget=%d: expected a legal move, got %s", tt.depth, tt.budget, a.Best)
		}
	}
}

func TestCanceledContextStillReturnsLegalMove(t *testing.T) {
	s := newTestSolver(t, 8, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := s.Analyze(ctx, fixtureBoard)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Truncated {
		t.Error("expected canceled context to truncate the search")
	}
	if a.Best == NoDirection {
		t.Error("expected a move despite the canceled context")
	}
}

func TestTraceReportsEveryCandidate(t *testing.T) {
	var events []TraceEvent
	s := newTestSolver(t, 2, 1, WithTrace(func(ev TraceEvent) {
		events = append(events, ev)
	}))

	board := NewBoardFromCells([4][4]int{{1, 0, 0, 0}})
	if _, err := s.BestMove(context.Background(), board); err != nil {
		t.Fatal(err)
	}

	if len(events) != len(SearchOrder) {
		t.Fatalf("expected %d events, got %d", len(SearchOrder), len(events))
	}
	for i, ev := range events {
		if ev.Direction != SearchOrder[i] {
			t.Errorf("event %d direction = %s, want %s", i, ev.Direction, SearchOrder[i])
		}
	}
	if events[0].Legal || !math.IsInf(events[0].Score, -1) {
		t.Errorf("expected LEFT to be illegal, got %+v", events[0])
	}
	if !events[1].Legal {
		t.Errorf("expected DOWN to be legal, got %+v", events[1])
	}
}

func TestSolverConfigSetters(t *testing.T) {
	s := newTestSolver(t, 3, 1)

	if err := s.SetSpawnValue(4); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSearchDepth(5); err != nil {
		t.Fatal(err)
	}

	for _, v := range []int{0, -1, MaxRank + 1} {
		if err := s.SetSpawnValue(v); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("SetSpawnValue(%d) error = %v, want ErrInvalidConfig", v, err)
		}
	}
	if err := s.SetSearchDepth(0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetSearchDepth(0) error = %v, want ErrInvalidConfig", err)
	}
	if err := s.SetConfig(SearchConfig{SearchDepth: 2, SpawnValue: 1, NodeBudget: -1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetConfig error = %v, want ErrInvalidConfig", err)
	}

	want := SearchConfig{SearchDepth: 5, SpawnValue: 4}
	if got := s.Config(); got != want {
		t.Errorf("Config() = %+v, want %+v", got, want)
	}
}

func TestNewSolverRejectsInvalidConfig(t *testing.T) {
	_, err := NewSolver(NewHeuristicEvaluator(), SearchConfig{SearchDepth: 0, SpawnValue: 1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestAdaptiveDepth(t *testing.T) {
	tests := []struct {
		empty    int
		expected int
	}{
		{0, 10}, {1, 9}, {2, 8}, {3, 7}, {4, 6}, {5, 5}, {16, 5},
	}
	for _, tt := range tests {
		if got := AdaptiveDepth(tt.empty); got != tt.expected {
			t.Errorf("AdaptiveDepth(%d) = %d, want %d", tt.empty, got, tt.expected)
		}
	}
}

func TestParallelSolverMatchesSequential(t *testing.T) {
	seq := newTestSolver(t, 3, 1)
	par, err := NewParallelSolver(NewHeuristicEvaluator(), SearchConfig{SearchDepth: 3, SpawnValue: 1})
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(5))
	boards := []Board{fixtureBoard}
	for i := 0; i < 10; i++ {
		boards = append(boards, randomBoard(rng, 4))
	}

	for _, b := range boards {
		want, err := seq.Analyze(context.Background(), b)
		if err != nil {
			t.Fatal(err)
		}
		got, err := par.Analyze(context.Background(), b)
		if err != nil {
			t.Fatal(err)
		}
		if got.Best != want.Best || got.Scores != want.Scores || got.Legal != want.Legal {
			t.Fatalf("parallel analysis %+v differs from sequential %+v", got, want)
		}
		if got.Nodes != want.Nodes {
			t.Errorf("parallel visited %d nodes, sequential %d", got.Nodes, want.Nodes)
		}
	}

	dir, err := par.BestMove(context.Background(), fixtureBoard)
	if err != nil {
		t.Fatal(err)
	}
	if dir != Down {
		t.Errorf("BestMove() = %s, want DOWN", dir)
	}
}

func BenchmarkBestMove(b *testing.B) {
	s, err := NewSolver(NewHeuristicEvaluator(), SearchConfig{SearchDepth: 3, SpawnValue: 1})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.BestMove(ctx, fixtureBoard); err != nil {
			b.Fatal(err)
		}
	}
}
