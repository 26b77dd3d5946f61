package domain

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParallelSolver はルートの候補手を並列に探索するソルバー
// 同点時の選び方はSolverと同じなので、予算を使い切らない限り結果も同じになる
type ParallelSolver struct {
	*Solver
	workers int
}

// NewParallelSolver は新しいParallelSolverを生成する
func NewParallelSolver(evaluator Evaluator, config SearchConfig, opts ...Option) (*ParallelSolver, error) {
	s, err := NewSolver(evaluator, config, opts...)
	if err != nil {
		return nil, err
	}
	return &ParallelSolver{
		Solver:  s,
		workers: runtime.NumCPU(),
	}, nil
}

// BestMove は現在の盤面から最良の手を返す（トップレベルのみ並列化）
func (p *ParallelSolver) BestMove(ctx context.Context, b Board) (Direction, error) {
	a, err := p.Analyze(ctx, b)
	if err != nil {
		return NoDirection, err
	}
	return a.Best, nil
}

// Analyze はルートの候補手ごとにgoroutineを立てて探索する
// ノード予算は全goroutineで共有する
func (p *ParallelSolver) Analyze(ctx context.Context, b Board) (Analysis, error) {
	if err := validateBoard(b); err != nil {
		return Analysis{Best: NoDirection}, err
	}
	cfg := p.Config()
	srch := newSearch(ctx, p.evaluator, cfg)
	a := newAnalysis(b, cfg)

	var g errgroup.Group
	g.SetLimit(p.workers)
	for _, dir := range SearchOrder {
		next := b.Move(dir)
		if next.Equal(b) {
			continue
		}
		a.Legal[dir] = true
		g.Go(func() error {
			// 各goroutineは自分の方向のスロットにだけ書く
			a.Scores[dir] = srch.expectimax(next, cfg.SearchDepth-1, false)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Analysis{Best: NoDirection}, err
	}

	p.finish(&a, srch)
	return a, nil
}

var (
	_ Advisor = (*Solver)(nil)
	_ Advisor = (*ParallelSolver)(nil)
)
