package usecase

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/nnaakkaaii/rankmerge/internal/domain"
	"github.com/nnaakkaaii/rankmerge/internal/transcript"
)

// Recorder は1手ごとの記録を受け取る
type Recorder interface {
	Write(rec transcript.Record) error
}

// AutoPlayConfig は自動プレイの設定
type AutoPlayConfig struct {
	Size        int
	Search      domain.SearchConfig
	Adaptive    bool
	UseParallel bool
	Delay       time.Duration
	MaxMoves    int
	Verbose     bool
}

// DefaultAutoPlayConfig はデフォルトの設定を返す
func DefaultAutoPlayConfig() AutoPlayConfig {
	return AutoPlayConfig{
		Size:     4,
		Search:   domain.DefaultSearchConfig(),
		Adaptive: true,
		Delay:    100 * time.Millisecond,
		Verbose:  true,
	}
}

// Result は自動プレイの結果
type Result struct {
	Score   int
	Moves   int
	MaxTile int
	Board   domain.Board
}

// TunableAdvisor は実行中に探索設定を変更できるAdvisor
type TunableAdvisor interface {
	domain.Advisor
	Config() domain.SearchConfig
	SetConfig(config domain.SearchConfig) error
	SetSearchDepth(depth int) error
	SetSpawnValue(value int) error
}

// NewAdvisor は設定に応じたソルバーを生成する
// ルートの候補手の評価値はdebugレベルでログに出す
func NewAdvisor(search domain.SearchConfig, parallel bool, logger zerolog.Logger) (TunableAdvisor, error) {
	trace := domain.WithTrace(func(ev domain.TraceEvent) {
		if !ev.Legal {
			logger.Debug().Str("dir", ev.Direction.String()).Msg("invalid move")
			return
		}
		logger.Debug().Str("dir", ev.Direction.String()).Float64("score", ev.Score).Msg("candidate")
	})
	evaluator := domain.NewHeuristicEvaluator()
	if parallel {
		p, err := domain.NewParallelSolver(evaluator, search, trace)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	s, err := domain.NewSolver(evaluator, search, trace)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AutoPlay はシミュレーションのゲームを自動でプレイする
// recがnilでなければ1手ごとに記録する
func AutoPlay(ctx context.Context, w io.Writer, rng *rand.Rand, config AutoPlayConfig, logger zerolog.Logger, rec Recorder) (Result, error) {
	game, err := domain.NewGame(rng, config.Size, config.Search.SpawnValue)
	if err != nil {
		return Result{}, fmt.Errorf("new game: %w", err)
	}
	advisor, err := NewAdvisor(config.Search, config.UseParallel, logger)
	if err != nil {
		return Result{}, fmt.Errorf("new solver: %w", err)
	}

	mode := "Sequential"
	if config.UseParallel {
		mode = "Parallel"
	}
	logger.Info().
		Int("size", config.Size).
		Int("depth", config.Search.SearchDepth).
		Int("spawn", config.Search.SpawnValue).
		Bool("adaptive", config.Adaptive).
		Str("mode", mode).
		Msg("autoplay started")

	for !game.IsGameOver() {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Int("moves", game.Moves()).Msg("autoplay interrupted")
			break
		}
		if config.MaxMoves > 0 && game.Moves() >= config.MaxMoves {
			logger.Info().Int("max_moves", config.MaxMoves).Msg("move limit reached")
			break
		}

		board := game.Board()
		empty := board.CountEmpty()

		// 空きマス数に応じて探索深さを調整
		if config.Adaptive {
			old := advisor.Config().SearchDepth
			if depth := domain.AdaptiveDepth(empty); depth != old {
				if err := advisor.SetSearchDepth(depth); err != nil {
					return Result{}, err
				}
				logger.Info().Int("from", old).Int("to", depth).Int("empty", empty).Msg("search depth adjusted")
			}
		}

		if config.Verbose {
			fmt.Fprint(w, board)
			fmt.Fprintf(w, "Score: %d, Moves: %d, Empty: %d, Depth: %d\n", game.Score(), game.Moves(), empty, advisor.Config().SearchDepth)
		}

		start := time.Now()
		a, err := advisor.Analyze(ctx, board)
		if err != nil {
			return Result{}, fmt.Errorf("analyze move %d: %w", game.Moves()+1, err)
		}
		if a.Best == domain.NoDirection {
			break
		}
		logger.Debug().
			Str("dir", a.Best.String()).
			Int64("nodes", a.Nodes).
			Bool("truncated", a.Truncated).
			Dur("dur", time.Since(start)).
			Msg("move chosen")

		if config.Verbose {
			fmt.Fprintf(w, "Move: %s\n\n", a.Best)
		}

		game.Move(a.Best)

		if rec != nil {
			err := rec.Write(transcript.Record{
				Move:      game.Moves(),
				Board:     game.Board().Rows(),
				Direction: a.Best.String(),
				Depth:     a.Config.SearchDepth,
				Empty:     game.Board().CountEmpty(),
				Score:     game.Score(),
			})
			if err != nil {
				return Result{}, err
			}
		}

		if config.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(config.Delay):
			}
		}
	}

	result := Result{
		Score:   game.Score(),
		Moves:   game.Moves(),
		MaxTile: game.Board().MaxTile(),
		Board:   game.Board(),
	}

	// 最終結果は常に表示
	fmt.Fprint(w, result.Board)
	fmt.Fprintln(w, "=== Game Over ===")
	fmt.Fprintf(w, "Final Score: %d\n", result.Score)
	fmt.Fprintf(w, "Total Moves: %d\n", result.Moves)
	fmt.Fprintf(w, "Max Tile: %d\n", result.MaxTile)

	logger.Info().Int("score", result.Score).Int("moves", result.Moves).Int("max_tile", result.MaxTile).Msg("autoplay finished")
	return result, nil
}
