package usecase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nnaakkaaii/rankmerge/internal/domain"
)

// errQuit は解析ループの終了を表す
var errQuit = errors.New("quit")

// Analyzer は任意の盤面を対話的に解析する
type Analyzer struct {
	advisor TunableAdvisor
	size    int
	scanner *bufio.Scanner
	w       io.Writer
	logger  zerolog.Logger
}

// NewAnalyzer は入力rと出力wを使うAnalyzerを生成する
func NewAnalyzer(r io.Reader, w io.Writer, advisor TunableAdvisor, size int, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		advisor: advisor,
		size:    size,
		scanner: bufio.NewScanner(r),
		w:       w,
		logger:  logger,
	}
}

// Run は入力が尽きるかquitが入力されるまで解析を繰り返す
func (a *Analyzer) Run(ctx context.Context) error {
	n := a.size * a.size
	fmt.Fprintln(a.w, "=== Rank Merge Interactive Analyzer ===")
	fmt.Fprintf(a.w, "Enter board state as %d ranks (0 for empty), or 'quit' to exit\n", n)
	fmt.Fprintf(a.w, "Example: %s1\n", strings.Repeat("0 ", max(n-1, 0)))
	fmt.Fprintln(a.w)

	for {
		board, err := a.inputBoard()
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := a.analyzeLoop(ctx, board); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

// analyzeLoop は1つの盤面について推奨手の表示と操作を繰り返す
// 新しい盤面を求められたらnilを返す
func (a *Analyzer) analyzeLoop(ctx context.Context, board domain.Board) error {
	for {
		fmt.Fprintln(a.w, "\nCurrent board:")
		fmt.Fprint(a.w, board)

		cfg := a.advisor.Config()
		fmt.Fprintf(a.w, "\nSearch depth: %d, spawn rank: %d\n", cfg.SearchDepth, cfg.SpawnValue)
		fmt.Fprintln(a.w, "Analyzing best move...")

		analysis, err := a.advisor.Analyze(ctx, board)
		if err != nil {
			return err
		}
		a.logger.Debug().Int64("nodes", analysis.Nodes).Bool("truncated", analysis.Truncated).Msg("analysis done")

		if analysis.Terminal {
			fmt.Fprintln(a.w, "Game Over! No valid moves available.")
			return nil
		}
		if analysis.Best == domain.NoDirection {
			fmt.Fprintln(a.w, "No valid moves available!")
			return nil
		}

		fmt.Fprintf(a.w, "\n=== Recommended move: %s ===\n", analysis.Best)
		fmt.Fprintln(a.w, "\nMove scores:")
		for _, dir := range []domain.Direction{domain.Up, domain.Down, domain.Left, domain.Right} {
			score, ok := analysis.Score(dir)
			if !ok {
				continue
			}
			fmt.Fprintf(a.w, "  %s: %.2f", dir, score)
			if dir == analysis.Best {
				fmt.Fprint(a.w, " <- BEST")
			}
			fmt.Fprintln(a.w)
		}

		fmt.Fprintln(a.w, "\nOptions:")
		fmt.Fprintln(a.w, "  1. Apply suggested move and add new tile")
		fmt.Fprintln(a.w, "  2. Enter custom move and new tile")
		fmt.Fprintln(a.w, "  3. Change search depth")
		fmt.Fprintln(a.w, "  4. Change spawn rank")
		fmt.Fprintln(a.w, "  5. New board")
		fmt.Fprintln(a.w, "  6. Quit")
		fmt.Fprint(a.w, "Choice: ")

		choice, err := a.readLine()
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			board = a.applyMoveWithNewTile(board, analysis.Best)
		case "2":
			board = a.customMoveWithNewTile(board)
		case "3":
			a.changeDepth()
		case "4":
			a.changeSpawn()
		case "5":
			return nil
		case "6":
			return errQuit
		default:
			fmt.Fprintln(a.w, "Invalid choice")
		}
	}
}

// readLine は1行読み込む。入力の終端ではerrQuitを返す
func (a *Analyzer) readLine() (string, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(a.scanner.Text()), nil
}

func (a *Analyzer) inputBoard() (domain.Board, error) {
	for {
		fmt.Fprintf(a.w, "Enter board (%d ranks separated by spaces, or 'quit'):\n", a.size*a.size)
		line, err := a.readLine()
		if err != nil {
			return domain.Board{}, err
		}
		if line == "quit" {
			return domain.Board{}, errQuit
		}
		board, err := ParseBoard(strings.Fields(line), a.size)
		if err != nil {
			fmt.Fprintf(a.w, "Error: %v\n", err)
			continue
		}
		return board, nil
	}
}

func (a *Analyzer) applyMoveWithNewTile(board domain.Board, dir domain.Direction) domain.Board {
	next := board.Move(dir)
	if next.Equal(board) {
		fmt.Fprintf(a.w, "%s does not change the board\n", dir)
		return board
	}
	fmt.Fprintf(a.w, "\nApplied %s\n", dir)
	fmt.Fprint(a.w, next)

	fmt.Fprintln(a.w, "\nEmpty cells:")
	for i, cell := range next.EmptyCells() {
		fmt.Fprintf(a.w, "  %d: (%d,%d)\n", i, cell[0], cell[1])
	}

	spawn := a.advisor.Config().SpawnValue
	fmt.Fprintf(a.w, "\nEnter new tile position (row col) and optional rank (default %d): ", spawn)
	line, err := a.readLine()
	if err != nil {
		return board
	}
	parts := strings.Fields(line)
	if len(parts) != 2 && len(parts) != 3 {
		fmt.Fprintln(a.w, "Invalid input. Format: row col [rank]")
		return board
	}

	row, err1 := strconv.Atoi(parts[0])
	col, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || row < 0 || row >= next.Size() || col < 0 || col >= next.Size() {
		fmt.Fprintln(a.w, "Invalid position")
		return board
	}
	if next.Get(row, col) != 0 {
		fmt.Fprintln(a.w, "Cell is not empty")
		return board
	}

	rank := spawn
	if len(parts) == 3 {
		v, err := strconv.Atoi(parts[2])
		if err != nil || v < 1 || v > domain.MaxRank {
			fmt.Fprintf(a.w, "Rank must be 1-%d\n", domain.MaxRank)
			return board
		}
		rank = v
	}

	return next.Set(row, col, rank)
}

func (a *Analyzer) customMoveWithNewTile(board domain.Board) domain.Board {
	fmt.Fprint(a.w, "Enter direction (u/d/l/r): ")
	line, err := a.readLine()
	if err != nil {
		return board
	}
	dir, ok := domain.ParseDirection(line)
	if !ok {
		fmt.Fprintln(a.w, "Invalid direction")
		return board
	}
	return a.applyMoveWithNewTile(board, dir)
}

func (a *Analyzer) changeDepth() {
	current := a.advisor.Config().SearchDepth
	fmt.Fprintf(a.w, "Enter new depth (current: %d): ", current)
	line, err := a.readLine()
	if err != nil {
		return
	}
	depth, err := strconv.Atoi(line)
	if err == nil {
		err = a.advisor.SetSearchDepth(depth)
	}
	if err != nil {
		fmt.Fprintf(a.w, "Invalid depth: %v\n", err)
		return
	}
	a.logger.Info().Int("from", current).Int("to", depth).Msg("search depth changed")
}

func (a *Analyzer) changeSpawn() {
	current := a.advisor.Config().SpawnValue
	fmt.Fprintf(a.w, "Enter new spawn rank (current: %d): ", current)
	line, err := a.readLine()
	if err != nil {
		return
	}
	value, err := strconv.Atoi(line)
	if err == nil {
		err = a.advisor.SetSpawnValue(value)
	}
	if err != nil {
		fmt.Fprintf(a.w, "Invalid spawn rank: %v\n", err)
		return
	}
	a.logger.Info().Int("from", current).Int("to", value).Msg("spawn rank changed")
}
