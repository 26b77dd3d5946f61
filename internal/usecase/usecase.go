package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"github.com/nnaakkaaii/rankmerge/internal/domain"
)

// PlayGame はCLIでゲームを実行する
// advisorがnilでなければhでヒントを表示する
func PlayGame(ctx context.Context, r io.Reader, w io.Writer, rng *rand.Rand, size, spawnValue int, advisor domain.Advisor) error {
	game, err := domain.NewGame(rng, size, spawnValue)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(r)

	fmt.Fprintln(w, "=== Rank Merge ===")
	if advisor != nil {
		fmt.Fprintln(w, "Controls: w=Up, s=Down, a=Left, d=Right, h=Hint, q=Quit")
	} else {
		fmt.Fprintln(w, "Controls: w=Up, s=Down, a=Left, d=Right, q=Quit")
	}
	fmt.Fprintln(w)

	for {
		fmt.Fprint(w, game.Board())
		fmt.Fprintf(w, "Score: %d\n", game.Score())

		if game.IsGameOver() {
			fmt.Fprintln(w, "Game Over!")
			return nil
		}

		fmt.Fprint(w, "Move: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			// 入力の終端は終了扱い
			return nil
		}

		input = strings.TrimSpace(strings.ToLower(input))
		switch input {
		case "q":
			fmt.Fprintln(w, "Quit.")
			return nil
		case "h":
			if advisor == nil {
				fmt.Fprintln(w, "Hints are disabled.")
				continue
			}
			dir, err := advisor.BestMove(ctx, game.Board())
			if err != nil {
				return fmt.Errorf("hint: %w", err)
			}
			fmt.Fprintf(w, "Hint: %s\n\n", dir)
			continue
		}

		dir, ok := parseKey(input)
		if !ok {
			fmt.Fprintln(w, "Invalid input. Use w/a/s/d or q to quit.")
			continue
		}

		if !game.Move(dir) {
			fmt.Fprintln(w, "Cannot move in that direction.")
		}
		fmt.Fprintln(w)
	}
}

func parseKey(input string) (domain.Direction, bool) {
	switch input {
	case "w":
		return domain.Up, true
	case "s":
		return domain.Down, true
	case "a":
		return domain.Left, true
	case "d":
		return domain.Right, true
	default:
		return domain.NoDirection, false
	}
}

// ParseBoard は空白区切りのランクを行優先で読み込む
func ParseBoard(fields []string, size int) (domain.Board, error) {
	if len(fields) != size*size {
		return domain.Board{}, &domain.BoardError{Row: -1, Reason: fmt.Sprintf("need exactly %d numbers, got %d", size*size, len(fields))}
	}
	rows := make([][]int, size)
	for r := range rows {
		rows[r] = make([]int, size)
		for c := range rows[r] {
			v, err := strconv.Atoi(fields[r*size+c])
			if err != nil {
				return domain.Board{}, &domain.BoardError{Row: r, Col: c, Reason: fmt.Sprintf("not a number: %q", fields[r*size+c])}
			}
			rows[r][c] = v
		}
	}
	return domain.NewBoardFromRows(rows)
}
