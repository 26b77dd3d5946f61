package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// MaxSize は扱える盤面の一辺の最大長
	MaxSize = 8
	// MaxRank はこれ以上マージしないランク（K）
	MaxRank = 11
)

// ErrMalformedBoard は盤面の形が不正なときに返る
var ErrMalformedBoard = errors.New("malformed board")

// BoardError は不正な盤面の詳細を持つ
type BoardError struct {
	Row    int
	Col    int
	Reason string
}

func (e *BoardError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s: %s", ErrMalformedBoard, e.Reason)
	}
	return fmt.Sprintf("%s: (%d,%d) %s", ErrMalformedBoard, e.Row, e.Col, e.Reason)
}

func (e *BoardError) Unwrap() error { return ErrMalformedBoard }

// Direction はスワイプの方向を表す
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// NoDirection は合法手が存在しないことを表す
const NoDirection Direction = -1

// SearchOrder は探索で方向を試す順序。同点の場合は先に来た方向が勝つ
var SearchOrder = [4]Direction{Left, Down, Right, Up}

func (d Direction) String() string {
	switch d {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	default:
		return "NONE"
	}
}

// ParseDirection は方向名、頭文字u/d/l/r、またはw/a/sをDirectionに変換する
// dはDownなので、w/a/s/dの右はrightかrで指定する
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u", "w":
		return Up, true
	case "down", "d", "s":
		return Down, true
	case "left", "l", "a":
		return Left, true
	case "right", "r":
		return Right, true
	default:
		return NoDirection, false
	}
}

// Board はN×Nの盤面を表す（immutable）
// セルはランクで、0は空、MaxRankは最大ランク
type Board struct {
	size  int
	cells [MaxSize * MaxSize]uint8
}

// NewBoard は空のBoardを生成する
func NewBoard(size int) (Board, error) {
	if size < 1 || size > MaxSize {
		return Board{}, &BoardError{Row: -1, Reason: fmt.Sprintf("size %d out of range [1,%d]", size, MaxSize)}
	}
	return Board{size: size}, nil
}

// NewBoardFromRows は行のスライスからBoardを生成する
// 正方形でない盤面や負のランクはエラーになる。MaxRankを超えるランクの挙動は未定義
func NewBoardFromRows(rows [][]int) (Board, error) {
	b, err := NewBoard(len(rows))
	if err != nil {
		return Board{}, err
	}
	for r, row := range rows {
		if len(row) != b.size {
			return Board{}, &BoardError{Row: r, Col: len(row), Reason: fmt.Sprintf("row has %d cells, want %d", len(row), b.size)}
		}
		for c, v := range row {
			if v < 0 || v > math.MaxUint8 {
				return Board{}, &BoardError{Row: r, Col: c, Reason: fmt.Sprintf("rank %d out of range", v)}
			}
			b.cells[r*b.size+c] = uint8(v)
		}
	}
	return b, nil
}

// NewBoardFromCells は4x4のセル値を指定してBoardを生成する
// リテラルの盤面向けで、ランクが[0,255]の範囲外ならpanicする
func NewBoardFromCells(cells [4][4]int) Board {
	b := Board{size: 4}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			v := cells[r][c]
			if v < 0 || v > math.MaxUint8 {
				panic(&BoardError{Row: r, Col: c, Reason: fmt.Sprintf("rank %d out of range", v)})
			}
			b.cells[r*4+c] = uint8(v)
		}
	}
	return b
}

// Size は盤面の一辺の長さを返す
func (b Board) Size() int {
	return b.size
}

// Get は指定した位置のランクを取得する
func (b Board) Get(row, col int) int {
	return int(b.cells[row*b.size+col])
}

// Set は指定した位置にランクを設定した新しいBoardを返す
func (b Board) Set(row, col, rank int) Board {
	b.cells[row*b.size+col] = uint8(rank)
	return b
}

// Rows は盤面を行のスライスとして返す
func (b Board) Rows() [][]int {
	rows := make([][]int, b.size)
	for r := range rows {
		rows[r] = make([]int, b.size)
		for c := range rows[r] {
			rows[r][c] = b.Get(r, c)
		}
	}
	return rows
}

// EmptyCells は空のセルの座標一覧を行優先の順で返す
func (b Board) EmptyCells() [][2]int {
	var empty [][2]int
	for i := 0; i < b.size*b.size; i++ {
		if b.cells[i] == 0 {
			empty = append(empty, [2]int{i / b.size, i % b.size})
		}
	}
	return empty
}

// CountEmpty は空のセル数を返す
func (b Board) CountEmpty() int {
	n := 0
	for i := 0; i < b.size*b.size; i++ {
		if b.cells[i] == 0 {
			n++
		}
	}
	return n
}

// MaxTile は盤面上の最大ランクを返す
func (b Board) MaxTile() int {
	m := uint8(0)
	for i := 0; i < b.size*b.size; i++ {
		if b.cells[i] > m {
			m = b.cells[i]
		}
	}
	return int(m)
}

// Sum は全セルのランクの合計を返す
func (b Board) Sum() int {
	s := 0
	for i := 0; i < b.size*b.size; i++ {
		s += int(b.cells[i])
	}
	return s
}

// Move は指定した方向にスワイプした新しい盤面を返す（spawnなし）
// 変化がない場合は元の盤面と等しい盤面が返る
// 不正な方向なら盤面をそのまま返す
func (b Board) Move(dir Direction) Board {
	if dir < Up || dir > Right {
		return b
	}
	n := b.size
	out := Board{size: n}
	var line [MaxSize]uint8

	for i := 0; i < n; i++ {
		// lineの先頭がスワイプ先の端になるように取り出す
		for j := 0; j < n; j++ {
			line[j] = b.cells[index(dir, n, i, j)]
		}
		mergeLine(&line, n)
		for j := 0; j < n; j++ {
			out.cells[index(dir, n, i, j)] = line[j]
		}
	}
	return out
}

// index は方向dirのi番目のラインのj番目のセル位置を返す
func index(dir Direction, n, i, j int) int {
	switch dir {
	case Left:
		return i*n + j
	case Right:
		return i*n + (n - 1 - j)
	case Up:
		return j*n + i
	case Down:
		return (n-1-j)*n + i
	}
	return i*n + j
}

// Spawns は空きマスにrankを配置した全ての盤面を行優先の順で返す
func (b Board) Spawns(rank int) []Board {
	results := make([]Board, 0, b.CountEmpty())
	for i := 0; i < b.size*b.size; i++ {
		if b.cells[i] != 0 {
			continue
		}
		next := b
		next.cells[i] = uint8(rank)
		results = append(results, next)
	}
	return results
}

// mergeLine は先頭n要素を先頭方向に詰めてマージする
// 同じランク同士はランク+1になる。MaxRank以上はマージしない
func mergeLine(line *[MaxSize]uint8, n int) {
	// 0を除去して詰める
	k := 0
	for i := 0; i < n; i++ {
		if line[i] != 0 {
			line[k] = line[i]
			k++
		}
	}

	// 同じ値が隣接していたらマージ
	w := 0
	for i := 0; i < k; i++ {
		v := line[i]
		if i+1 < k && v == line[i+1] && v < MaxRank {
			line[w] = v + 1
			i++ // 次の要素をスキップ
		} else {
			line[w] = v
		}
		w++
	}

	for ; w < n; w++ {
		line[w] = 0
	}
}

// MergeLine は1行/1列を先頭方向にマージした結果を返す
func MergeLine(line []int) []int {
	if len(line) > MaxSize {
		panic(fmt.Sprintf("domain: line length %d exceeds %d", len(line), MaxSize))
	}
	var buf [MaxSize]uint8
	for i, v := range line {
		buf[i] = uint8(v)
	}
	mergeLine(&buf, len(line))
	result := make([]int, len(line))
	for i := range result {
		result[i] = int(buf[i])
	}
	return result
}

// IsTerminal は空きマスがなく、どの方向にもスワイプできないかどうかを返す
func (b Board) IsTerminal() bool {
	if b.CountEmpty() > 0 {
		return false
	}
	for _, dir := range SearchOrder {
		if !b.Move(dir).Equal(b) {
			return false
		}
	}
	return true
}

// Equal は2つのBoardが等しいかどうかを返す
func (b Board) Equal(other Board) bool {
	return b == other
}

// String はBoardをASCIIアートとして表示する
func (b Board) String() string {
	line := "+" + strings.Repeat("----+", b.size)
	var sb strings.Builder
	sb.WriteString(line + "\n")
	for r := 0; r < b.size; r++ {
		sb.WriteString("|")
		for c := 0; c < b.size; c++ {
			if v := b.Get(r, c); v == 0 {
				sb.WriteString("    |")
			} else {
				fmt.Fprintf(&sb, "%3d |", v)
			}
		}
		sb.WriteString("\n" + line + "\n")
	}
	return sb.String()
}
