package domain

import "math/rand"

// Game はシミュレーション用のゲームの状態を管理する
// 実際の画面の代わりに盤面を供給する
type Game struct {
	board      Board
	spawnValue int
	moves      int
	rng        *rand.Rand
}

// NewGame は新しいゲームを開始する
func NewGame(rng *rand.Rand, size, spawnValue int) (*Game, error) {
	if err := validateSpawn(spawnValue); err != nil {
		return nil, err
	}
	board, err := NewBoard(size)
	if err != nil {
		return nil, err
	}
	g := &Game{
		board:      board,
		spawnValue: spawnValue,
		rng:        rng,
	}
	// 初期配置として2つのタイルを配置
	g.spawnTile()
	g.spawnTile()
	return g, nil
}

// Board は現在の盤面を返す
func (g *Game) Board() Board {
	return g.board
}

// Score は盤面上のランクの合計を返す
func (g *Game) Score() int {
	return g.board.Sum()
}

// Moves はこれまでに成功した手数を返す
func (g *Game) Moves() int {
	return g.moves
}

// IsGameOver はゲームオーバーかどうかを返す
func (g *Game) IsGameOver() bool {
	return g.board.IsTerminal()
}

// Move は指定した方向にスワイプを実行する
// 盤面が変化した場合はtrueを返す
func (g *Game) Move(dir Direction) bool {
	next := g.board.Move(dir)
	if next.Equal(g.board) {
		return false
	}
	g.board = next
	g.moves++
	g.spawnTile()
	return true
}

// spawnTile は空きマスにランダムにタイルを配置する
func (g *Game) spawnTile() {
	empty := g.board.EmptyCells()
	if len(empty) == 0 {
		return
	}
	pos := empty[g.rng.Intn(len(empty))]
	g.board = g.board.Set(pos[0], pos[1], g.spawnValue)
}
