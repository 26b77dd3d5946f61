package domain

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewGame(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	game, err := NewGame(rng, 4, 1)
	if err != nil {
		t.Fatal(err)
	}

	b := game.Board()
	if b.CountEmpty() != 14 {
		t.Errorf("expected 2 initial tiles, got %d empty cells", b.CountEmpty())
	}
	if game.Score() != 2 {
		t.Errorf("initial score should be 2, got %d", game.Score())
	}
	if game.Moves() != 0 {
		t.Errorf("initial moves should be 0, got %d", game.Moves())
	}
}

func TestNewGameRejectsBadInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := NewGame(rng, 4, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewGame(rng, 0, 1); !errors.Is(err, ErrMalformedBoard) {
		t.Errorf("expected ErrMalformedBoard, got %v", err)
	}
}

func TestGameMove(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	game := &Game{
		board: NewBoardFromCells([4][4]int{
			{1, 1, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		}),
		spawnValue: 3,
		rng:        rng,
	}

	if game.Move(Up) {
		t.Error("expected no-op move to fail")
	}

	if !game.Move(Left) {
		t.Fatal("expected move to succeed")
	}
	b := game.Board()
	if b.Get(0, 0) != 2 {
		t.Errorf("expected merged rank 2 at top-left, got %d", b.Get(0, 0))
	}
	// マージ後に1つスポーンする
	if b.CountEmpty() != 14 {
		t.Errorf("expected 14 empty cells after spawn, got %d", b.CountEmpty())
	}
	if game.Score() != 5 {
		t.Errorf("expected score 5, got %d", game.Score())
	}
	if game.Moves() != 1 {
		t.Errorf("expected 1 move, got %d", game.Moves())
	}
}

func TestGamePlaysToCompletion(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	game, err := NewGame(rng, 3, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10000 && !game.IsGameOver(); i++ {
		for _, dir := range SearchOrder {
			if game.Move(dir) {
				break
			}
		}
	}
	if !game.IsGameOver() {
		t.Fatal("expected a 3x3 game to end")
	}
}
