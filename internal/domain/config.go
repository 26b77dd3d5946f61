package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig は探索設定が範囲外のときに返る
var ErrInvalidConfig = errors.New("invalid search config")

// SearchConfig は探索の設定
type SearchConfig struct {
	SearchDepth int `json:"search_depth"`
	SpawnValue  int `json:"spawn_value"`
	// NodeBudget は1回の探索で展開するノード数の上限。0なら無制限
	NodeBudget int `json:"node_budget"`
}

// DefaultSearchConfig はデフォルトの設定を返す
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		SearchDepth: 5,
		SpawnValue:  1,
	}
}

// Validate は設定値が範囲内かどうかを検査する
func (c SearchConfig) Validate() error {
	if err := validateDepth(c.SearchDepth); err != nil {
		return err
	}
	if err := validateSpawn(c.SpawnValue); err != nil {
		return err
	}
	if c.NodeBudget < 0 {
		return fmt.Errorf("%w: node budget %d must not be negative", ErrInvalidConfig, c.NodeBudget)
	}
	return nil
}

func validateDepth(depth int) error {
	if depth < 1 {
		return fmt.Errorf("%w: search depth %d must be positive", ErrInvalidConfig, depth)
	}
	return nil
}

func validateSpawn(value int) error {
	if value < 1 || value > MaxRank {
		return fmt.Errorf("%w: spawn value %d out of range [1,%d]", ErrInvalidConfig, value, MaxRank)
	}
	return nil
}

// AdaptiveDepth は空きマス数に応じた探索深さを返す
// 盤面が埋まるほど分岐が減るので深く読む
func AdaptiveDepth(empty int) int {
	switch {
	case empty < 1:
		return 10
	case empty < 2:
		return 9
	case empty < 3:
		return 8
	case empty < 4:
		return 7
	case empty < 5:
		return 6
	default:
		return 5
	}
}
