package httpapi

import "github.com/nnaakkaaii/rankmerge/internal/domain"

// MoveRequest は推奨手の問い合わせ
type MoveRequest struct {
	Board     [][]int `json:"board"`
	Depth     *int    `json:"depth,omitempty"`
	Adaptive  bool    `json:"adaptive,omitempty"`
	TimeoutMS int     `json:"timeout_ms,omitempty"`
}

// MoveResponse は推奨手と各方向の評価値
// 合法でない方向のスコアはnull
type MoveResponse struct {
	Move      *string             `json:"move"`
	Terminal  bool                `json:"terminal"`
	Scores    map[string]*float64 `json:"scores"`
	Depth     int                 `json:"depth"`
	Nodes     int64               `json:"nodes"`
	Truncated bool                `json:"truncated"`
}

// ConfigUpdate は部分的な設定変更。nilのフィールドは変更しない
type ConfigUpdate struct {
	SearchDepth *int `json:"search_depth,omitempty"`
	SpawnValue  *int `json:"spawn_value,omitempty"`
	NodeBudget  *int `json:"node_budget,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// apply は更新を適用した設定を返す。検証は呼び出し側で行う
func (u ConfigUpdate) apply(cfg domain.SearchConfig) domain.SearchConfig {
	if u.SearchDepth != nil {
		cfg.SearchDepth = *u.SearchDepth
	}
	if u.SpawnValue != nil {
		cfg.SpawnValue = *u.SpawnValue
	}
	if u.NodeBudget != nil {
		cfg.NodeBudget = *u.NodeBudget
	}
	return cfg
}

// ToMoveResponse は解析結果をJSON向けに変換する
func ToMoveResponse(a domain.Analysis) MoveResponse {
	resp := MoveResponse{
		Terminal:  a.Terminal,
		Scores:    make(map[string]*float64, 4),
		Depth:     a.Config.SearchDepth,
		Nodes:     a.Nodes,
		Truncated: a.Truncated,
	}
	if a.Best != domain.NoDirection {
		move := a.Best.String()
		resp.Move = &move
	}
	for _, dir := range domain.SearchOrder {
		if score, ok := a.Score(dir); ok {
			resp.Scores[dir.String()] = &score
		} else {
			resp.Scores[dir.String()] = nil
		}
	}
	return resp
}
