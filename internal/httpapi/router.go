package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nnaakkaaii/rankmerge/internal/domain"
	"github.com/nnaakkaaii/rankmerge/internal/usecase"
)

const (
	// maxTimeout はtimeout_msで指定できる上限
	maxTimeout = time.Minute
	// maxRequestDepth はAPIから指定できる探索深さの上限
	maxRequestDepth = 10
)

// Server は探索設定を保持し、盤面ごとの推奨手を返す
type Server struct {
	log      zerolog.Logger
	advisor  usecase.TunableAdvisor
	parallel bool
}

// NewServer はadvisorの設定を共有設定として使うServerを生成する
func NewServer(log zerolog.Logger, advisor usecase.TunableAdvisor, parallel bool) *Server {
	return &Server{log: log, advisor: advisor, parallel: parallel}
}

// NewRouter はAPIのルーティングを組み立てる
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/config", s.handleGetConfig)
	r.Post("/api/config", s.handleSetConfig)
	r.Post("/api/move", s.handleMove)
	r.Get("/ws/advise", s.serveAdviseWS)

	return r
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.advisor.Config())
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var update ConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	if update.SearchDepth != nil {
		if err := checkDepth(*update.SearchDepth); err != nil {
			writeError(w, err)
			return
		}
	}
	next := update.apply(s.advisor.Config())
	// SetConfigは全項目を検証してから反映する
	if err := s.advisor.SetConfig(next); err != nil {
		writeError(w, err)
		return
	}
	cfg := s.advisor.Config()
	zerolog.Ctx(r.Context()).Info().
		Int("depth", cfg.SearchDepth).
		Int("spawn", cfg.SpawnValue).
		Int("budget", cfg.NodeBudget).
		Msg("search config updated")
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	resp, err := s.advise(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// advise はリクエストごとの上書きを反映して探索する
// 共有設定は変更しない
func (s *Server) advise(ctx context.Context, req MoveRequest) (MoveResponse, error) {
	board, err := domain.NewBoardFromRows(req.Board)
	if err != nil {
		return MoveResponse{}, err
	}

	log := zerolog.Ctx(ctx)
	if log.GetLevel() == zerolog.Disabled {
		log = &s.log
	}

	var advisor domain.Advisor = s.advisor
	if req.Depth != nil || req.Adaptive {
		cfg := s.advisor.Config()
		if req.Depth != nil {
			if err := checkDepth(*req.Depth); err != nil {
				return MoveResponse{}, err
			}
			cfg.SearchDepth = *req.Depth
		}
		if req.Adaptive {
			cfg.SearchDepth = domain.AdaptiveDepth(board.CountEmpty())
		}
		advisor, err = usecase.NewAdvisor(cfg, s.parallel, *log)
		if err != nil {
			return MoveResponse{}, err
		}
	}

	if req.TimeoutMS > 0 {
		timeout := min(time.Duration(req.TimeoutMS)*time.Millisecond, maxTimeout)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	a, err := advisor.Analyze(ctx, board)
	if err != nil {
		return MoveResponse{}, err
	}
	log.Debug().
		Str("move", a.Best.String()).
		Int("depth", a.Config.SearchDepth).
		Int64("nodes", a.Nodes).
		Bool("truncated", a.Truncated).
		Msg("move analyzed")
	return ToMoveResponse(a), nil
}

// checkDepth はAPI経由の探索深さが上限以下かを検査する
// 下限はSearchConfigの検証に任せる
func checkDepth(depth int) error {
	if depth > maxRequestDepth {
		return fmt.Errorf("%w: search depth %d exceeds %d", domain.ErrInvalidConfig, depth, maxRequestDepth)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMalformedBoard), errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
