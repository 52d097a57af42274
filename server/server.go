package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/recommend"
)

// Server 是推荐服务的 HTTP 边界。
// 单一端点：POST /recommendations。核心算法不感知任何 wire 细节，
// 这里只做参数默认值、错误翻译与请求日志。
type Server struct {
	rec    *recommend.Recommender
	logger *zap.Logger

	// 请求缺省参数
	defaultN              int
	defaultMaxPerCategory int
}

// Options 是 HTTP 边界的可调参数。
type Options struct {
	DefaultN              int // 零值取 5
	DefaultMaxPerCategory int // 零值取 2
}

func New(rec *recommend.Recommender, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultN == 0 {
		opts.DefaultN = 5
	}
	if opts.DefaultMaxPerCategory == 0 {
		opts.DefaultMaxPerCategory = 2
	}
	return &Server{
		rec:                   rec,
		logger:                logger,
		defaultN:              opts.DefaultN,
		defaultMaxPerCategory: opts.DefaultMaxPerCategory,
	}
}

// Handler 返回路由好的 http.Handler。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /recommendations", s.handleRecommendations)
	return mux
}

type recommendationRequest struct {
	UserID         *int `json:"user_id"`
	N              *int `json:"n"`
	MaxPerCategory *int `json:"max_per_category"`
}

type recommendationResponse struct {
	UserID          int     `json:"user_id"`
	Recommendations []int64 `json:"recommendations"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == nil {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	n := s.defaultN
	if req.N != nil {
		n = *req.N
	}
	maxPerCategory := s.defaultMaxPerCategory
	if req.MaxPerCategory != nil {
		maxPerCategory = *req.MaxPerCategory
	}

	ids, err := s.rec.Recommend(r.Context(), *req.UserID, n, maxPerCategory)
	if err != nil {
		s.writeRecommendError(w, *req.UserID, err)
		return
	}

	s.logger.Info("recommendations served",
		zap.Int("user_id", *req.UserID),
		zap.Int("n", n),
		zap.Int("max_per_category", maxPerCategory),
		zap.Int("returned", len(ids)))

	s.writeJSON(w, http.StatusOK, recommendationResponse{
		UserID:          *req.UserID,
		Recommendations: ids,
	})
}

// writeRecommendError 把领域错误翻译为 HTTP 状态：
// 契约违反（未知用户、非法参数）是客户端错误，其余是服务端故障。
func (s *Server) writeRecommendError(w http.ResponseWriter, userID int, err error) {
	switch {
	case core.IsUnknownUser(err), core.IsInvalidInput(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("recommendation failed",
			zap.Int("user_id", userID),
			zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}
