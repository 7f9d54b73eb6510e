package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/leaderboard"
	"github.com/adityaslyf/redcircle-trading/internal/observability"
	"github.com/adityaslyf/redcircle-trading/internal/pool"
	"github.com/adityaslyf/redcircle-trading/internal/registry"
	"github.com/adityaslyf/redcircle-trading/internal/trading"
)

// server holds the HTTP handlers' dependencies.
type server struct {
	trading     *trading.Service
	registry    *registry.Service
	leaderboard *leaderboard.Aggregator
	watcher     *pool.ReserveWatcher

	// watchCtx outlives individual requests; pool subscriptions made
	// from handlers must not die with the request.
	watchCtx context.Context

	logger *zap.Logger
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/posts", s.handleCreatePost)
	mux.HandleFunc("GET /api/posts", s.handleListPosts)
	mux.HandleFunc("GET /api/posts/{id}", s.handleGetPost)
	mux.HandleFunc("POST /api/posts/{id}/pool", s.handleAttachPool)
	mux.HandleFunc("GET /api/posts/{id}/stats", s.handleStats)
	mux.HandleFunc("GET /api/posts/{id}/price-history", s.handlePriceHistory)
	mux.HandleFunc("GET /api/posts/{id}/transactions", s.handlePostTransactions)

	mux.HandleFunc("POST /api/trade/buy", s.handleBuy)
	mux.HandleFunc("POST /api/trade/sell", s.handleSell)
	mux.HandleFunc("POST /api/trade/settle", s.handleSettle)

	mux.HandleFunc("GET /api/users/{id}/portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /api/users/{id}/transactions", s.handleUserTransactions)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	return mux
}

type createPostRequest struct {
	RedditURL     string          `json:"reddit_url"`
	Title         string          `json:"title"`
	Subreddit     string          `json:"subreddit"`
	Author        string          `json:"author"`
	TokenSupply   int64           `json:"token_supply"`
	TokenDecimals int             `json:"token_decimals"`
	InitialPrice  decimal.Decimal `json:"initial_price"`
}

func (s *server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if !s.decode(w, r, &req) {
		return
	}
	post, err := s.registry.Create(r.Context(), registry.CreateRequest{
		RedditURL:     req.RedditURL,
		Title:         req.Title,
		Subreddit:     req.Subreddit,
		Author:        req.Author,
		TokenSupply:   req.TokenSupply,
		TokenDecimals: req.TokenDecimals,
		InitialPrice:  req.InitialPrice,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, post)
}

func (s *server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.registry.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, posts)
}

func (s *server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.registry.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

type attachPoolRequest struct {
	PoolAddress string `json:"pool_address"`
}

func (s *server) handleAttachPool(w http.ResponseWriter, r *http.Request) {
	var req attachPoolRequest
	if !s.decode(w, r, &req) {
		return
	}
	post, err := s.registry.AttachPool(r.Context(), r.PathValue("id"), req.PoolAddress)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.watcher != nil {
		if err := s.watcher.Watch(s.watchCtx, post.PoolAddress); err != nil {
			s.logger.Warn("watch pool failed",
				zap.String("pool", post.PoolAddress),
				zap.Error(err))
		}
	}
	s.writeJSON(w, http.StatusOK, post)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.trading.GetStats(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := parseInt64(q.Get("from"), 0)
	to := parseInt64(q.Get("to"), 0)
	limit := int(parseInt64(q.Get("limit"), 0))

	points, err := s.trading.GetPriceHistory(r.Context(), r.PathValue("id"), from, to, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, points)
}

func (s *server) handlePostTransactions(w http.ResponseWriter, r *http.Request) {
	limit := int(parseInt64(r.URL.Query().Get("limit"), 50))
	txs, err := s.trading.GetPostTransactions(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, txs)
}

type buyRequest struct {
	PostID      string          `json:"post_id"`
	UserID      string          `json:"user_id"`
	Wallet      string          `json:"wallet"`
	AmountSOL   decimal.Decimal `json:"amount_sol"`
	SlippageBps int             `json:"slippage_bps"`
}

func (s *server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.trading.PrepareBuy(r.Context(), trading.PrepareBuyRequest{
		PostID:      req.PostID,
		UserID:      req.UserID,
		Wallet:      req.Wallet,
		AmountSOL:   req.AmountSOL,
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

type sellRequest struct {
	PostID      string `json:"post_id"`
	UserID      string `json:"user_id"`
	Wallet      string `json:"wallet"`
	Amount      int64  `json:"amount"`
	SlippageBps int    `json:"slippage_bps"`
}

func (s *server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.trading.PrepareSell(r.Context(), trading.PrepareSellRequest{
		PostID:      req.PostID,
		UserID:      req.UserID,
		Wallet:      req.Wallet,
		Amount:      req.Amount,
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

type settleRequest struct {
	Signature      string          `json:"signature"`
	UserID         string          `json:"user_id"`
	PostID         string          `json:"post_id"`
	Side           string          `json:"side"`
	Amount         int64           `json:"amount"`
	TotalSOL       decimal.Decimal `json:"total_sol"`
	Wallet         string          `json:"wallet"`
	NetworkFeeSOL  decimal.Decimal `json:"network_fee_sol"`
	PlatformFeeSOL decimal.Decimal `json:"platform_fee_sol"`
}

func (s *server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.trading.Settle(r.Context(), trading.SettleRequest{
		Signature:      req.Signature,
		UserID:         req.UserID,
		PostID:         req.PostID,
		Side:           domain.Side(req.Side),
		Amount:         req.Amount,
		TotalSOL:       req.TotalSOL,
		Wallet:         req.Wallet,
		NetworkFeeSOL:  req.NetworkFeeSOL,
		PlatformFeeSOL: req.PlatformFeeSOL,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.trading.GetPortfolio(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *server) handleUserTransactions(w http.ResponseWriter, r *http.Request) {
	limit := int(parseInt64(r.URL.Query().Get("limit"), 50))
	txs, err := s.trading.GetUserTransactions(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, txs)
}

func (s *server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := int(parseInt64(r.URL.Query().Get("limit"), 0))
	lb, err := s.leaderboard.Compute(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lb)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response failed", zap.Error(err))
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
		s.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, trading.ErrInvalidAmount),
		errors.Is(err, trading.ErrInvalidWallet),
		errors.Is(err, trading.ErrInvalidSignature),
		errors.Is(err, registry.ErrInvalidURL),
		errors.Is(err, registry.ErrInvalidPool):
		return http.StatusBadRequest
	case errors.Is(err, trading.ErrPostNotFound),
		errors.Is(err, registry.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, trading.ErrPoolNotReady),
		errors.Is(err, registry.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, trading.ErrNoPosition),
		errors.Is(err, trading.ErrInsufficientPosition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, trading.ErrUpstream),
		errors.Is(err, trading.ErrStatsUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseInt64(s string, fallback int64) int64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
