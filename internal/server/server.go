package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/rex/internal/config"
	"github.com/dukerupert/rex/internal/handler"
	"github.com/dukerupert/rex/internal/middleware"
	"github.com/dukerupert/rex/internal/store"
	"github.com/dukerupert/rex/internal/token"
	ws "github.com/dukerupert/rex/internal/websocket"
)

type Server struct {
	cfg          *config.Config
	hub          *ws.Hub
	tokens       *token.Manager
	authH        *handler.AuthHandler
	rewardH      *handler.RewardHandler
	transactionH *handler.TransactionHandler
	categoryH    *handler.CategoryHandler
	exchangeH    *handler.ExchangeHandler
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	tokens := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	dev := !cfg.Production()

	userStore := store.NewUserStore(db)
	rewardStore := store.NewRewardStore(db)
	transactionStore := store.NewTransactionStore(db)
	categoryStore := store.NewCategoryStore(db)
	exchangeStore := store.NewExchangeStore(db)
	redemptionStore := store.NewRedemptionStore(db)

	return &Server{
		cfg:          cfg,
		hub:          hub,
		tokens:       tokens,
		authH:        handler.NewAuthHandler(userStore, tokens, logger.With("component", "auth"), dev),
		rewardH:      handler.NewRewardHandler(rewardStore, categoryStore, hub, logger.With("component", "reward"), dev),
		transactionH: handler.NewTransactionHandler(redemptionStore, transactionStore, hub, logger.With("component", "transaction"), dev),
		categoryH:    handler.NewCategoryHandler(categoryStore, rewardStore, logger.With("component", "category"), dev),
		exchangeH:    handler.NewExchangeHandler(exchangeStore, rewardStore, hub, logger.With("component", "exchange"), dev),
		rateLimiter:  middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
		logger:       logger,
	}
}

// RateLimiter returns the rate limiter for periodic cleanup.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes. Reward reads go through OptionalAuth so the
	// available-to-others filter knows the caller when a token is sent.
	outerMux.Handle("POST /api/auth/register", s.rateLimiter.Middleware(http.HandlerFunc(s.authH.Register)))
	outerMux.Handle("POST /api/auth/login", s.rateLimiter.Middleware(http.HandlerFunc(s.authH.Login)))

	optionalAuth := middleware.OptionalAuth(s.tokens)
	outerMux.Handle("GET /api/rewards", optionalAuth(http.HandlerFunc(s.rewardH.List)))
	outerMux.Handle("GET /api/rewards/{id}", optionalAuth(http.HandlerFunc(s.rewardH.Get)))
	outerMux.HandleFunc("GET /api/categories", s.categoryH.List)
	outerMux.HandleFunc("GET /api/categories/{slug}/rewards", s.categoryH.Rewards)

	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.cfg.AllowedOrigins, s.logger.With("component", "websocket")))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	h := middleware.CORS(s.cfg.AllowedOrigins)(outerMux)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Profile
	mux.HandleFunc("GET /api/auth/profile", s.authH.Profile)
	mux.HandleFunc("PUT /api/auth/profile", s.authH.UpdateProfile)

	// Reward writes
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)

	// Redemption + history
	mux.HandleFunc("POST /api/transactions/redeem/{id}", s.transactionH.Redeem)
	mux.HandleFunc("GET /api/transactions/history", s.transactionH.History)

	// Exchange requests
	mux.HandleFunc("POST /api/exchanges", s.exchangeH.Create)
	mux.HandleFunc("GET /api/exchanges", s.exchangeH.List)
	mux.HandleFunc("POST /api/exchanges/{id}/accept", s.exchangeH.Accept)
	mux.HandleFunc("POST /api/exchanges/{id}/reject", s.exchangeH.Reject)
}
