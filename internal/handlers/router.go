package handlers

import (
	"net/http"

	"wallet/internal/config"
	"wallet/internal/db"
	"wallet/internal/middleware"
	"wallet/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	users        UserStore
	accounts     AccountStore
	transactions TransactionStore
	audit        AuditStore
	service      TransferService
	hub          *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, accounts AccountStore, transactions TransactionStore, audit AuditStore, service TransferService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:     txRunner,
		cfg:          cfg,
		users:        users,
		accounts:     accounts,
		transactions: transactions,
		audit:        audit,
		service:      service,
		hub:          hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Route("/user", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/signin", h.Signin)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Put("/me", h.UpdateMe)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/username/{username}", h.GetUserByUsername)
	})
	router.Route("/account", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/balance", h.GetBalance)
		r.Get("/transactions", h.ListTransactions)
		r.Post("/transfer", h.Transfer)
	})
	router.Get("/ws/balances", h.WSBalances)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
