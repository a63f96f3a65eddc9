package handlers

import (
	"net/http"
	"strings"

	"wallet/internal/auth"
	"wallet/internal/middleware"
	"wallet/internal/money"
	"wallet/internal/websocket"
)

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	account, err := h.accounts.GetByOwner(r.Context(), userID)
	if err != nil {
		if isNoRows(err) {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load account")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account_id": account.ID,
		"balance":    money.FormatMinor(account.Balance),
		"currency":   account.Currency,
		"frozen":     account.Frozen,
	})
}

// WSBalances upgrades the connection and registers it for balance pushes on
// the caller's account. Browsers cannot set an Authorization header on a
// websocket dial, so the token may also arrive as a query parameter.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
