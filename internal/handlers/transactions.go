package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"wallet/internal/middleware"
	"wallet/internal/services"
	"wallet/internal/validator"

	"github.com/jmoiron/sqlx"
)

type transferRequest struct {
	ReceiverUsername string `json:"receiver_username"`
	Amount           string `json:"amount"`
	Note             string `json:"note"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateUsername(req.ReceiverUsername); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateNote(req.Note); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amountMinor, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}

	sender, err := h.accounts.GetByOwner(r.Context(), userID)
	if err != nil {
		if isNoRows(err) {
			respondError(w, http.StatusNotFound, "sender account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "transfer_failed")
		return
	}
	receiverUser, err := h.users.GetByUsername(r.Context(), req.ReceiverUsername)
	if err != nil {
		if isNoRows(err) {
			respondError(w, http.StatusNotFound, "receiver not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "transfer_failed")
		return
	}
	receiver, err := h.accounts.GetByOwner(r.Context(), valueToString(receiverUser["id"]))
	if err != nil {
		if isNoRows(err) {
			respondError(w, http.StatusNotFound, "receiver account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "transfer_failed")
		return
	}

	txnID, err := h.service.Transfer(r.Context(), services.TransferRequest{
		FromAccountID: sender.ID,
		ToAccountID:   receiver.ID,
		AmountMinor:   amountMinor,
		Note:          req.Note,
	})
	if err != nil {
		h.respondTransferError(w, err)
		return
	}

	_ = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		data, _ := json.Marshal(map[string]string{
			"transaction_id": txnID,
			"to_account_id":  receiver.ID,
		})
		return h.audit.Log(r.Context(), tx, userID, "transfer", "transaction", txnID, string(data))
	})

	respondJSON(w, http.StatusOK, map[string]string{
		"transaction_id": txnID,
		"status":         "success",
	})
}

func (h *Handler) respondTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case errors.Is(err, services.ErrSelfTransfer):
		respondError(w, http.StatusBadRequest, "cannot transfer to yourself")
	case errors.Is(err, services.ErrSenderNotFound):
		respondError(w, http.StatusNotFound, "sender account not found")
	case errors.Is(err, services.ErrReceiverNotFound):
		respondError(w, http.StatusNotFound, "receiver account not found")
	case errors.Is(err, services.ErrAccountFrozen):
		respondError(w, http.StatusForbidden, "account_frozen")
	case errors.Is(err, services.ErrCurrencyMismatch):
		respondError(w, http.StatusBadRequest, "currency_mismatch")
	case errors.Is(err, services.ErrInsufficientFunds):
		respondError(w, http.StatusBadRequest, "insufficient_funds")
	default:
		respondError(w, http.StatusInternalServerError, "transfer_failed")
	}
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
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
	limit, offset := paginationParams(r)
	rows, err := h.transactions.ListByAccount(r.Context(), account.ID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	items := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		direction := "received"
		counterpartyUsername := valueToString(row["from_username"])
		counterpartyName := valueToString(row["from_name"])
		if valueToString(row["from_account_id"]) == account.ID {
			direction = "sent"
			counterpartyUsername = valueToString(row["to_username"])
			counterpartyName = valueToString(row["to_name"])
		}
		items = append(items, map[string]any{
			"id":                    valueToString(row["id"]),
			"direction":             direction,
			"counterparty_username": counterpartyUsername,
			"counterparty_name":     counterpartyName,
			"amount":                valueToMoney(row["amount"]),
			"currency":              valueToString(row["currency"]),
			"status":                valueToString(row["status"]),
			"note":                  valueToString(row["note"]),
			"created_at":            row["created_at"],
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": items,
		"limit":        limit,
		"offset":       offset,
	})
}

func paginationParams(r *http.Request) (int, int) {
	limit := 20
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
