package handlers

import (
	"net/http"

	"wallet/internal/validator"

	"github.com/go-chi/chi/v5"
)

// GetUserByUsername lets a sender confirm a recipient before transferring.
// It returns only public profile fields.
func (h *Handler) GetUserByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := validator.ValidateUsername(username); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		if isNoRows(err) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":         valueToString(user["id"]),
		"first_name": valueToString(user["first_name"]),
		"last_name":  valueToString(user["last_name"]),
		"username":   valueToString(user["username"]),
	})
}
