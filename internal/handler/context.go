package handler

import (
	"net/http"

	"github.com/google/uuid"

	"classledger/internal/httputil"
)

// requireUserID extracts the authenticated user ID from the request
// context and checks it is a well-formed UUID. Returns "" after writing
// a response when the check fails.
func requireUserID(w http.ResponseWriter, r *http.Request) string {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return ""
	}
	if _, err := uuid.Parse(userID); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid user ID format")
		return ""
	}
	return userID
}
