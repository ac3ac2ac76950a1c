package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wheelio-backend/internal/service"
)

// userSummary is the public identity shape: no email, no credentials.
type userSummary struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

func handleGetUser(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "userID")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
			return
		}
		user, err := userSvc.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userSummary{ID: user.ID, DisplayName: user.DisplayName})
	}
}
