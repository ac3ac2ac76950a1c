package httpserver

import (
	"net/http"

	"wheelio-backend/internal/service"
)

// handleListConversations returns the caller's conversations derived from
// the message log, most recently updated first.
func handleListConversations(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convs, err := convSvc.ListForUser(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, convs)
	}
}
