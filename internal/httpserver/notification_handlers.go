package httpserver

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wheelio-backend/internal/domain"
	"wheelio-backend/internal/service"
)

func handleListNotifications(notifSvc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		notifs, err := notifSvc.ListForUser(r.Context(), currentUser.ID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if notifs == nil {
			notifs = []*domain.Notification{}
		}
		writeJSON(w, http.StatusOK, notifs)
	}
}

func handleNotificationUnreadCount(notifSvc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		count, err := notifSvc.UnreadCount(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": count})
	}
}

func handleMarkNotificationRead(notifSvc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "notificationID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid notification id"})
			return
		}
		if err := notifSvc.MarkRead(r.Context(), id, currentUser.ID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func handleMarkAllNotificationsRead(notifSvc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		if err := notifSvc.MarkAllRead(r.Context(), currentUser.ID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func handleDeleteNotification(notifSvc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "notificationID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid notification id"})
			return
		}
		if err := notifSvc.Delete(r.Context(), id, currentUser.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type internalNotifyRequest struct {
	UserID    int64  `json:"user_id" validate:"required"`
	Title     string `json:"title" validate:"required,max=200"`
	Message   string `json:"message" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=info success warning error message"`
	RelatedID *int64 `json:"related_id"`
}

// handleInternalNotify lets collaborator workflows (feedback responses,
// moderation outcomes) emit a notification through the same durable-first
// path. Guarded by a shared-secret header, not the user token.
func handleInternalNotify(notifSvc *service.NotificationService, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Internal-Token")), []byte(token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req internalNotifyRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		n, err := notifSvc.Notify(r.Context(), service.NotifyInput{
			UserID:    req.UserID,
			Title:     req.Title,
			Message:   req.Message,
			Type:      domain.NotificationType(req.Type),
			RelatedID: req.RelatedID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, n)
	}
}
