package httpserver

import (
	"net/http"
	"strconv"

	"wheelio-backend/internal/service"
)

type sendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required,max=5000"`
	ListingID  *int64 `json:"listing_id"`
}

type startConversationRequest struct {
	ListingID      int64  `json:"listing_id" validate:"required"`
	ReceiverID     *int64 `json:"receiver_id"`
	InitialMessage string `json:"initial_message" validate:"max=5000"`
}

type markReadRequest struct {
	CounterpartID int64  `json:"counterpart_id" validate:"required"`
	ListingID     *int64 `json:"listing_id"`
}

func handleSendMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req sendMessageRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		msg, err := msgSvc.Send(r.Context(), currentUser.ID, service.SendInput{
			ReceiverID: req.ReceiverID,
			Content:    req.Content,
			ListingID:  req.ListingID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func handleStartConversation(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req startConversationRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		msg, err := msgSvc.StartConversation(r.Context(), currentUser.ID, service.StartConversationInput{
			ListingID:      req.ListingID,
			ReceiverID:     req.ReceiverID,
			InitialMessage: req.InitialMessage,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

// handleConversationMessages returns the scope's messages in chronological
// order; fetching marks the counterpart's unread messages read.
func handleConversationMessages(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		counterpartID, err := strconv.ParseInt(r.URL.Query().Get("counterpart_id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid counterpart_id"})
			return
		}
		listingID, ok := parseOptionalID(r.URL.Query().Get("listing_id"))
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing_id"})
			return
		}

		msgs, err := msgSvc.ListConversationMessages(r.Context(), currentUser.ID, counterpartID, listingID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func handleUnreadCount(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		count, err := msgSvc.UnreadCount(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": count})
	}
}

func handleMarkRead(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req markReadRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		if err := msgSvc.MarkRead(r.Context(), currentUser.ID, req.CounterpartID, req.ListingID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

// parseOptionalID parses an optional numeric query parameter; empty means
// absent (the "general" scope).
func parseOptionalID(raw string) (*int64, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &id, true
}
