package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wheelio-backend/internal/service"
)

type listingCreateRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Price int64  `json:"price" validate:"min=0"`
}

func handleCreateListing(listingSvc *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req listingCreateRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		listing, err := listingSvc.Create(r.Context(), currentUser.ID, service.ListingCreateInput{
			Title: req.Title,
			Price: req.Price,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, listing)
	}
}

func handleGetListing(listingSvc *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "listingID")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing id"})
			return
		}
		listing, err := listingSvc.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	}
}
