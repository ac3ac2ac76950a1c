package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"wheelio-backend/internal/config"
	"wheelio-backend/internal/security"
	"wheelio-backend/internal/service"
	"wheelio-backend/internal/store"
	"wheelio-backend/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services,
// and middleware.
func NewRouter(cfg *config.Config, stores *store.Stores, hub *ws.Hub, broadcaster service.Broadcaster, tokenSvc *security.TokenService, passwordHasher *security.PasswordHasher) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Internal-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	authSvc := service.NewAuthService(stores.Users, tokenSvc, passwordHasher)
	userSvc := service.NewUserService(stores.Users)
	listingSvc := service.NewListingService(stores.Listings)
	notifSvc := service.NewNotificationService(stores.Notifications, stores.Users, broadcaster)
	msgSvc := service.NewMessageService(stores.Messages, stores.Users, stores.Listings, notifSvc, broadcaster)
	convSvc := service.NewConversationService(stores.Messages, stores.Users, stores.Listings)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Wheelio API", "version": "1.0.0"})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
		})

		// Collaborator endpoint guarded by a shared secret, not the user token
		r.Post("/internal/notifications", handleInternalNotify(notifSvc, cfg.InternalAPIToken))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, stores.Users))

			r.Get("/auth/me", handleMe())

			r.Route("/users", func(r chi.Router) {
				r.Get("/{userID}", handleGetUser(userSvc))
			})

			r.Route("/listings", func(r chi.Router) {
				r.Post("/", handleCreateListing(listingSvc))
				r.Get("/{listingID}", handleGetListing(listingSvc))
			})

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", handleSendMessage(msgSvc))
				r.Get("/conversations", handleListConversations(convSvc))
				r.Post("/conversations/start", handleStartConversation(msgSvc))
				r.Get("/conversation", handleConversationMessages(msgSvc))
				r.Get("/unread-count", handleUnreadCount(msgSvc))
				r.Post("/read", handleMarkRead(msgSvc))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", handleListNotifications(notifSvc))
				r.Get("/unread-count", handleNotificationUnreadCount(notifSvc))
				r.Put("/{notificationID}/read", handleMarkNotificationRead(notifSvc))
				r.Put("/read-all", handleMarkAllNotificationsRead(notifSvc))
				r.Delete("/{notificationID}", handleDeleteNotification(notifSvc))
			})
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(hub, tokenSvc, stores.Users, msgSvc, cfg.CORSOrigins))

	return r
}
