package api

import (
	"net/http"
	"time"

	"healthchat-backend/internal/auth"
	"healthchat-backend/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds everything the router needs wired in.
type RouterDependencies struct {
	Verifier             auth.Verifier
	AuthHandler          *handlers.AuthHandler
	ProfileHandler       *handlers.ProfileHandler
	ChatHandler          *handlers.ChatHandlers
	ArticleHandler       *handlers.ArticleHandlers
	AdminHandler         *handlers.AdminHandlers
	IdentityEventHandler *handlers.IdentityEventHandlers
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes (No bearer token required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
	})

	// Identity provider webhook. Public because the provider is not a
	// user; the shared-secret check inside the handler secures it.
	r.Post("/v1/identity-events", deps.IdentityEventHandler.HandleIdentityCreated)

	// --- Authenticated Routes (bearer token required) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(deps.Verifier))

		r.Get("/me", deps.AuthHandler.HandleMe)
		r.Patch("/me", deps.ProfileHandler.HandleUpdateMe)
		r.Post("/me/onboarding", deps.ProfileHandler.HandleOnboarding)

		r.Get("/doctors", deps.ProfileHandler.HandleListDoctors)

		r.Route("/chats", func(r chi.Router) {
			r.Post("/", deps.ChatHandler.HandleCreateSession)
			r.Get("/", deps.ChatHandler.HandleListSessions)
			r.Get("/{sessionID}", deps.ChatHandler.HandleGetSession)
			r.Delete("/{sessionID}", deps.ChatHandler.HandleDeleteSession)
			r.Post("/{sessionID}/archive", deps.ChatHandler.HandleArchiveSession)
			r.Post("/{sessionID}/messages", deps.ChatHandler.HandleAppendMessage)
			r.Get("/{sessionID}/messages", deps.ChatHandler.HandleListMessages)
			r.Get("/{sessionID}/context", deps.ChatHandler.HandleGetContext)
			r.Put("/{sessionID}/context", deps.ChatHandler.HandlePutContext)
		})

		r.Route("/articles", func(r chi.Router) {
			r.Post("/", deps.ArticleHandler.HandleCreateArticle)
			r.Get("/", deps.ArticleHandler.HandleListArticles)
			r.Get("/{articleID}", deps.ArticleHandler.HandleGetArticle)
			r.Put("/{articleID}", deps.ArticleHandler.HandleUpdateArticle)
			r.Delete("/{articleID}", deps.ArticleHandler.HandleDeleteArticle)
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Get("/", deps.AdminHandler.HandleListProfiles)
			r.Get("/{profileID}", deps.AdminHandler.HandleGetProfile)
			r.Patch("/{profileID}/role", deps.AdminHandler.HandleUpdateRole)
			r.Delete("/{profileID}", deps.AdminHandler.HandleDeleteProfile)
		})
	})

	return r
}
