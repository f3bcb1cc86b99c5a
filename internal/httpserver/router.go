package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "chatnslate/docs"
	"chatnslate/internal/config"
	"chatnslate/internal/domain"
	"chatnslate/internal/fanout"
	"chatnslate/internal/security"
	"chatnslate/internal/service"
	"chatnslate/internal/store/postgres"
	"chatnslate/internal/store/sqlite"
	"chatnslate/internal/translation"
	"chatnslate/internal/ws"
)

// Repos bundles the repository set for one storage backend.
type Repos struct {
	Profiles      domain.ProfileRepository
	Conversations domain.ConversationRepository
	Participants  domain.ParticipantRepository
	Messages      domain.MessageRepository
	Contacts      domain.ContactRepository
}

// NewPostgresRepos builds the repository set over a PostgreSQL database.
func NewPostgresRepos(db *sql.DB) Repos {
	return Repos{
		Profiles:      postgres.NewProfileRepo(db),
		Conversations: postgres.NewConversationRepo(db),
		Participants:  postgres.NewParticipantRepo(db),
		Messages:      postgres.NewMessageRepo(db),
		Contacts:      postgres.NewContactRepo(db),
	}
}

// NewSQLiteRepos builds the repository set over a SQLite database.
func NewSQLiteRepos(db *sql.DB) Repos {
	return Repos{
		Profiles:      sqlite.NewProfileRepo(db),
		Conversations: sqlite.NewConversationRepo(db),
		Participants:  sqlite.NewParticipantRepo(db),
		Messages:      sqlite.NewMessageRepo(db),
		Contacts:      sqlite.NewContactRepo(db),
	}
}

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(
	cfg *config.Config,
	repos Repos,
	hub *ws.Hub,
	broker *fanout.Broker,
	tokenSvc *security.TokenService,
	passwordHasher *security.PasswordHasher,
	provider translation.Provider,
	translations *translation.CacheManager,
	log zerolog.Logger,
) http.Handler {
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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	authSvc := service.NewAuthService(repos.Profiles, tokenSvc, passwordHasher)
	profileSvc := service.NewProfileService(repos.Profiles)
	contactSvc := service.NewContactService(repos.Contacts, repos.Profiles)
	convSvc := service.NewConversationService(repos.Conversations, repos.Participants, repos.Messages, repos.Profiles, broker, log)
	msgSvc := service.NewMessageService(repos.Conversations, repos.Participants, repos.Messages, repos.Profiles, provider, translations, broker, log)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "ChatNSlate API",
			"version": "1.0.0",
			"docs":    "/docs",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
		})

		// Public language catalog
		r.Get("/languages", handleListLanguages())

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, repos.Profiles))

			r.Post("/auth/logout", handleLogout(authSvc))
			r.Get("/auth/me", handleMe())

			// Users and profile
			r.Get("/users", handleSearchUsers(profileSvc))
			r.Get("/users/{userID}", handleGetUser(profileSvc))
			r.Get("/profile", handleGetProfile())
			r.Put("/profile", handleUpdateProfile(profileSvc))

			// Contacts
			r.Get("/contacts", handleListContacts(contactSvc))
			r.Post("/contacts", handleAddContact(contactSvc))

			// Conversations and messages
			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", handleStartConversation(convSvc))
				r.Get("/", handleListConversations(convSvc))
				r.Get("/{conversationID}", handleGetConversation(convSvc))
				r.Delete("/{conversationID}", handleDeleteConversation(convSvc))
				r.Get("/{conversationID}/participants", handleGetParticipant(convSvc, repos.Participants))
				r.Get("/{conversationID}/counterpart", handleGetCounterpart(convSvc))
				r.Get("/{conversationID}/messages", handleListMessages(msgSvc, cfg.MessageHistoryLimit))
				r.Post("/{conversationID}/messages", handleCreateMessage(msgSvc))
			})

			r.Delete("/messages/{messageID}", handleDeleteMessage(msgSvc))
			r.Post("/messages/{messageID}/translate", handleSaveTranslation(msgSvc))

			// Ad-hoc translation
			r.Post("/translate", handleTranslate(provider, log))
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(hub, tokenSvc, repos.Profiles, repos.Participants, msgSvc, broker, cfg.CORSOrigins, log))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain sentinel errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
