package internal

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"itbuddy-api/internal/auth"
	"itbuddy-api/internal/backend"
	"itbuddy-api/internal/config"
	"itbuddy-api/internal/handlers"
	"itbuddy-api/pkg/importer"
)

type Server struct {
	DB         *sql.DB
	Pool       *pgxpool.Pool
	Router     *chi.Mux
	JWTManager *auth.JWTManager
	Metrics    *Metrics
	Backend    *backend.Client
}

func NewServer(cfg *config.Config) *Server {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to open database connection:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Database ping failed:", err)
	}

	// Also create a pgxpool for the importer's batch path
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to create pgxpool:", err)
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
	if err := jwtManager.ValidateConfig(); err != nil {
		log.Fatal("JWT configuration validation failed:", err)
	}

	s := &Server{
		DB:         db,
		Pool:       pool,
		Router:     chi.NewRouter(),
		JWTManager: jwtManager,
		Metrics:    NewMetrics(),
		Backend:    backend.NewClient(cfg.BackendURL),
	}
	s.mountRoutes()

	return s
}

// mountRoutes registers middleware and the full route tree. Middleware must
// be attached before the first route or chi panics, so the metrics block
// comes first.
func (s *Server) mountRoutes() {
	if os.Getenv("ENABLE_METRICS") == "true" {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	// Public routes (no auth middleware)
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get("/dbping", func(w http.ResponseWriter, r *http.Request) {
		if err := s.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		if _, err := w.Write([]byte("db: ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	// Public auth routes (no JWT required)
	s.Router.Post("/auth/login", s.loginUser)
	s.Router.Post("/auth/signup", s.signupUser)

	// Create a protected route group with middleware
	s.Router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(s.JWTManager))
		r.Use(s.withOwnerSession)

		s.mountProtectedRoutes(r)
	})
}

// Close properly shuts down the server and cleans up resources
func (s *Server) Close(ctx context.Context) error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// withOwnerSession middleware for owner isolation
func (s *Server) withOwnerSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := auth.UserIDFromContext(r.Context())
		conn, ctx2, err := withDBConn(r.Context(), s.DB, ownerID)
		if err != nil {
			http.Error(w, "db acquire: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if conn != nil {
			defer conn.Close()
		}
		next.ServeHTTP(w, r.WithContext(ctx2))
	})
}

// mountProtectedRoutes mounts all protected routes that require authentication
func (s *Server) mountProtectedRoutes(r chi.Router) {
	// Asset inventory
	r.Get("/assets", s.listAssets)
	r.Get("/assets/preview", s.previewAsset)
	r.Get("/assets/{id}", s.getAsset)
	r.Put("/assets/{id}", s.updateAsset)
	r.Delete("/assets/{id}", s.deleteAsset)

	// Spreadsheet import/export
	imp := importer.New(s.Pool)
	imp.SetTracker(s.Backend)
	importsHandler := handlers.NewImportsHandler(s.DB, imp)
	r.Post("/assets/imports/preview", importsHandler.PreviewUpload)
	r.Post("/assets/imports", importsHandler.CommitUpload)
	r.Get("/assets/export", importsHandler.DownloadInventory)

	// Issue tracker
	r.Get("/issues", s.listIncidents)
	r.Post("/issues", s.createIncident)
	r.Get("/issues/{id}", s.getIncident)
	r.Patch("/issues/{id}", s.patchIncident)
	r.Delete("/issues/{id}", s.deleteIncident)
	r.Get("/issues/{id}/updates", s.listIncidentUpdates)
	r.Post("/issues/{id}/updates", s.createIncidentUpdate)

	// Onboarding workflow
	r.Get("/onboarding", s.listOnboarding)
	r.Post("/onboarding", s.createOnboarding)
	r.Patch("/onboarding/{id}", s.patchOnboarding)
	r.Post("/onboarding/approve", s.approveOnboarding)

	// Natural-language queries and AI proxy
	r.Post("/query/tasks", s.queryTasks)
	r.Post("/query/inventory", s.queryInventory)
	r.Post("/ai", s.askBackend)
	r.Post("/track-click", s.trackClick)

	// Self-service routes
	r.Get("/auth/profile", s.getUserProfile)
	r.Put("/auth/profile", s.updateUserProfile)
	r.Put("/auth/change-password", s.changePassword)
}
