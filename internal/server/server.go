package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"stockbook/internal/config"
	"stockbook/internal/database"
	custommiddleware "stockbook/internal/middleware"
	"stockbook/internal/service"
	"stockbook/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	svc    service.TrackerService
	db     *sql.DB
	redis  *redis.Client
}

// NewServer wires the tracker service into an HTTP server. db and
// redisClient are optional; the rate limiter only runs with redis.
func NewServer(cfg *config.Config, logger *zap.Logger, svc service.TrackerService, db *sql.DB, redisClient *redis.Client) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		svc:    svc,
		db:     db,
		redis:  redisClient,
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.routes(time.Now),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes(now func() time.Time) http.Handler {
	router := chi.NewRouter()

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.CORSMiddleware(s.config.CORS.AllowedOrigins, s.config.Server.Env == "development"))

	if s.redis != nil && s.config.RateLimit.Requests > 0 {
		router.Use(custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: s.config.RateLimit.Requests,
			Window:            time.Duration(s.config.RateLimit.WindowSeconds) * time.Second,
			KeyPrefix:         s.config.Redis.KeyPrefix,
		}, s.logger))
	}

	router.Get("/api/health", s.health)
	router.Post("/api/sync", s.sync)

	transport.NewCatalogHandler(s.svc, s.logger).RegisterRoutes(router)
	transport.NewDraftHandler(s.svc, s.logger).RegisterRoutes(router)
	transport.NewSalesHandler(s.svc, s.logger).RegisterRoutes(router)
	transport.NewAnalyticsHandler(s.svc, s.logger, now).RegisterRoutes(router)
	transport.NewReportHandler(s.svc, s.logger, now).RegisterRoutes(router)

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"backend": s.config.Store.Backend,
		"dirty":   s.svc.Dirty(),
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbHealth := database.Health(ctx, s.db)
		resp["database"] = dbHealth
		if dbHealth["status"] != "up" {
			resp["status"] = "degraded"
		}
	}

	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			resp["redis"] = "down"
			resp["status"] = "degraded"
		} else {
			resp["redis"] = "up"
		}
	}

	custommiddleware.RespondWithJSON(w, http.StatusOK, resp)
}

// sync retries a failed save
func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Sync(r.Context()); err != nil {
		s.logger.Warn("Manual sync failed", zap.Error(err))
		w.Header().Set(transport.PersistWarningHeader, "true")
		custommiddleware.RespondWithError(w, http.StatusServiceUnavailable, "failed to save state")
		return
	}

	custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.svc.Dirty() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.svc.Sync(ctx); err != nil {
			s.logger.Error("Unsaved changes lost on shutdown", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
