package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/api/handlers"
	"github.com/medscanlabs/mediscan/internal/config"
	"github.com/medscanlabs/mediscan/internal/core/analysis_engine"
	"github.com/medscanlabs/mediscan/internal/services"
)

// Server wraps the HTTP server instance and its routes.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, reports *services.ReportService, dashboards *services.DashboardService, analyzer *analysis_engine.AnalysisEngine, logger *zap.Logger) *Server {
	reportHandler := handlers.NewReportHandler(reports, analyzer, logger)
	dashboardHandler := handlers.NewDashboardHandler(dashboards, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/reports", func(rr chi.Router) {
			rr.Post("/upload", reportHandler.Upload)
			rr.Get("/", reportHandler.List)
			rr.Get("/{id}", reportHandler.Get)
			rr.Get("/{id}/status", reportHandler.Status)
			rr.Post("/{id}/analyze", reportHandler.Analyze)
			rr.Delete("/{id}", reportHandler.Delete)
		})
		api.Route("/dashboards", func(dr chi.Router) {
			dr.Post("/", dashboardHandler.Create)
			dr.Get("/{report_id}", dashboardHandler.GetByReport)
		})
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{httpServer: httpSrv, logger: logger}
}

// Start runs the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
