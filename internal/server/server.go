// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardiwira/greenhouse-hub/api"
	"github.com/ardiwira/greenhouse-hub/internal/config"
	"github.com/ardiwira/greenhouse-hub/internal/database"
	"github.com/ardiwira/greenhouse-hub/internal/exporter"
	"github.com/ardiwira/greenhouse-hub/internal/monitoring"
	"github.com/ardiwira/greenhouse-hub/internal/repository/files"
	"github.com/ardiwira/greenhouse-hub/internal/repository/postgres"
	"github.com/ardiwira/greenhouse-hub/internal/scheduler"
	"github.com/ardiwira/greenhouse-hub/internal/statscache"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	db         database.DB
	engine     *exporter.Engine
	scheduler  *scheduler.Scheduler
	stats      *statscache.Cache
	monitoring *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	if err := s.initialize(); err != nil {
		return err
	}

	// Set up lifecycle event handlers
	s.setupEventHandlers()

	// Start the monthly export trigger
	s.scheduler.Start()

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// initialize connects the backing services and wires the export engine.
func (s *Server) initialize() error {
	db, err := database.NewPostgresDB(s.config.Database)
	if err != nil {
		return err
	}
	s.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	readings, err := postgres.NewReadingRepository(db)
	if err != nil {
		return err
	}
	registry, err := postgres.NewExportFileRepository(db)
	if err != nil {
		return err
	}
	store, err := files.NewStore(s.config.Storage.BasePath)
	if err != nil {
		return err
	}

	s.engine = exporter.NewEngine(readings, registry, store, s.config.Export.MonthlyDir)
	s.scheduler = scheduler.New(s.engine, s.config.Export.ScheduleDay, s.config.Export.ScheduleHour)
	s.monitoring = monitoring.NewService(monitoring.Config{})

	// The stats cache is an optimization; run without it if Redis is down.
	stats, err := statscache.New(s.config.Redis)
	if err != nil {
		nuts.L.Warnf("[Server] Stats cache unavailable, continuing without it: %v", err)
	} else {
		s.stats = stats
	}

	router := api.NewRouter(s.engine, s.stats, s.config.Server.AllowedOrigins)
	router.SetHealthCheck(s.handleHealth())

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}
	return nil
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	s.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	if s.stats != nil {
		if err := s.stats.Close(); err != nil {
			nuts.L.Warnf("[Server] Error closing stats cache: %v", err)
		}
	}
	if err := s.db.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing database: %v", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

func (s *Server) setupEventHandlers() {
	// Handle archive events
	s.engine.OnEvent("file.archived", func(id string) {
		nuts.L.Infof("[Lifecycle] Export file %s archived", id)
		s.monitoring.RecordEvent("export_archived", map[string]string{
			"file_id": id,
		})
	})

	// Handle download events
	s.engine.OnEvent("file.downloaded", func(id string) {
		s.monitoring.RecordEvent("export_downloaded", map[string]string{
			"file_id": id,
		})
	})

	// Handle deletion events
	s.engine.OnEvent("file.deleted", func(id string) {
		nuts.L.Infof("[Lifecycle] Export file %s and its registry row deleted", id)
		s.monitoring.RecordEvent("export_deletion", map[string]string{
			"file_id": id,
		})
	})
}
