package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/config"
	"hostel-backend/internal/database"
	"hostel-backend/internal/db"
	"hostel-backend/internal/handlers"
	"hostel-backend/internal/health"
	h "hostel-backend/internal/http"
	"hostel-backend/internal/logger"
	"hostel-backend/internal/media"
	"hostel-backend/internal/monitoring"
	"hostel-backend/internal/repositories"
	"hostel-backend/internal/services"
	"hostel-backend/migrations"
	"hostel-backend/templates"

	"github.com/rs/zerolog"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.New(cfg.Env, cfg.Log.Level)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	sqlDB, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	log.Info().Str("driver", sqlDB.Driver()).Str("location", sqlDB.Location()).Msg("database connected")

	if _, err := database.NewMigrator(sqlDB, migrations.All, log).RunMigrations(ctx); err != nil {
		return err
	}

	backend, err := media.NewBackend(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("media storage: %w", err)
	}
	log.Info().Str("backend", backend.Name()).Msg("media storage ready")

	verifier, legacy, err := auth.NewVerifier(cfg.Admin.PasswordHash, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("admin password: %w", err)
	}
	if legacy {
		log.Warn().Msg("ADMIN_PASSWORD is plaintext; run `hostelctl hash-password --write-env` to store a bcrypt hash instead")
	}
	authn := auth.NewAuthenticator(verifier, auth.NewJWTManager(cfg.Security.SessionSecret, cfg.Admin.SessionTTL))

	// Initialize repositories and services
	repo := repositories.NewComplaintRepository(sqlDB)
	complaintService := services.NewComplaintService(repo, backend, services.ComplaintOptions{
		RequireContact: cfg.Submission.RequireContact,
		RequireCode:    cfg.Tracking.RequireCode,
	}, log)
	monitor := monitoring.NewService(cfg.Storage.UploadDir)
	if cfg.Storage.Backend != config.BackendLocal {
		monitor = monitoring.NewService(cfg.DataRoot)
	}
	adminService := services.NewAdminService(repo, backend, sqlDB, monitor, log)

	// Initialize handlers
	flashes := handlers.NewFlashStore(cfg.Security.SessionSecret, cfg.Security.ForceHTTPS)
	render, err := handlers.NewRenderer(templates.FS, flashes, log)
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	checker := health.NewHealthChecker(sqlDB, func(ctx context.Context) error {
		_, err := backend.Exists(ctx, "healthz-probe")
		return err
	})

	router := h.NewRouter(h.RouterConfig{
		ForceHTTPS:               cfg.Security.ForceHTTPS,
		CSRFKey:                  cfg.Security.CSRFKey,
		AllowedOrigins:           cfg.Security.AllowedOrigins,
		LoginRateLimit:           cfg.Security.LoginRateLimit,
		MaxUploadBytes:           cfg.Upload.MaxBytes,
		AllowRemotePasswordCheck: cfg.IsDev(),
	}, h.Handlers{
		Complaints: handlers.NewComplaintHandler(complaintService, render, cfg.Submission.RequireContact, cfg.Upload.MaxBytes),
		Admin:      handlers.NewAdminHandler(adminService, authn, render, cfg.Security.ForceHTTPS),
		Media:      handlers.NewMediaHandler(backend, log),
		Health:     handlers.NewHealthHandler(checker),
		Render:     render,
	}, authn, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
