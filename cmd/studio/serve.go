package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/insight-studio/backend/internal/animate"
	"github.com/insight-studio/backend/internal/api"
	"github.com/insight-studio/backend/internal/config"
	"github.com/insight-studio/backend/internal/profile"
	"github.com/insight-studio/backend/internal/raster"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/storage"
	"github.com/insight-studio/backend/internal/video"
	"github.com/insight-studio/backend/internal/web"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server (default)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, cfgPath, logger, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	embeddedMode := web.HasEmbeddedFiles()

	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadsDirectory, cfg.AllowedExtensions()...)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	sessionMgr := session.NewManager(cfg.Processing.MaxSessions, logger)
	profileCache := profile.NewCache(logger)

	secret := cfg.Security.SessionSecret
	if secret == "" {
		logger.Warn("Security.SessionSecret is empty; sessions will not survive a restart")
		secret = uuid.NewString() + uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handlers := api.NewHandlers(&api.Dependencies{
		Store:       fileStore,
		SessionMgr:  sessionMgr,
		CookieStore: api.NewCookieStore(secret, cfg.Security.SecureCookies, api.CookieMaxAge(cfg.SessionTimeout())),
		Insights:    newInsightService(ctx, cfg, logger),
		Profiler: &profile.Profiler{
			Threads:     cfg.Advanced.DuckDBThreads,
			MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
			Logger:      logger,
		},
		ProfileCache: profileCache,
		Generator:    animate.NewGenerator(logger),
		Encoder:      newEncoder(cfg, logger),
		Config:       cfg,
		Logger:       logger,
		Version:      Version,
	})

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, Version == "dev")
	setupMiddleware(e, cfg, embeddedMode)
	api.RegisterRoutes(e, handlers)

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", "error", err)
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cmd, cfg, cfgPath, embeddedMode)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		runJanitor(gctx, cfg, sessionMgr, fileStore, profileCache, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newEncoder(cfg *config.AppConfig, logger *slog.Logger) *video.Encoder {
	return video.NewEncoder(
		raster.New(cfg.Rendering.Width, cfg.Rendering.Height),
		video.FFmpeg(cfg.Rendering.FFmpegPath),
		cfg.Storage.TempDirectory,
		logger,
	)
}

func setupMiddleware(e *echo.Echo, cfg *config.AppConfig, embeddedMode bool) {
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			// Video exports run for as long as the write timeout allows
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/video") || strings.HasPrefix(path, "/api/animations")
		},
		ErrorMessage: "Request timeout - rendering took too long",
	}))

	// Compression middleware
	if cfg.Processing.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Processing.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return c.QueryParam("download") == "1"
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if !cfg.Server.EnableCORS {
		return
	}
	methods := []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	if embeddedMode {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 1 && origins[0] == "" {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     origins,
			AllowMethods:     methods,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			AllowCredentials: origins[0] != "*",
		}))
		return
	}
	// Development mode - only allow localhost
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{
			"http://localhost:5173", "http://127.0.0.1:5173",
			"http://localhost:3000", "http://127.0.0.1:3000",
		},
		AllowMethods:     methods,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))
}

// runJanitor periodically drops idle sessions, expired uploads and profile
// reports whose file is gone.
func runJanitor(ctx context.Context, cfg *config.AppConfig, sessions *session.Manager, store storage.Store, cache *profile.Cache, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.CleanupInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(cfg, sessions, store, cache, logger)
		}
	}
}

func sweep(cfg *config.AppConfig, sessions *session.Manager, store storage.Store, cache *profile.Cache, logger *slog.Logger) {
	expired := sessions.CleanupOldSessions(cfg.SessionTimeout())

	pruned, err := store.Prune(cfg.UploadRetention())
	if err != nil {
		logger.Warn("pruning uploads failed", "error", err)
	}

	files, err := store.List(0)
	if err != nil {
		logger.Warn("listing uploads failed", "error", err)
		return
	}
	live := make([]string, len(files))
	for i, f := range files {
		live[i] = f.ID
	}
	dropped := cache.CleanupOrphaned(live)

	if expired+pruned+dropped > 0 {
		logger.Info("cleanup complete", "sessions", expired, "uploads", pruned, "reports", dropped)
	}
}

func printBanner(cmd *cobra.Command, cfg *config.AppConfig, cfgPath string, embeddedMode bool) {
	mode := "Development"
	if embeddedMode {
		mode = "Embedded frontend"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(out, "║           Insight Studio Server                           ║\n")
	fmt.Fprintf(out, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(out, "║  Version:    %-45s║\n", Version)
	fmt.Fprintf(out, "║  Build Time: %-45s║\n", BuildTime)
	fmt.Fprintf(out, "║  Mode:       %-45s║\n", mode)
	fmt.Fprintf(out, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(out, "║  Config:    %-46s║\n", cfgPath)
	fmt.Fprintf(out, "║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Fprintf(out, "║  Data Dir:  %-46s║\n", cfg.Storage.DataDirectory)
	fmt.Fprintf(out, "╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Fprintf(out, "\n")

	if embeddedMode {
		fmt.Fprintf(out, "Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}
}
