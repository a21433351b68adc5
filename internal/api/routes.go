// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/animate"
	"github.com/insight-studio/backend/internal/config"
	"github.com/insight-studio/backend/internal/insight"
	"github.com/insight-studio/backend/internal/profile"
	"github.com/insight-studio/backend/internal/raster"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/slides"
	"github.com/insight-studio/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store        storage.Store
	SessionMgr   *session.Manager
	CookieStore  sessions.Store
	Insights     *insight.Service
	Profiler     *profile.Profiler
	ProfileCache *profile.Cache
	Generator    *animate.Generator
	Encoder      VideoEncoder
	Config       *config.AppConfig
	Logger       *slog.Logger
	Version      string
}

// Handlers holds all handler instances
type Handlers struct {
	Health       HealthHandler
	Dataset      DatasetHandler
	Session      SessionHandler
	Chart        ChartHandler
	Insight      InsightHandler
	Profile      ProfileHandler
	Animation    AnimationHandler
	Presentation PresentationHandler

	sessionMiddleware echo.MiddlewareFunc
	jobs              *insightJobs
	allowDeletion     bool
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jobs := &insightJobs{
		sessions: deps.SessionMgr,
		service:  deps.Insights,
		timeout:  cfg.LLMTimeout(),
		logger:   logger,
	}
	rasterizer := raster.New(cfg.Rendering.Width, cfg.Rendering.Height)
	builder := slides.NewBuilder(cfg.Rendering.SlideWidth, cfg.Rendering.SlideHeight, logger)

	return &Handlers{
		Health:       NewHealthHandler(deps.Version, deps.SessionMgr, jobs),
		Dataset:      NewDatasetHandler(deps.Store, deps.SessionMgr, deps.ProfileCache, jobs, cfg.Processing.PreviewRows, cfg.LLM.InsightsOnUpload, logger),
		Session:      NewSessionHandler(deps.SessionMgr),
		Chart:        NewChartHandler(deps.SessionMgr, jobs, rasterizer),
		Insight:      NewInsightHandler(deps.SessionMgr, jobs),
		Profile:      NewProfileHandler(deps.Store, deps.SessionMgr, deps.Profiler, deps.ProfileCache, cfg.Storage.TempDirectory),
		Animation:    NewAnimationHandler(deps.SessionMgr, deps.Generator, deps.Encoder, cfg.Rendering),
		Presentation: NewPresentationHandler(deps.SessionMgr, builder, rasterizer, deps.Encoder, float64(cfg.Rendering.SecondsPerSlide)),

		sessionMiddleware: SessionMiddleware(deps.CookieStore, deps.SessionMgr),
		jobs:              jobs,
		allowDeletion:     cfg.Security.AllowFileDeletion,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check, outside the session
	e.GET("/api/health", handlers.Health.HandleHealth)

	api := e.Group("/api", handlers.sessionMiddleware)

	// Session routes
	api.GET("/session", handlers.Session.HandleGetSession)
	api.PUT("/session/view", handlers.Session.HandleSetView)

	// Dataset routes
	api.POST("/dataset", handlers.Dataset.HandleUploadDataset)
	api.POST("/dataset/text", handlers.Dataset.HandleDatasetFromText)
	api.GET("/dataset", handlers.Dataset.HandleGetDataset)
	api.GET("/dataset/preview", handlers.Dataset.HandlePreviewDataset)
	if handlers.allowDeletion {
		api.DELETE("/dataset", handlers.Dataset.HandleDeleteDataset)
	}

	// Chart routes
	api.GET("/charts/columns", handlers.Chart.HandleCompatibleColumns)
	api.POST("/charts/render", handlers.Chart.HandleRenderChart)
	api.POST("/charts/suggest", handlers.Chart.HandleSuggestChart)

	// Insight routes
	api.GET("/insights", handlers.Insight.HandleGetInsights)
	api.POST("/insights/refresh", handlers.Insight.HandleRefreshInsights)

	// Profiling report
	api.GET("/profile", handlers.Profile.HandleGetProfile)

	// Animation export
	api.POST("/animations", handlers.Animation.HandleCreateAnimation)

	// Presentation routes
	api.GET("/presentation/deck", handlers.Presentation.HandleGetDeck)
	api.PUT("/presentation/deck", handlers.Presentation.HandlePutDeck)
	api.POST("/presentation/slides", handlers.Presentation.HandleBuildSlides)
	api.POST("/presentation/video", handlers.Presentation.HandlePresentationVideo)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, showErrorDetails bool) {
	ShowErrorDetails = showErrorDetails
	e.HTTPErrorHandler = ErrorHandler
}

// CookieMaxAge converts the session timeout to a cookie lifetime.
func CookieMaxAge(timeout time.Duration) int {
	return int(timeout / time.Second)
}
