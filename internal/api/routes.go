// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store      storage.Store
	SessionMgr SessionManager
	Processor  Processor
	Vouchers   VoucherRenderer
	Archives   ArchiveRenderer
	Allowed    []string // accepted upload extensions
	Logger     *zap.Logger
	Version    string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Session  SessionHandler
	Document DocumentHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.SessionMgr),
		Session:  NewSessionHandler(deps.Store, deps.SessionMgr, deps.Processor, deps.Allowed, log),
		Document: NewDocumentHandler(deps.SessionMgr, deps.Vouchers, deps.Archives, log),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Session routes
	sessions := apiGroup.Group("/sessions")
	sessions.POST("", handlers.Session.HandleCreateSession)
	sessions.GET("/:id", handlers.Session.HandleGetSession)
	sessions.DELETE("/:id", handlers.Session.HandleDeleteSession)
	sessions.PUT("/:id/file", handlers.Session.HandleReplaceFile)
	sessions.PUT("/:id/selection", handlers.Session.HandleSelectEmployee)
	sessions.GET("/:id/records", handlers.Session.HandleGetRecords)
	sessions.GET("/:id/records/msgpack", handlers.Session.HandleGetRecordsMsgpack)
	sessions.POST("/:id/keepalive", handlers.Session.HandleSessionKeepAlive)

	// Document routes
	sessions.GET("/:id/document", handlers.Document.HandleGetDocument)
	sessions.GET("/:id/archive", handlers.Document.HandleGetArchive)
}

// MiddlewareConfig selects the optional middleware.
type MiddlewareConfig struct {
	RequestLogging   bool
	Timeout          time.Duration
	Compression      bool
	CompressionLevel int
	BodyLimit        string
	AllowOrigins     []string // empty disables CORS
	Debug            bool
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.HTTPErrorHandler = NewErrorHandler(logger, cfg.Debug)

	if cfg.RequestLogging {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/api/health" || strings.HasSuffix(path, "/keepalive")
			},
			LogURI:     true,
			LogMethod:  true,
			LogStatus:  true,
			LogLatency: true,
			LogError:   true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				fields := []zap.Field{
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status),
					zap.Duration("latency", v.Latency),
				}
				if v.Error != nil {
					fields = append(fields, zap.Error(v.Error))
				}
				logger.Info("request", fields...)
				return nil
			},
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("recovered from panic",
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
				zap.ByteString("stack", stack))
			return err
		},
	}))

	if cfg.Timeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: cfg.Timeout,
			Skipper: func(c echo.Context) bool {
				// uploads and archives may legitimately run long
				return c.Request().Method != http.MethodGet || strings.HasSuffix(c.Request().URL.Path, "/archive")
			},
			ErrorMessage: "Request timeout",
		}))
	}

	if cfg.Compression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return strings.HasSuffix(path, "/document") || strings.HasSuffix(path, "/archive")
			},
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if len(cfg.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  cfg.AllowOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{echo.HeaderContentDisposition, HeaderSkippedEmployees},
		}))
	}
}
