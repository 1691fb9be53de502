package router

import (
	"fmt"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/auth"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/config"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/logger"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/dto"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/handler"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by New
type Handlers struct {
	Quotes    *handler.QuoteHandler
	Invoices  *handler.InvoiceHandler
	Recurring *handler.RecurringHandler
	System    *handler.SystemHandler
}

// Options configures the HTTP engine
type Options struct {
	ServiceName      string
	HTTP             config.HTTPConfig
	TracingEnabled   bool
	ProfilingEnabled bool
	// AllowUserHeader accepts X-User-ID in place of a bearer token. Never enabled in production.
	AllowUserHeader bool
	Idempotency     shared.IdempotencyConfig
}

// Dependencies is everything New needs to build the engine
type Dependencies struct {
	Options          Options
	Logger           *zap.Logger
	JWT              *auth.JWTService
	IdempotencyStore shared.IdempotencyStore
	// Meter enables request metrics when set
	Meter    metric.Meter
	Handlers Handlers
}

// New builds the gin engine: global middleware, health endpoints and the /api/v1 routes
func New(deps Dependencies) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	opts := deps.Options
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORS(middleware.CORSConfigFrom(opts.HTTP)),
		middleware.BodyLimit(opts.HTTP.MaxBodySize),
		middleware.Tracing(middleware.TracingConfig{ServiceName: opts.ServiceName, Enabled: opts.TracingEnabled}),
	)
	if deps.Meter != nil {
		httpMetrics, err := middleware.HTTPMetrics(deps.Meter)
		if err != nil {
			return nil, fmt.Errorf("http metrics: %w", err)
		}
		engine.Use(httpMetrics)
	}
	engine.Use(middleware.Profiling(opts.ProfilingEnabled))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeRouteNotFound),
			dto.NewErrorResponse(dto.ErrCodeRouteNotFound, "Route not found", c.GetString(logger.RequestIDContextKey)))
	})

	h := deps.Handlers
	if h.System != nil {
		engine.GET("/health", h.System.Ready)
		engine.GET("/health/live", h.System.Live)
		engine.GET("/health/ready", h.System.Ready)
	}

	idempotent := middleware.Idempotency(deps.IdempotencyStore, opts.Idempotency, log)

	api := NewAPI(engine, "v1").Use(
		middleware.Auth(middleware.AuthConfig{
			JWTService:      deps.JWT,
			AllowUserHeader: opts.AllowUserHeader,
			SkipPaths:       []string{"/api/v1/system/info"},
			Logger:          log,
		}),
		middleware.SpanEnricher(),
	)

	if h.System != nil {
		api.Add(NewResource("/system").GET("/info", h.System.Info))
	}
	if h.Quotes != nil {
		api.Add(quoteRoutes(h.Quotes, idempotent))
	}
	if h.Invoices != nil {
		api.Add(invoiceRoutes(h.Invoices, idempotent))
	}
	if h.Recurring != nil {
		api.Add(recurringRoutes(h.Recurring, idempotent))
	}
	api.Build()

	return engine, nil
}

func quoteRoutes(h *handler.QuoteHandler, idempotent gin.HandlerFunc) *Resource {
	return NewResource("/quotes").
		POST("", idempotent, h.Create).
		GET("", h.List).
		GET("/summary", h.Summary).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		PATCH("/:id/status", h.UpdateStatus).
		POST("/:id/send", h.Send).
		POST("/:id/duplicate", idempotent, h.Duplicate).
		POST("/:id/convert", idempotent, h.Convert).
		GET("/:id/pdf", h.PDF).
		DELETE("/:id", h.Delete)
}

func invoiceRoutes(h *handler.InvoiceHandler, idempotent gin.HandlerFunc) *Resource {
	return NewResource("/invoices").
		POST("", idempotent, h.Create).
		GET("", h.List).
		GET("/summary", h.Summary).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		PATCH("/:id/status", h.UpdateStatus).
		POST("/:id/send", h.Send).
		POST("/:id/viewed", h.MarkViewed).
		POST("/:id/repair-balance", h.RepairBalance).
		GET("/:id/pdf", h.PDF).
		DELETE("/:id", h.Delete).
		GET("/:id/payments", h.ListPayments).
		POST("/:id/payments", idempotent, h.RecordPayment).
		DELETE("/:id/payments/:paymentId", h.DeletePayment)
}

func recurringRoutes(h *handler.RecurringHandler, idempotent gin.HandlerFunc) *Resource {
	return NewResource("/recurring-schedules").
		POST("", idempotent, h.Create).
		GET("", h.List).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		POST("/:id/pause", h.Pause).
		POST("/:id/resume", h.Resume).
		POST("/:id/run", idempotent, h.RunNow).
		DELETE("/:id", h.Delete)
}
