package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"resumemind-api/internal/services/health"
	"resumemind-api/internal/shared/config"
	"resumemind-api/internal/shared/metrics"
	"resumemind-api/internal/shared/server/middleware"
	"resumemind-api/internal/shared/server/respond"
)

// ServiceName labels traces and logs.
const ServiceName = "resumemind-api"

// RateGroupAI is the rate-limit group of every LLM-backed endpoint.
const RateGroupAI = "AI"

// Routes is implemented by every feature handler.
type Routes interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries everything NewRouter wires.
type RouterDeps struct {
	Config   config.Config
	Auth     middleware.AuthOptions
	Limiter  middleware.Limiter
	Metrics  *metrics.Prom
	Gatherer prometheus.Gatherer
	Health   *health.Service
	// API handlers mounted under /api/v1 behind the session middleware.
	API []Routes
	// Public registers routes that authenticate themselves, such as the
	// signed print page and the payment webhook.
	Public func(r *gin.Engine, api *gin.RouterGroup)
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logging(),
		deps.Metrics.GinHandleMiddleware(),
	)
	if deps.Config.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware(ServiceName))
	}
	r.Use(middleware.CORS(deps.Config.CORSAllowOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		respond.OK(c, gin.H{"ok": true})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		ok, checks := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ok": ok, "checks": checks})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", metrics.Handler(deps.Gatherer))
	}

	public := r.Group("/api/v1")
	if deps.Public != nil {
		deps.Public(r, public)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(deps.Auth))
	if deps.Limiter != nil && deps.Config.RateLimitPerMinute > 0 {
		perMinute := deps.Config.RateLimitPerMinute
		api.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				RateGroupAI: {Rate: float64(perMinute) / 60, Burst: perMinute},
			},
			GroupFor: rateGroup,
			Limiter:  deps.Limiter,
		}))
	}
	for _, h := range deps.API {
		h.RegisterRoutes(api)
	}

	return r
}

// rateGroup puts every POST that calls the LLM or the renderer in the AI group.
func rateGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	path := c.FullPath()
	switch {
	case strings.HasPrefix(path, "/api/v1/payments"), strings.HasPrefix(path, "/api/v1/account"):
		return ""
	case path == "":
		return ""
	}
	return RateGroupAI
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
