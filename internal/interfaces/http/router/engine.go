package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"github.com/lotledger/backend/internal/infrastructure/logger"
	"github.com/lotledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// healthPaths are polled by load balancers and kept out of traces and the access log
var healthPaths = []string{"/health", "/api/v1/system/health"}

// EngineConfig holds what the middleware stack needs
type EngineConfig struct {
	HTTP      config.HTTPConfig
	Logger    *zap.Logger
	Tracing   middleware.TracingConfig
	Metrics   middleware.HTTPMetricsConfig
	Profiling middleware.ProfilingConfig
}

// NewEngine creates a gin engine with the API middleware stack applied in order:
//  1. Recovery - catch panics
//  2. RequestID - generate or propagate the request ID
//  3. Tracing - server span per request
//  4. Actor - operator recorded on movements
//  5. Span attributes - request ID, actor and outcome
//  6. Access log - request log with request ID and actor
//  7. Metrics
//  8. Profiling labels
//  9. CORS and security headers
//  10. BodyLimit
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	tracing := cfg.Tracing
	if tracing.SkipPaths == nil {
		tracing.SkipPaths = healthPaths
	}
	engine.Use(middleware.Tracing(tracing))
	engine.Use(middleware.Actor())
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.AccessLog(log, logger.SkipPaths(healthPaths...)))
	engine.Use(middleware.HTTPMetrics(cfg.Metrics))
	profiling := cfg.Profiling
	if profiling.SkipPaths == nil {
		profiling.SkipPaths = healthPaths
	}
	engine.Use(middleware.Profiling(profiling))
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)))
	secure := middleware.DefaultSecurityConfig()
	secure.HSTSMaxAge = cfg.HTTP.HSTSMaxAge
	engine.Use(middleware.Secure(secure))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	return engine
}
