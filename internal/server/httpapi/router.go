package httpapi

import (
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the Auth API routes, /health and /metrics.
func NewRouter(h *Handler, l logging.Logger, m *metrics.Metrics, g prometheus.Gatherer, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(l), Instrument(m))

	if len(allowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = allowedOrigins
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			common.RequestIDHeaderName,
		}
		corsConfig.ExposeHeaders = []string{common.RequestIDHeaderName}
		corsConfig.MaxAge = 12 * time.Hour
		router.Use(cors.New(corsConfig))
	}

	router.GET("/health", handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))

	router.POST(common.LoginPath, h.Login)
	router.POST(common.CreateAccountPath, h.CreateAccount)
	router.POST(common.CheckAuthPath, h.CheckAuth)

	return router
}
