package upload

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"scribe/internal/assets"
	"scribe/internal/web"
)

// RouterConfig carries the optional pieces of the HTTP surface.
type RouterConfig struct {
	AllowOrigins []string
	Assets       *assets.Handler // nil disables GET /api/assets
	RateLimit    gin.HandlerFunc // nil disables upload rate limiting
}

// NewRouter assembles the gateway's HTTP surface.
func NewRouter(h *Handler, logger *slog.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(web.RequestID())
	r.Use(web.Logging(logger))
	r.Use(web.CORS(cfg.AllowOrigins))

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		if cfg.RateLimit != nil {
			api.POST("/upload", cfg.RateLimit, h.Upload)
		} else {
			api.POST("/upload", h.Upload)
		}

		api.DELETE("/upload/:folder/:name", h.Delete)

		if cfg.Assets != nil {
			api.GET("/assets", cfg.Assets.List)
		}
	}

	return r
}
