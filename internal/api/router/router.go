package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ytgrab/ytgrab/internal/api/handlers"
	"github.com/ytgrab/ytgrab/internal/api/middleware"
	"github.com/ytgrab/ytgrab/internal/config"
)

type Router struct {
	engine *gin.Engine
	config *config.Config
}

func NewRouter(cfg *config.Config, videoHandler *handlers.VideoHandler, downloadHandler *handlers.DownloadHandler, historyHandler *handlers.HistoryHandler, healthHandler *handlers.HealthHandler) *Router {
	if cfg.Server.Host == "0.0.0.0" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationIDMiddleware())
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))

	// Probes outside the /api surface
	engine.GET("/live", healthHandler.Liveness)
	engine.GET("/ready", healthHandler.Readiness)

	// Swagger documentation
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		limited := api.Group("")
		limited.Use(middleware.RateLimitMiddleware(&cfg.API))
		{
			limited.GET("/video-info/:videoId", videoHandler.GetVideoInfoByID)
			limited.POST("/video-info", videoHandler.GetVideoInfoByURL)
			limited.GET("/download", downloadHandler.DownloadByItag)
			limited.POST("/download", downloadHandler.DownloadByQuality)
			limited.GET("/history", historyHandler.ListHistory)
		}
	}

	return &Router{
		engine: engine,
		config: cfg,
	}
}

func (r *Router) Start() error {
	addr := r.config.Server.Host + ":" + r.config.Server.Port
	return r.engine.Run(addr)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
