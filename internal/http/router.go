package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/contratpro/internal/http/middleware"
)

type RouterConfig struct {
	Environment string
	CORSOrigins []string
}

func NewRouter(handler *Handler, requireAuth, optionalAuth gin.HandlerFunc, cfg RouterConfig, log zerolog.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	handler.Register(router, requireAuth, optionalAuth)
	return router
}

func corsConfig(origins []string) cors.Config {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		conf.AllowAllOrigins = true
		conf.AllowCredentials = false
		return conf
	}
	conf.AllowOrigins = origins
	return conf
}
