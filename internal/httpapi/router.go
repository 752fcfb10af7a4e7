package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sociofi/weather-agent/internal/common"
	"github.com/sociofi/weather-agent/internal/config"
	"github.com/sociofi/weather-agent/internal/httpapi/handlers"
	"github.com/sociofi/weather-agent/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", h.Ping)

	// users
	r.POST("/users", h.CreateUser)
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)
	authGroup.PUT("/users/location", h.UpdateLocation)

	// weather queries and session history (JWT required)
	authGroup.POST("/weather/query", h.HandleWeatherQuery)
	authGroup.GET("/weather/history", h.GetAllSessionHistory)
	authGroup.GET("/weather/history/:session_id", h.GetSessionHistoryById)
	authGroup.DELETE("/weather/history/:session_id", h.DeleteSessionById)

	// async jobs
	authGroup.POST("/weather/query/async", h.HandleWeatherQueryAsync)
	authGroup.GET("/weather/jobs/:job_id", h.GetWeatherJob)

	// speech collaborators
	authGroup.POST("/audio/transcribe", h.TranscribeAudio)
	authGroup.POST("/audio/speech", h.SynthesizeSpeech)
	authGroup.POST("/audio/query", h.HandleVoiceQuery)

	return r
}
