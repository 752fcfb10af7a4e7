package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sociofi/weather-agent/internal/audio"
	"github.com/sociofi/weather-agent/internal/common"
	"github.com/sociofi/weather-agent/internal/config"
	"github.com/sociofi/weather-agent/internal/email"
	"github.com/sociofi/weather-agent/internal/httpapi/middleware"
	"github.com/sociofi/weather-agent/internal/models"
	"github.com/sociofi/weather-agent/internal/query"
	"github.com/sociofi/weather-agent/internal/session"
	"github.com/sociofi/weather-agent/internal/store/rabbitmq"
)

type Handler struct {
	DB          *gorm.DB
	Cfg         config.Config
	SMTPSetting email.SMTPConfig

	Sessions *session.Service
	Query    *query.Service
	Jobs     *query.Jobs
	Speech   *audio.Client
	Rabbit   *rabbitmq.Publisher
}

func NewHandler(db *gorm.DB, cfg config.Config, sessions *session.Service, querySvc *query.Service, jobs *query.Jobs, speech *audio.Client, rabbit *rabbitmq.Publisher) *Handler {
	return &Handler{
		DB:  db,
		Cfg: cfg,
		SMTPSetting: email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		},
		Sessions: sessions,
		Query:    querySvc,
		Jobs:     jobs,
		Speech:   speech,
		Rabbit:   rabbit,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

// currentUser loads the authenticated user row; writes the error response
// itself when that fails.
func (h *Handler) currentUser(c *gin.Context) (*models.User, bool) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return nil, false
	}

	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusUnauthorized, 40103, "unknown user")
			return nil, false
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "db error")
		return nil, false
	}
	return &user, true
}
