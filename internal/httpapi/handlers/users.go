package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sociofi/weather-agent/internal/auth"
	"github.com/sociofi/weather-agent/internal/common"
	"github.com/sociofi/weather-agent/internal/email"
	"github.com/sociofi/weather-agent/internal/models"
)

type createUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Location string `json:"location"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "name, email and password required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = h.Cfg.DefaultLocation
	}

	user := models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Location:     location,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		common.Fail(c, http.StatusBadRequest, 10003, "failed to create user (maybe email already exists)")
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	// send welcome email
	go func(to, name string) {
		subject := "Welcome to Weather AI — Your account is ready"
		body := "Hello " + name + ",\n\n" +
			"Welcome to Weather AI. Your account has been successfully created.\n\n" +
			"Ask about today's weather, the forecast, or what it was like last week.\n\n" +
			"If you did not request this account, please contact our support immediately.\n\n" +
			"Best regards,\n" +
			"Weather AI\n"
		_ = email.SendText(h.SMTPSetting, to, subject, body)
	}(user.Email, user.Name)

	common.OK(c, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"name":     user.Name,
		"location": user.Location,
		"token":    token,
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email and password required")
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusUnauthorized, 40110, "invalid credentials")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40110, "invalid credentials")
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"name":     user.Name,
		"location": user.Location,
		"token":    token,
	})
}

func (h *Handler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	common.OK(c, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"name":     user.Name,
		"location": user.Location,
	})
}

type updateLocationReq struct {
	Location string `json:"location" binding:"required"`
}

// UpdateLocation changes the user's home location used to annotate agent
// turns.
func (h *Handler) UpdateLocation(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "location is required")
		return
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("location", strings.TrimSpace(req.Location)).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "failed to update location")
		return
	}

	common.OK(c, gin.H{"location": strings.TrimSpace(req.Location)})
}
