package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sociofi/weather-agent/internal/auth"
	"github.com/sociofi/weather-agent/internal/common"
)

const UserIDKey = "user_id"

// AuthRequired validates the Bearer token and stores the user id in the
// request context.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			common.Fail(c, http.StatusUnauthorized, 40101, "missing bearer token")
			c.Abort()
			return
		}

		uid, err := auth.ParseJWT(strings.TrimPrefix(header, "Bearer "), jwtSecret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, uid)
		c.Next()
	}
}
