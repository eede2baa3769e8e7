package gateway

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminAuthConfig controls access to admin-only endpoints.
type AdminAuthConfig struct {
	Key      string
	User     string
	Password string
	Debug    bool
}

// RequireAdmin guards admin endpoints using X-Admin-Key or HTTP Basic auth.
// If Debug is true, the guard is bypassed.
func RequireAdmin(cfg AdminAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Debug {
			c.Next()
			return
		}

		if cfg.Key != "" {
			key := strings.TrimSpace(c.GetHeader("X-Admin-Key"))
			if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(cfg.Key)) == 1 {
				c.Next()
				return
			}
		}

		if cfg.User != "" && cfg.Password != "" {
			if checkBasicAuth(c.GetHeader("Authorization"), cfg.User, cfg.Password) {
				c.Next()
				return
			}
		}

		if cfg.Key == "" && (cfg.User == "" || cfg.Password == "") {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"code":    "admin_auth_not_configured",
				"message": "admin auth not configured",
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    "unauthorized",
			"message": "unauthorized",
		})
	}
}

func checkBasicAuth(header, user, pass string) bool {
	if header == "" {
		return false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "basic") {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(parts[1]))
	if err != nil {
		return false
	}
	creds := strings.SplitN(string(decoded), ":", 2)
	if len(creds) != 2 {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(creds[0]), []byte(user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds[1]), []byte(pass)) == 1
	return userOK && passOK
}
