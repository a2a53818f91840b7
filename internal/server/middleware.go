package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/kiosk/internal/auditcontext"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	HeaderAdminToken = "X-Admin-Token"
	HeaderKioskID    = "X-Kiosk-ID"
)

func withActor(c *gin.Context, actorType, actorID string) {
	c.Request = c.Request.WithContext(auditcontext.WithActor(c.Request.Context(), actorType, actorID))
}

// KioskActor tags unauthenticated kiosk traffic so audit and logs can attribute it.
func (s *Server) KioskActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		kioskID := strings.TrimSpace(c.GetHeader(HeaderKioskID))
		if kioskID == "" {
			kioskID = c.ClientIP()
		}
		withActor(c, auditcontext.ActorTypeKiosk, kioskID)
		c.Next()
	}
}

// AdminRequired checks the admin token against the configured bcrypt hash.
func (s *Server) AdminRequired() gin.HandlerFunc {
	hash := []byte(strings.TrimSpace(s.cfg.AdminTokenHash))
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(HeaderAdminToken))
		if token == "" {
			token = bearerToken(c.GetHeader("Authorization"))
		}
		if token == "" || len(hash) == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword(hash, []byte(token)); err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		withActor(c, auditcontext.ActorTypeAdmin, "admin")
		c.Next()
	}
}

func (s *Server) IdentifyRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.identifyLimiter == nil {
			c.Next()
			return
		}

		result, err := s.identifyLimiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// fail open, the badge lookup itself is harmless
			s.log.Warn("identify rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if result != nil && !result.Allowed {
			seconds := int(result.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
