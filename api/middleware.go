package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/bookingadmin/internal/dashboard"
	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/Domenick1991/bookingadmin/internal/metrics"
	"github.com/Domenick1991/bookingadmin/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	sessionKey      = "admin_session"
)

// RequestLogger logs every request with a request id, reusing the caller's
// X-Request-ID when present.
func RequestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("request completed with errors")
			return
		}
		entry.Info("request completed")
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

type SessionResolver interface {
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
}

// SessionGuard lets a request through only when its cookie names a live
// session. Pages redirect to the login form; API calls get 401.
func SessionGuard(resolver SessionResolver, cookie CookieSettings, views *dashboard.Registry, log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(cookie.Name)

		session, err := resolver.Session(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) {
				log.WithError(err).Error("session lookup failed")
			}
			if id != "" {
				views.Drop(id)
				cookie.clear(c)
			}

			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

func currentSession(c *gin.Context) *domain.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*domain.Session); ok {
			return s
		}
	}
	return nil
}

type CookieSettings struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func (s CookieSettings) set(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, value, int(s.MaxAge.Seconds()), "/", "", s.Secure, true)
}

func (s CookieSettings) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, "", -1, "/", "", s.Secure, true)
}
