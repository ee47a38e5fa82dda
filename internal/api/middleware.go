// internal/api/middleware.go
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"nutripal/internal/app"
)

const (
	sessionIDKey  = "sid"
	sessionCtxKey = "session"
)

// withSession binds the cookie session to an app session, creating one on
// first contact.
func (s *Server) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie := sessions.Default(c)
		id, _ := cookie.Get(sessionIDKey).(string)

		sess := s.app.Sessions().GetOrCreate(id)
		if sess.ID != id {
			cookie.Set(sessionIDKey, sess.ID)
			if err := cookie.Save(); err != nil {
				abort(c, InternalServerError("Failed to save session.", err))
				return
			}
		}

		c.Set(sessionCtxKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *app.Session {
	return c.MustGet(sessionCtxKey).(*app.Session)
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c).Email() == "" {
			abort(c, app.ErrNotLoggedIn)
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentSession(c).IsAdmin() {
			abort(c, app.ErrForbidden)
			return
		}
		c.Next()
	}
}

// rateLimiter allows requests per duration from each client IP.
func rateLimiter(requests int, duration time.Duration) gin.HandlerFunc {
	clients := cache.New(10*time.Minute, 5*time.Minute)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		var limiter *rate.Limiter
		if v, ok := clients.Get(ip); ok {
			limiter = v.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(rate.Every(duration/time.Duration(requests)), requests)
		}
		// refresh expiry on every request
		clients.SetDefault(ip, limiter)

		if !limiter.Allow() {
			abort(c, NewAppError(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil))
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
