// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"nutripal/internal/app"
	"nutripal/internal/coach"
)

// Version is reported in the MCP server info.
var Version = "dev"

type Config struct {
	Listen        string
	SessionKey    string
	SessionMaxAge time.Duration
	// SecureCookie marks the session cookie Secure. Off for plain HTTP.
	SecureCookie bool
	// AuthRequestsPerMinute limits login and signup attempts per IP.
	AuthRequestsPerMinute int
	Model                 string
	Latency               *coach.LatencyRecorder
}

type Server struct {
	app        *app.App
	cfg        Config
	ginEngine  *gin.Engine
	httpServer *http.Server
	info       protocol.Implementation
}

func New(a *app.App, cfg Config) (*Server, error) {
	if a == nil {
		return nil, fmt.Errorf("app is required")
	}
	if cfg.SessionKey == "" {
		return nil, fmt.Errorf("session key is required")
	}
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = 48 * time.Hour
	}
	if cfg.AuthRequestsPerMinute <= 0 {
		cfg.AuthRequestsPerMinute = 20
	}
	if cfg.Latency == nil {
		cfg.Latency = coach.NewLatencyRecorder(coach.DefaultLatencyWindow)
	}

	s := &Server{
		app:       a,
		cfg:       cfg,
		ginEngine: gin.New(),
		info:      protocol.Implementation{Name: "nutripal", Version: Version},
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(s.cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions("nutripal_session", store))
}

func (s *Server) setupRoutes() {
	s.ginEngine.Use(requestLogger(), gin.Recovery(), gzip.Gzip(gzip.DefaultCompression), errorHandler())
	s.setupSession()
	s.ginEngine.Use(s.withSession())

	authLimit := rateLimiter(s.cfg.AuthRequestsPerMinute, time.Minute)

	api := s.ginEngine.Group("/api")
	api.POST("/signup", authLimit, s.signup)
	api.POST("/login", authLimit, s.login)
	api.POST("/logout", s.logout)
	api.GET("/me", s.me)
	api.GET("/settings", s.getSettings)
	api.GET("/capabilities", s.capabilities)

	protected := api.Group("")
	protected.Use(requireAuth())
	protected.GET("/chat", s.getChat)
	protected.POST("/chat", s.postChat)
	protected.POST("/welcome/dismiss", s.dismissWelcome)
	protected.PUT("/view", s.navigate)
	protected.GET("/meals", s.getMeals)
	protected.GET("/progress", s.getProgress)
	protected.GET("/profile", s.getProfile)
	protected.PUT("/profile", s.putProfile)
	protected.PUT("/settings", s.putSettings)

	admin := protected.Group("/admin")
	admin.Use(requireAdmin())
	admin.GET("/stats", s.adminStats)
	admin.GET("/users", s.adminUsers)
	admin.DELETE("/users/:email", s.adminDeleteUser)
	admin.GET("/latency", s.adminLatency)

	s.ginEngine.GET("/mcp", s.mcpInfo)
	s.ginEngine.POST("/mcp", requireAuth(), s.handleMCP)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func (s *Server) Start() error {
	log.Info("Starting NutriPal server", "listen", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
