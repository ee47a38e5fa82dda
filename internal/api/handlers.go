// internal/api/handlers.go
package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"nutripal/internal/accounts"
	"nutripal/internal/models"
)

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type chatRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

type viewRequest struct {
	View models.View `json:"view"`
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abort(c, BadRequestError("Invalid request body.", err))
		return false
	}
	return true
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.app.Signup(req.Name, req.Email, req.Password, req.ConfirmPassword); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": accounts.SignupSuccess})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	sess := currentSession(c)
	if err := s.app.Login(sess, req.Email, req.Password, req.Role); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": sanitizeState(sess.State())})
}

func (s *Server) logout(c *gin.Context) {
	s.app.Logout(currentSession(c))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) me(c *gin.Context) {
	sess := currentSession(c)
	resp := gin.H{
		"success":  true,
		"session":  sanitizeState(sess.State()),
		"settings": s.app.Settings(),
	}
	if profile, err := s.app.Profile(sess); err == nil {
		resp["profile"] = profile
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getChat(c *gin.Context) {
	messages := sanitizeMessages(currentSession(c).Messages())
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

func (s *Server) postChat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := s.app.SendMessage(c.Request.Context(), currentSession(c), req.Text, req.Image)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": sanitizeMessage(reply)})
}

func (s *Server) dismissWelcome(c *gin.Context) {
	s.app.DismissWelcome(currentSession(c))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) navigate(c *gin.Context) {
	var req viewRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.app.Navigate(currentSession(c), req.View); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "view": req.View})
}

func (s *Server) getMeals(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		abort(c, BadRequestError("limit must be a non-negative integer.", err))
		return
	}
	meals, err := s.app.History(currentSession(c), c.Query("date"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "meals": nonNil(newest(meals, limit))})
}

func (s *Server) getProgress(c *gin.Context) {
	report, err := s.app.Progress(currentSession(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "progress": report})
}

func (s *Server) getProfile(c *gin.Context) {
	profile, err := s.app.Profile(currentSession(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

func (s *Server) putProfile(c *gin.Context) {
	var profile models.UserProfile
	if !bindJSON(c, &profile) {
		return
	}
	if err := s.app.UpdateProfile(currentSession(c), profile); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": s.app.Settings()})
}

func (s *Server) putSettings(c *gin.Context) {
	settings := s.app.Settings()
	if !bindJSON(c, &settings) {
		return
	}
	if err := s.app.UpdateSettings(settings); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": settings})
}

func (s *Server) capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"speech_input": s.app.SpeechInput(),
		"image_input":  true,
		"model":        s.cfg.Model,
	})
}

func (s *Server) adminStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": s.app.Stats()})
}

func (s *Server) adminUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "users": s.app.Users()})
}

func (s *Server) adminDeleteUser(c *gin.Context) {
	email, err := url.PathUnescape(c.Param("email"))
	if err != nil {
		abort(c, BadRequestError("Invalid email.", err))
		return
	}
	removed, err := s.app.DeleteUser(currentSession(c), email)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "meal_logs_removed": removed})
}

func (s *Server) adminLatency(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "samples": nonNil(s.cfg.Latency.Samples())})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// parseLimit reads an optional result cap. Zero means no cap.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.ToInt(n)
}

// newest keeps the first limit meals of a newest-first history.
func newest(meals []models.MealLog, limit int) []models.MealLog {
	if limit <= 0 {
		return meals
	}
	return lo.Slice(meals, 0, limit)
}
