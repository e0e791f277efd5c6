package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"grades-dashboard-go/metrics"
)

const teacherSessionKey = "teacher"

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/login. A wrong password leaves the session as it
// was; retries are not throttled.
func (h *APIHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.PasswordHash, []byte(req.Password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		h.Logger.Info("teacher login rejected", zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
		return
	}

	session := sessions.Default(c)
	session.Set(teacherSessionKey, true)
	if err := session.Save(); err != nil {
		h.Logger.Error("failed to save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}
	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"teacher": true})
}

// Logout handles POST /api/logout
func (h *APIHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		h.Logger.Error("failed to clear session", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"teacher": false})
}

// GetSession handles GET /api/session
func (h *APIHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"teacher": isTeacher(c)})
}

// RequireTeacher rejects requests without a teacher session.
func RequireTeacher() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isTeacher(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Teacher login required"})
			return
		}
		c.Next()
	}
}

func isTeacher(c *gin.Context) bool {
	v, _ := sessions.Default(c).Get(teacherSessionKey).(bool)
	return v
}
