package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions configures the HTTP surface around the handlers
type RouterOptions struct {
	SessionSecret  []byte
	SessionMaxAge  time.Duration
	SecureCookie   bool
	AllowedOrigins []string
}

// NewRouter wires middleware and every API route.
func NewRouter(h *APIHandler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(h.Logger), gin.Recovery())
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	store := cookie.NewStore(opts.SessionSecret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("grades_session", store))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/ping", PingHandler)

		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)
		api.GET("/session", h.GetSession)

		// Student-facing reads
		api.GET("/sources", h.GetSources)
		api.GET("/courses", h.GetAllCourses)
		api.GET("/courses/:courseId", h.GetCourseByID)
		api.POST("/courses/:courseId/sync", h.SyncCourse)
		api.GET("/courses/:courseId/summary", h.GetSummary)
		api.GET("/courses/:courseId/students", h.GetStudentsByCourse)
		api.GET("/courses/:courseId/students/:studentId", h.GetStudent)
		api.GET("/courses/:courseId/students/:studentId/report.pdf", h.DownloadReport)

		teacher := api.Group("")
		teacher.Use(RequireTeacher())
		{
			teacher.POST("/courses", h.AddCourse)
			teacher.DELETE("/courses/:courseId", h.DeleteCourse)
			teacher.POST("/courses/:courseId/import", h.ImportGrades)
			teacher.GET("/courses/:courseId/export.xlsx", h.ExportCourse)
			teacher.POST("/courses/:courseId/students", h.AddStudent)
			teacher.DELETE("/courses/:courseId/students/:studentId", h.DeleteStudent)
			teacher.PUT("/courses/:courseId/students/:studentId/topics/:topicIndex", h.SetGrade)
		}
	}
	return router
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("request", fields...)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		// browsers refuse credentials with a wildcard origin
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
