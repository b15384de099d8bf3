package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sparta-academy/sparta-backend/internal/config"
	"github.com/sparta-academy/sparta-backend/internal/handler"
	"github.com/sparta-academy/sparta-backend/internal/middleware"
	"github.com/sparta-academy/sparta-backend/internal/response"
	"github.com/sparta-academy/sparta-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Simulator *handler.SimulatorHandler
	Admin     *handler.AdminHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for login (10 requests per minute per IP).
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireStudentJWT(authService), handlers.Auth.Me)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireStudentJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/universities", handlers.Catalog.ListUniversities)
		studentAPI.GET("/universities/:code/subjects", handlers.Catalog.ListSubjects)

		studentAPI.GET("/exam", handlers.Simulator.GetExam)
		studentAPI.POST("/exam/subject", handlers.Simulator.SelectSubject)
		studentAPI.POST("/exam/start", handlers.Simulator.StartExam)
		studentAPI.POST("/exam/answer", handlers.Simulator.SelectAnswer)
		studentAPI.POST("/exam/advance", handlers.Simulator.Advance)
		studentAPI.GET("/exam/result", handlers.Simulator.GetResult)
		studentAPI.POST("/exam/restart", handlers.Simulator.Restart)

		studentAPI.GET("/attempts", handlers.Simulator.ListOwnAttempts)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/exam/stream", handlers.WS.ExamStream)
	}

	// ─── 4. Admin Group ────────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/attempts", handlers.Admin.ListAttempts)
		adminAPI.GET("/attempts/:id", handlers.Admin.GetAttempt)
		adminAPI.GET("/summary", handlers.Admin.GetSummary)

		adminAPI.GET("/students", handlers.Admin.ListStudents)
		adminAPI.POST("/students/:id/reset-session", handlers.Admin.ResetStudentSession)

		subjectsGroup := adminAPI.Group("/subjects")
		{
			subjectsGroup.POST("", handlers.Admin.CreateSubject)
			subjectsGroup.PUT("/:id", handlers.Admin.UpdateSubject)
			subjectsGroup.DELETE("/:id", handlers.Admin.DeleteSubject)
		}
	}

	return router
}
