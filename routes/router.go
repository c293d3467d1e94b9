package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/engforum/engforum/config"
	"github.com/engforum/engforum/controllers"
	"github.com/engforum/engforum/middleware"
	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/services"
	"github.com/engforum/engforum/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file; without one it joins the app log
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
			accessLog = gl
		} else {
			utils.Sugar.Warnf("gin access log disabled: %v", err)
		}
	}
	r.Use(ginzap.Ginzap(accessLog, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	users := services.NewUserService(db, utils.NewPasswordHasher(cfg.PasswordScheme))
	forum := services.NewForumService(db)
	messages := services.NewMessageService(db)
	stats := services.NewStatsService(db)
	categories := models.DefaultCategories()
	uploads := utils.NewUploadStore(cfg.UploadDir, cfg.UploadMaxBytes)

	r.Use(middleware.PageViewRecorder(stats))
	r.Static(utils.URLPrefix, cfg.UploadDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(users, forum, cfg)
	categoryController := controllers.NewCategoryController(categories)
	threadController := controllers.NewThreadController(forum, categories, uploads)
	messageController := controllers.NewMessageController(messages, users)
	adminController := controllers.NewAdminController(users, forum, uploads)
	statsController := controllers.NewStatsController(stats, categories)
	configController := controllers.NewConfigController(uploads)

	limiter := middleware.RateLimit(cfg.RateLimitPerMinute)
	requireAuth := middleware.AuthRequired(users)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(limiter)
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", requireAuth, authController.Logout)
	authGroup.GET("/me", requireAuth, authController.Me)

	api.GET("/categories", categoryController.List)
	api.GET("/categories/:id", categoryController.Get)
	api.GET("/threads", threadController.ListThreads)
	api.GET("/threads/:id", threadController.GetThread)
	api.GET("/users/:username", authController.Profile)
	api.GET("/stats", statsController.GetStats)
	api.GET("/config/uploads", configController.GetUploadLimits)

	protected := api.Group("")
	protected.Use(requireAuth, limiter)
	protected.POST("/threads", threadController.CreateThread)
	protected.PUT("/threads/:id", threadController.UpdateThread)
	protected.DELETE("/threads/:id", threadController.DeleteThread)
	protected.POST("/threads/:id/replies", threadController.CreateReply)
	protected.PUT("/replies/:id", threadController.UpdateReply)
	protected.DELETE("/replies/:id", threadController.DeleteReply)

	messagesGroup := protected.Group("/messages")
	messagesGroup.GET("/inbox", messageController.Inbox)
	messagesGroup.GET("/sent", messageController.Sent)
	messagesGroup.GET("/unread-count", messageController.UnreadCount)
	messagesGroup.GET("/:id", messageController.Get)
	messagesGroup.POST("", messageController.Send)
	messagesGroup.POST("/:id/read", messageController.MarkRead)
	messagesGroup.DELETE("/:id", messageController.Delete)

	admin := protected.Group("/admin")
	admin.Use(middleware.AdminRequired())
	admin.GET("/dashboard", adminController.Dashboard)
	admin.GET("/users", adminController.ListUsers)
	admin.PUT("/users/:username/admin", adminController.SetAdmin)
	admin.POST("/threads/:id/violation", adminController.MarkThreadViolation)
	admin.DELETE("/threads/:id/violation", adminController.ClearThreadViolation)
	admin.POST("/replies/:id/violation", adminController.MarkReplyViolation)
	admin.DELETE("/replies/:id/violation", adminController.ClearReplyViolation)
	admin.DELETE("/threads/:id", adminController.DeleteThread)
	admin.DELETE("/replies/:id", adminController.DeleteReply)
	admin.PUT("/threads/:id/pin", adminController.SetPinned)
	admin.PUT("/threads/:id/lock", adminController.SetLocked)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})

	return r
}
