package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/controllers"
	"github.com/cppla/blog/metrics"
	"github.com/cppla/blog/middleware"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/repository"
	"github.com/cppla/blog/services"
	"github.com/cppla/blog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	// Load config and set Gin mode from configuration
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
	// ClientIP keys the rate limiter, so forwarded headers count only from listed proxies
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		utils.Sugar.Warnf("invalid trusted proxies %v, trusting none: %v", cfg.TrustedProxies, err)
		_ = r.SetTrustedProxies(nil)
	}
	// Access log goes to its own rolling file when GinPath is set, otherwise to the app logger
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			utils.Sugar.Warnf("gin access log disabled: %v", err)
		} else {
			accessLog = gl
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// 通配来源不能携带凭证
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	r.Use(middleware.Metrics())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authService := services.NewAuthService(userRepo, roleRepo, cfg.AdminUsernames)
	categoryService := services.NewCategoryService(categoryRepo)
	postService := services.NewPostService(postRepo, categoryRepo)
	commentService := services.NewCommentService(commentRepo, postRepo)

	authController := controllers.NewAuthController(authService)
	categoryController := controllers.NewCategoryController(categoryService, postService)
	postController := controllers.NewPostController(postService)
	commentController := controllers.NewCommentController(commentService)

	authRequired := middleware.AuthRequired(userRepo)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := r.Group("/api")

	credentials := api.Group("")
	credentials.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	credentials.POST("/login", authController.Login)
	credentials.POST("/register", authController.Register)

	api.POST("/logout", authRequired, authController.Logout)
	api.GET("/me", authRequired, authController.Me)

	posts := api.Group("/posts")
	posts.GET("", postController.ListPosts)
	posts.GET("/:id", postController.GetPost)
	posts.POST("", authRequired, adminOnly, postController.CreatePost)
	posts.PUT("/:id", authRequired, adminOnly, postController.UpdatePost)
	posts.DELETE("/:id", authRequired, adminOnly, postController.DeletePost)

	posts.GET("/:id/comments", commentController.ListComments)
	posts.GET("/:id/comments/:commentId", commentController.GetComment)
	posts.POST("/:id/comments", authRequired, commentController.CreateComment)
	posts.PUT("/:id/comments/:commentId", authRequired, commentController.UpdateComment)
	posts.DELETE("/:id/comments/:commentId", authRequired, commentController.DeleteComment)

	categories := api.Group("/categories")
	categories.GET("", categoryController.ListCategories)
	categories.GET("/:id", categoryController.GetCategory)
	categories.GET("/:id/posts", categoryController.ListCategoryPosts)
	categories.POST("", authRequired, adminOnly, categoryController.CreateCategory)
	categories.PUT("/:id", authRequired, adminOnly, categoryController.UpdateCategory)
	categories.DELETE("/:id", authRequired, adminOnly, categoryController.DeleteCategory)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})

	return r
}
