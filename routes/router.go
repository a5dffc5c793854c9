package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/noticeboard/config"
	"github.com/cppla/noticeboard/controllers"
	"github.com/cppla/noticeboard/middleware"
	"github.com/cppla/noticeboard/repository"
	"github.com/cppla/noticeboard/utils"
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
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Uploaded artifacts are served statically from the content directory.
	r.Static("/uploads", cfg.UploadDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	noticeController := controllers.NewNoticeController(repository.NewNoticeRepository(db))
	uploadController := controllers.NewUploadController(cfg)

	api := r.Group("/api")

	api.GET("/notices", noticeController.ListNotices)
	api.GET("/notices/:id", noticeController.GetNotice)

	// Write paths carry the per-IP rate limiter.
	writes := api.Group("")
	writes.Use(middleware.RateLimitMiddleware())
	writes.POST("/notices", noticeController.CreateNotice)
	writes.PUT("/notices/:id", noticeController.UpdateNotice)
	writes.POST("/notices/:id/publish", noticeController.PublishNotice)
	writes.DELETE("/notices/:id", noticeController.DeleteNotice)
	writes.POST("/notices/batch_delete", noticeController.BatchDeleteNotices)
	writes.POST("/upload", uploadController.Upload)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "not found")
	})

	return r
}
