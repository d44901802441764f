package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ludora-app/ludora-back-sub000/config"
	"github.com/ludora-app/ludora-back-sub000/internal/api/handler"
	"github.com/ludora-app/ludora-back-sub000/internal/api/middleware"
	"github.com/ludora-app/ludora-back-sub000/internal/dto"
	"github.com/ludora-app/ludora-back-sub000/pkg/jwt"
	"github.com/ludora-app/ludora-back-sub000/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		dto.RegisterValidations(v)
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			logger.Warn("就绪检查失败", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 场次模块
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.Session.Create)
			sessions.GET("/:id", h.Session.Get)
			sessions.PUT("/:id", h.Session.Update)
			sessions.GET("/:id/teams", h.Session.ListTeams)
			sessions.GET("/:id/invitations", h.Invitation.ListBySession)
		}

		// 场地模块
		fields := v1.Group("/fields")
		{
			fields.GET("/:id/sessions", h.Session.ListByField)
			fields.GET("/:id/sessions/export", h.Export.ExportFieldSessions)
		}

		// 邀请模块
		invitations := v1.Group("/invitations")
		{
			invitations.POST("",
				middleware.RateLimit(rdb, cfg.RateLimit.InvitationLimit, cfg.RateLimit.InvitationWindow),
				h.Invitation.Create,
			)
			invitations.GET("/received", h.Invitation.ListReceived)
			invitations.PUT("/status", h.Invitation.UpdateStatus)
		}

		// 个人日历
		v1.GET("/me/calendar.ics", h.Export.Calendar)
	}

	return r
}
