package router

import (
	"fmt"
	"strings"

	"github.com/hexiao-next/internal/cache"
	"github.com/hexiao-next/internal/config"
	publichandlers "github.com/hexiao-next/internal/http/handlers/public"
	staffhandlers "github.com/hexiao-next/internal/http/handlers/staff"
	"github.com/hexiao-next/internal/logger"
	"github.com/hexiao-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按用户侧/员工侧分组）
	publicHandler := publichandlers.New(c)
	staffHandler := staffhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "hx"
	}
	redisClient := cache.Client()
	initiateRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:initiate", redisPrefix),
		WindowSeconds: cfg.Security.InitiateRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.InitiateRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.InitiateRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}
	qrVerifyRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:qr_verify", redisPrefix),
		WindowSeconds: cfg.Security.QRVerifyRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.QRVerifyRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.QRVerifyRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
			public.POST("/scan/:code", publicHandler.ResolveScan)
		}

		// 用户接口（需用户鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT, c.UserRepo))
		{
			user.POST("/redemptions", RateLimitMiddleware(redisClient, initiateRule, KeyByUserID), publicHandler.InitiateRedemption)
			user.GET("/redemptions", publicHandler.ListRedemptions)
			user.GET("/redemptions/:no", publicHandler.GetRedemption)
			user.POST("/redemptions/:no/complete-with-staff-qr", RateLimitMiddleware(redisClient, qrVerifyRule, KeyByUserID), publicHandler.CompleteWithStaffQR)
		}

		// 员工接口（需员工鉴权）
		staff := apiV1.Group("/staff")
		staff.Use(StaffJWTAuthMiddleware(cfg.StaffJWT))
		{
			staff.POST("/onboard/activate", staffHandler.ActivateOnboard)

			staff.POST("/redemptions/:no/approve", staffHandler.ApproveRedemption)
			staff.POST("/redemptions/:no/complete", RateLimitMiddleware(redisClient, qrVerifyRule, KeyByIP), staffHandler.CompleteRedemption)
			staff.POST("/redemptions/:no/reject", staffHandler.RejectRedemption)

			staff.POST("/venues/:venue_id/staff-qr", staffHandler.IssueStaffQR)
			staff.DELETE("/venues/:venue_id/staff-qr", staffHandler.RevokeStaffQR)

			staff.POST("/venues/:venue_id/onboard-tokens", staffHandler.IssueOnboard)
			staff.GET("/venues/:venue_id/roster", staffHandler.ListRoster)
			staff.DELETE("/venues/:venue_id/roster/:staff_id", staffHandler.DisableStaff)

			staff.POST("/venues/:venue_id/bindings/main", staffHandler.BindMain)
			staff.POST("/venues/:venue_id/bindings/table", staffHandler.BindTable)
			staff.GET("/venues/:venue_id/bindings", staffHandler.ListBindings)
			staff.DELETE("/venues/:venue_id/bindings/:id", staffHandler.RevokeBinding)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
