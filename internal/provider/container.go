package provider

import (
	"github.com/hexiao-next/internal/audit"
	"github.com/hexiao-next/internal/authz"
	"github.com/hexiao-next/internal/cache"
	"github.com/hexiao-next/internal/config"
	"github.com/hexiao-next/internal/logger"
	"github.com/hexiao-next/internal/models"
	"github.com/hexiao-next/internal/queue"
	"github.com/hexiao-next/internal/repository"
	"github.com/hexiao-next/internal/secrets"
	"github.com/hexiao-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	VenueRepo        repository.VenueRepository
	OfferRepo        repository.OfferRepository
	RedemptionRepo   repository.RedemptionRepository
	AuditRepo        repository.RedemptionAuditRepository
	StaffQRRepo      repository.StaffQRRepository
	OnboardTokenRepo repository.OnboardTokenRepository
	QRBindingRepo    repository.QRBindingRepository
	RosterRepo       repository.RosterRepository

	// Services
	AuthzService      *authz.Service
	AuditSink         *audit.Sink
	PresenceService   *service.PresenceService
	RiskService       *service.RiskService
	RedemptionService *service.RedemptionService
	StaffQRService    *service.StaffQRService
	QRBindingService  *service.QRBindingService
	CaptchaService    *service.CaptchaService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.VenueRepo = repository.NewVenueRepository(db)
	c.OfferRepo = repository.NewOfferRepository(db)
	c.RedemptionRepo = repository.NewRedemptionRepository(db)
	c.AuditRepo = repository.NewRedemptionAuditRepository(db)
	c.StaffQRRepo = repository.NewStaffQRRepository(db)
	c.OnboardTokenRepo = repository.NewOnboardTokenRepository(db)
	c.QRBindingRepo = repository.NewQRBindingRepository(db)
	c.RosterRepo = repository.NewRosterRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService

	bssidKey, err := secrets.DeriveKey(c.Config.Security.MasterKey, secrets.PurposeBSSID)
	if err != nil {
		logger.Errorw("provider_derive_bssid_key_failed", "error", err)
		panic(err)
	}

	c.AuditSink = audit.NewSink(c.QueueClient, c.AuditRepo)
	c.PresenceService = service.NewPresenceService(c.Config.Presence, bssidKey)
	c.RiskService = service.NewRiskService(c.RedemptionRepo, c.Config.Risk.HighThreshold, c.Config.Presence.MaxAccuracyM)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)

	c.RedemptionService = service.NewRedemptionService(
		c.RedemptionRepo,
		c.OfferRepo,
		c.VenueRepo,
		c.UserRepo,
		c.RosterRepo,
		c.PresenceService,
		c.RiskService,
		c.AuthzService,
		c.AuditSink,
		c.QueueClient,
		c.Config.Redemption,
		c.Config.Risk,
	)
	c.StaffQRService = service.NewStaffQRService(
		c.StaffQRRepo,
		c.OnboardTokenRepo,
		c.RosterRepo,
		c.VenueRepo,
		c.AuthzService,
		c.Config.StaffQR,
		c.Config.Onboard,
	)
	bindingService, err := service.NewQRBindingService(
		c.QRBindingRepo,
		c.VenueRepo,
		c.RosterRepo,
		c.AuthzService,
		c.Config.Security,
	)
	if err != nil {
		logger.Errorw("provider_init_binding_service_failed", "error", err)
		panic(err)
	}
	c.QRBindingService = bindingService
}
