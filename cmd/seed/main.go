package main

import (
	"fmt"
	"time"

	"github.com/hexiao-next/internal/authz"
	"github.com/hexiao-next/internal/config"
	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/logger"
	"github.com/hexiao-next/internal/models"
	"github.com/hexiao-next/internal/secrets"
	"github.com/hexiao-next/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// BSSID 哈希与线上校验使用同一把派生密钥
	bssidKey, err := secrets.DeriveKey(cfg.Security.MasterKey, secrets.PurposeBSSID)
	if err != nil {
		stdLog.Fatalf("Failed to derive bssid key: %v", err)
	}
	presence := service.NewPresenceService(cfg.Presence, bssidKey)

	// 添加门店
	venues := []models.Venue{
		{
			Name:          "星河咖啡（静安店）",
			Latitude:      31.2304,
			Longitude:     121.4737,
			WifiSSID:      "XingheCoffee-Guest",
			WifiBSSIDHash: presence.HashBSSID("AA:BB:CC:00:11:22"),
			IsActive:      true,
		},
		{
			Name:          "早鸟面包房（徐汇店）",
			Latitude:      31.1880,
			Longitude:     121.4365,
			WifiSSID:      "EarlyBird-Free",
			WifiBSSIDHash: presence.HashBSSID("DE:AD:BE:EF:00:01"),
			IsActive:      true,
		},
	}

	venueIDs := map[string]uint{}
	for _, venue := range venues {
		var existing models.Venue
		if err := models.DB.Where("name = ?", venue.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&venue).Error; err != nil {
				stdLog.Printf("Failed to create venue %s: %v", venue.Name, err)
				continue
			}
			stdLog.Printf("Created venue: %s", venue.Name)
			venueIDs[venue.Name] = venue.ID
		} else {
			stdLog.Printf("Venue already exists: %s", venue.Name)
			venueIDs[venue.Name] = existing.ID
		}
	}

	coffeeVenueID := venueIDs["星河咖啡（静安店）"]
	bakeryVenueID := venueIDs["早鸟面包房（徐汇店）"]

	// 添加优惠活动
	now := time.Now()
	offers := []models.Offer{
		{
			VenueID:               coffeeVenueID,
			Title:                 "新客首杯半价",
			Value:                 models.NewMoneyFromDecimal(decimal.NewFromFloat(15.00)),
			MinOTL:                0,
			MaxRedemptionsPerUser: 1,
			CooldownHours:         0,
			QRRotationMinutes:     5,
			RequiresStaffApproval: false,
			ValidFrom:             now.AddDate(0, 0, -1),
			ValidUntil:            now.AddDate(0, 3, 0),
			IsActive:              true,
		},
		{
			VenueID:               coffeeVenueID,
			Title:                 "熟客周周领·美式立减",
			Value:                 models.NewMoneyFromDecimal(decimal.NewFromFloat(8.00)),
			MinOTL:                2,
			MaxRedemptionsPerUser: 12,
			CooldownHours:         168,
			QRRotationMinutes:     5,
			RequiresStaffApproval: false,
			ValidFrom:             now.AddDate(0, 0, -1),
			ValidUntil:            now.AddDate(0, 6, 0),
			IsActive:              true,
		},
		{
			VenueID:               bakeryVenueID,
			Title:                 "生日蛋糕兑换券",
			Value:                 models.NewMoneyFromDecimal(decimal.NewFromFloat(88.00)),
			MinOTL:                1,
			MaxRedemptionsPerUser: 1,
			CooldownHours:         24,
			QRRotationMinutes:     10,
			RequiresStaffApproval: true,
			ValidFrom:             now.AddDate(0, 0, -1),
			ValidUntil:            now.AddDate(1, 0, 0),
			MaxTotalRedemptions:   500,
			IsActive:              true,
		},
	}

	for _, offer := range offers {
		if offer.VenueID == 0 {
			stdLog.Printf("Skip offer %s: venue not found", offer.Title)
			continue
		}
		var existing models.Offer
		if err := models.DB.Where("venue_id = ? AND title = ?", offer.VenueID, offer.Title).First(&existing).Error; err != nil {
			if err := models.DB.Create(&offer).Error; err != nil {
				stdLog.Printf("Failed to create offer %s: %v", offer.Title, err)
			} else {
				stdLog.Printf("Created offer: %s", offer.Title)
			}
		} else {
			stdLog.Printf("Offer already exists: %s", offer.Title)
		}
	}

	// 添加演示用户（生产环境中由身份服务同步）
	users := []models.User{
		{Nickname: "demo-newcomer", TrustLevel: 0, Status: constants.UserStatusActive},
		{Nickname: "demo-regular", TrustLevel: 2, Status: constants.UserStatusActive},
		{Nickname: "demo-manager", TrustLevel: 3, Status: constants.UserStatusActive},
		{Nickname: "demo-cashier", TrustLevel: 3, Status: constants.UserStatusActive},
	}

	userIDs := map[string]uint{}
	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("nickname = ?", user.Nickname).First(&existing).Error; err != nil {
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", user.Nickname, err)
				continue
			}
			stdLog.Printf("Created user: %s", user.Nickname)
			userIDs[user.Nickname] = user.ID
		} else {
			stdLog.Printf("User already exists: %s", user.Nickname)
			userIDs[user.Nickname] = existing.ID
		}
	}

	// 添加员工名册并同步授权策略
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz service: %v", err)
	}

	rosterSeeds := []struct {
		venueID uint
		userID  uint
		role    string
	}{
		{coffeeVenueID, userIDs["demo-manager"], constants.RosterRoleManager},
		{coffeeVenueID, userIDs["demo-cashier"], constants.RosterRoleCashier},
		{bakeryVenueID, userIDs["demo-manager"], constants.RosterRoleManager},
	}

	for _, seed := range rosterSeeds {
		if seed.venueID == 0 || seed.userID == 0 {
			continue
		}
		var existing models.RosterMember
		if err := models.DB.Where("venue_id = ? AND user_id = ?", seed.venueID, seed.userID).First(&existing).Error; err != nil {
			member := models.RosterMember{
				VenueID:     seed.venueID,
				UserID:      seed.userID,
				Role:        seed.role,
				State:       constants.RosterStateActive,
				EnrolledAt:  now,
				EnrolledVia: "manual",
			}
			if err := models.DB.Create(&member).Error; err != nil {
				stdLog.Printf("Failed to create roster member %d@%d: %v", seed.userID, seed.venueID, err)
				continue
			}
			stdLog.Printf("Created roster member: user %d at venue %d as %s", seed.userID, seed.venueID, seed.role)
		} else {
			stdLog.Printf("Roster member already exists: user %d at venue %d", seed.userID, seed.venueID)
		}
		if err := authzService.EnrollStaff(seed.venueID, seed.userID, seed.role); err != nil {
			stdLog.Printf("Failed to grant role for user %d at venue %d: %v", seed.userID, seed.venueID, err)
		}
	}

	fmt.Println("Seed data initialized successfully")
}
