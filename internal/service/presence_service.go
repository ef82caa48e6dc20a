package service

import (
	"math"
	"strings"
	"time"

	"github.com/hexiao-next/internal/config"
	"github.com/hexiao-next/internal/models"
	"github.com/hexiao-next/internal/secrets"
)

// 在场信号名称
const (
	SignalGPS   = "gps"
	SignalSSID  = "ssid"
	SignalBSSID = "bssid"
	SignalScan  = "scan"
)

const earthRadiusM = 6371000.0

// PresenceClaim 客户端上报的在场信号
type PresenceClaim struct {
	Latitude   float64
	Longitude  float64
	AccuracyM  float64
	SSID       string
	BSSID      string // 原始 BSSID，仅内存中出现，落库前做 HMAC
	Stationary bool
	LastScanAt *time.Time
}

// PresenceResult 在场校验结果
type PresenceResult struct {
	Passed       []string
	DistanceM    float64
	BSSIDHash    string
	Corroborated bool
}

// PresenceService 在场信号交叉校验服务
// 四类信号（GPS 距离、SSID、BSSID、近时扫码）至少命中 MinSignals 个才视为在场。
type PresenceService struct {
	cfg      config.PresenceConfig
	bssidKey []byte
}

// NewPresenceService 创建在场校验服务
func NewPresenceService(cfg config.PresenceConfig, bssidKey []byte) *PresenceService {
	if cfg.MaxDistanceM <= 0 {
		cfg.MaxDistanceM = 100
	}
	if cfg.MaxAccuracyM <= 0 {
		cfg.MaxAccuracyM = 100
	}
	if cfg.ScanWindowMinutes <= 0 {
		cfg.ScanWindowMinutes = 5
	}
	if cfg.MinSignals <= 0 {
		cfg.MinSignals = 2
	}
	return &PresenceService{cfg: cfg, bssidKey: bssidKey}
}

// Verify 对照门店注册信息交叉校验在场信号
func (s *PresenceService) Verify(venue *models.Venue, claim PresenceClaim, now time.Time) PresenceResult {
	result := PresenceResult{Passed: make([]string, 0, 4)}
	if venue == nil {
		return result
	}

	result.DistanceM = Haversine(claim.Latitude, claim.Longitude, venue.Latitude, venue.Longitude)
	if (claim.Latitude != 0 || claim.Longitude != 0) && result.DistanceM <= s.cfg.MaxDistanceM {
		result.Passed = append(result.Passed, SignalGPS)
	}

	if ssid := strings.TrimSpace(claim.SSID); ssid != "" && venue.WifiSSID != "" &&
		strings.EqualFold(ssid, venue.WifiSSID) {
		result.Passed = append(result.Passed, SignalSSID)
	}

	if bssid := normalizeBSSID(claim.BSSID); bssid != "" {
		result.BSSIDHash = secrets.HMACHex(s.bssidKey, bssid)
		if venue.WifiBSSIDHash != "" && secrets.ConstantTimeEqual(result.BSSIDHash, venue.WifiBSSIDHash) {
			result.Passed = append(result.Passed, SignalBSSID)
		}
	}

	if claim.LastScanAt != nil {
		window := time.Duration(s.cfg.ScanWindowMinutes) * time.Minute
		age := now.Sub(*claim.LastScanAt)
		if age >= 0 && age <= window {
			result.Passed = append(result.Passed, SignalScan)
		}
	}

	result.Corroborated = len(result.Passed) >= s.cfg.MinSignals
	return result
}

// MaxAccuracyM 返回可接受的定位精度上限（供风险评分复用）
func (s *PresenceService) MaxAccuracyM() float64 {
	return s.cfg.MaxAccuracyM
}

// ScanWindowMinutes 返回扫码证据的有效窗口（分钟）
func (s *PresenceService) ScanWindowMinutes() int {
	return s.cfg.ScanWindowMinutes
}

// HashBSSID 计算 BSSID 的落库哈希
func (s *PresenceService) HashBSSID(bssid string) string {
	normalized := normalizeBSSID(bssid)
	if normalized == "" {
		return ""
	}
	return secrets.HMACHex(s.bssidKey, normalized)
}

// Haversine 计算两点球面距离（米）
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

func normalizeBSSID(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
