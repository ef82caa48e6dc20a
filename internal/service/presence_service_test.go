package service

import (
	"math"
	"testing"
	"time"

	"github.com/hexiao-next/internal/config"
	"github.com/hexiao-next/internal/models"
	"github.com/hexiao-next/internal/secrets"
)

func newTestPresenceService(t *testing.T) *PresenceService {
	t.Helper()
	key, err := secrets.DeriveKey("test-master", secrets.PurposeBSSID)
	if err != nil {
		t.Fatalf("derive key failed: %v", err)
	}
	return NewPresenceService(config.PresenceConfig{
		MaxDistanceM:      100,
		MaxAccuracyM:      100,
		ScanWindowMinutes: 5,
		MinSignals:        2,
	}, key)
}

func newTestVenue(svc *PresenceService) *models.Venue {
	return &models.Venue{
		Name:          "测试门店",
		Latitude:      31.2304,
		Longitude:     121.4737,
		WifiSSID:      "Venue-Guest",
		WifiBSSIDHash: svc.HashBSSID("AA:BB:CC:DD:EE:FF"),
		IsActive:      true,
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	d := Haversine(31.2304, 121.4737, 31.2304, 121.4737)
	if d != 0 {
		t.Fatalf("identical points should be 0, got %f", d)
	}
	// 纬度 0.0009 度 ≈ 100 米
	d = Haversine(0, 0, 0.0009, 0)
	if math.Abs(d-100) > 1 {
		t.Fatalf("0.0009 deg latitude should be ~100m, got %f", d)
	}
}

func TestPresenceVerifyTwoOfFour(t *testing.T) {
	svc := newTestPresenceService(t)
	venue := newTestVenue(svc)
	now := time.Now()

	// GPS + SSID 两个信号命中
	result := svc.Verify(venue, PresenceClaim{
		Latitude:  venue.Latitude,
		Longitude: venue.Longitude,
		SSID:      "venue-guest",
	}, now)
	if !result.Corroborated {
		t.Fatalf("gps+ssid should corroborate, passed=%v", result.Passed)
	}

	// 仅 GPS 一个信号不足
	result = svc.Verify(venue, PresenceClaim{
		Latitude:  venue.Latitude,
		Longitude: venue.Longitude,
	}, now)
	if result.Corroborated {
		t.Fatalf("single signal must not corroborate, passed=%v", result.Passed)
	}
}

func TestPresenceVerifyGPSBoundary(t *testing.T) {
	svc := newTestPresenceService(t)
	venue := newTestVenue(svc)
	venue.Latitude = 0
	venue.Longitude = 0
	now := time.Now()
	scanAt := now.Add(-time.Minute)

	// 约 99.6 米：GPS 信号命中
	result := svc.Verify(venue, PresenceClaim{
		Latitude:   0.000896,
		Longitude:  0,
		LastScanAt: &scanAt,
	}, now)
	if !hasSignal(result.Passed, SignalGPS) {
		t.Fatalf("~99.6m should pass gps signal, distance=%f", result.DistanceM)
	}
	if !result.Corroborated {
		t.Fatalf("gps+scan should corroborate")
	}

	// 恰在 100 米阈值上（纳米级贴边）：阈值为含，GPS 信号命中
	latForDistance := func(meters float64) float64 {
		return meters / earthRadiusM * 180 / math.Pi
	}
	result = svc.Verify(venue, PresenceClaim{
		Latitude:   latForDistance(100 - 1e-9),
		Longitude:  0,
		LastScanAt: &scanAt,
	}, now)
	if math.Abs(result.DistanceM-100) > 1e-6 {
		t.Fatalf("boundary fixture should sit at 100m, distance=%.12f", result.DistanceM)
	}
	if !hasSignal(result.Passed, SignalGPS) {
		t.Fatalf("100m is inclusive, gps signal should pass, distance=%.12f", result.DistanceM)
	}

	// 刚越过 100 米即不命中
	result = svc.Verify(venue, PresenceClaim{
		Latitude:   latForDistance(100 + 1e-9),
		Longitude:  0,
		LastScanAt: &scanAt,
	}, now)
	if hasSignal(result.Passed, SignalGPS) {
		t.Fatalf("just over 100m must not pass gps signal, distance=%.12f", result.DistanceM)
	}

	// 101 米：GPS 信号不命中
	result = svc.Verify(venue, PresenceClaim{
		Latitude:   latForDistance(101),
		Longitude:  0,
		LastScanAt: &scanAt,
	}, now)
	if hasSignal(result.Passed, SignalGPS) {
		t.Fatalf("101m must not pass gps signal, distance=%f", result.DistanceM)
	}
	if result.Corroborated {
		t.Fatalf("single scan signal must not corroborate")
	}
}

func TestPresenceVerifyBSSIDAndScanWindow(t *testing.T) {
	svc := newTestPresenceService(t)
	venue := newTestVenue(svc)
	now := time.Now()

	// BSSID 大小写不敏感，命中注册哈希
	recent := now.Add(-4 * time.Minute)
	result := svc.Verify(venue, PresenceClaim{
		BSSID:      "aa:bb:cc:dd:ee:ff",
		LastScanAt: &recent,
	}, now)
	if !hasSignal(result.Passed, SignalBSSID) {
		t.Fatalf("registered bssid should pass, passed=%v", result.Passed)
	}
	if !hasSignal(result.Passed, SignalScan) {
		t.Fatalf("4min old scan should pass, passed=%v", result.Passed)
	}
	if !result.Corroborated {
		t.Fatalf("bssid+scan should corroborate")
	}

	// 超窗扫码与陌生 BSSID 均不命中
	stale := now.Add(-6 * time.Minute)
	result = svc.Verify(venue, PresenceClaim{
		BSSID:      "11:22:33:44:55:66",
		LastScanAt: &stale,
	}, now)
	if len(result.Passed) != 0 {
		t.Fatalf("no signal should pass, got %v", result.Passed)
	}

	// 未来时间的扫码声明不可信
	future := now.Add(time.Minute)
	result = svc.Verify(venue, PresenceClaim{LastScanAt: &future}, now)
	if hasSignal(result.Passed, SignalScan) {
		t.Fatalf("future scan must not pass")
	}
}

func hasSignal(passed []string, signal string) bool {
	for _, s := range passed {
		if s == signal {
			return true
		}
	}
	return false
}
