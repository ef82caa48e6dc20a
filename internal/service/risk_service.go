package service

import (
	"time"

	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/repository"
)

const (
	riskScoreMax        = 100
	riskVelocityWindow  = time.Hour
	riskHistoryWindow   = 7 * 24 * time.Hour
	riskDeviceUserLimit = 3
	riskVelocityLimit   = 5
	riskBadHistoryLimit = 2
)

// RiskInput 风险评分输入
type RiskInput struct {
	UserID            uint
	DeviceFingerprint string
	AccuracyM         float64
	Stationary        bool
}

// RiskAssessment 风险评分结果
type RiskAssessment struct {
	Score    int
	Flags    []string
	HighRisk bool
}

// riskMetrics 评分所需的观测值（查询与判定分离，便于表驱动测试）
type riskMetrics struct {
	deviceUsers  int64
	recentCount  int64
	badCount     int64
	accuracyM    float64
	maxAccuracyM float64
	stationary   bool
}

// riskFactor 单条加分规则
type riskFactor struct {
	flag   string
	points int
	hit    func(m riskMetrics) bool
}

// 加分规则表：命中即累加，总分封顶 100
var riskFactors = []riskFactor{
	{
		flag:   constants.FraudFlagDeviceReuse,
		points: 30,
		hit: func(m riskMetrics) bool {
			return m.deviceUsers > riskDeviceUserLimit
		},
	},
	{
		flag:   constants.FraudFlagVelocity,
		points: 40,
		hit: func(m riskMetrics) bool {
			return m.recentCount > riskVelocityLimit
		},
	},
	{
		flag:   constants.FraudFlagLowAccuracy,
		points: 20,
		hit: func(m riskMetrics) bool {
			return m.accuracyM > m.maxAccuracyM
		},
	},
	{
		flag:   constants.FraudFlagStationary,
		points: 10,
		hit: func(m riskMetrics) bool {
			return m.stationary
		},
	},
	{
		flag:   constants.FraudFlagBadHistory,
		points: 30,
		hit: func(m riskMetrics) bool {
			return m.badCount > riskBadHistoryLimit
		},
	},
}

// RiskService 核销风险评分服务
type RiskService struct {
	redemptionRepo repository.RedemptionRepository
	highThreshold  int
	maxAccuracyM   float64
}

// NewRiskService 创建风险评分服务
func NewRiskService(redemptionRepo repository.RedemptionRepository, highThreshold int, maxAccuracyM float64) *RiskService {
	if highThreshold <= 0 {
		highThreshold = 70
	}
	if maxAccuracyM <= 0 {
		maxAccuracyM = 100
	}
	return &RiskService{
		redemptionRepo: redemptionRepo,
		highThreshold:  highThreshold,
		maxAccuracyM:   maxAccuracyM,
	}
}

// Evaluate 对一次核销发起做风险评分
func (s *RiskService) Evaluate(input RiskInput, now time.Time) (RiskAssessment, error) {
	metrics := riskMetrics{
		accuracyM:    input.AccuracyM,
		maxAccuracyM: s.maxAccuracyM,
		stationary:   input.Stationary,
	}

	if input.DeviceFingerprint != "" {
		count, err := s.redemptionRepo.CountDistinctUsersByDevice(input.DeviceFingerprint)
		if err != nil {
			return RiskAssessment{}, err
		}
		metrics.deviceUsers = count
	}

	recent, err := s.redemptionRepo.CountByUserSince(input.UserID, now.Add(-riskVelocityWindow))
	if err != nil {
		return RiskAssessment{}, err
	}
	metrics.recentCount = recent

	bad, err := s.redemptionRepo.CountBadByUserSince(input.UserID, now.Add(-riskHistoryWindow))
	if err != nil {
		return RiskAssessment{}, err
	}
	metrics.badCount = bad

	return s.score(metrics), nil
}

func (s *RiskService) score(metrics riskMetrics) RiskAssessment {
	assessment := RiskAssessment{Flags: make([]string, 0, len(riskFactors))}
	for _, factor := range riskFactors {
		if !factor.hit(metrics) {
			continue
		}
		assessment.Score += factor.points
		assessment.Flags = append(assessment.Flags, factor.flag)
	}
	if assessment.Score > riskScoreMax {
		assessment.Score = riskScoreMax
	}
	if assessment.Score > s.highThreshold {
		assessment.HighRisk = true
		assessment.Flags = append(assessment.Flags, constants.FraudFlagHighRisk)
	}
	return assessment
}
