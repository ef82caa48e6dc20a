package public

import (
	"errors"
	"strings"
	"time"

	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/http/response"
	"github.com/hexiao-next/internal/i18n"
	"github.com/hexiao-next/internal/repository"
	"github.com/hexiao-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PresenceClaimRequest 在场信号上报载荷
// BSSID 原文只在请求内存中出现，服务端落库前做单向哈希。
type PresenceClaimRequest struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	AccuracyM  float64    `json:"accuracy_m"`
	SSID       string     `json:"ssid"`
	BSSID      string     `json:"bssid"`
	Stationary bool       `json:"stationary"`
	LastScanAt *time.Time `json:"last_scan_at"`
}

func (r PresenceClaimRequest) toServiceClaim() service.PresenceClaim {
	return service.PresenceClaim{
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		AccuracyM:  r.AccuracyM,
		SSID:       strings.TrimSpace(r.SSID),
		BSSID:      strings.TrimSpace(r.BSSID),
		Stationary: r.Stationary,
		LastScanAt: r.LastScanAt,
	}
}

// InitiateRedemptionRequest 发起核销请求
type InitiateRedemptionRequest struct {
	OfferID           uint                  `json:"offer_id" binding:"required"`
	Mode              string                `json:"mode"`
	DeviceFingerprint string                `json:"device_fingerprint"`
	Presence          PresenceClaimRequest  `json:"presence"`
	CaptchaPayload    CaptchaPayloadRequest `json:"captcha_payload"`
}

// InitiateRedemption 用户发起核销
func (h *Handler) InitiateRedemption(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req InitiateRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	mode := strings.TrimSpace(req.Mode)
	if mode == "" {
		mode = constants.RedemptionModeOTC
	}
	if mode != constants.RedemptionModeOTC && mode != constants.RedemptionModeStaffQR {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if h.CaptchaService != nil {
		if captchaErr := h.CaptchaService.Verify(constants.CaptchaSceneInitiate, req.CaptchaPayload.toServicePayload()); captchaErr != nil {
			respondCaptchaVerifyError(c, captchaErr)
			return
		}
	}

	result, err := h.RedemptionService.Initiate(service.InitiateRedemptionInput{
		OfferID:           req.OfferID,
		UserID:            uid,
		Mode:              mode,
		DeviceFingerprint: strings.TrimSpace(req.DeviceFingerprint),
		Presence:          req.Presence.toServiceClaim(),
	})
	if err != nil {
		var cooldownErr *service.CooldownError
		if errors.As(err, &cooldownErr) {
			locale := i18n.ResolveLocale(c)
			response.ErrorWithData(c, response.CodeBadRequest, i18n.T(locale, "error.cooldown_active"), gin.H{
				"cooldown_ends_at": cooldownErr.EndsAt,
			})
			return
		}
		respondRedemptionInitiateError(c, err)
		return
	}

	response.Success(c, gin.H{
		"redemption": result.Redemption,
		"otc":        result.OTC,
		"risk_score": result.RiskScore,
		"signals":    result.Signals,
	})
}

// ListRedemptions 用户核销单列表
func (h *Handler) ListRedemptions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := getPagination(c)

	redemptions, total, err := h.RedemptionService.ListForUser(repository.RedemptionListFilter{
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, redemptions, pagination)
}

// GetRedemption 用户查询单个核销单
func (h *Handler) GetRedemption(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	redemptionNo := strings.TrimSpace(c.Param("no"))
	if redemptionNo == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	redemption, err := h.RedemptionService.GetForUser(redemptionNo, uid)
	if err != nil {
		if errors.Is(err, service.ErrRedemptionNotFound) {
			respondError(c, response.CodeNotFound, "error.redemption_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, redemption)
}

// CompleteWithStaffQRRequest 用户扫员工轮换码完成核销请求
type CompleteWithStaffQRRequest struct {
	StaffQRToken string `json:"staff_qr_token" binding:"required"`
}

// CompleteWithStaffQR 用户扫员工轮换码完成核销（staff_qr 模式）
func (h *Handler) CompleteWithStaffQR(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	redemptionNo := strings.TrimSpace(c.Param("no"))
	if redemptionNo == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req CompleteWithStaffQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	token, err := h.StaffQRService.Verify(strings.TrimSpace(req.StaffQRToken))
	if err != nil {
		respondStaffQRCompleteError(c, err)
		return
	}

	redemption, err := h.RedemptionService.CompleteWithStaffQR(redemptionNo, token, uid)
	if err != nil {
		respondStaffQRCompleteError(c, err)
		return
	}
	response.Success(c, redemption)
}
