package staff

import (
	"github.com/hexiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// IssueStaffQRRequest 签发轮换码请求
type IssueStaffQRRequest struct {
	TTLSeconds int    `json:"ttl_seconds"`
	SessionID  string `json:"session_id"`
}

// IssueStaffQR 签发员工轮换码
// 令牌原文只在响应中出现一次，落库仅存哈希。
func (h *Handler) IssueStaffQR(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	venueID, ok := paramUint(c, "venue_id")
	if !ok {
		return
	}
	var req IssueStaffQRRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}

	token, raw, err := h.StaffQRService.Issue(venueID, staffID, req.TTLSeconds, req.SessionID)
	if err != nil {
		respondStaffQRError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":       raw,
		"ttl_seconds": token.TTLSeconds,
		"issued_at":   token.IssuedAt,
		"expires_at":  token.ExpiresAt,
		"role_scope":  token.RoleScope,
	})
}

// RevokeStaffQR 吊销自己当前的 active 轮换码
func (h *Handler) RevokeStaffQR(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	venueID, ok := paramUint(c, "venue_id")
	if !ok {
		return
	}

	if err := h.StaffQRService.Revoke(venueID, staffID); err != nil {
		respondStaffQRError(c, err)
		return
	}
	response.Success(c, nil)
}
