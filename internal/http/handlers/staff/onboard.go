package staff

import (
	"github.com/hexiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// IssueOnboardRequest 签发入职令牌请求
type IssueOnboardRequest struct {
	Role string `json:"role" binding:"required"`
}

// IssueOnboard 经理签发一次性入职令牌
func (h *Handler) IssueOnboard(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	venueID, ok := paramUint(c, "venue_id")
	if !ok {
		return
	}
	var req IssueOnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	token, raw, err := h.StaffQRService.IssueOnboard(venueID, staffID, req.Role)
	if err != nil {
		respondOnboardError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":      raw,
		"role_scope": token.RoleScope,
		"expires_at": token.ExpiresAt,
	})
}

// ActivateOnboardRequest 激活入职令牌请求
type ActivateOnboardRequest struct {
	Token string `json:"token" binding:"required"`
}

// ActivateOnboard 新员工使用入职令牌入册
func (h *Handler) ActivateOnboard(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	var req ActivateOnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	member, err := h.StaffQRService.ActivateOnboard(req.Token, staffID)
	if err != nil {
		respondOnboardError(c, err)
		return
	}
	response.Success(c, member)
}
