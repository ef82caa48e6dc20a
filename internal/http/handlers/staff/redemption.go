package staff

import (
	"strings"

	"github.com/hexiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ApproveRedemption 审批核销单
func (h *Handler) ApproveRedemption(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	redemptionNo := strings.TrimSpace(c.Param("no"))
	if redemptionNo == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	redemption, err := h.RedemptionService.Approve(redemptionNo, staffID)
	if err != nil {
		respondRedemptionApproveError(c, err)
		return
	}
	response.Success(c, redemption)
}

// CompleteRedemptionRequest 员工验证一次性码完成核销请求
type CompleteRedemptionRequest struct {
	OTC string `json:"otc" binding:"required"`
}

// CompleteRedemption 员工验证用户出示的一次性码并完成核销
func (h *Handler) CompleteRedemption(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	redemptionNo := strings.TrimSpace(c.Param("no"))
	if redemptionNo == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req CompleteRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	redemption, err := h.RedemptionService.Complete(redemptionNo, req.OTC, staffID)
	if err != nil {
		respondRedemptionCompleteError(c, err)
		return
	}
	response.Success(c, redemption)
}

// RejectRedemptionRequest 拒绝核销请求
type RejectRedemptionRequest struct {
	Reason string `json:"reason"`
}

// RejectRedemption 员工拒绝核销单
func (h *Handler) RejectRedemption(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	redemptionNo := strings.TrimSpace(c.Param("no"))
	if redemptionNo == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req RejectRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	redemption, err := h.RedemptionService.Reject(redemptionNo, staffID, req.Reason)
	if err != nil {
		respondRedemptionRejectError(c, err)
		return
	}
	response.Success(c, redemption)
}
