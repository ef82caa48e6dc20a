package staff

import (
	"github.com/hexiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// BindMainRequest 绑定门店主码请求
type BindMainRequest struct {
	NFCUID string `json:"nfc_uid"`
}

// BindMain 绑定门店主码（旧主码自动吊销）
func (h *Handler) BindMain(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	venueID, ok := paramUint(c, "venue_id")
	if !ok {
		return
	}
	var req BindMainRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}

	binding, err := h.QRBindingService.BindMain(venueID, staffID, req.NFCUID)
	if err != nil {
		respondBindingError(c, err)
		return
	}
	response.Success(c, binding)
}

// BindTableRequest 绑定桌位码请求
type BindTableRequest struct {
	Zone       string `json:"zone" binding:"required"`
	InstanceNo int    `json:"instance_no" binding:"required"`
	NFCUID     string `json:"nfc_uid"`
}

// BindTable 绑定桌位码
func (h *Handler) BindTable(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	venueID, ok := paramUint(c, "venue_id")
	if !ok {
		return
	}
	var req BindTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	binding, err := h.QRBindingService.BindTable(venueID, staffID, req.Zone, req.InstanceNo, req.NFCUID)
	if err != nil {
		respondBindingError(c, err)
		return
	}
	response.Success(c, binding)
}

// ListBindings 门店实体码绑定列表
func (h *Handler) ListBindings(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	venueID, ok := paramUint(c, "venue_id")
	if !ok {
		return
	}

	bindings, err := h.QRBindingService.ListByVenue(venueID, staffID)
	if err != nil {
		respondBindingError(c, err)
		return
	}
	response.Success(c, bindings)
}

// RevokeBinding 吊销实体码绑定
func (h *Handler) RevokeBinding(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	venueID, ok := paramUint(c, "venue_id")
	if !ok {
		return
	}
	bindingID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	if err := h.QRBindingService.Revoke(venueID, staffID, bindingID); err != nil {
		respondBindingError(c, err)
		return
	}
	response.Success(c, nil)
}
