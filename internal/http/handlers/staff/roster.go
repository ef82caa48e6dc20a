package staff

import (
	"github.com/hexiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListRoster 门店花名册
func (h *Handler) ListRoster(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	venueID, ok := paramUint(c, "venue_id")
	if !ok {
		return
	}

	members, err := h.StaffQRService.RosterForVenue(venueID, staffID)
	if err != nil {
		respondOnboardError(c, err)
		return
	}
	response.Success(c, members)
}

// DisableStaff 停用门店员工（吊销名册资格、授权角色与 active 轮换码）
func (h *Handler) DisableStaff(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	venueID, ok := paramUint(c, "venue_id")
	if !ok {
		return
	}
	targetID, ok := paramUint(c, "staff_id")
	if !ok {
		return
	}

	if err := h.StaffQRService.DisableStaff(venueID, staffID, targetID); err != nil {
		respondOnboardError(c, err)
		return
	}
	response.Success(c, nil)
}
