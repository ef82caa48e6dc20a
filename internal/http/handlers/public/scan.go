package public

import (
	"strings"

	"github.com/hexiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ResolveScanRequest 扫码解析请求
// NFC 标签扫码时携带标签 UID，纯二维码扫码可为空。
type ResolveScanRequest struct {
	NFCUID string `json:"nfc_uid"`
}

// ResolveScan 解析印刷实体码/NFC 标签
// 返回绑定的门店与区域信息，扫码时间由服务端给出。
func (h *Handler) ResolveScan(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req ResolveScanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}

	resolution, err := h.QRBindingService.Resolve(code, strings.TrimSpace(req.NFCUID))
	if err != nil {
		respondScanResolveError(c, err)
		return
	}
	response.Success(c, resolution)
}
