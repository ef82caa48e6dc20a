package staff

import (
	"strconv"
	"strings"

	handlershared "github.com/hexiao-next/internal/http/handlers/shared"
	"github.com/hexiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

func getStaffID(c *gin.Context) (uint, bool) {
	return handlershared.GetStaffID(c)
}

// paramUint 读取 uint 路径参数，非法时统一返回参数错误
func paramUint(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(value), true
}
