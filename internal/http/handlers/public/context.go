package public

import (
	handlershared "github.com/hexiao-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetUserID(c)
}

func getPagination(c *gin.Context) (page, pageSize int) {
	return handlershared.GetPagination(c)
}
