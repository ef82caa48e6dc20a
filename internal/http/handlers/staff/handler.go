package staff

import "github.com/hexiao-next/internal/provider"

// Handler 员工侧接口处理器入口
// 说明：该处理器仅用于持员工身份令牌的门店操作 API，
// 门店级权限由 service 层按花名册与授权策略判定。
type Handler struct {
	*provider.Container
}

// New 创建员工侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
