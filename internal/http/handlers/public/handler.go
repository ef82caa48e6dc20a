package public

import "github.com/hexiao-next/internal/provider"

// Handler 用户/公开接口处理器入口
// 说明：该处理器仅用于用户侧与无鉴权 API。
type Handler struct {
	*provider.Container
}

// New 创建用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
