package studio

import (
	"mango/internal/service/studio"
)

// Handler 配音工作台处理器
// 所有studio相关的Handler方法都通过这个结构体访问Service
type Handler struct {
	studioService *studio.Service
}

// NewHandler 创建配音工作台处理器
func NewHandler(studioService *studio.Service) *Handler {
	return &Handler{
		studioService: studioService,
	}
}
