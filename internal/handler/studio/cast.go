package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mango/internal/service/studio"
)

// DetectCastRequest 角色检出请求
type DetectCastRequest struct {
	Script string `json:"script" binding:"required"` // 剧本原文（必填）
}

// DetectCastResponseData 角色检出响应数据
type DetectCastResponseData struct {
	Cast  []studio.CastMember `json:"cast"`  // 角色及其分配的音色
	Count int                 `json:"count"` // 角色数量
}

// DetectCast 检出剧本角色表
// @Summary      检出角色表
// @Description  扫描剧本中的说话人标记，按首次出现顺序返回角色表，并为每个角色分配稳定的音色。
// @Tags         剧本处理
// @Accept       json
// @Produce      json
// @Param        request  body      DetectCastRequest  true  "角色检出请求"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Router       /api/v1/scripts/cast [post]
func (h *Handler) DetectCast(c *gin.Context) {
	var req DetectCastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	cast, err := h.studioService.DetectCast(c.Request.Context(), req.Script)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40002,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "角色检出成功",
		"data": DetectCastResponseData{
			Cast:  cast,
			Count: len(cast),
		},
	})
}
