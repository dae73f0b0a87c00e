package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListVoices 列出可用音色
// @Summary      列出音色
// @Description  返回当前合成引擎音色池的全部候选音色。
// @Tags         音色库
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "成功响应"
// @Router       /api/v1/voices [get]
func (h *Handler) ListVoices(c *gin.Context) {
	voices := h.studioService.ListVoices(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "查询成功",
		"data":    voices,
	})
}

// BindVoiceRequest 手工绑定音色请求
type BindVoiceRequest struct {
	Speaker string `json:"speaker" binding:"required"`  // 角色名（必填）
	VoiceID string `json:"voice_id" binding:"required"` // 音色ID（必填）
}

// BindVoice 手工绑定角色音色
// @Summary      绑定音色
// @Description  把指定角色固定到某个音色，压过自动分配结果，后续生成保持一致。
// @Tags         音色库
// @Accept       json
// @Produce      json
// @Param        request  body      BindVoiceRequest  true  "绑定请求"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/voices [put]
func (h *Handler) BindVoice(c *gin.Context) {
	var req BindVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	if err := h.studioService.BindVoice(c.Request.Context(), req.Speaker, req.VoiceID); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50001,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "音色绑定成功",
	})
}
