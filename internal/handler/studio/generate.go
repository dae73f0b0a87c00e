package studio

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mango/internal/service/studio"
)

// Generate 生成完整混音
// @Summary      生成混音
// @Description  执行完整配音流水线：切分剧本、分配音色、批量合成语音、按时间轴拟合后与背景轨离线混音，产物以 WAV 上传到存储并返回下载地址。
// @Tags         混音生成
// @Accept       json
// @Produce      json
// @Param        request  body      studio.GenerateRequest  true  "混音生成请求"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      499      {object}  ErrorResponse  "请求被取消"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/studio/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	var req studio.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}
	if req.Script == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40002,
			Message: "script is required",
		})
		return
	}

	result, err := h.studioService.Generate(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, studio.ErrGenerationCancelled) {
			c.JSON(statusClientClosedRequest, ErrorResponse{
				Code:    49901,
				Message: "generation cancelled",
				Detail:  err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50001,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "混音生成成功",
		"data":    result,
	})
}

// GetMixdown 查询混音记录
// @Summary      查询混音记录
// @Description  按ID查询一次混音生成的落库记录。
// @Tags         混音生成
// @Produce      json
// @Param        id   path      string  true  "混音ID"
// @Success      200  {object}  map[string]interface{}  "成功响应"
// @Failure      404  {object}  ErrorResponse  "记录不存在"
// @Router       /api/v1/studio/mixdowns/{id} [get]
func (h *Handler) GetMixdown(c *gin.Context) {
	mixdown, err := h.studioService.GetMixdown(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    40401,
			Message: "mixdown not found",
			Detail:  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "查询成功",
		"data":    mixdown,
	})
}

// ListMixdowns 列出混音记录
// @Summary      列出混音记录
// @Description  按创建时间倒序列出最近的混音生成记录。
// @Tags         混音生成
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "成功响应"
// @Failure      500  {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/studio/mixdowns [get]
func (h *Handler) ListMixdowns(c *gin.Context) {
	mixdowns, err := h.studioService.ListMixdowns(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50001,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "查询成功",
		"data":    mixdowns,
	})
}
