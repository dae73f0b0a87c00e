package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mango/internal/pkg/dubtools"
)

// SegmentScriptRequest 剧本切分请求
type SegmentScriptRequest struct {
	Script string `json:"script" binding:"required"` // 剧本原文（必填）
}

// SegmentScriptResponseData 剧本切分响应数据
type SegmentScriptResponseData struct {
	Segments []dubtools.Segment `json:"segments"` // 结构化片段列表
	Blocks   string             `json:"blocks"`   // 规范化的块文本
	Count    int                `json:"count"`    // 片段数量
}

// SegmentScript 切分剧本
// @Summary      切分剧本
// @Description  将带标记的剧本原文切分为对白、旁白、音效等结构化片段，并返回规范化的块文本。
// @Tags         剧本处理
// @Accept       json
// @Produce      json
// @Param        request  body      SegmentScriptRequest  true  "剧本切分请求"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Router       /api/v1/scripts/segment [post]
func (h *Handler) SegmentScript(c *gin.Context) {
	var req SegmentScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	segments, blocks, err := h.studioService.SegmentScript(c.Request.Context(), req.Script)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40002,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "剧本切分成功",
		"data": SegmentScriptResponseData{
			Segments: segments,
			Blocks:   blocks,
			Count:    len(segments),
		},
	})
}
