package studio

import (
	httputil "mango/internal/pkg/http"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// 客户端在处理中断开或取消请求时使用的状态码（nginx 约定）
const statusClientClosedRequest = 499
