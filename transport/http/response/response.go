// Package response 统一的 JSON 响应体：{code, message, data, details}，code 与 HTTP 状态一致。
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/geostego/errors"
)

// Response 响应体
type Response struct {
	Code    int               `json:"code"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// errUnknown 链中没有 *errors.Error 时返回给客户端的错误，原始信息只进入 gin.Context.Errors
var errUnknown = errors.Internal("internal error")

// Status 业务码在 4xx/5xx 之外时一律 500
func Status(code int) int {
	if code >= 400 && code <= 599 {
		return code
	}
	return http.StatusInternalServerError
}

// GinJSON 200 响应
func GinJSON(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "success", Data: data})
}

// GinJSONE 写入错误响应并终止处理链
func GinJSONE(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}

	e := errUnknown
	var target *errors.Error
	if errors.As(err, &target) {
		e = target
	}

	status := Status(e.Code)
	c.AbortWithStatusJSON(status, Response{
		Code:    status,
		Message: e.Message,
		Details: e.GetMetadata(),
	})
}
