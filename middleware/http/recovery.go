package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/geostego/errors"
	"github.com/kochabx/geostego/log"
	"github.com/kochabx/geostego/transport/http/response"
)

// Recovery 捕获 panic 并以 500 响应；客户端已断开时只记录 warn 且不写响应。
// 日志中只有方法、路径与请求 ID，请求头和请求体都可能携带密钥材料
func Recovery(logger *log.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = log.G
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			ev := logger.Error()
			if disconnected(rec) {
				ev = logger.Warn()
			} else {
				ev = ev.Str("stack", string(debug.Stack()))
			}
			ev.Str("panic", fmt.Sprint(rec)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("request_id", c.GetString(HeaderRequestID)).
				Msg("panic recovered")

			if disconnected(rec) {
				c.Abort()
				return
			}
			response.GinJSONE(c, errors.Internal("internal error"))
		}()
		c.Next()
	}
}

// disconnected 写响应时对端已关闭连接
func disconnected(rec any) bool {
	err, ok := rec.(error)
	return ok && (errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET))
}
