package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/geostego/errors"
	"github.com/kochabx/geostego/transport/http/response"
)

// ErrBodyTooLarge 请求体超出上限
var ErrBodyTooLarge = errors.RequestEntityTooLarge("request body too large")

// BodyLimit 限制请求体大小。声明的 Content-Length 超限时直接拒绝，否则由 MaxBytesReader 在读取时截断。
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			response.GinJSONE(c, ErrBodyTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// IsBodyTooLarge 判断读取请求体时是否超出上限
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
