// Package httpapi 暴露编解码服务的 HTTP 接口。
package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/geostego/core/rate"
	"github.com/kochabx/geostego/core/validator"
	"github.com/kochabx/geostego/errors"
	"github.com/kochabx/geostego/log"
	middleware "github.com/kochabx/geostego/middleware/http"
	"github.com/kochabx/geostego/service"
	httpmetrics "github.com/kochabx/geostego/transport/http/metrics"
	"github.com/kochabx/geostego/transport/http/response"
)

// 路由
const (
	PathIndex         = "/"
	PathStoreLocation = "/store-location"
	PathEncrypt       = "/encrypt-image"
	PathDecrypt       = "/decrypt-image"
)

// OutputFilename 编码结果的下载文件名
const OutputFilename = "encrypted.png"

// Handler HTTP 处理器
type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

// NewHandler 创建处理器
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc, validate: validator.Validate}
}

// Register 注册路由
func (h *Handler) Register(r gin.IRouter) {
	r.GET(PathIndex, h.Index)
	r.POST(PathStoreLocation, h.StoreLocation)
	r.POST(PathEncrypt, h.Encrypt)
	r.POST(PathDecrypt, h.Decrypt)
}

// RouterConfig 路由与中间件配置
type RouterConfig struct {
	BodyLimit    int64
	AllowOrigins string
	Limiter      rate.Limiter // nil 不限流
	Metrics      *httpmetrics.HTTP
	Logger       *log.Logger
}

// NewRouter 创建带中间件的 gin 引擎并注册路由
func NewRouter(svc *service.Service, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(cfg.Logger),
		middleware.Logger(middleware.LoggerConfig{Logger: cfg.Logger, SkipPaths: []string{"/health", "/metrics"}}),
		middleware.Cors(middleware.CorsOrigins(cfg.AllowOrigins)),
	)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler())
	}
	r.Use(
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:   cfg.Limiter,
			FailOpen:  true,
			SkipPaths: []string{PathIndex, "/health", "/metrics"},
			Logger:    cfg.Logger,
		}),
		middleware.BodyLimit(cfg.BodyLimit),
	)

	NewHandler(svc).Register(r)
	return r
}

// Index 存活检查
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "running"})
}

type storeLocationRequest struct {
	Session   string   `json:"session" validate:"required,token"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

// StoreLocation 登记接收方位置
func (h *Handler) StoreLocation(c *gin.Context) {
	var req storeLocationRequest
	if err := h.bind(c, &req, c.ShouldBindJSON); err != nil {
		response.GinJSONE(c, err)
		return
	}

	err := h.svc.StoreLocation(c.Request.Context(), service.StoreLocationRequest{
		Session:   req.Session,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		response.GinJSONE(c, err)
		return
	}
	response.GinJSON(c, gin.H{"message": "location stored"})
}

type encryptRequest struct {
	Session        string `form:"session" validate:"required,token"`
	Keyword        string `form:"keyword" validate:"required"`
	DeviceID       string `form:"device_id" validate:"required,token"`
	Message        string `form:"message" validate:"required"`
	StartTimestamp *int64 `form:"start_timestamp" validate:"required"`
	EndTimestamp   *int64 `form:"end_timestamp" validate:"required"`
	TTL            int64  `form:"ttl" validate:"gte=0"`
	ImageURL       string `form:"image_url" validate:"omitempty,url"`
}

// Encrypt 嵌入消息。输出在本地时返回 PNG 附件，在对象存储时返回下载地址。
func (h *Handler) Encrypt(c *gin.Context) {
	var req encryptRequest
	if err := h.bind(c, &req, c.ShouldBind); err != nil {
		response.GinJSONE(c, err)
		return
	}
	data, err := formFile(c, "image")
	if err != nil {
		response.GinJSONE(c, err)
		return
	}

	out, err := h.svc.Encode(c.Request.Context(), service.EncodeRequest{
		Session:  req.Session,
		Keyword:  req.Keyword,
		DeviceID: req.DeviceID,
		Message:  req.Message,
		Start:    *req.StartTimestamp,
		End:      *req.EndTimestamp,
		TTL:      req.TTL,
		Image:    data,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		response.GinJSONE(c, err)
		return
	}
	defer out.Close()

	if out.Path == "" {
		response.GinJSON(c, gin.H{"object": out.Name, "url": out.URL, "size": out.Size})
		return
	}
	c.FileAttachment(out.Path, OutputFilename)
}

type decryptRequest struct {
	ImageURL   string   `form:"image_url" validate:"omitempty,url"`
	Latitude   *float64 `form:"latitude" validate:"required,latitude"`
	Longitude  *float64 `form:"longitude" validate:"required,longitude"`
	Keyword    string   `form:"keyword"`
	DeviceID   string   `form:"device_id" validate:"required,token"`
	CommentURL string   `form:"comment_url" validate:"omitempty,url"`
	Candidates string   `form:"candidates"`
	Threshold  float64  `form:"threshold" validate:"gte=0,lte=1"`
}

// Decrypt 提取并解密消息
func (h *Handler) Decrypt(c *gin.Context) {
	var req decryptRequest
	if err := h.bind(c, &req, c.ShouldBind); err != nil {
		response.GinJSONE(c, err)
		return
	}
	data, err := formFile(c, "image")
	if err != nil {
		response.GinJSONE(c, err)
		return
	}

	msg, err := h.svc.Decode(c.Request.Context(), service.DecodeRequest{
		Image:      data,
		ImageURL:   req.ImageURL,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Keyword:    req.Keyword,
		DeviceID:   req.DeviceID,
		CommentURL: req.CommentURL,
		Candidates: splitCandidates(req.Candidates),
		Threshold:  req.Threshold,
	})
	if err != nil {
		response.GinJSONE(c, err)
		return
	}
	response.GinJSON(c, gin.H{"message": msg})
}

// bind 解析并校验请求
func (h *Handler) bind(c *gin.Context, req any, bindFunc func(any) error) error {
	if err := bindFunc(req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			return middleware.ErrBodyTooLarge
		}
		return errors.BadRequest("invalid request").WithCause(err)
	}
	if err := h.validate.StructCtx(c.Request.Context(), req); err != nil {
		return errors.BadRequest("%s", err.Error()).WithMetadata(validator.Details(err))
	}
	return nil
}

// formFile 读取可选的上传文件，未上传时返回 nil
func formFile(c *gin.Context, name string) ([]byte, error) {
	fh, err := c.FormFile(name)
	if err == http.ErrMissingFile || err == http.ErrNotMultipart {
		return nil, nil
	}
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			return nil, middleware.ErrBodyTooLarge
		}
		return nil, errors.BadRequest("invalid upload").WithCause(err)
	}
	return readFile(fh)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.BadRequest("invalid upload").WithCause(err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func splitCandidates(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
