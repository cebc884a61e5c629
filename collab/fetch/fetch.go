// Package fetch 下载远程载体图像。
package fetch

import (
	"context"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	nethttp "github.com/kochabx/geostego/core/net/http"
	"github.com/kochabx/geostego/stego"
)

// ErrDownload 图像下载失败
var ErrDownload = stego.ErrDownload

// DefaultMaxBytes 默认下载上限 20 MiB
const DefaultMaxBytes int64 = 20 << 20

// Extensions 允许的文件扩展名
var Extensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp", ".tif", ".tiff"}

// Fetcher 下载图像原始字节
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Config 下载配置
type Config struct {
	MaxBytes  int64  `json:"max_bytes" default:"20971520"`
	Timeout   int    `json:"timeout" default:"30"` // 秒
	UserAgent string `json:"user_agent" default:"Mozilla/5.0"`
}

// HTTPFetcher 基于 HTTP 的 Fetcher
type HTTPFetcher struct {
	client   nethttp.Doer
	maxBytes int64
}

// Option HTTPFetcher 选项
type Option func(*HTTPFetcher)

// WithClient 替换 HTTP 客户端
func WithClient(c nethttp.Doer) Option {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMaxBytes 设置下载上限
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewHTTPFetcher 创建 HTTPFetcher
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   nethttp.New(),
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFromConfig 按配置创建 HTTPFetcher
func NewFromConfig(c Config) *HTTPFetcher {
	client := nethttp.New(
		nethttp.WithTimeout(time.Duration(c.Timeout)*time.Second),
		nethttp.WithUserAgent(c.UserAgent),
	)
	return NewHTTPFetcher(WithClient(client), WithMaxBytes(c.MaxBytes))
}

// RawURL 将 GitHub blob 页面地址转换为原始文件地址
func RawURL(rawURL string) (string, error) {
	b, err := nethttp.FromURL(rawURL)
	if err != nil {
		return "", err
	}

	host := strings.ToLower(b.GetHost())
	if (host == "github.com" || host == "www.github.com") && strings.Contains(b.GetPath(), "/blob/") {
		b.Host("raw.githubusercontent.com").Path(strings.Replace(b.GetPath(), "/blob/", "/", 1))
	}
	return b.Build(), nil
}

// Fetch 下载图像。扩展名、状态码、Content-Type 与大小任一不符都返回 ErrDownload。
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := RawURL(rawURL)
	if err != nil {
		return nil, ErrDownload.WithCause(err)
	}

	b, _ := nethttp.FromURL(target)
	if !allowedExtension(b.GetPath()) {
		return nil, ErrDownload.WithMetadata(map[string]string{"reason": "url does not point to an image file"})
	}

	resp, err := f.client.Request(ctx, nethttp.MethodGet, target, nil)
	if err != nil {
		return nil, ErrDownload.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ErrDownload.WithMetadata(map[string]string{"status": strconv.Itoa(resp.StatusCode)})
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image") && !strings.HasPrefix(contentType, nethttp.ContentTypeOctetStream) {
		return nil, ErrDownload.WithMetadata(map[string]string{"content_type": contentType})
	}
	if resp.ContentLength > f.maxBytes {
		return nil, ErrDownload.WithMetadata(map[string]string{"reason": "too large"})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, ErrDownload.WithCause(err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrDownload.WithMetadata(map[string]string{"reason": "too large"})
	}
	return data, nil
}

func allowedExtension(p string) bool {
	return slices.Contains(Extensions, strings.ToLower(path.Ext(p)))
}

var _ Fetcher = (*HTTPFetcher)(nil)
