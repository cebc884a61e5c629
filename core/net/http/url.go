package http

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// URLBuilder 链式构建 URL
type URLBuilder struct {
	scheme string
	host   string
	path   string
	query  url.Values
}

// NewURLBuilder 创建 URL 构建器
func NewURLBuilder() *URLBuilder {
	return &URLBuilder{query: make(url.Values)}
}

// BuildHTTPS 以 https 协议构建
func BuildHTTPS(host string, segments ...string) *URLBuilder {
	return NewURLBuilder().Scheme("https").Host(host).AppendPath(segments...)
}

// FromURL 从现有 URL 创建构建器
func FromURL(rawURL string) (*URLBuilder, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse url: %q is not absolute", rawURL)
	}

	return &URLBuilder{
		scheme: u.Scheme,
		host:   u.Host,
		path:   u.Path,
		query:  u.Query(),
	}, nil
}

// Scheme 设置协议
func (b *URLBuilder) Scheme(scheme string) *URLBuilder {
	b.scheme = scheme
	return b
}

// Host 设置主机（可带端口）
func (b *URLBuilder) Host(host string) *URLBuilder {
	b.host = host
	return b
}

// GetHost 返回主机
func (b *URLBuilder) GetHost() string {
	return b.host
}

// Path 设置完整路径
func (b *URLBuilder) Path(p string) *URLBuilder {
	b.path = p
	return b
}

// GetPath 返回路径
func (b *URLBuilder) GetPath() string {
	return b.path
}

// AppendPath 追加路径段，忽略空段
func (b *URLBuilder) AppendPath(segments ...string) *URLBuilder {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, "/", b.path)
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	b.path = path.Join(parts...)
	return b
}

// SetQuery 设置查询参数，空值不写入
func (b *URLBuilder) SetQuery(key, value string) *URLBuilder {
	if value == "" {
		b.query.Del(key)
		return b
	}
	b.query.Set(key, value)
	return b
}

// Build 生成 URL 字符串
func (b *URLBuilder) Build() string {
	u := &url.URL{
		Scheme: b.scheme,
		Host:   b.host,
		Path:   b.path,
	}
	if len(b.query) > 0 {
		u.RawQuery = b.query.Encode()
	}
	return u.String()
}

// String 实现 fmt.Stringer
func (b *URLBuilder) String() string {
	return b.Build()
}
