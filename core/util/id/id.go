package id

import (
	"strings"

	"github.com/google/uuid"
)

// Generate 生成 UUID v4
func Generate() string {
	return uuid.New().String()
}

// Ordered 生成按时间排序的 UUID v7，失败时退回 v4
func Ordered() string {
	u, err := uuid.NewV7()
	if err != nil {
		return Generate()
	}
	return u.String()
}

// Compact 去掉连字符的 UUID，适合做对象名与文件名
func Compact() string {
	return strings.ReplaceAll(Generate(), "-", "")
}

// Valid 是否为合法 UUID
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
