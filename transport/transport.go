// Package transport 对外服务的公共接口。
package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Server 由 app.App 统一启停
type Server interface {
	// Run 阻塞直到服务停止，正常关闭返回 nil
	Run() error
	Shutdown(context.Context) error
}

// Address 拼接监听地址，host 为空表示监听所有接口
func Address(host string, port int) (string, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	if !ValidateAddress(addr) {
		return "", fmt.Errorf("transport: invalid listen address %q", addr)
	}
	return addr, nil
}

// ValidateAddress host:port 形式，端口 1-65535，host 为 IP、主机名或空
func ValidateAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return false
	}
	return host == "" || net.ParseIP(host) != nil || validHostname(host)
}

func validHostname(host string) bool {
	if len(host) > 253 {
		return false
	}
	for label := range strings.SplitSeq(host, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
				return false
			}
		}
	}
	return true
}
