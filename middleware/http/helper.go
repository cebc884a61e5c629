package middleware

import (
	"path"
	"strings"
)

// PathMatcher 跳过路径集合，nil 不匹配任何路径
type PathMatcher struct {
	exact    map[string]struct{}
	prefixes []string
	patterns []string
}

// NewPathMatcher 创建路径匹配器。"/x/**" 匹配 "/x" 及其子路径，含 *?[ 的按 path.Match 匹配，其余精确匹配。
func NewPathMatcher(paths []string) *PathMatcher {
	pm := &PathMatcher{exact: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		switch prefix, ok := strings.CutSuffix(p, "/**"); {
		case ok:
			pm.prefixes = append(pm.prefixes, prefix)
		case strings.ContainsAny(p, "*?["):
			pm.patterns = append(pm.patterns, p)
		default:
			pm.exact[p] = struct{}{}
		}
	}
	return pm
}

func (pm *PathMatcher) Match(urlPath string) bool {
	if pm == nil {
		return false
	}
	if _, ok := pm.exact[urlPath]; ok {
		return true
	}
	for _, prefix := range pm.prefixes {
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	for _, p := range pm.patterns {
		if matched, _ := path.Match(p, urlPath); matched {
			return true
		}
	}
	return false
}
