// Package comments 从社交平台帖子抓取评论文本。
package comments

import (
	"regexp"
	"strings"
)

// Platform 评论来源平台
type Platform string

const (
	Reddit    Platform = "reddit"
	YouTube   Platform = "youtube"
	Instagram Platform = "instagram"
	Unknown   Platform = "unknown"
)

var patterns = []struct {
	platform Platform
	re       *regexp.Regexp
}{
	{Reddit, regexp.MustCompile(`(https?://)?(www\.)?reddit\.com/r/[\w\d_]+/comments/[\w\d]+`)},
	{YouTube, regexp.MustCompile(`(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/)[\w\-]+`)},
	{Instagram, regexp.MustCompile(`(https?://)?(www\.)?instagram\.com/(p|reel|tv)/[\w\-]+/?`)},
}

// Identify 根据 URL 判断平台，匹配不区分大小写且可出现在任意位置
func Identify(url string) Platform {
	u := strings.ToLower(strings.TrimSpace(url))
	for _, p := range patterns {
		if p.re.MatchString(u) {
			return p.platform
		}
	}
	return Unknown
}
