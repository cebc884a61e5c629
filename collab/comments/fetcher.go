package comments

import (
	"context"

	"github.com/kochabx/geostego/log"
)

// Fetcher 抓取一个帖子的评论
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]string, error)
}

// Router 按平台分发到具体的 Fetcher。
// 未知平台或抓取失败时返回空列表，空列表是合法结果。
type Router struct {
	fetchers map[Platform]Fetcher
}

// NewRouter 创建 Router，nil 的 Fetcher 会被忽略
func NewRouter(fetchers map[Platform]Fetcher) *Router {
	r := &Router{fetchers: make(map[Platform]Fetcher, len(fetchers))}
	for p, f := range fetchers {
		if f != nil {
			r.fetchers[p] = f
		}
	}
	return r
}

// NewRouterFromConfig 按配置创建三个平台的 Fetcher
func NewRouterFromConfig(c Config) *Router {
	return NewRouter(map[Platform]Fetcher{
		Reddit:    NewRedditFetcher(c.Reddit),
		YouTube:   NewYouTubeFetcher(c.YouTube),
		Instagram: NewInstagramFetcher(c.Instagram),
	})
}

// Fetch 实现 Fetcher，错误只记录日志
func (r *Router) Fetch(ctx context.Context, url string) ([]string, error) {
	platform := Identify(url)
	f, ok := r.fetchers[platform]
	if !ok {
		log.G.Warn().Str("platform", string(platform)).Msg("unsupported comment source")
		return []string{}, nil
	}

	comments, err := f.Fetch(ctx, url)
	if err != nil {
		log.G.Error().Err(err).Str("platform", string(platform)).Msg("fetch comments failed")
		return []string{}, nil
	}
	if comments == nil {
		comments = []string{}
	}

	log.G.Debug().Str("platform", string(platform)).Int("count", len(comments)).Msg("comments fetched")
	return comments, nil
}

var _ Fetcher = (*Router)(nil)
