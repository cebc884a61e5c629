package comments

import (
	"context"
	"strconv"
	"strings"

	nethttp "github.com/kochabx/geostego/core/net/http"
	"github.com/kochabx/geostego/core/tag"
)

// RedditFetcher 通过帖子的公开 .json 接口读取顶层评论
type RedditFetcher struct {
	client nethttp.Doer
	base   string
	limit  int
}

// NewRedditFetcher 创建 RedditFetcher
func NewRedditFetcher(c RedditConfig) *RedditFetcher {
	_ = tag.ApplyDefaults(&c)
	return &RedditFetcher{
		client: nethttp.New(nethttp.WithUserAgent("geostego-comment-scraper")),
		base:   strings.TrimRight(c.BaseURL, "/"),
		limit:  c.Limit,
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Body string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch 返回前 limit 条顶层评论
func (f *RedditFetcher) Fetch(ctx context.Context, url string) ([]string, error) {
	b, err := nethttp.FromURL(url)
	if err != nil {
		return nil, err
	}

	target, err := nethttp.FromURL(f.base)
	if err != nil {
		return nil, err
	}
	target.Path(strings.TrimRight(b.GetPath(), "/") + ".json").
		SetQuery("limit", strconv.Itoa(f.limit)).
		SetQuery("raw_json", "1")

	// 第一个 listing 是帖子本身，第二个是评论树
	var listings []redditListing
	if _, err := f.client.Request(ctx, nethttp.MethodGet, target.Build(), nil, nethttp.WithResponse(&listings)); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return []string{}, nil
	}

	out := make([]string, 0, f.limit)
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" || child.Data.Body == "" {
			continue
		}
		out = append(out, child.Data.Body)
		if len(out) == f.limit {
			break
		}
	}
	return out, nil
}
