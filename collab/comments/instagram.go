package comments

import (
	"context"
	"errors"
	"strings"

	nethttp "github.com/kochabx/geostego/core/net/http"
	"github.com/kochabx/geostego/core/tag"
)

// ErrMissingToken 未配置 Apify token
var ErrMissingToken = errors.New("apify token not configured")

// InstagramFetcher 通过 Apify 的同步运行接口读取 Instagram 评论
type InstagramFetcher struct {
	client       nethttp.Doer
	base         string
	token        string
	actor        string
	resultsLimit int
}

// NewInstagramFetcher 创建 InstagramFetcher
func NewInstagramFetcher(c InstagramConfig) *InstagramFetcher {
	_ = tag.ApplyDefaults(&c)
	return &InstagramFetcher{
		client:       nethttp.New(),
		base:         strings.TrimRight(c.BaseURL, "/"),
		token:        c.Token,
		actor:        c.Actor,
		resultsLimit: c.ResultsLimit,
	}
}

type apifyInput struct {
	DirectURLs     []string   `json:"directUrls"`
	ResultsLimit   int        `json:"resultsLimit"`
	ScrollWaitSecs int        `json:"scrollWaitSecs"`
	Proxy          apifyProxy `json:"proxy"`
}

type apifyProxy struct {
	UseApifyProxy bool `json:"useApifyProxy"`
}

type apifyItem struct {
	Text string `json:"text"`
}

// Fetch 运行 actor 并读取数据集中的评论文本
func (f *InstagramFetcher) Fetch(ctx context.Context, url string) ([]string, error) {
	if f.token == "" {
		return nil, ErrMissingToken
	}

	b, err := nethttp.FromURL(f.base)
	if err != nil {
		return nil, err
	}
	b.AppendPath("v2", "acts", f.actor, "run-sync-get-dataset-items").SetQuery("token", f.token)

	input := apifyInput{
		DirectURLs:     []string{url},
		ResultsLimit:   f.resultsLimit,
		ScrollWaitSecs: 3,
		Proxy:          apifyProxy{UseApifyProxy: true},
	}

	var items []apifyItem
	if _, err := f.client.Request(ctx, nethttp.MethodPost, b.Build(), input, nethttp.WithResponse(&items)); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Text != "" {
			out = append(out, item.Text)
		}
	}
	return out, nil
}
