package comments

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	nethttp "github.com/kochabx/geostego/core/net/http"
	"github.com/kochabx/geostego/core/tag"
)

// ErrMissingAPIKey 未配置 YouTube API key
var ErrMissingAPIKey = errors.New("youtube api key not configured")

// YouTubeFetcher 通过 Data API v3 commentThreads 分页读取评论
type YouTubeFetcher struct {
	client      nethttp.Doer
	base        string
	apiKey      string
	maxComments int
}

// NewYouTubeFetcher 创建 YouTubeFetcher
func NewYouTubeFetcher(c YouTubeConfig) *YouTubeFetcher {
	_ = tag.ApplyDefaults(&c)
	return &YouTubeFetcher{
		client:      nethttp.New(),
		base:        strings.TrimRight(c.BaseURL, "/"),
		apiKey:      c.APIKey,
		maxComments: c.MaxComments,
	}
}

// VideoID 从 watch、shorts 与 youtu.be 地址中提取视频 ID
func VideoID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	switch strings.ToLower(u.Hostname()) {
	case "www.youtube.com", "youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			return u.Query().Get("v")
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			id, _, _ := strings.Cut(rest, "/")
			return id
		}
	case "youtu.be":
		id, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		return id
	}
	return ""
}

type commentThreads struct {
	Items []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextDisplay string `json:"textDisplay"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// Fetch 读取至多 maxComments 条顶层评论
func (f *YouTubeFetcher) Fetch(ctx context.Context, rawURL string) ([]string, error) {
	if f.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	videoID := VideoID(rawURL)
	if videoID == "" {
		return []string{}, nil
	}

	out := make([]string, 0, min(f.maxComments, 100))
	pageToken := ""
	for len(out) < f.maxComments {
		b, err := nethttp.FromURL(f.base)
		if err != nil {
			return nil, err
		}
		b.AppendPath("youtube", "v3", "commentThreads").
			SetQuery("part", "snippet").
			SetQuery("videoId", videoID).
			SetQuery("maxResults", strconv.Itoa(min(100, f.maxComments-len(out)))).
			SetQuery("textFormat", "plainText").
			SetQuery("pageToken", pageToken).
			SetQuery("key", f.apiKey)

		var page commentThreads
		if _, err := f.client.Request(ctx, nethttp.MethodGet, b.Build(), nil, nethttp.WithResponse(&page)); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			out = append(out, item.Snippet.TopLevelComment.Snippet.TextDisplay)
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return out, nil
}
