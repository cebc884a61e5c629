package comments

// Config 评论抓取配置
type Config struct {
	Reddit    RedditConfig    `json:"reddit"`
	YouTube   YouTubeConfig   `json:"youtube"`
	Instagram InstagramConfig `json:"instagram"`
}

// RedditConfig Reddit 公开 JSON 接口
type RedditConfig struct {
	BaseURL string `json:"base_url" default:"https://www.reddit.com"`
	Limit   int    `json:"limit" default:"10"`
}

// YouTubeConfig YouTube Data API v3
type YouTubeConfig struct {
	BaseURL     string `json:"base_url" default:"https://www.googleapis.com"`
	APIKey      string `json:"api_key"`
	MaxComments int    `json:"max_comments" default:"100"`
}

// InstagramConfig Apify instagram-comment-scraper
type InstagramConfig struct {
	BaseURL      string `json:"base_url" default:"https://api.apify.com"`
	Token        string `json:"token"`
	Actor        string `json:"actor" default:"apify~instagram-comment-scraper"`
	ResultsLimit int    `json:"results_limit" default:"1000"`
}
