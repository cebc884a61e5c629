// Package service 组合隐写引擎、外部协作方与存储，提供请求级的编解码操作。
package service

import (
	"bytes"
	"context"
	"image"
	"io"
	"runtime"
	"time"

	"github.com/kochabx/geostego/collab/comments"
	"github.com/kochabx/geostego/collab/fetch"
	"github.com/kochabx/geostego/collab/keyword"
	"github.com/kochabx/geostego/core/util/id"
	"github.com/kochabx/geostego/errors"
	"github.com/kochabx/geostego/log"
	"github.com/kochabx/geostego/stego"
	"github.com/kochabx/geostego/stego/imageio"
)

// 请求参数错误
var (
	ErrSessionRequired = errors.BadRequest("session is required")
	ErrImageRequired   = errors.BadRequest("image or image_url is required")
)

// Service 编解码服务，所有请求状态都通过参数传入
type Service struct {
	engine      *stego.Engine
	locations   LocationStore
	images      ImageStore
	audit       AuditSink
	fetcher     fetch.Fetcher
	comments    comments.Fetcher
	matcher     keyword.Matcher
	threshold   float64
	pool        *Pool
	metrics     *Metrics
	locationTTL time.Duration
	logger      *log.Logger
	now         func() time.Time
}

// Option Service 选项
type Option func(*Service)

// WithEngine 设置隐写引擎
func WithEngine(e *stego.Engine) Option {
	return func(s *Service) { s.engine = e }
}

// WithLocationStore 设置位置存储
func WithLocationStore(l LocationStore) Option {
	return func(s *Service) { s.locations = l }
}

// WithImageStore 设置输出存储
func WithImageStore(i ImageStore) Option {
	return func(s *Service) { s.images = i }
}

// WithAuditSink 设置审计输出
func WithAuditSink(a AuditSink) Option {
	return func(s *Service) { s.audit = a }
}

// WithFetcher 设置图像下载器
func WithFetcher(f fetch.Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithCommentFetcher 设置评论抓取器
func WithCommentFetcher(f comments.Fetcher) Option {
	return func(s *Service) { s.comments = f }
}

// WithMatcher 设置关键词匹配器与默认阈值
func WithMatcher(m keyword.Matcher, threshold float64) Option {
	return func(s *Service) {
		s.matcher = m
		s.threshold = threshold
	}
}

// WithPool 设置协程池
func WithPool(p *Pool) Option {
	return func(s *Service) { s.pool = p }
}

// WithMetrics 设置指标
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLocationTTL 设置位置保留时间
func WithLocationTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.locationTTL = ttl
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New 创建服务，未指定的依赖使用进程内默认实现
func New(opts ...Option) (*Service, error) {
	s := &Service{
		threshold:   keyword.DefaultThreshold,
		locationTTL: 24 * time.Hour,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = log.G
	}
	if s.engine == nil {
		s.engine = stego.New(stego.WithLogger(s.logger))
	}
	if s.locations == nil {
		s.locations = NewMemoryLocationStore()
	}
	if s.images == nil {
		store, err := NewTempImageStore("")
		if err != nil {
			return nil, err
		}
		s.images = store
	}
	if s.audit == nil {
		s.audit = NopAuditSink{}
	}
	if s.fetcher == nil {
		s.fetcher = fetch.NewHTTPFetcher()
	}
	if s.comments == nil {
		s.comments = comments.NewRouter(nil)
	}
	if s.matcher == nil {
		s.matcher = keyword.NewLexicalMatcher()
	}
	if s.pool == nil {
		pool, err := NewPool(runtime.NumCPU(), 0)
		if err != nil {
			return nil, err
		}
		s.pool = pool
	}
	if s.metrics == nil {
		s.metrics = NewMetrics("geostego", nil, s.pool.Waiting)
	}
	return s, nil
}

// Images 输出存储
func (s *Service) Images() ImageStore {
	return s.images
}

// Close 释放协程池
func (s *Service) Close() error {
	s.pool.Close()
	return nil
}

// StoreLocationRequest 登记接收方位置
type StoreLocationRequest struct {
	Session   string
	Latitude  float64
	Longitude float64
}

// StoreLocation 按会话令牌保存位置，到期自动失效
func (s *Service) StoreLocation(ctx context.Context, req StoreLocationRequest) (err error) {
	defer s.record(ctx, OpStoreLocation, req.Session, s.now(), &err)

	if req.Session == "" {
		return ErrSessionRequired
	}
	return s.locations.Put(ctx, req.Session, Location{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		StoredAt:  s.now().Unix(),
	}, s.locationTTL)
}

// EncodeRequest 编码请求。坐标取自会话登记的位置。
type EncodeRequest struct {
	Session  string
	Keyword  string
	DeviceID string
	Message  string
	Start    int64
	End      int64
	TTL      int64
	Image    []byte
	ImageURL string
}

// Encode 嵌入消息并保存输出图像
func (s *Service) Encode(ctx context.Context, req EncodeRequest) (out *StoredImage, err error) {
	defer s.record(ctx, OpEncode, req.Session, s.now(), &err)

	if req.Session == "" {
		return nil, ErrSessionRequired
	}
	loc, err := s.locations.Get(ctx, req.Session)
	if err != nil {
		return nil, err
	}

	carrier, err := s.loadImage(ctx, req.Image, req.ImageURL, imageio.DecodeCarrier)
	if err != nil {
		return nil, err
	}

	encoded, err := Do(ctx, s.pool, func() (*image.NRGBA, error) {
		return s.engine.Encode(ctx, stego.EncodeInput{
			Carrier:   carrier,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Keyword:   req.Keyword,
			DeviceID:  req.DeviceID,
			Message:   req.Message,
			Start:     req.Start,
			End:       req.End,
			TTL:       req.TTL,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.images.Save(ctx, encoded)
}

// DecodeRequest 解码请求。CommentURL 与 Candidates 同时提供时，
// 从评论中解析关键词，未命中则使用 Keyword。
type DecodeRequest struct {
	Image      []byte
	ImageURL   string
	Latitude   float64
	Longitude  float64
	Keyword    string
	DeviceID   string
	CommentURL string
	Candidates []string
	Threshold  float64 // 0 使用默认阈值
}

// Decode 提取并解密消息
func (s *Service) Decode(ctx context.Context, req DecodeRequest) (msg string, err error) {
	defer s.record(ctx, OpDecode, "", s.now(), &err)

	img, err := s.loadImage(ctx, req.Image, req.ImageURL, imageio.Decode)
	if err != nil {
		return "", err
	}

	kw := s.resolveKeyword(ctx, req)

	return Do(ctx, s.pool, func() (string, error) {
		return s.engine.Decode(ctx, stego.DecodeInput{
			Image:     img,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Keyword:   kw,
			DeviceID:  req.DeviceID,
		})
	})
}

func (s *Service) resolveKeyword(ctx context.Context, req DecodeRequest) string {
	if req.CommentURL == "" || len(req.Candidates) == 0 {
		return req.Keyword
	}
	texts, err := s.comments.Fetch(ctx, req.CommentURL)
	if err != nil {
		s.logger.Warn().Err(err).Msg("comment fetch failed")
		return req.Keyword
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = s.threshold
	}
	return keyword.Resolve(s.matcher, req.Keyword, req.Candidates, texts, threshold)
}

type decodeFunc func(r io.Reader) (image.Image, imageio.Format, error)

func (s *Service) loadImage(ctx context.Context, data []byte, url string, decode decodeFunc) (image.Image, error) {
	if len(data) == 0 {
		if url == "" {
			return nil, ErrImageRequired
		}
		var err error
		if data, err = s.fetcher.Fetch(ctx, url); err != nil {
			return nil, err
		}
	}
	img, _, err := decode(bytes.NewReader(data))
	return img, err
}

// record 写审计与指标，审计失败不影响请求结果
func (s *Service) record(ctx context.Context, op, session string, start time.Time, errp *error) {
	code := 200
	outcome := OutcomeSuccess
	if *errp != nil {
		code = stego.Code(*errp)
		outcome = OutcomeFailure
	}
	s.metrics.observe(op, code, start)

	rec := AuditRecord{
		ID:        id.Ordered(),
		Op:        op,
		Outcome:   outcome,
		Code:      code,
		Session:   SessionFingerprint(session),
		CreatedAt: s.now().UTC(),
	}
	if err := s.audit.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn().Err(err).Str("audit_id", rec.ID).Msg("audit record dropped")
	}

	ev := s.logger.Debug()
	if *errp != nil {
		ev = s.logger.Info().Err(*errp)
	}
	ev.Str("op", op).Int("code", code).Dur("elapsed", time.Since(start)).Msg("request handled")
}
