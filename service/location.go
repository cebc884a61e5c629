package service

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/kochabx/geostego/stego"
	"github.com/kochabx/geostego/stego/geokey"
	"github.com/kochabx/geostego/store/redis"
)

// Location 会话登记的接收方位置
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	StoredAt  int64   `json:"stored_at"`
}

// LocationStore 以会话令牌为键保存位置，过期后自动失效
type LocationStore interface {
	Put(ctx context.Context, session string, loc Location, ttl time.Duration) error
	// Get 不存在或已过期时返回 stego.ErrLocationNotFound
	Get(ctx context.Context, session string) (Location, error)
	Delete(ctx context.Context, session string) error
}

func validateLocation(loc Location) error {
	if _, err := geokey.QuantizeLatitude(loc.Latitude); err != nil {
		return err
	}
	_, err := geokey.QuantizeLongitude(loc.Longitude)
	return err
}

// MemoryLocationStore 进程内实现，适用于单节点和测试
type MemoryLocationStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	loc      Location
	expireAt time.Time
}

// NewMemoryLocationStore 创建进程内位置存储
func NewMemoryLocationStore() *MemoryLocationStore {
	return &MemoryLocationStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryLocationStore) Put(_ context.Context, session string, loc Location, ttl time.Duration) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[session] = memoryEntry{loc: loc, expireAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryLocationStore) Get(_ context.Context, session string) (Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[session]
	if !ok {
		return Location{}, stego.ErrLocationNotFound
	}
	if !s.now().Before(e.expireAt) {
		delete(s.entries, session)
		return Location{}, stego.ErrLocationNotFound
	}
	return e.loc, nil
}

func (s *MemoryLocationStore) Delete(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, session)
	return nil
}

// Purge 删除过期条目，返回删除数量
func (s *MemoryLocationStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, e := range s.entries {
		if !now.Before(e.expireAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// RedisLocationStore 基于 Redis 的实现，过期由 Redis 负责
type RedisLocationStore struct {
	client *redis.Client
}

// NewRedisLocationStore 创建 Redis 位置存储
func NewRedisLocationStore(client *redis.Client) *RedisLocationStore {
	return &RedisLocationStore{client: client}
}

func (s *RedisLocationStore) key(session string) string {
	return s.client.Key("location", session)
}

func (s *RedisLocationStore) Put(ctx context.Context, session string, loc Location, ttl time.Duration) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return s.client.UniversalClient().Set(ctx, s.key(session), data, ttl).Err()
}

func (s *RedisLocationStore) Get(ctx context.Context, session string) (Location, error) {
	data, err := s.client.UniversalClient().Get(ctx, s.key(session)).Bytes()
	if redis.IsNil(err) {
		return Location{}, stego.ErrLocationNotFound
	}
	if err != nil {
		return Location{}, err
	}

	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return Location{}, err
	}
	return loc, nil
}

func (s *RedisLocationStore) Delete(ctx context.Context, session string) error {
	return s.client.UniversalClient().Del(ctx, s.key(session)).Err()
}

var (
	_ LocationStore = (*MemoryLocationStore)(nil)
	_ LocationStore = (*RedisLocationStore)(nil)
)
