// Package minio 绑定单个桶的 S3 兼容对象存储客户端。
package minio

import (
	"context"
	"io"
	"mime"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client 所有操作都作用于 Config.Bucket
type Client struct {
	cfg    Config
	client *minio.Client
}

// Object 对象摘要
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Upload 上传结果，URL 为预签名下载地址
type Upload struct {
	Key       string
	Size      int64
	URL       *url.URL
	ExpiresAt time.Time
}

// New 不会发起网络请求，连通性由 Ping 检查
func New(cfg *Config) (*Client, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &Client{cfg: *cfg, client: mc}, nil
}

func (c *Client) Bucket() string {
	return c.cfg.Bucket
}

// EnsureBucket 桶不存在时创建
func (c *Client) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	ok, err := c.client.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return c.opErr("stat-bucket", "", err)
	}
	if ok {
		return nil
	}
	if err := c.client.MakeBucket(ctx, c.cfg.Bucket, minio.MakeBucketOptions{Region: c.cfg.Region}); err != nil {
		// 并发创建时可能已由其他实例建好
		if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return c.opErr("make-bucket", "", err)
	}
	return nil
}

// Ping 桶可访问且存在
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.client.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return c.opErr("stat-bucket", "", err)
	}
	if !ok {
		return c.opErr("stat-bucket", "", minio.ErrorResponse{Code: "NoSuchBucket", Message: "bucket does not exist"})
	}
	return nil
}

// Put 上传并返回预签名下载地址；contentType 为空时按扩展名推断
func (c *Client) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Upload, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	info, err := c.client.PutObject(ctx, c.cfg.Bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, c.opErr("put", key, err)
	}
	u, err := c.Presign(ctx, key, c.cfg.PresignExpiry)
	if err != nil {
		return nil, err
	}
	return &Upload{Key: key, Size: info.Size, URL: u, ExpiresAt: time.Now().Add(c.cfg.PresignExpiry)}, nil
}

// Presign 预签名 GET 地址
func (c *Client) Presign(ctx context.Context, key string, expires time.Duration) (*url.URL, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	u, err := c.client.PresignedGetObject(ctx, c.cfg.Bucket, key, expires, nil)
	if err != nil {
		return nil, c.opErr("presign", key, err)
	}
	return u, nil
}

// Exists 对象不存在时返回 false, nil
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	_, err := c.client.StatObject(ctx, c.cfg.Bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if code := minio.ToErrorResponse(err).Code; code == "NoSuchKey" || code == "NotFound" {
		return false, nil
	}
	return false, c.opErr("stat", key, err)
}

func (c *Client) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := c.client.RemoveObject(ctx, c.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return c.opErr("remove", key, err)
	}
	return nil
}

// List 递归列出前缀下的对象
func (c *Client) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	for obj := range c.client.ListObjects(ctx, c.cfg.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, c.opErr("list", prefix, obj.Err)
		}
		out = append(out, Object{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	return out, nil
}

// Close minio-go 客户端无需释放
func (c *Client) Close() error {
	return nil
}

func (c *Client) opErr(op, key string, err error) error {
	return &OpError{Op: op, Bucket: c.cfg.Bucket, Key: key, Err: err}
}
