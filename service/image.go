package service

import (
	"bytes"
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	nethttp "github.com/kochabx/geostego/core/net/http"
	"github.com/kochabx/geostego/core/util/id"
	"github.com/kochabx/geostego/stego/imageio"
	"github.com/kochabx/geostego/store/oss/minio"
)

// StoredImage 一次编码输出。本地文件需在使用后 Close。
type StoredImage struct {
	Name string // 文件名或对象名
	Path string // 本地文件路径（TempImageStore）
	URL  string // 下载地址（MinioImageStore）
	Size int64

	cleanup func()
}

// Close 释放本地文件，可重复调用
func (s *StoredImage) Close() error {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	return nil
}

// ImageStore 保存编码后的图像，输出始终为无损 PNG
type ImageStore interface {
	Save(ctx context.Context, img image.Image) (*StoredImage, error)
	// Sweep 清理早于 before 的残留输出，返回清理数量
	Sweep(ctx context.Context, before time.Time) (int, error)
}

// TempImageStore 写入本地临时目录
type TempImageStore struct {
	dir string
}

// NewTempImageStore dir 为空时使用系统临时目录
func NewTempImageStore(dir string) (*TempImageStore, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &TempImageStore{dir: dir}, nil
}

// Dir 输出目录
func (s *TempImageStore) Dir() string {
	return s.dir
}

func (s *TempImageStore) Save(_ context.Context, img image.Image) (*StoredImage, error) {
	path, cleanup, err := imageio.WriteTemp(s.dir, img)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &StoredImage{
		Name:    filepath.Base(path),
		Path:    path,
		Size:    fi.Size(),
		cleanup: cleanup,
	}, nil
}

func (s *TempImageStore) Sweep(ctx context.Context, before time.Time) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "geostego-*.png"))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		fi, err := os.Stat(m)
		if err != nil || !fi.ModTime().Before(before) {
			continue
		}
		if os.Remove(m) == nil {
			n++
		}
	}
	return n, nil
}

// ObjectStorage 对象存储的最小接口，*minio.Client 满足该接口
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*minio.Upload, error)
	List(ctx context.Context, prefix string) ([]minio.Object, error)
	Remove(ctx context.Context, key string) error
}

// MinioImageStore 上传到对象存储并返回预签名地址
type MinioImageStore struct {
	storage ObjectStorage
	prefix  string
}

// NewMinioImageStore prefix 为对象名前缀，如 "encoded/"
func NewMinioImageStore(storage ObjectStorage, prefix string) *MinioImageStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &MinioImageStore{storage: storage, prefix: prefix}
}

func (s *MinioImageStore) Save(ctx context.Context, img image.Image) (*StoredImage, error) {
	var buf bytes.Buffer
	if err := imageio.EncodePNG(&buf, img); err != nil {
		return nil, err
	}

	name := s.prefix + time.Now().UTC().Format("20060102") + "/" + id.Compact() + ".png"
	size := int64(buf.Len())
	res, err := s.storage.Put(ctx, name, &buf, size, nethttp.ContentTypePNG)
	if err != nil {
		return nil, err
	}

	out := &StoredImage{Name: res.Key, Size: size}
	if res.URL != nil {
		out.URL = res.URL.String()
	}
	return out, nil
}

func (s *MinioImageStore) Sweep(ctx context.Context, before time.Time) (int, error) {
	objects, err := s.storage.List(ctx, s.prefix)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, obj := range objects {
		if !obj.LastModified.Before(before) {
			continue
		}
		if err := s.storage.Remove(ctx, obj.Key); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

var (
	_ ImageStore    = (*TempImageStore)(nil)
	_ ImageStore    = (*MinioImageStore)(nil)
	_ ObjectStorage = (*minio.Client)(nil)
)
