package writer

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 轮转方式
const (
	RotateSize = "size"
	RotateTime = "time"
)

// FileConfig 文件输出配置
type FileConfig struct {
	Dir    string `json:"dir" default:"log"`
	Name   string `json:"name" default:"geostego"`
	Ext    string `json:"ext" default:"log"`
	Rotate string `json:"rotate" default:"size"`

	// size 模式
	MaxSize    int  `json:"max_size" default:"100"` // MB
	MaxBackups int  `json:"max_backups" default:"5"`
	Compress   bool `json:"compress"`

	// 两种模式共用
	MaxAge time.Duration `json:"max_age" default:"168h"`
	// time 模式
	RotationTime time.Duration `json:"rotation_time" default:"24h"`
}

// Path 当前日志文件路径，time 模式下为指向最新文件的链接
func (c FileConfig) Path() string {
	return filepath.Join(c.Dir, c.Name+"."+c.Ext)
}

// File 按 Rotate 创建轮转文件
func File(c FileConfig) (io.WriteCloser, error) {
	switch c.Rotate {
	case RotateSize:
		days := int(c.MaxAge / (24 * time.Hour))
		if days < 1 {
			days = 1
		}
		return &lumberjack.Logger{
			Filename:   c.Path(),
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     days,
			Compress:   c.Compress,
		}, nil

	case RotateTime:
		w, err := rotatelogs.New(
			filepath.Join(c.Dir, c.Name+".%Y%m%d%H%M."+c.Ext),
			rotatelogs.WithLinkName(c.Path()),
			rotatelogs.WithMaxAge(c.MaxAge),
			rotatelogs.WithRotationTime(c.RotationTime),
		)
		if err != nil {
			return nil, fmt.Errorf("writer: rotatelogs: %w", err)
		}
		return w, nil

	default:
		return nil, fmt.Errorf("writer: unsupported rotate mode %q", c.Rotate)
	}
}
