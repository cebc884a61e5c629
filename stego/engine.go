// Package stego 实现基于地理位置密钥的图像隐写编解码。
//
// 编码：派生密钥 → AEAD 加密消息与坐标 → 序列化载荷 → 写入图像最低有效位。
// 解码：提取 → 反序列化 → 有效期校验 → 派生密钥 → 解密消息 → 位置一致性校验。
//
// 截断后的坐标参与密钥派生，声明坐标落在另一格时解密先以 ErrAuthentication 失败。
// ErrLocationMismatch 只出现在消息可解而坐标字段在同一密钥下封装了不同文本的载荷上。
//
// Engine 不持有任何请求相关的状态，密钥只在单次调用内存在，可并发使用。
package stego

import (
	"context"
	"image"
	"strconv"
	"time"

	"github.com/kochabx/geostego/errors"
	"github.com/kochabx/geostego/log"
	"github.com/kochabx/geostego/stego/aead"
	"github.com/kochabx/geostego/stego/geokey"
	"github.com/kochabx/geostego/stego/lsb"
	"github.com/kochabx/geostego/stego/payload"
)

// Engine 隐写编解码引擎
type Engine struct {
	cipher         aead.Cipher
	now            func() time.Time
	verifyLocation bool
	logger         *log.Logger
}

// Option Engine 选项
type Option func(*Engine)

// WithCipher 设置 AEAD 实现
func WithCipher(c aead.Cipher) Option {
	return func(e *Engine) {
		if c != nil {
			e.cipher = c
		}
	}
}

// WithClock 设置时钟，用于有效期判断
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocationCheck 是否在解密后校验嵌入坐标，默认开启
func WithLocationCheck(enabled bool) Option {
	return func(e *Engine) {
		e.verifyLocation = enabled
	}
}

// WithLogger 设置日志记录器
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New 创建 Engine
func New(opts ...Option) *Engine {
	e := &Engine{
		cipher:         aead.Default(),
		now:            time.Now,
		verifyLocation: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EncodeInput 编码参数
type EncodeInput struct {
	Carrier   image.Image
	Latitude  float64
	Longitude float64
	Keyword   string
	DeviceID  string
	Message   string
	Start     int64
	End       int64
	// TTL 随载荷携带，不参与有效期判断
	TTL int64
}

// DecodeInput 解码参数。Keyword 应为已经过关键字解析后的值。
type DecodeInput struct {
	Image     image.Image
	Latitude  float64
	Longitude float64
	Keyword   string
	DeviceID  string
}

func (e *Engine) log() *log.Logger {
	if e.logger != nil {
		return e.logger
	}
	return log.G
}

// Encode 加密消息并嵌入载体副本，载体本身不会被修改
func (e *Engine) Encode(ctx context.Context, in EncodeInput) (*image.NRGBA, error) {
	if in.Carrier == nil {
		return nil, errors.BadRequest("carrier image is required")
	}

	window := Window{Start: in.Start, End: in.End}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if in.TTL < 0 {
		return nil, ErrInvalidWindow.WithMetadata(map[string]string{"ttl": strconv.FormatInt(in.TTL, 10)})
	}

	qlat, err := geokey.QuantizeLatitude(in.Latitude)
	if err != nil {
		return nil, err
	}
	qlon, err := geokey.QuantizeLongitude(in.Longitude)
	if err != nil {
		return nil, err
	}

	key, err := geokey.Derive(in.Latitude, in.Longitude, in.Keyword, in.DeviceID)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := e.cipher.Seal(key.Bytes(), []byte(in.Message))
	if err != nil {
		return nil, errors.Internal("seal message").WithCause(err)
	}
	loc, err := aead.SealLocation(e.cipher, key.Bytes(), qlat, qlon)
	if err != nil {
		return nil, errors.Internal("seal location").WithCause(err)
	}

	stream, err := payload.Serialize(&payload.Payload{
		Version:        payload.Version,
		Message:        msg,
		Location:       loc,
		StartTimestamp: in.Start,
		EndTimestamp:   in.End,
		TTL:            in.TTL,
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := lsb.Embed(in.Carrier, stream)
	if err != nil {
		return nil, err
	}

	e.log().Debug().
		Str("suite", string(e.cipher.Suite())).
		Int("stream_bytes", len(stream)).
		Int("capacity_bits", lsb.Capacity(in.Carrier)).
		Msg("payload embedded")
	return out, nil
}

// Decode 提取并解密消息。有效期在任何密码学操作之前校验。
func (e *Engine) Decode(ctx context.Context, in DecodeInput) (string, error) {
	if in.Image == nil {
		return "", errors.BadRequest("image is required")
	}

	stream, err := lsb.Extract(in.Image, []byte(payload.Sentinel))
	if err != nil {
		return "", err
	}
	p, err := payload.Deserialize(stream)
	if err != nil {
		return "", err
	}

	window := Window{Start: p.StartTimestamp, End: p.EndTimestamp}
	if err := window.Check(e.now().Unix()); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	key, err := geokey.Derive(in.Latitude, in.Longitude, in.Keyword, in.DeviceID)
	if err != nil {
		return "", err
	}
	defer key.Zero()

	plaintext, err := e.cipher.Open(key.Bytes(), p.Message)
	if err != nil {
		return "", err
	}

	if e.verifyLocation {
		if err := checkLocation(e.cipher, key.Bytes(), p.Location, in.Latitude, in.Longitude); err != nil {
			return "", err
		}
	}

	e.log().Debug().Str("suite", string(e.cipher.Suite())).Msg("payload decoded")
	return string(plaintext), nil
}
