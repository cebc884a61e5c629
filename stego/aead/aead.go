package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kochabx/geostego/errors"
)

const (
	// KeySize 对称密钥长度（256 bit）
	KeySize = 32
	// NonceSize 随机 nonce 长度（96 bit）
	NonceSize = 12
	// TagSize 认证标签长度（128 bit）
	TagSize = 16
)

// Suite AEAD 算法
type Suite string

const (
	// AES256GCM AES-256-GCM（默认）
	AES256GCM Suite = "aes-256-gcm"
	// ChaCha20Poly1305 ChaCha20-Poly1305
	ChaCha20Poly1305 Suite = "chacha20-poly1305"
)

// ParseSuite 解析算法名称，空字符串返回默认算法
func ParseSuite(name string) (Suite, error) {
	switch Suite(strings.ToLower(strings.TrimSpace(name))) {
	case "", AES256GCM:
		return AES256GCM, nil
	case ChaCha20Poly1305:
		return ChaCha20Poly1305, nil
	default:
		return "", fmt.Errorf("aead: unsupported suite %q", name)
	}
}

var (
	// ErrAuthentication 认证失败。标签不符、密钥错误、密文损坏统一返回此错误，不暴露具体原因。
	ErrAuthentication = errors.Unauthorized("authentication failed")

	// ErrInvalidKeySize 密钥长度错误
	ErrInvalidKeySize = fmt.Errorf("aead: key must be %d bytes", KeySize)
)

// Field 单次加密的结果：nonce、认证标签、密文
type Field struct {
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
}

// Cipher 认证加密接口
type Cipher interface {
	// Suite 返回算法
	Suite() Suite
	// Seal 使用新的随机 nonce 加密明文
	Seal(key, plaintext []byte) (Field, error)
	// Open 校验标签并解密
	Open(key []byte, f Field) ([]byte, error)
}

type cipherImpl struct {
	suite Suite
	rand  io.Reader
}

// Option Cipher 选项
type Option func(*cipherImpl)

// WithRand 替换随机源
func WithRand(r io.Reader) Option {
	return func(c *cipherImpl) {
		if r != nil {
			c.rand = r
		}
	}
}

// New 创建指定算法的 Cipher
func New(suite Suite, opts ...Option) (Cipher, error) {
	suite, err := ParseSuite(string(suite))
	if err != nil {
		return nil, err
	}

	c := &cipherImpl{
		suite: suite,
		rand:  rand.Reader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Default 返回 AES-256-GCM Cipher
func Default() Cipher {
	return &cipherImpl{suite: AES256GCM, rand: rand.Reader}
}

func (c *cipherImpl) Suite() Suite {
	return c.suite
}

// newAEAD 根据算法构造 cipher.AEAD
func (c *cipherImpl) newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	switch c.suite {
	case ChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	}
}

func (c *cipherImpl) Seal(key, plaintext []byte) (Field, error) {
	aead, err := c.newAEAD(key)
	if err != nil {
		return Field{}, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return Field{}, fmt.Errorf("aead: generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)

	// Seal 将标签追加在密文末尾，拆分后分别存放
	offset := len(sealed) - TagSize
	return Field{
		Nonce:      nonce,
		Tag:        sealed[offset:],
		Ciphertext: sealed[:offset],
	}, nil
}

func (c *cipherImpl) Open(key []byte, f Field) ([]byte, error) {
	if len(f.Nonce) != NonceSize || len(f.Tag) != TagSize {
		return nil, ErrAuthentication
	}

	aead, err := c.newAEAD(key)
	if err != nil {
		return nil, ErrAuthentication
	}

	sealed := make([]byte, 0, len(f.Ciphertext)+TagSize)
	sealed = append(sealed, f.Ciphertext...)
	sealed = append(sealed, f.Tag...)

	plaintext, err := aead.Open(nil, f.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
