package geokey

import (
	"crypto/sha256"
	"math"
	"strconv"
	"strings"

	"github.com/kochabx/geostego/errors"
)

const (
	// Precision 坐标量化保留的小数位数
	Precision = 3
	// Separator 规范字符串的字段分隔符
	Separator = "|"
	// KeySize 派生密钥长度（256 bit）
	KeySize = sha256.Size
)

// ErrInvalidCoordinate 坐标格式或范围非法
var ErrInvalidCoordinate = errors.BadRequest("invalid coordinate")

// Key 由位置、关键字与设备标识派生的对称密钥
type Key [KeySize]byte

// Bytes 返回密钥切片
func (k *Key) Bytes() []byte {
	return k[:]
}

// Zero 擦除密钥内容
func (k *Key) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// Quantize 将坐标截断（向零取整）到 Precision 位小数并格式化。
// 截断而非四舍五入：12.34549 与 12.34551 都得到 "12.345"。
// 截断作用于 v 的最短十进制表示，12.345 不会因二进制误差变成 "12.344"。
func Quantize(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", ErrInvalidCoordinate.WithMetadata(map[string]string{"value": strconv.FormatFloat(v, 'g', -1, 64)})
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	frac = (frac + strings.Repeat("0", Precision))[:Precision]
	// -0.000 归一为 0.000
	if neg && strings.Trim(whole+frac, "0") == "" {
		neg = false
	}

	var b strings.Builder
	b.Grow(len(whole) + Precision + 2)
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(whole)
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String(), nil
}

// quantizeWithin 量化后校验范围，范围检查作用于截断后的值
func quantizeWithin(v, limit float64, field string) (string, error) {
	q, err := Quantize(v)
	if err != nil {
		return "", err
	}
	if t, _ := strconv.ParseFloat(q, 64); t < -limit || t > limit {
		return "", ErrInvalidCoordinate.WithMetadata(map[string]string{field: strconv.FormatFloat(v, 'f', -1, 64)})
	}
	return q, nil
}

// QuantizeLatitude 量化纬度，截断后须在 [-90, 90] 内
func QuantizeLatitude(lat float64) (string, error) {
	return quantizeWithin(lat, 90, "latitude")
}

// QuantizeLongitude 量化经度，截断后须在 [-180, 180] 内
func QuantizeLongitude(lon float64) (string, error) {
	return quantizeWithin(lon, 180, "longitude")
}

// ParseCoordinate 解析十进制坐标文本
func ParseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidCoordinate.WithCause(err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidCoordinate
	}
	return v, nil
}

// Canonical 构造密钥派生使用的规范字符串：
//
//	<qlat>|<qlon>|<keyword>|<device_id>
func Canonical(lat, lon float64, keyword, deviceID string) (string, error) {
	qlat, err := QuantizeLatitude(lat)
	if err != nil {
		return "", err
	}
	qlon, err := QuantizeLongitude(lon)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(qlat) + len(qlon) + len(keyword) + len(deviceID) + 3*len(Separator))
	b.WriteString(qlat)
	b.WriteString(Separator)
	b.WriteString(qlon)
	b.WriteString(Separator)
	b.WriteString(keyword)
	b.WriteString(Separator)
	b.WriteString(deviceID)
	return b.String(), nil
}

// Derive 派生对称密钥。纯函数：相同输入总得到相同密钥，不做任何缓存。
func Derive(lat, lon float64, keyword, deviceID string) (Key, error) {
	canonical, err := Canonical(lat, lon, keyword, deviceID)
	if err != nil {
		return Key{}, err
	}
	return Key(sha256.Sum256([]byte(canonical))), nil
}
