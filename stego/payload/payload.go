package payload

import (
	"bytes"
	_ "embed"
	"encoding/base64"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kochabx/geostego/errors"
	"github.com/kochabx/geostego/stego/aead"
)

const (
	// Version 当前载荷格式版本
	Version = 1
	// Sentinel 嵌入数据的结束标记，不属于 base64 字母表
	Sentinel = "#####"
)

// ErrMalformedPayload 载荷无法解析或缺少必要字段
var ErrMalformedPayload = errors.UnprocessableEntity("malformed payload")

var (
	//go:embed schema.json
	schemaJSON string
	schema     = jsonschema.MustCompileString("payload.json", schemaJSON)

	encoding = base64.StdEncoding
)

// Payload 嵌入图像的结构化载荷
type Payload struct {
	Version        int
	Message        aead.Field
	Location       aead.LocationField
	StartTimestamp int64
	EndTimestamp   int64
	// TTL 仅作为信息携带，有效期由 StartTimestamp/EndTimestamp 决定
	TTL int64
}

// record 线上字段，名称固定
type record struct {
	V              int    `json:"v,omitempty"`
	IV             string `json:"iv"`
	Tag            string `json:"tag"`
	Msg            string `json:"msg"`
	StartTimestamp int64  `json:"start_timestamp"`
	EndTimestamp   int64  `json:"end_timestamp"`
	TTL            int64  `json:"ttl"`
	Lat            string `json:"lat"`
	Lon            string `json:"lon"`
	IVLoc          string `json:"iv_loc"`
	TagLoc         string `json:"tag_loc"`
}

// Serialize 序列化为 base64(json) + Sentinel
func Serialize(p *Payload) ([]byte, error) {
	if p == nil {
		return nil, errors.Internal("payload is nil")
	}

	r := record{
		V:              Version,
		IV:             encoding.EncodeToString(p.Message.Nonce),
		Tag:            encoding.EncodeToString(p.Message.Tag),
		Msg:            encoding.EncodeToString(p.Message.Ciphertext),
		StartTimestamp: p.StartTimestamp,
		EndTimestamp:   p.EndTimestamp,
		TTL:            p.TTL,
		Lat:            encoding.EncodeToString(p.Location.Latitude),
		Lon:            encoding.EncodeToString(p.Location.Longitude),
		IVLoc:          encoding.EncodeToString(p.Location.Nonce),
		TagLoc:         encoding.EncodeToString(p.Location.Tag),
	}

	raw, err := json.Marshal(&r)
	if err != nil {
		return nil, errors.Internal("marshal payload").WithCause(err)
	}

	stream := make([]byte, encoding.EncodedLen(len(raw)), encoding.EncodedLen(len(raw))+len(Sentinel))
	encoding.Encode(stream, raw)
	return append(stream, Sentinel...), nil
}

// Deserialize 取第一个 Sentinel 之前的内容解码。任何字段缺失、多余或损坏都返回 ErrMalformedPayload。
func Deserialize(stream []byte) (*Payload, error) {
	idx := bytes.Index(stream, []byte(Sentinel))
	if idx < 0 {
		return nil, ErrMalformedPayload.WithMetadata(map[string]string{"reason": "sentinel not found"})
	}

	raw := make([]byte, encoding.DecodedLen(idx))
	n, err := encoding.Decode(raw, stream[:idx])
	if err != nil {
		return nil, ErrMalformedPayload.WithCause(err)
	}
	raw = raw[:n]

	var doc any
	docDec := json.NewDecoder(bytes.NewReader(raw))
	docDec.UseNumber()
	if err := docDec.Decode(&doc); err != nil {
		return nil, ErrMalformedPayload.WithCause(err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, ErrMalformedPayload.WithCause(err)
	}

	var r record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return nil, ErrMalformedPayload.WithCause(err)
	}

	return r.toPayload()
}

// toPayload 解码各二进制字段
func (r *record) toPayload() (*Payload, error) {
	p := &Payload{
		Version:        r.V,
		StartTimestamp: r.StartTimestamp,
		EndTimestamp:   r.EndTimestamp,
		TTL:            r.TTL,
	}
	if p.Version == 0 {
		p.Version = Version
	}

	fields := []struct {
		name string
		src  string
		dst  *[]byte
	}{
		{"iv", r.IV, &p.Message.Nonce},
		{"tag", r.Tag, &p.Message.Tag},
		{"msg", r.Msg, &p.Message.Ciphertext},
		{"lat", r.Lat, &p.Location.Latitude},
		{"lon", r.Lon, &p.Location.Longitude},
		{"iv_loc", r.IVLoc, &p.Location.Nonce},
		{"tag_loc", r.TagLoc, &p.Location.Tag},
	}
	for _, f := range fields {
		b, err := encoding.DecodeString(f.src)
		if err != nil {
			return nil, ErrMalformedPayload.WithMetadata(map[string]string{"field": f.name}).WithCause(err)
		}
		*f.dst = b
	}

	if len(p.Message.Nonce) != aead.NonceSize || len(p.Location.Nonce) != aead.NonceSize {
		return nil, ErrMalformedPayload.WithMetadata(map[string]string{"reason": "nonce size"})
	}
	if len(p.Message.Tag) != aead.TagSize || len(p.Location.Tag) != aead.TagSize {
		return nil, ErrMalformedPayload.WithMetadata(map[string]string{"reason": "tag size"})
	}

	return p, nil
}
