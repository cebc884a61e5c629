package payload

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/geostego/errors"
	"github.com/kochabx/geostego/stego/aead"
)

func samplePayload() *Payload {
	return &Payload{
		Version: Version,
		Message: aead.Field{
			Nonce:      bytes.Repeat([]byte{0x01}, aead.NonceSize),
			Tag:        bytes.Repeat([]byte{0x02}, aead.TagSize),
			Ciphertext: []byte("ciphertext"),
		},
		Location: aead.LocationField{
			Nonce:     bytes.Repeat([]byte{0x03}, aead.NonceSize),
			Tag:       bytes.Repeat([]byte{0x04}, aead.TagSize),
			Latitude:  []byte("12.345"),
			Longitude: []byte("67.890"),
		},
		StartTimestamp: 1000,
		EndTimestamp:   2000,
		TTL:            60,
	}
}

func encodeRecord(t *testing.T, m map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	return append([]byte(base64.StdEncoding.EncodeToString(raw)), Sentinel...)
}

func validRecord() map[string]any {
	enc := base64.StdEncoding.EncodeToString
	p := samplePayload()
	return map[string]any{
		"iv":              enc(p.Message.Nonce),
		"tag":             enc(p.Message.Tag),
		"msg":             enc(p.Message.Ciphertext),
		"start_timestamp": p.StartTimestamp,
		"end_timestamp":   p.EndTimestamp,
		"ttl":             p.TTL,
		"lat":             enc(p.Location.Latitude),
		"lon":             enc(p.Location.Longitude),
		"iv_loc":          enc(p.Location.Nonce),
		"tag_loc":         enc(p.Location.Tag),
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	p := samplePayload()

	stream, err := Serialize(p)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(stream, []byte(Sentinel)))
	assert.Equal(t, 1, bytes.Count(stream, []byte(Sentinel)))

	got, err := Deserialize(stream)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestSerializeUsesFixedFieldNames(t *testing.T) {
	stream, err := Serialize(samplePayload())
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(string(bytes.TrimSuffix(stream, []byte(Sentinel))))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"iv", "tag", "msg", "start_timestamp", "end_timestamp", "ttl", "lat", "lon", "iv_loc", "tag_loc"} {
		assert.Contains(t, m, key)
	}
}

func TestDeserializeFirstSentinel(t *testing.T) {
	stream, err := Serialize(samplePayload())
	require.NoError(t, err)

	// 尾部残留数据不影响解析
	stream = append(stream, []byte("garbage#####more")...)
	got, err := Deserialize(stream)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.EndTimestamp)
}

func TestDeserializeDefaultVersion(t *testing.T) {
	got, err := Deserialize(encodeRecord(t, validRecord()))
	require.NoError(t, err)
	assert.Equal(t, Version, got.Version)
}

func TestDeserializeMalformed(t *testing.T) {
	missing := validRecord()
	delete(missing, "tag_loc")

	extra := validRecord()
	extra["note"] = "hello"

	shortNonce := validRecord()
	shortNonce["iv"] = base64.StdEncoding.EncodeToString([]byte("short"))

	badB64 := validRecord()
	badB64["msg"] = "!!!"

	floatTS := validRecord()
	floatTS["start_timestamp"] = 1.5

	tests := []struct {
		name   string
		stream []byte
	}{
		{"no sentinel", []byte("aGVsbG8=")},
		{"empty", nil},
		{"not base64", []byte("@@@@" + Sentinel)},
		{"not json", append([]byte(base64.StdEncoding.EncodeToString([]byte("hello"))), Sentinel...)},
		{"missing field", encodeRecord(t, missing)},
		{"unknown field", encodeRecord(t, extra)},
		{"short nonce", encodeRecord(t, shortNonce)},
		{"bad base64 field", encodeRecord(t, badB64)},
		{"float timestamp", encodeRecord(t, floatTS)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Deserialize(tt.stream)
			assert.Nil(t, got)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPayload))
		})
	}
}

func TestDeserializeLargeTimestamp(t *testing.T) {
	rec := validRecord()
	rec["end_timestamp"] = int64(1<<62 + 1)

	got, err := Deserialize(encodeRecord(t, rec))
	require.NoError(t, err)
	assert.Equal(t, int64(1<<62+1), got.EndTimestamp)
}

func TestSerializeNil(t *testing.T) {
	_, err := Serialize(nil)
	assert.Error(t, err)
}
