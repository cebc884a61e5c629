package desensitize

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentRule(t *testing.T) {
	h := NewHook()
	require.NoError(t, h.AddContentRule("phone", `1[3-9]\d{9}`, "1****5678"))
	require.NoError(t, h.AddContentRule("email", `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`, "***@***.com"))

	tests := []struct {
		input string
		want  string
	}{
		{"联系方式：13912345678，邮箱：user@test.org", "联系方式：1****5678，邮箱：***@***.com"},
		{"普通日志", "普通日志"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.Desensitize(tt.input))
	}
}

func TestFieldRule(t *testing.T) {
	r, err := NewFieldRule("token", "token", `.*`, "***")
	require.NoError(t, err)

	assert.Equal(t, `{"token":"***","n":1}`, r.Apply(`{"token":"abc","n":1}`))
	assert.Equal(t, `{"token":"***"}`, r.Apply(`{"token" : 12345}`))
	assert.Equal(t, `{"token":"***"}`, r.Apply(`{"token":"a\"b"}`))
	assert.Equal(t, `{"other":"abc"}`, r.Apply(`{"other":"abc"}`))
}

func TestHookManagement(t *testing.T) {
	h := NewHook()
	require.NoError(t, h.AddContentRule("a", `x`, "1"))
	require.NoError(t, h.AddContentRule("b", `1`, "2"))
	assert.Equal(t, []string{"a", "b"}, h.Rules())

	// 按添加顺序应用
	assert.Equal(t, "2", h.Desensitize("x"))

	assert.True(t, h.SetEnabled("b", false))
	assert.Equal(t, "1", h.Desensitize("x"))
	assert.True(t, h.SetEnabled("b", true))
	assert.False(t, h.SetEnabled("missing", false))

	// 同名替换保留位置
	require.NoError(t, h.AddContentRule("a", `x`, "y"))
	assert.Equal(t, []string{"a", "b"}, h.Rules())
	assert.Equal(t, "y", h.Desensitize("x"))

	assert.True(t, h.RemoveRule("a"))
	assert.False(t, h.RemoveRule("a"))
	assert.Equal(t, []string{"b"}, h.Rules())

	assert.Error(t, h.AddContentRule("bad", "[", ""))
	assert.ErrorIs(t, h.AddFieldRule("", "f", ".*", ""), ErrEmptyName)
}

func TestBuiltinRules(t *testing.T) {
	h := NewHook()
	h.AddBuiltin(BuiltinRules()...)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"latitude number", `{"latitude":12.34567,"level":"info"}`, `{"latitude":"12.***","level":"info"}`},
		{"negative longitude", `{"longitude":-77.0365}`, `{"longitude":"-77.***"}`},
		{"latitude string", `{"latitude":"40.7128"}`, `{"latitude":"40.***"}`},
		{"keyword", `{"keyword":"sunrise"}`, `{"keyword":"******"}`},
		{"device id", `{"device_id":"ABCDEF123"}`, `{"device_id":"ABCD****"}`},
		{"session", `{"session":"tok-123456"}`, `{"session":"tok-****"}`},
		{"email", `{"message":"mail alice@example.com"}`, `{"message":"mail a***e@e***.com"}`},
		{"plain message untouched", `{"message":"payload embedded"}`, `{"message":"payload embedded"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Desensitize(tt.input))
		})
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	h := NewHook()
	w := NewWriter(&buf, h)

	n, err := w.Write([]byte("13812345678\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, "13812345678\n", buf.String())

	buf.Reset()
	require.NoError(t, h.AddContentRule("phone", `1[3-9]\d{9}`, "1****5678"))
	n, err = w.Write([]byte("手机号：13812345678"))
	require.NoError(t, err)
	assert.Equal(t, len("手机号：13812345678"), n)
	assert.Equal(t, "手机号：1****5678", buf.String())
}
