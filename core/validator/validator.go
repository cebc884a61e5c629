// Package validator 封装 go-playground/validator，错误消息按请求字段名本地化。
package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// TokenMaxLen 会话令牌与设备标识的最大长度
const TokenMaxLen = 256

var errNilTarget = errors.New("validator: nil target")

// Validate 全局校验器
var Validate = New()

// Validator 并发安全
type Validator struct {
	engine *validator.Validate
	trans  ut.Translator
}

// Option 校验器选项
type Option func(*settings)

type settings struct {
	tagName string
	lang    string
}

// WithTagName 设置校验标签名，默认 validate
func WithTagName(name string) Option {
	return func(s *settings) { s.tagName = name }
}

// WithLanguage 错误消息语言，支持 en 与 zh，其他值回退到 en
func WithLanguage(lang string) Option {
	return func(s *settings) { s.lang = lang }
}

type messages struct {
	register func(*validator.Validate, ut.Translator) error
	token    string
}

var catalog = map[string]messages{
	"en": {en_translations.RegisterDefaultTranslations, "{0} must be printable without whitespace and at most 256 characters"},
	"zh": {zh_translations.RegisterDefaultTranslations, "{0}必须是不含空白的可打印字符且不超过256个字符"},
}

func New(opts ...Option) *Validator {
	s := settings{tagName: "validate", lang: "en"}
	for _, opt := range opts {
		opt(&s)
	}
	m, ok := catalog[s.lang]
	if !ok {
		s.lang, m = "en", catalog["en"]
	}

	engine := validator.New(validator.WithRequiredStructEnabled())
	engine.SetTagName(s.tagName)
	engine.RegisterTagNameFunc(fieldName)
	_ = engine.RegisterValidation("token", isToken)

	fallback := en.New()
	trans, _ := ut.New(fallback, fallback, zh.New()).GetTranslator(s.lang)
	_ = m.register(engine, trans)
	_ = engine.RegisterTranslation("token", trans,
		func(t ut.Translator) error { return t.Add("token", m.token, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("token", fe.Field())
			return msg
		},
	)

	return &Validator{engine: engine, trans: trans}
}

// fieldName 依次取 json、form 标签
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func isToken(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || len(s) > TokenMaxLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}

func (v *Validator) Struct(s any) error {
	return v.StructCtx(context.Background(), s)
}

func (v *Validator) StructCtx(ctx context.Context, s any) error {
	if s == nil {
		return errNilTarget
	}
	return v.translate(v.engine.StructCtx(ctx, s))
}

// Var 按标签校验单个值
func (v *Validator) Var(field any, tag string) error {
	return v.translate(v.engine.Var(field, tag))
}

// Engine 底层 validator，用于注册自定义规则
func (v *Validator) Engine() *validator.Validate {
	return v.engine
}

func (v *Validator) translate(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := make(Errors, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: fe.Translate(v.trans)})
	}
	return out
}
