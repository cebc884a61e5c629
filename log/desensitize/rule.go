package desensitize

import (
	"fmt"
	"regexp"
)

// Rule 一条脱敏规则，输入为一行 JSON 日志
type Rule interface {
	Name() string
	Apply(line string) string
}

// ContentRule 对整行做正则替换
type ContentRule struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// NewContentRule replacement 可引用分组，如 $1
func NewContentRule(name, pattern, replacement string) (*ContentRule, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("desensitize: rule %s: %w", name, err)
	}
	return &ContentRule{name: name, pattern: re, replacement: replacement}, nil
}

func (r *ContentRule) Name() string {
	return r.name
}

func (r *ContentRule) Apply(line string) string {
	return r.pattern.ReplaceAllString(line, r.replacement)
}

// FieldRule 只改写指定 JSON 字段的值，数字值改写后变为字符串
type FieldRule struct {
	name        string
	field       string
	match       *regexp.Regexp
	value       *regexp.Regexp
	replacement string
}

// NewFieldRule pattern 作用于字段值本身
func NewFieldRule(name, field, pattern, replacement string) (*FieldRule, error) {
	if name == "" || field == "" {
		return nil, ErrEmptyName
	}
	value, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("desensitize: rule %s: %w", name, err)
	}
	match := regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `"\s*:\s*(?:"((?:[^"\\]|\\.)*)"|(-?\d[\d.eE+-]*))`)
	return &FieldRule{name: name, field: field, match: match, value: value, replacement: replacement}, nil
}

func (r *FieldRule) Name() string {
	return r.name
}

func (r *FieldRule) Apply(line string) string {
	return r.match.ReplaceAllStringFunc(line, func(m string) string {
		sub := r.match.FindStringSubmatch(m)
		v := sub[1]
		if v == "" {
			v = sub[2]
		}
		return `"` + r.field + `":"` + r.value.ReplaceAllString(v, r.replacement) + `"`
	})
}

func mustContent(name, pattern, replacement string) *ContentRule {
	r, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return r
}

func mustField(name, field, pattern, replacement string) *FieldRule {
	r, err := NewFieldRule(name, field, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return r
}
