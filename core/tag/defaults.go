// Package tag 按结构体 default 标签填充零值字段。
package tag

import (
	"reflect"
	"strconv"
	"strings"
)

const maxDepth = 32

// Option ApplyDefaults 选项
type Option func(*walker)

// WithTagName 读取其他标签名，默认 "default"
func WithTagName(name string) Option {
	return func(w *walker) {
		if name != "" {
			w.tag = name
		}
	}
}

// WithSeparator 切片与 map 元素分隔符，默认 ","
func WithSeparator(sep string) Option {
	return func(w *walker) {
		if sep != "" {
			w.sep = sep
		}
	}
}

// ApplyDefaults 填充 target 中带 default 标签的零值字段，已有值不会被覆盖。
// 嵌套结构体与结构体指针递归处理，nil 的结构体指针会被分配。
//
//	type Config struct {
//	    Addr    string        `default:"127.0.0.1:6379"`
//	    Timeout time.Duration `default:"3s"`
//	}
func ApplyDefaults(target any, opts ...Option) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}

	w := &walker{tag: "default", sep: ","}
	for _, opt := range opts {
		opt(w)
	}
	return w.walk(v.Elem(), "", 0)
}

type walker struct {
	tag string
	sep string
}

func (w *walker) walk(v reflect.Value, prefix string, depth int) error {
	if depth >= maxDepth {
		return &FieldError{Path: prefix, Err: ErrTooDeep}
	}

	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		path := sf.Name
		if prefix != "" {
			path = prefix + "." + sf.Name
		}
		if err := w.field(fv, sf.Tag.Get(w.tag), path, depth); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) field(fv reflect.Value, def, path string, depth int) error {
	switch fv.Kind() {
	case reflect.Struct:
		if isText(fv) {
			break
		}
		return w.walk(fv, path, depth+1)

	case reflect.Pointer:
		elem := fv.Type().Elem()
		if elem.Kind() == reflect.Struct && !isText(reflect.New(elem).Elem()) {
			if fv.IsNil() {
				fv.Set(reflect.New(elem))
			}
			return w.walk(fv.Elem(), path, depth+1)
		}
		if !fv.IsNil() || def == "" {
			return nil
		}
		p := reflect.New(elem)
		if err := w.set(p.Elem(), def); err != nil {
			return &FieldError{Path: path, Value: def, Err: err}
		}
		fv.Set(p)
		return nil

	case reflect.Slice:
		// 已有元素时只处理其中的结构体
		if fv.Len() > 0 {
			return w.elements(fv, path, depth)
		}
	}

	if def == "" || !fv.IsZero() {
		return nil
	}
	if err := w.set(fv, def); err != nil {
		return &FieldError{Path: path, Value: def, Err: err}
	}
	return nil
}

func (w *walker) elements(fv reflect.Value, path string, depth int) error {
	for i := range fv.Len() {
		e := fv.Index(i)
		if e.Kind() == reflect.Pointer {
			if e.IsNil() {
				continue
			}
			e = e.Elem()
		}
		if e.Kind() != reflect.Struct {
			continue
		}
		if err := w.walk(e, path+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) set(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			v.SetBytes([]byte(s))
			return nil
		}
		parts := split(s, w.sep)
		out := reflect.MakeSlice(v.Type(), len(parts), len(parts))
		for i, p := range parts {
			if err := parseScalar(out.Index(i), p); err != nil {
				return err
			}
		}
		v.Set(out)
		return nil

	case reflect.Map:
		out := reflect.MakeMap(v.Type())
		for _, pair := range split(s, w.sep) {
			k, val, ok := strings.Cut(pair, ":")
			if !ok {
				return ErrInvalidValue
			}
			kv := reflect.New(v.Type().Key()).Elem()
			vv := reflect.New(v.Type().Elem()).Elem()
			if err := parseScalar(kv, strings.TrimSpace(k)); err != nil {
				return err
			}
			if err := parseScalar(vv, strings.TrimSpace(val)); err != nil {
				return err
			}
			out.SetMapIndex(kv, vv)
		}
		v.Set(out)
		return nil
	}
	return parseScalar(v, s)
}

func split(s, sep string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
