// Package desensitize 在日志写出前按规则遮盖敏感字段。
package desensitize

import (
	"errors"
	"slices"
	"sync"
)

var ErrEmptyName = errors.New("desensitize: rule name is required")

// Hook 有序规则集，按添加顺序依次应用；同名规则替换原位置
type Hook struct {
	mu       sync.RWMutex
	rules    []Rule
	disabled map[string]bool
}

func NewHook() *Hook {
	return &Hook{disabled: make(map[string]bool)}
}

// AddRule 添加或替换规则
func (h *Hook) AddRule(r Rule) {
	if r == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if i := h.index(r.Name()); i >= 0 {
		h.rules[i] = r
		return
	}
	h.rules = append(h.rules, r)
}

// AddBuiltin 批量添加，通常传入 BuiltinRules()
func (h *Hook) AddBuiltin(rules ...Rule) {
	for _, r := range rules {
		h.AddRule(r)
	}
}

func (h *Hook) AddContentRule(name, pattern, replacement string) error {
	r, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		return err
	}
	h.AddRule(r)
	return nil
}

func (h *Hook) AddFieldRule(name, field, pattern, replacement string) error {
	r, err := NewFieldRule(name, field, pattern, replacement)
	if err != nil {
		return err
	}
	h.AddRule(r)
	return nil
}

// RemoveRule 删除规则，不存在时返回 false
func (h *Hook) RemoveRule(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.index(name)
	if i < 0 {
		return false
	}
	h.rules = slices.Delete(h.rules, i, i+1)
	delete(h.disabled, name)
	return true
}

// SetEnabled 启用或停用规则
func (h *Hook) SetEnabled(name string, enabled bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index(name) < 0 {
		return false
	}
	if enabled {
		delete(h.disabled, name)
	} else {
		h.disabled[name] = true
	}
	return true
}

// Rules 按应用顺序返回规则名
func (h *Hook) Rules() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, len(h.rules))
	for i, r := range h.rules {
		names[i] = r.Name()
	}
	return names
}

// Desensitize 依次应用所有启用的规则
func (h *Hook) Desensitize(s string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, r := range h.rules {
		if !h.disabled[r.Name()] {
			s = r.Apply(s)
		}
	}
	return s
}

func (h *Hook) empty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rules) == len(h.disabled)
}

func (h *Hook) index(name string) int {
	return slices.IndexFunc(h.rules, func(r Rule) bool { return r.Name() == name })
}
