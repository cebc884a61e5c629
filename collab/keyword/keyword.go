// Package keyword 从评论中挑选与候选关键字最相近的一个。
package keyword

import (
	"math"
	"strings"
	"unicode"
)

// DefaultThreshold 默认相似度阈值
const DefaultThreshold = 0.4

// Matcher 在候选关键字中选出与任一评论最相似且不低于阈值的一个
type Matcher interface {
	BestMatch(candidates, comments []string, threshold float64) (string, bool)
}

// Resolve 返回匹配结果；没有匹配时返回调用方提供的 keyword。
// 返回值即解码时参与密钥派生的关键字。
func Resolve(m Matcher, keyword string, candidates, comments []string, threshold float64) string {
	if m == nil {
		return keyword
	}
	if match, ok := m.BestMatch(candidates, comments, threshold); ok {
		return match
	}
	return keyword
}

// LexicalMatcher 基于词袋余弦相似度的 Matcher
type LexicalMatcher struct{}

// NewLexicalMatcher 创建 LexicalMatcher
func NewLexicalMatcher() *LexicalMatcher {
	return &LexicalMatcher{}
}

// BestMatch 遍历所有评论，保留得分最高且不低于阈值的候选；得分相同时先出现者优先
func (LexicalMatcher) BestMatch(candidates, comments []string, threshold float64) (string, bool) {
	if len(candidates) == 0 || len(comments) == 0 {
		return "", false
	}

	vectors := make([]bag, len(candidates))
	for i, c := range candidates {
		vectors[i] = newBag(c)
	}

	best, bestScore, found := "", 0.0, false
	for _, comment := range comments {
		cv := newBag(comment)
		for i, kv := range vectors {
			score := cosine(cv, kv)
			if score >= threshold && score > bestScore {
				best, bestScore, found = candidates[i], score, true
			}
		}
	}
	return best, found
}

type bag map[string]float64

// newBag 小写并按非字母数字字符切分
func newBag(s string) bag {
	b := make(bag)
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		b[tok]++
	}
	return b
}

func cosine(a, b bag) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	var dot, na, nb float64
	for k, v := range a {
		dot += v * b[k]
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ Matcher = LexicalMatcher{}
