package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	id1 := Generate()
	id2 := Generate()

	assert.NotEqual(t, id1, id2)
	assert.Len(t, id1, 36)
	assert.True(t, Valid(id1))
}

func TestOrdered(t *testing.T) {
	a := Ordered()
	b := Ordered()
	assert.Len(t, a, 36)
	assert.True(t, Valid(a))
	assert.NotEqual(t, a, b)
}

func TestCompact(t *testing.T) {
	c := Compact()
	assert.Len(t, c, 32)
	assert.NotContains(t, c, "-")
}

func TestValid(t *testing.T) {
	assert.False(t, Valid("not-a-uuid"))
	assert.False(t, Valid(""))
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Generate()
	}
}
