package tag

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	Addr    string        `default:"127.0.0.1:6379"`
	Timeout time.Duration `default:"3s"`
}

type settings struct {
	Name      string            `default:"geostego"`
	Port      int               `default:"10000"`
	Threshold float64           `default:"0.4"`
	Verify    bool              `default:"true"`
	Size      uint8             `default:"8"`
	Brokers   []string          `default:"a:9092, b:9092"`
	Weights   map[string]int    `default:"x:1,y:2"`
	Labels    map[string]string
	Limit     *int              `default:"60"`
	Prefix    *string
	IP        netip.Addr        `default:"10.0.0.1"`
	Backend   backend
	Optional  *backend
	Replicas  []backend
	hidden    string            `default:"x"`
}

func TestApplyDefaults(t *testing.T) {
	s := settings{
		Port:     8080,
		Replicas: []backend{{Addr: "10.0.0.2:6379"}, {}},
	}
	require.NoError(t, ApplyDefaults(&s))

	assert.Equal(t, "geostego", s.Name)
	assert.Equal(t, 8080, s.Port, "existing values are kept")
	assert.Equal(t, 0.4, s.Threshold)
	assert.True(t, s.Verify)
	assert.Equal(t, uint8(8), s.Size)
	assert.Equal(t, []string{"a:9092", "b:9092"}, s.Brokers)
	assert.Equal(t, map[string]int{"x": 1, "y": 2}, s.Weights)
	assert.Nil(t, s.Labels)
	require.NotNil(t, s.Limit)
	assert.Equal(t, 60, *s.Limit)
	assert.Nil(t, s.Prefix)
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), s.IP)
	assert.Equal(t, backend{Addr: "127.0.0.1:6379", Timeout: 3 * time.Second}, s.Backend)
	require.NotNil(t, s.Optional)
	assert.Equal(t, 3*time.Second, s.Optional.Timeout)
	assert.Equal(t, "10.0.0.2:6379", s.Replicas[0].Addr)
	assert.Equal(t, "127.0.0.1:6379", s.Replicas[1].Addr)
	assert.Empty(t, s.hidden)
}

func TestApplyDefaultsTagName(t *testing.T) {
	var v struct {
		Level string `fallback:"info" default:"debug"`
		Tags  []int  `fallback:"1|2|3"`
	}
	require.NoError(t, ApplyDefaults(&v, WithTagName("fallback"), WithSeparator("|")))
	assert.Equal(t, "info", v.Level)
	assert.Equal(t, []int{1, 2, 3}, v.Tags)
}

func TestApplyDefaultsErrors(t *testing.T) {
	var n int
	assert.ErrorIs(t, ApplyDefaults(n), ErrNotStructPointer)
	assert.ErrorIs(t, ApplyDefaults(&n), ErrNotStructPointer)
	assert.ErrorIs(t, ApplyDefaults((*settings)(nil)), ErrNotStructPointer)

	var bad struct {
		Nested struct {
			Timeout time.Duration `default:"soon"`
		}
	}
	err := ApplyDefaults(&bad)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Nested.Timeout", fe.Path)
	assert.Equal(t, "soon", fe.Value)

	var unsupported struct {
		C chan int `default:"1"`
	}
	assert.ErrorIs(t, ApplyDefaults(&unsupported), ErrUnsupportedType)

	var badMap struct {
		M map[string]int `default:"novalue"`
	}
	assert.ErrorIs(t, ApplyDefaults(&badMap), ErrInvalidValue)
}

type loop struct {
	Next *loop
}

func TestApplyDefaultsDepth(t *testing.T) {
	assert.ErrorIs(t, ApplyDefaults(&loop{}), ErrTooDeep)
}
