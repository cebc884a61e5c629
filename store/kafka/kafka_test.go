package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLiveClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(&Config{Brokers: []string{"127.0.0.1:9092"}, AutoCreate: true})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		t.Skipf("kafka not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewDefaults(t *testing.T) {
	cfg := &Config{Brokers: []string{"localhost:9092"}}
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 3*time.Second, c.cfg.Timeout)
	assert.Equal(t, 5*time.Second, c.cfg.CloseTimeout)
	assert.Equal(t, "hash", c.cfg.Balancer)
	assert.Nil(t, c.dialer.SASLMechanism)
}

func TestNewWithoutBrokers(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrEmptyBrokers)

	_, err = New(&Config{})
	assert.ErrorIs(t, err, ErrEmptyBrokers)
	assert.False(t, (&Config{}).Enabled())
}

func TestWithAuth(t *testing.T) {
	c, err := New(&Config{Brokers: []string{"localhost:9092"}}, WithAuth("user", "pass"))
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.dialer.SASLMechanism)
	assert.Equal(t, "PLAIN", c.dialer.SASLMechanism.Name())
}

func TestReaderCached(t *testing.T) {
	c, err := New(&Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	defer c.Close()

	a, err := c.Reader("audit", "g1")
	require.NoError(t, err)
	b, err := c.Reader("audit", "g1")
	require.NoError(t, err)
	other, err := c.Reader("audit", "g2")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestUseAfterClose(t *testing.T) {
	c, err := New(&Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err = c.Publish(context.Background(), "audit", nil, []byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Reader("audit", "")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPublishEmptyTopic(t *testing.T) {
	c, err := New(&Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	defer c.Close()

	assert.ErrorIs(t, c.Publish(context.Background(), "", nil, []byte("x")), ErrEmptyTopic)
}

func TestPublishConsume(t *testing.T) {
	c := newLiveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, c.Publish(ctx, "geostego-test", []byte("k"), []byte("hello")))

	r, err := c.Reader("geostego-test", "geostego-test-group")
	require.NoError(t, err)
	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Value)
}
