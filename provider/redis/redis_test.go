package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	p, err := New(Config{Client: rdb, CloseClient: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, mr
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestGetMissAndHit(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	v, ok, err := p.Get(ctx, "recent_SubnetNeurons_1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)

	ok, err = p.Set(ctx, "recent_SubnetNeurons_1", []byte{0, 1, 2, 0xff}, 0)
	require.NoError(t, err)
	require.True(t, ok)

	v, ok, err = p.Get(ctx, "recent_SubnetNeurons_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0, 1, 2, 0xff}, v)
}

func TestSetWithoutTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestProvider(t)

	_, err := p.Set(ctx, "k", []byte("v"), 0)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), mr.TTL("k"))

	mr.FastForward(365 * 24 * time.Hour)
	_, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDel(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestProvider(t)

	require.NoError(t, mr.Set("k", "v"))
	require.NoError(t, p.Del(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestGetTransportError(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestProvider(t)
	mr.Close()

	_, ok, err := p.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
}
