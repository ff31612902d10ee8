package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/repository"
	redisrepo "github.com/kirinyoku/wedgo/internal/repository/redis"
)

type recordingPublisher struct {
	ids []string
	err error
}

func (p *recordingPublisher) PublishInvitationChanged(_ context.Context, id, _ string) error {
	p.ids = append(p.ids, id)
	return p.err
}

func TestStoreError(t *testing.T) {
	assert.Nil(t, StoreError("op", nil))
	assert.Equal(t, apperr.NotFound, apperr.KindOf(StoreError("op", fmt.Errorf("x: %w", repository.ErrNotFound))))
	assert.Equal(t, apperr.Duplicate, apperr.KindOf(StoreError("op", repository.ErrConflict)))
	assert.Equal(t, apperr.Internal, apperr.KindOf(StoreError("op", repository.ErrCorrupt)))
	assert.Equal(t, apperr.Abort, apperr.KindOf(StoreError("op", context.Canceled)))

	limit := apperr.E("inner", apperr.Limit, "max 3")
	assert.Same(t, limit, StoreError("op", limit))
}

func TestNotifier_Changed(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	cache := redisrepo.New(rdb)
	require.NoError(t, redisrepo.SetJSON(ctx, cache, redisrepo.KeyPublic("budi-sari"), "x", time.Minute))

	pub := &recordingPublisher{err: errors.New("down")}
	n := NewNotifier(cache, pub, nil)
	n.Changed(ctx, "inv-1", "budi-sari")

	assert.False(t, s.Exists(redisrepo.KeyPublic("budi-sari")))
	assert.Equal(t, []string{"inv-1"}, pub.ids)

	var nilNotifier *Notifier
	nilNotifier.Changed(ctx, "inv-1", "")
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()
	cache := redisrepo.New(rdb)

	calls := 0
	load := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	for i := 0; i < 3; i++ {
		v, err := Cached(ctx, cache, "k", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	}
	assert.Equal(t, 1, calls)

	v, err := Cached(ctx, nil, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, 2, calls)

	_, err = Cached(ctx, cache, "missing", time.Minute, func(context.Context) (string, error) {
		return "", repository.ErrNotFound
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// redis down falls through to the loader
	s.Close()
	v, err = Cached(ctx, cache, "k2", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
