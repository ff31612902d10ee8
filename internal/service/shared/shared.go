// Package shared holds what every service needs after a write: mapping store
// errors to error kinds and announcing that an invitation changed.
package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/repository"
	redisrepo "github.com/kirinyoku/wedgo/internal/repository/redis"
)

type Publisher interface {
	PublishInvitationChanged(ctx context.Context, id, name string) error
}

// Notifier drops cached copies of an invitation and tells other replicas to
// do the same. Both steps are best effort.
type Notifier struct {
	cache  *redisrepo.Cache
	pub    Publisher
	logger *slog.Logger
}

func NewNotifier(cache *redisrepo.Cache, pub Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{cache: cache, pub: pub, logger: logger}
}

func (n *Notifier) Changed(ctx context.Context, id, name string) {
	if n == nil {
		return
	}

	if n.cache != nil {
		if err := n.cache.InvalidateInvitation(ctx, id, name); err != nil {
			n.logger.Warn("cache invalidation failed", "invitation_id", id, "error", err)
		}
	}
	if n.pub != nil {
		if err := n.pub.PublishInvitationChanged(ctx, id, name); err != nil {
			n.logger.Warn("publish invitation changed failed", "invitation_id", id, "error", err)
		}
	}
}

// StoreError converts a repository error into an error kind.
func StoreError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.Wrap(op, apperr.NotFound, err, "invitation not found")
	case errors.Is(err, repository.ErrConflict):
		return apperr.Wrap(op, apperr.Duplicate, err, "already exists")
	default:
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperr.Wrap(op, apperr.Internal, err, "")
	}
}

type loaderError struct{ err error }

func (e loaderError) Error() string { return e.err.Error() }

// Cached reads key through the cache, falling back to load when there is no
// cache or redis fails. Errors from load are returned unchanged.
func Cached[T any](
	ctx context.Context,
	cache *redisrepo.Cache,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, error),
) (T, error) {
	if cache == nil {
		return load(ctx)
	}

	v, err := redisrepo.GetOrSetJSON(ctx, cache, key, ttl, func(ctx context.Context) (T, error) {
		v, err := load(ctx)
		if err != nil {
			return v, loaderError{err: err}
		}
		return v, nil
	})
	if err == nil {
		return v, nil
	}

	var le loaderError
	if errors.As(err, &le) {
		var zero T
		return zero, le.err
	}
	return load(ctx)
}
