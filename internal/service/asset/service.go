package asset

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/media"
	"github.com/kirinyoku/wedgo/internal/repository"
)

const DefaultMaxUploadSize = 10 << 20

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Storage is the part of the media store this service uses.
type Storage interface {
	List(ctx context.Context, prefix string) ([]media.Object, error)
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (media.Object, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Env           string
	MaxUploadSize int64
}

type Service struct {
	store   repository.Store
	gate    *access.Gate
	storage Storage
	cfg     Config
}

func New(store repository.Store, gate *access.Gate, storage Storage, cfg Config) *Service {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}

	return &Service{store: store, gate: gate, storage: storage, cfg: cfg}
}

func (s *Service) List(ctx context.Context, actor access.Actor, id string) ([]media.Object, error) {
	const op = "service.asset.List"

	if err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}

	objs, err := s.storage.List(ctx, media.Path(s.cfg.Env, id))
	if err != nil {
		return nil, apperr.Wrap(op, apperr.Internal, err, "")
	}
	return objs, nil
}

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload stores an image or audio file under the invitation's path with a
// fresh key, keeping the original extension.
func (s *Service) Upload(ctx context.Context, actor access.Actor, id string, in Upload) (media.Object, error) {
	const op = "service.asset.Upload"

	if err := s.owned(ctx, actor, id); err != nil {
		return media.Object{}, err
	}

	if !strings.HasPrefix(in.ContentType, "image/") && !strings.HasPrefix(in.ContentType, "audio/") {
		return media.Object{}, apperr.E(op, apperr.Validation, "only images and audio can be uploaded")
	}
	if in.Size <= 0 {
		return media.Object{}, apperr.E(op, apperr.Validation, "file is empty")
	}
	if in.Size > s.cfg.MaxUploadSize {
		return media.Object{}, apperr.E(op, apperr.Validation,
			fmt.Sprintf("file is larger than %d MB", s.cfg.MaxUploadSize>>20))
	}

	obj, err := s.storage.Put(ctx, s.key(id, in.Filename), in.Body, in.Size, in.ContentType)
	if err != nil {
		return media.Object{}, apperr.Wrap(op, apperr.Internal, err, "upload failed")
	}
	return obj, nil
}

// Delete removes one file. The key must lie under the invitation's path.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id, key string) error {
	const op = "service.asset.Delete"

	if err := s.owned(ctx, actor, id); err != nil {
		return err
	}

	key = strings.TrimPrefix(key, "/")
	prefix := media.Path(s.cfg.Env, id)
	if !strings.HasPrefix(key, prefix) || path.Clean(key) != key || len(key) == len(prefix) {
		return apperr.E(op, apperr.Forbidden, "")
	}

	if err := s.storage.Delete(ctx, key); err != nil {
		return apperr.Wrap(op, apperr.Internal, err, "")
	}
	return nil
}

func (s *Service) owned(ctx context.Context, actor access.Actor, id string) error {
	if s.storage == nil {
		return apperr.E("service.asset.owned", apperr.Internal, "media storage is not configured")
	}
	_, err := s.gate.Owned(ctx, s.store.Invitations(), actor, id)
	return err
}

func (s *Service) key(id, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "-"), "-.")
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" {
		base = "file"
	}

	return media.Path(s.cfg.Env, id) + uuid.NewString()[:8] + "-" + base + unsafeName.ReplaceAllString(ext, "")
}
