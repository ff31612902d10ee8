package editor

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/media"
)

type FileStore interface {
	Upload(ctx context.Context, id, filename, contentType string, body io.Reader) (media.Object, error)
}

// Uploader sends gallery files one at a time. A finished upload is appended
// to the galleries field, which then saves through its own writer.
type Uploader struct {
	id        string
	files     FileStore
	galleries *Field[[]domain.Asset]

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

func NewUploader(id string, files FileStore, galleries *Field[[]domain.Asset]) *Uploader {
	return &Uploader{id: id, files: files, galleries: galleries}
}

// Upload blocks until the file is stored, ctx is done or Cancel is called.
// A cancelled upload returns an Abort error and leaves the gallery as it was.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (domain.Asset, error) {
	const op = "editor.Uploader.Upload"

	ctx, cancel := context.WithCancel(ctx)
	u.mu.Lock()
	if u.cancel != nil {
		u.cancel()
	}
	u.cancel = cancel
	u.seq++
	seq := u.seq
	u.mu.Unlock()

	defer func() {
		cancel()
		u.mu.Lock()
		if u.seq == seq {
			u.cancel = nil
		}
		u.mu.Unlock()
	}()

	obj, err := u.files.Upload(ctx, u.id, filename, contentType, body)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Asset{}, apperr.Wrap(op, apperr.Abort, ctx.Err(), "")
		}
		return domain.Asset{}, err
	}
	if ctx.Err() != nil {
		return domain.Asset{}, apperr.Wrap(op, apperr.Abort, ctx.Err(), "")
	}

	a := obj.Asset()
	if u.galleries != nil {
		next := append(slices.Clone(u.galleries.Value()), a)
		if err := u.galleries.Set(next); err != nil {
			return a, err
		}
	}
	return a, nil
}

// Cancel stops the running upload, if any.
func (u *Uploader) Cancel() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancel != nil {
		u.cancel()
	}
}
