package asset

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/auth"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/media"
	"github.com/kirinyoku/wedgo/internal/repository/memory"
	"github.com/kirinyoku/wedgo/internal/schema"
)

var owner = access.Actor{UserID: "user-1"}

type fakeStorage struct {
	objects map[string]string
	err     error
}

func (f *fakeStorage) List(_ context.Context, prefix string) ([]media.Object, error) {
	var out []media.Object
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, media.Object{Key: k})
		}
	}
	return out, f.err
}

func (f *fakeStorage) Put(_ context.Context, key string, body io.Reader, size int64, _ string) (media.Object, error) {
	if f.err != nil {
		return media.Object{}, f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return media.Object{}, err
	}
	f.objects[key] = string(b)
	return media.Object{Key: key, Size: size}, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return f.err
}

func newService(t *testing.T) (*Service, *fakeStorage) {
	t.Helper()

	store := memory.NewStore(schema.New())
	require.NoError(t, store.Create(context.Background(), &domain.Invitation{
		ID:          "inv-1",
		OwnerUserID: owner.UserID,
		Name:        "budi-and-sari",
		Status:      domain.StatusDraft,
		Events:      []domain.Event{{ID: 1, EventName: "Akad", Date: time.Now(), TimeStart: "08:00", LocalTime: domain.LocalTimeWIB}},
		Loadout:     domain.Loadout{Theme: "classic"},
	}))

	fs := &fakeStorage{objects: map[string]string{}}
	gate := access.NewGate(auth.NewShareSigner("secret", time.Hour))
	return New(store, gate, fs, Config{Env: "test", MaxUploadSize: 1 << 20}), fs
}

func TestUploadListDelete(t *testing.T) {
	ctx := context.Background()
	svc, fs := newService(t)

	obj, err := svc.Upload(ctx, owner, "inv-1", Upload{
		Filename:    "../Our Prewedding!.JPG",
		ContentType: "image/jpeg",
		Size:        4,
		Body:        strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "test/inv-1/"))
	assert.True(t, strings.HasSuffix(obj.Key, "-Our-Prewedding.jpg"), obj.Key)
	assert.Equal(t, "jpeg", fs.objects[obj.Key])

	list, err := svc.List(ctx, owner, "inv-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	err = svc.Delete(ctx, owner, "inv-1", "test/inv-2/x.jpg")
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	err = svc.Delete(ctx, owner, "inv-1", "test/inv-1/../inv-2/x.jpg")
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	require.NoError(t, svc.Delete(ctx, owner, "inv-1", "/"+obj.Key))
	assert.Empty(t, fs.objects)
}

func TestUpload_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, fs := newService(t)
	up := Upload{Filename: "a.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")}

	bad := up
	bad.ContentType = "application/pdf"
	_, err := svc.Upload(ctx, owner, "inv-1", bad)
	assert.True(t, apperr.Is(err, apperr.Validation))

	big := up
	big.Size = 2 << 20
	_, err = svc.Upload(ctx, owner, "inv-1", big)
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = svc.Upload(ctx, access.Actor{UserID: "intruder"}, "inv-1", up)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	fs.err = errors.New("s3 down")
	_, err = svc.Upload(ctx, owner, "inv-1", up)
	assert.True(t, apperr.Is(err, apperr.Internal))
}
