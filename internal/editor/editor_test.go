package editor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/media"
	"github.com/kirinyoku/wedgo/internal/service/guest"
)

type fakeGuestStore struct {
	guests  []domain.Guest
	saveErr error
	saved   [][]domain.Guest
}

func (f *fakeGuestStore) Guests(context.Context, string) ([]domain.Guest, error) {
	return f.guests, nil
}

func (f *fakeGuestStore) SaveGuests(_ context.Context, _ string, guests []domain.Guest) (*guest.SaveResult, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, guests)
	f.guests = guests
	return &guest.SaveResult{Guests: guests}, nil
}

func TestState_WatchAndVersion(t *testing.T) {
	s := NewState()
	var seen []string
	s.Watch(func(id string) { seen = append(seen, id) })

	s.PutInvitation(domain.Invitation{ID: "inv-1", DisplayName: "A"})
	s.UpdateInvitation("inv-1", func(inv *domain.Invitation) { inv.DisplayName = "B" })

	inv, ok := s.Invitation("inv-1")
	require.True(t, ok)
	assert.Equal(t, "B", inv.DisplayName)
	assert.Equal(t, uint64(2), s.Version("inv-1"))
	assert.Equal(t, []string{"inv-1", "inv-1"}, seen)

	s.Forget("inv-1")
	_, ok = s.Invitation("inv-1")
	assert.False(t, ok)
}

func TestGuestSheet_EditSaveCancel(t *testing.T) {
	ctx := context.Background()
	store := &fakeGuestStore{guests: []domain.Guest{
		{ID: 1, Name: "Anna Putri", Slug: "Anna-Putri", Token: "123456"},
	}}
	state := NewState()
	sheet := NewGuestSheet("inv-1", store, state, nil)
	require.NoError(t, sheet.Load(ctx))
	assert.False(t, sheet.Dirty())

	g, err := sheet.Add("(VIP) Bima Sakti")
	require.NoError(t, err)
	assert.Equal(t, 2, g.ID)
	assert.Equal(t, "VIP", g.Group)
	assert.Len(t, g.Token, domain.TokenLength)

	_, err = sheet.Add("Anna Putri")
	assert.Equal(t, apperr.Duplicate, apperr.KindOf(err))

	_, err = sheet.Add("John@Doe")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	renamed, err := sheet.Rename(0, "Anna Lestari")
	require.NoError(t, err)
	assert.Equal(t, "123456", renamed.Token)
	assert.Equal(t, 1, renamed.ID)

	require.NoError(t, sheet.Remove(1))
	assert.Equal(t, apperr.NotFound, apperr.KindOf(sheet.Remove(5)))
	assert.True(t, sheet.Dirty())

	sheet.Cancel()
	assert.Equal(t, store.guests, sheet.Rows())
	assert.False(t, sheet.Dirty())

	_, err = sheet.Add("Citra Dewi")
	require.NoError(t, err)
	res, err := sheet.Save(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Guests, 2)
	assert.False(t, sheet.Dirty())
	assert.Len(t, state.Guests("inv-1"), 2)
}

func TestGuestSheet_FailedSaveKeepsRows(t *testing.T) {
	ctx := context.Background()
	store := &fakeGuestStore{}
	sheet := NewGuestSheet("inv-1", store, nil, nil)
	require.NoError(t, sheet.Load(ctx))

	_, err := sheet.Add("Dewi Sartika")
	require.NoError(t, err)

	store.saveErr = apperr.E("test", apperr.Limit, "your plan allows up to 20 guests")
	_, err = sheet.Save(ctx)
	assert.Equal(t, apperr.Limit, apperr.KindOf(err))
	assert.Len(t, sheet.Rows(), 1)
	assert.True(t, sheet.Dirty())
}

type blockingFiles struct {
	started chan struct{}
}

func (b *blockingFiles) Upload(ctx context.Context, _, _, _ string, _ io.Reader) (media.Object, error) {
	close(b.started)
	<-ctx.Done()
	return media.Object{}, apperr.Wrap("test", apperr.Internal, errors.New("connection reset"), "")
}

type okFiles struct{}

func (okFiles) Upload(_ context.Context, id, filename, _ string, _ io.Reader) (media.Object, error) {
	key := "test/" + id + "/abc-" + filename
	return media.Object{Key: key, Name: filename, URL: "https://cdn.example.com/" + key}, nil
}

func TestUploader_CancelLeavesGallery(t *testing.T) {
	w := &sliceWriter{}
	galleries := NewField([]domain.Asset{}, FieldConfig[[]domain.Asset]{Write: w.write, Debounce: time.Hour})
	defer galleries.Close()

	files := &blockingFiles{started: make(chan struct{})}
	u := NewUploader("inv-1", files, galleries)

	errc := make(chan error, 1)
	go func() {
		_, err := u.Upload(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x"))
		errc <- err
	}()

	<-files.started
	u.Cancel()
	err := <-errc
	assert.True(t, apperr.IsAbort(err))
	assert.Empty(t, galleries.Value())
}

func TestUploader_AppendsToGallery(t *testing.T) {
	w := &sliceWriter{}
	galleries := NewField([]domain.Asset{}, FieldConfig[[]domain.Asset]{Write: w.write, Debounce: time.Hour})
	defer galleries.Close()

	u := NewUploader("inv-1", okFiles{}, galleries)
	a, err := u.Upload(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "test/inv-1/abc-a.jpg", a.FileID)

	require.NoError(t, galleries.Flush())
	assert.Equal(t, []domain.Asset{a}, galleries.Confirmed())
}

type sliceWriter struct {
	mu    sync.Mutex
	calls int
}

func (w *sliceWriter) write(_ context.Context, v []domain.Asset) ([]domain.Asset, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return v, nil
}

// apiStub serves the subset of the REST API the editor uses.
type apiStub struct {
	mu      sync.Mutex
	inv     domain.Invitation
	guests  []domain.Guest
	patches map[string]int
}

func newAPIStub(t *testing.T) (*apiStub, *httptest.Server) {
	t.Helper()

	stub := &apiStub{
		inv: domain.Invitation{
			ID:          "inv-1",
			Name:        "budi-and-sari",
			DisplayName: "Budi & Sari",
			Status:      domain.StatusDraft,
		},
		guests:  []domain.Guest{{ID: 1, Name: "Anna Putri", Slug: "Anna-Putri", Token: "123456"}},
		patches: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/invitations/inv-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer owner-token" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "sign in first", Kind: "AuthError"})
			return
		}
		stub.mu.Lock()
		defer stub.mu.Unlock()
		writeJSON(w, http.StatusOK, stub.inv)
	})
	mux.HandleFunc("GET /api/invitations/inv-1/guests", func(w http.ResponseWriter, _ *http.Request) {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		writeJSON(w, http.StatusOK, valueBody[[]domain.Guest]{Value: stub.guests})
	})
	mux.HandleFunc("PATCH /api/invitations/inv-1/{slice}", func(w http.ResponseWriter, r *http.Request) {
		slice := r.PathValue("slice")
		if slice == "status" {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "purchase a package before publishing", Kind: "ForbiddenError"})
			return
		}
		var body valueBody[json.RawMessage]
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body", Kind: "ValidationError"})
			return
		}
		stub.mu.Lock()
		stub.patches[slice]++
		stub.mu.Unlock()
		writeJSON(w, http.StatusOK, body)
	})
	mux.HandleFunc("GET /api/invitations/slow", func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	mux.HandleFunc("GET /api/invitations/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return stub, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ErrorKinds(t *testing.T) {
	_, srv := newAPIStub(t)
	ctx := context.Background()

	anon := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := anon.Invitation(ctx, "inv-1")
	assert.Equal(t, apperr.Auth, apperr.KindOf(err))
	assert.Equal(t, "sign in first", apperr.Message(err))

	c := NewClient(ClientConfig{BaseURL: srv.URL, Bearer: "owner-token"})
	_, err = c.Invitation(ctx, "gone")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = c.Invitation(ctx, "slow")
	assert.True(t, apperr.IsAbort(err))
}

func TestOpen_WritesThroughFields(t *testing.T) {
	stub, srv := newAPIStub(t)
	ctx := context.Background()

	c := NewClient(ClientConfig{BaseURL: srv.URL, Bearer: "owner-token"})
	e, err := Open(ctx, c, nil, "inv-1", Options{Debounce: time.Hour})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "Budi & Sari", e.DisplayName.Value())
	assert.Len(t, e.Guests.Rows(), 1)

	require.NoError(t, e.DisplayName.Set("Budi dan Sari"))
	require.NoError(t, e.DisplayName.Set("Budi + Sari"))
	require.NoError(t, e.Flush())

	inv, ok := e.State.Invitation("inv-1")
	require.True(t, ok)
	assert.Equal(t, "Budi + Sari", inv.DisplayName)

	stub.mu.Lock()
	assert.Equal(t, 1, stub.patches["display-name"])
	stub.mu.Unlock()

	require.NoError(t, e.Status.Set(domain.StatusLive))
	err = e.Status.Flush()
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	assert.Equal(t, domain.StatusDraft, e.Status.Value())
}
