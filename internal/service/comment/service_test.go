package comment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/auth"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/repository/memory"
	redisrepo "github.com/kirinyoku/wedgo/internal/repository/redis"
	"github.com/kirinyoku/wedgo/internal/schema"
)

var owner = access.Actor{UserID: "user-1"}

type fakeLimiter struct {
	allow bool
	hits  []string
}

func (f *fakeLimiter) Allow(_ context.Context, id string) (redisrepo.Decision, error) {
	f.hits = append(f.hits, id)
	if f.allow {
		return redisrepo.Decision{Allowed: true, Count: 1}, nil
	}
	return redisrepo.Decision{Allowed: false, Count: 6, RetryAfter: 42 * time.Second}, nil
}

type fixture struct {
	svc     *Service
	store   *memory.Store
	share   *auth.ShareSigner
	limiter *fakeLimiter
	id      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	v := schema.New()
	store := memory.NewStore(v)
	share := auth.NewShareSigner("secret", time.Hour)
	limiter := &fakeLimiter{allow: true}

	inv := &domain.Invitation{
		ID:          "inv-1",
		OwnerUserID: owner.UserID,
		Name:        "budi-and-sari",
		DisplayName: "Budi & Sari",
		Status:      domain.StatusLive,
		Events:      []domain.Event{{ID: 1, EventName: "Akad", Date: time.Now(), TimeStart: "08:00", LocalTime: domain.LocalTimeWIB}},
		Loadout:     domain.Loadout{Theme: "classic"},
	}
	require.NoError(t, store.Create(ctx, inv))
	_, err := store.UpdateGuests(ctx, inv.ID, []domain.Guest{
		{ID: 1, Name: "(VIP) John Doe", Slug: "(VIP)-John-Doe", Token: "111111", Group: "VIP"},
		{ID: 2, Name: "Jane Smith", Slug: "Jane-Smith", Token: "222222"},
	})
	require.NoError(t, err)

	return &fixture{
		svc:     New(store, access.NewGate(share), v, limiter),
		store:   store,
		share:   share,
		limiter: limiter,
		id:      inv.ID,
	}
}

func (f *fixture) visitor(t *testing.T) access.Actor {
	t.Helper()
	tok, _, err := f.share.Issue(f.id)
	require.NoError(t, err)
	return access.Actor{ShareCookie: tok, ShareHeader: tok}
}

func TestPostGuest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	guest := f.visitor(t)

	c, err := f.svc.PostGuest(ctx, guest, f.id, "10.0.0.1", GuestPost{
		Slug: "(VIP)-John-Doe", Token: "111111", Text: "  Selamat menempuh hidup baru!  ", IsComing: domain.AttendanceYes,
	})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", c.Alias)
	assert.Equal(t, "Selamat menempuh hidup baru!", c.Text)
	assert.Equal(t, []string{"10.0.0.1"}, f.limiter.hits)

	stored, err := f.store.Comments(ctx, f.id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "John%20Doe", stored[0].Alias)
	assert.Equal(t, "111111", stored[0].Token)

	// a second post by the same guest is accepted
	_, err = f.svc.PostGuest(ctx, guest, f.id, "10.0.0.1", GuestPost{Slug: "(VIP)-John-Doe", Token: "111111", Text: "again"})
	require.NoError(t, err)
}

func TestPostGuest_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	guest := f.visitor(t)
	post := GuestPost{Slug: "Jane-Smith", Token: "222222", Text: "hi"}

	_, err := f.svc.PostGuest(ctx, access.Actor{ShareCookie: guest.ShareCookie}, f.id, "", post)
	assert.True(t, apperr.Is(err, apperr.Forbidden), "header copy missing")

	stale := post
	stale.Slug = "Jane-Smyth"
	_, err = f.svc.PostGuest(ctx, guest, f.id, "", stale)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	empty := post
	empty.Text = "   "
	_, err = f.svc.PostGuest(ctx, guest, f.id, "", empty)
	assert.True(t, apperr.Is(err, apperr.Validation))

	long := post
	long.Text = strings.Repeat("a", MaxTextLength+1)
	_, err = f.svc.PostGuest(ctx, guest, f.id, "", long)
	assert.True(t, apperr.Is(err, apperr.Validation))

	f.limiter.allow = false
	_, err = f.svc.PostGuest(ctx, guest, f.id, "10.0.0.2", post)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Limit))
	assert.Equal(t, "too many comments, try again in 42s", apperr.Message(err))

	comments, err := f.store.Comments(ctx, f.id)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	guest := f.visitor(t)

	_, err := f.svc.PostGuest(ctx, guest, f.id, "", GuestPost{Slug: "Jane-Smith", Token: "222222", Text: "100% happy"})
	require.NoError(t, err)

	asGuest, err := f.svc.List(ctx, guest, f.id)
	require.NoError(t, err)
	require.Len(t, asGuest, 1)
	assert.Equal(t, "100% happy", asGuest[0].Text)
	assert.Empty(t, asGuest[0].Token)

	asOwner, err := f.svc.List(ctx, owner, f.id)
	require.NoError(t, err)
	assert.Equal(t, "222222", asOwner[0].Token)

	_, err = f.svc.List(ctx, access.Actor{}, f.id)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = f.svc.List(ctx, owner, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestOwnerWrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.svc.PostOwner(ctx, owner, f.id, OwnerPost{Text: "Thank you all"})
	require.NoError(t, err)
	assert.Equal(t, "Budi & Sari", c.Alias)

	_, err = f.svc.PostOwner(ctx, access.Actor{UserID: "intruder"}, f.id, OwnerPost{Text: "spam"})
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	list, err := f.svc.Replace(ctx, owner, f.id, []domain.Comment{
		{Alias: "Jane Smith", Text: "first", Token: "222222"},
		{Alias: "Budi & Sari", Text: "second"},
		{Alias: "Jane Smith", Text: "third", Token: "222222"},
	})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = f.svc.Replace(ctx, owner, f.id, []domain.Comment{{Alias: "", Text: "x"}})
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Replace(ctx, owner, f.id, []domain.Comment{
		{Alias: "Jane Smith", Text: "first"},
		{Alias: "John Doe", Text: "second"},
		{Alias: "Jane Smith", Text: "third"},
	})
	require.NoError(t, err)

	left, err := f.svc.Delete(ctx, owner, f.id, "Jane Smith", nil)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "second", left[0].Text)
	assert.Equal(t, "third", left[1].Text)

	idx := 1
	_, err = f.svc.Delete(ctx, owner, f.id, "John Doe", &idx)
	assert.True(t, apperr.Is(err, apperr.NotFound), "index and alias disagree")

	left, err = f.svc.Delete(ctx, owner, f.id, "", &idx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "second", left[0].Text)

	idx = 5
	_, err = f.svc.Delete(ctx, owner, f.id, "", &idx)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.svc.Delete(ctx, owner, f.id, "Nobody", nil)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.svc.Delete(ctx, owner, f.id, "", nil)
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = f.svc.Delete(ctx, f.visitor(t), f.id, "John Doe", nil)
	assert.True(t, apperr.Is(err, apperr.Auth))
}
