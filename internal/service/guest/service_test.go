package guest

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/auth"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/repository"
	"github.com/kirinyoku/wedgo/internal/repository/memory"
	"github.com/kirinyoku/wedgo/internal/schema"
)

var owner = access.Actor{UserID: "user-1"}

// brokenComments fails every comment write.
type brokenComments struct {
	repository.Invitations
}

func (brokenComments) UpdateComments(context.Context, string, []domain.Comment) ([]domain.Comment, error) {
	return nil, errors.New("connection reset")
}

type brokenStore struct {
	*memory.Store
}

func (s brokenStore) Invitations() repository.Invitations {
	return brokenComments{Invitations: s.Store}
}

func seed(t *testing.T, store *memory.Store) string {
	t.Helper()
	inv := &domain.Invitation{
		ID:          "inv-1",
		OwnerUserID: owner.UserID,
		Name:        "budi-and-sari",
		Status:      domain.StatusDraft,
		Events:      []domain.Event{{ID: 1, EventName: "Akad", Date: time.Now(), TimeStart: "08:00", LocalTime: domain.LocalTimeWIB}},
		Loadout:     domain.Loadout{Theme: "classic"},
	}
	require.NoError(t, store.Create(context.Background(), inv))
	return inv.ID
}

func newService(store repository.Store) *Service {
	gate := access.NewGate(auth.NewShareSigner("secret", time.Hour))
	return New(store, gate, domain.NewTokenRegistry(rand.NewPCG(1, 1)), nil, nil, Config{GuestBase: 3})
}

func TestSave_NormalizesAndLists(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(schema.New())
	id := seed(t, store)
	svc := newService(store)

	res, err := svc.Save(ctx, owner, id, []domain.Guest{
		{Name: "(VIP)   John Doe"},
		{Name: "Jane Smith", Token: "222222"},
	})
	require.NoError(t, err)
	require.Len(t, res.Guests, 2)
	assert.Equal(t, "(VIP)-John-Doe", res.Guests[0].Slug)
	assert.Equal(t, "VIP", res.Guests[0].Group)
	assert.Equal(t, "222222", res.Guests[1].Token)
	assert.Empty(t, res.CommentsError)

	listed, err := svc.List(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, res.Guests, listed)

	_, err = svc.List(ctx, access.Actor{UserID: "intruder"}, id)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}

func TestSave_Rejections(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(schema.New())
	id := seed(t, store)
	svc := newService(store)

	_, err := svc.Save(ctx, owner, id, []domain.Guest{{Name: "John Doe"}, {Name: "John  Doe"}})
	assert.True(t, apperr.Is(err, apperr.Duplicate))

	_, err = svc.Save(ctx, owner, id, []domain.Guest{{Name: "John@Doe"}})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = svc.Save(ctx, owner, id, []domain.Guest{{Name: "Anna"}, {Name: "Bima"}, {Name: "Citra"}, {Name: "Dewi"}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Limit))
	assert.Equal(t, "your plan allows up to 3 guests", apperr.Message(err))

	_, err = store.AppendPayment(ctx, id, domain.Payment{OrderID: "o-1", Amount: 30000, Guests: 100, PaidAt: time.Now()})
	require.NoError(t, err)
	_, err = svc.Save(ctx, owner, id, []domain.Guest{{Name: "Anna"}, {Name: "Bima"}, {Name: "Citra"}, {Name: "Dewi"}})
	assert.NoError(t, err)
}

func TestSave_RelinksComments(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(schema.New())
	id := seed(t, store)
	svc := newService(store)

	first, err := svc.Save(ctx, owner, id, []domain.Guest{{Name: "John Doe"}, {Name: "Jane Smith"}})
	require.NoError(t, err)
	john, jane := first.Guests[0], first.Guests[1]

	_, err = store.UpdateComments(ctx, id, []domain.Comment{
		{Alias: domain.EncodeURIComponent("John Doe"), Text: "selamat", Token: john.Token},
		{Alias: domain.EncodeURIComponent("Jane Smith"), Text: "congrats", Token: jane.Token},
	})
	require.NoError(t, err)

	john.Name = "(Family) Johnny Doe"
	res, err := svc.Save(ctx, owner, id, []domain.Guest{john, jane})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CommentsChanged)

	comments, err := store.Comments(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Johnny Doe", domain.DecodeURIComponent(comments[0].Alias))
	assert.Equal(t, "Jane Smith", domain.DecodeURIComponent(comments[1].Alias))
}

func TestSave_CommentFailureKeepsGuests(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(schema.New())
	id := seed(t, store)

	first, err := newService(store).Save(ctx, owner, id, []domain.Guest{{Name: "John Doe"}})
	require.NoError(t, err)
	_, err = store.UpdateComments(ctx, id, []domain.Comment{
		{Alias: "John%20Doe", Text: "hi", Token: first.Guests[0].Token},
	})
	require.NoError(t, err)

	renamed := first.Guests[0]
	renamed.Name = "Johnny Doe"
	res, err := newService(brokenStore{store}).Save(ctx, owner, id, []domain.Guest{renamed})
	require.NoError(t, err)
	assert.NotEmpty(t, res.CommentsError)
	assert.Equal(t, "Johnny-Doe", res.Guests[0].Slug)

	guests, err := store.Guests(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Johnny-Doe", guests[0].Slug)
}

func TestSave_DeletedGuestTokenIsNotReused(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(schema.New())
	id := seed(t, store)
	svc := newService(store)

	_, err := svc.Save(ctx, owner, id, []domain.Guest{{Name: "John Doe", Token: "111111"}})
	require.NoError(t, err)
	_, err = store.UpdateComments(ctx, id, []domain.Comment{
		{Alias: domain.EncodeURIComponent("John Doe"), Text: "selamat", Token: "111111"},
	})
	require.NoError(t, err)

	res, err := svc.Save(ctx, owner, id, []domain.Guest{{Name: "Rina Wati", Token: "111111"}})
	require.NoError(t, err)
	require.Len(t, res.Guests, 1)
	assert.NotEqual(t, "111111", res.Guests[0].Token)
	assert.Zero(t, res.CommentsChanged)

	comments, err := store.Comments(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", domain.DecodeURIComponent(comments[0].Alias))

	// the token stays retired while its comment exists
	res, err = svc.Save(ctx, owner, id, []domain.Guest{res.Guests[0], {Name: "Tono Wijaya", Token: "111111"}})
	require.NoError(t, err)
	assert.NotEqual(t, "111111", res.Guests[1].Token)
}
