package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/auth"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/repository/memory"
	"github.com/kirinyoku/wedgo/internal/schema"
)

func newGate(t *testing.T) (*Gate, *auth.ShareSigner) {
	t.Helper()
	signer := auth.NewShareSigner("secret", time.Hour)
	return NewGate(signer), signer
}

func TestAuthorizeOwner(t *testing.T) {
	g, _ := newGate(t)
	inv := &domain.Invitation{ID: "inv-1", OwnerUserID: "u1"}

	assert.NoError(t, g.AuthorizeOwner(Actor{UserID: "u1"}, inv))
	assert.Equal(t, apperr.Auth, apperr.KindOf(g.AuthorizeOwner(Actor{}, inv)))
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(g.AuthorizeOwner(Actor{UserID: "u2"}, inv)))
}

func TestCanReadComments(t *testing.T) {
	g, signer := newGate(t)
	inv := &domain.Invitation{ID: "inv-1", OwnerUserID: "u1"}

	tok, _, err := signer.Issue("inv-1")
	require.NoError(t, err)
	other, _, err := signer.Issue("inv-2")
	require.NoError(t, err)

	assert.NoError(t, g.CanReadComments(Actor{UserID: "u1"}, inv))
	assert.NoError(t, g.CanReadComments(Actor{ShareCookie: tok, ShareHeader: tok}, inv))

	cases := map[string]Actor{
		"no token":        {},
		"cookie only":     {ShareCookie: tok},
		"header only":     {ShareHeader: tok},
		"mismatched pair": {ShareCookie: tok, ShareHeader: other},
		"other invite":    {ShareCookie: other, ShareHeader: other},
		"not the owner":   {UserID: "u2"},
	}
	for name, actor := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, apperr.Forbidden, apperr.KindOf(g.CanReadComments(actor, inv)))
		})
	}
}

func TestAuthorizeGuestWrite(t *testing.T) {
	g, signer := newGate(t)
	tok, _, err := signer.Issue("inv-1")
	require.NoError(t, err)
	actor := Actor{ShareCookie: tok, ShareHeader: tok}

	guests := []domain.Guest{
		{ID: 1, Name: "(VIP) John Doe", Slug: "(VIP)-John-Doe", Token: "111111", Group: "VIP"},
	}

	guest, err := g.AuthorizeGuestWrite(actor, "inv-1", guests, "111111", "(VIP)-John-Doe")
	require.NoError(t, err)
	assert.Equal(t, 1, guest.ID)

	_, err = g.AuthorizeGuestWrite(actor, "inv-1", guests, "111111", "John-Doe")
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err), "renamed guests must reload")

	_, err = g.AuthorizeGuestWrite(actor, "inv-1", guests, "999999", "(VIP)-John-Doe")
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	_, err = g.AuthorizeGuestWrite(Actor{ShareCookie: tok}, "inv-1", guests, "111111", "(VIP)-John-Doe")
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestOwned(t *testing.T) {
	ctx := context.Background()
	g, _ := newGate(t)
	store := memory.NewStore(schema.New())
	require.NoError(t, store.Create(ctx, &domain.Invitation{
		ID: "inv-1", OwnerUserID: "u1", Name: "budi-sari", Status: domain.StatusDraft,
		Events: []domain.Event{{
			ID: 1, Date: time.Now().AddDate(0, 1, 0), EventName: "Akad", TimeStart: "08:00", LocalTime: domain.LocalTimeWIB,
		}},
		Loadout: domain.Loadout{Theme: "classic"},
	}))

	inv, err := g.Owned(ctx, store, Actor{UserID: "u1"}, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "budi-sari", inv.Name)

	_, err = g.Owned(ctx, store, Actor{UserID: "u1"}, "missing")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = g.Owned(ctx, store, Actor{UserID: "u2"}, "inv-1")
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}
