// Package access decides, per request, who may read and write an
// invitation's comments and owner-only slices. It keeps no state between
// requests.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/auth"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/repository"
)

// Actor is what a request proves about its caller. UserID is set for a
// verified owner session. The share token is read twice, from the cookie
// and from the X-Share-Token header.
type Actor struct {
	UserID      string
	Email       string
	ShareCookie string
	ShareHeader string
}

func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

type Gate struct {
	share *auth.ShareSigner
}

func NewGate(share *auth.ShareSigner) *Gate {
	return &Gate{share: share}
}

// AuthorizeOwner allows only the owner of inv.
func (g *Gate) AuthorizeOwner(actor Actor, inv *domain.Invitation) error {
	const op = "access.Gate.AuthorizeOwner"

	if !actor.Authenticated() {
		return apperr.E(op, apperr.Auth, "please sign in again")
	}
	if actor.UserID != inv.OwnerUserID {
		return apperr.E(op, apperr.Forbidden, "")
	}
	return nil
}

// Owned loads invitation id and checks that actor owns it.
func (g *Gate) Owned(ctx context.Context, repo repository.Invitations, actor Actor, id string) (*domain.Invitation, error) {
	const op = "access.Gate.Owned"

	if !actor.Authenticated() {
		return nil, apperr.E(op, apperr.Auth, "please sign in again")
	}

	inv, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Wrap(op, apperr.NotFound, err, "invitation not found")
		}
		return nil, apperr.Wrap(op, apperr.Internal, err, "")
	}

	if err := g.AuthorizeOwner(actor, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// CanReadComments allows the owner, or a guest holding a matching share
// token pair for inv.
func (g *Gate) CanReadComments(actor Actor, inv *domain.Invitation) error {
	if actor.Authenticated() && actor.UserID == inv.OwnerUserID {
		return nil
	}
	return g.checkShare("access.Gate.CanReadComments", actor, inv.ID)
}

// AuthorizeGuestWrite checks the share token pair, then that token belongs
// to the guest currently listed under slug. It returns that guest.
func (g *Gate) AuthorizeGuestWrite(
	actor Actor,
	invitationID string,
	guests []domain.Guest,
	token, slug string,
) (*domain.Guest, error) {
	const op = "access.Gate.AuthorizeGuestWrite"

	if err := g.checkShare(op, actor, invitationID); err != nil {
		return nil, err
	}

	for i := range guests {
		if guests[i].Token == token {
			if guests[i].Slug != slug {
				return nil, apperr.E(op, apperr.Forbidden, "this invitation link is out of date")
			}
			return &guests[i], nil
		}
	}

	return nil, apperr.E(op, apperr.Forbidden, "this invitation link is not valid")
}

func (g *Gate) checkShare(op string, actor Actor, invitationID string) error {
	if actor.ShareCookie == "" || actor.ShareHeader == "" {
		return apperr.E(op, apperr.Forbidden, "")
	}
	if actor.ShareCookie != actor.ShareHeader {
		return apperr.E(op, apperr.Forbidden, "")
	}

	claims, err := g.share.Verify(actor.ShareCookie)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return apperr.Wrap(op, apperr.Forbidden, err, "this page has expired, please reload it")
		}
		return apperr.Wrap(op, apperr.Forbidden, err, "")
	}
	if claims.InvitationID != invitationID {
		return apperr.Wrap(op, apperr.Forbidden, fmt.Errorf("token for %s", claims.InvitationID), "")
	}

	return nil
}
