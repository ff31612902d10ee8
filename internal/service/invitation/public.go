package invitation

import (
	"context"
	"time"

	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/domain"
	redisrepo "github.com/kirinyoku/wedgo/internal/repository/redis"
	"github.com/kirinyoku/wedgo/internal/service/shared"
)

// PublicGuest is what a guest learns about themselves from their link.
type PublicGuest struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Alias string `json:"alias"`
	Group string `json:"group,omitempty"`
	Token string `json:"token"`
}

type PublicView struct {
	Invitation     domain.Invitation `json:"invitation"`
	Guest          *PublicGuest      `json:"guest,omitempty"`
	ActiveUntil    time.Time         `json:"activeUntil"`
	ShareToken     string            `json:"shareToken"`
	ShareExpiresAt time.Time         `json:"shareExpiresAt"`
}

type publicEntry struct {
	Invitation  domain.Invitation `json:"invitation"`
	ActiveUntil time.Time         `json:"activeUntil"`
}

// Public renders the invitation page data for name. A slug and token pair
// that names a current guest unlocks the events open to that guest's group;
// anything else is treated as an anonymous visitor. Every view carries a
// fresh share token.
func (s *Service) Public(ctx context.Context, name, slug, token string) (*PublicView, error) {
	const op = "service.invitation.Public"

	entry, err := shared.Cached(ctx, s.cache, redisrepo.KeyPublic(name), s.cfg.CacheTTL,
		func(ctx context.Context) (publicEntry, error) {
			repo := s.store.Invitations()
			inv, err := repo.GetByName(ctx, name)
			if err != nil {
				return publicEntry{}, err
			}
			payments, err := repo.Payments(ctx, inv.ID)
			if err != nil {
				return publicEntry{}, err
			}

			inv.OwnerUserID = ""
			return publicEntry{Invitation: *inv, ActiveUntil: domain.ActiveUntil(payments)}, nil
		})
	if err != nil {
		return nil, shared.StoreError(op, err)
	}

	inv := entry.Invitation
	if inv.Status != domain.StatusLive {
		return nil, apperr.E(op, apperr.NotFound, "invitation not found")
	}
	if !s.cfg.Now().Before(entry.ActiveUntil) {
		return nil, apperr.E(op, apperr.Forbidden, "this invitation is no longer active")
	}

	var guest *domain.Guest
	if slug != "" && token != "" {
		guests, err := s.store.Invitations().Guests(ctx, inv.ID)
		if err != nil {
			return nil, shared.StoreError(op, err)
		}
		for i := range guests {
			if guests[i].Token == token && guests[i].Slug == slug {
				guest = &guests[i]
				break
			}
		}
	}

	inv.Events = domain.VisibleEvents(inv.Events, guest)

	shareToken, claims, err := s.share.Issue(inv.ID)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.Internal, err, "")
	}

	view := &PublicView{
		Invitation:     inv,
		ActiveUntil:    entry.ActiveUntil,
		ShareToken:     shareToken,
		ShareExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
	}
	if guest != nil {
		view.Guest = &PublicGuest{
			Name:  guest.Name,
			Slug:  guest.Slug,
			Alias: guest.Alias(),
			Group: guest.Group,
			Token: guest.Token,
		}
	}

	return view, nil
}
