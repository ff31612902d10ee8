package invitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/auth"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/media"
	"github.com/kirinyoku/wedgo/internal/repository"
	redisrepo "github.com/kirinyoku/wedgo/internal/repository/redis"
	"github.com/kirinyoku/wedgo/internal/schema"
	"github.com/kirinyoku/wedgo/internal/service/shared"
	"github.com/kirinyoku/wedgo/internal/uow"
)

// MediaCleaner removes every stored file under a prefix.
type MediaCleaner interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type Config struct {
	Env             string
	EventMaxHorizon int
	CacheTTL        time.Duration
	DefaultTheme    string
	Now             func() time.Time
}

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	gate     *access.Gate
	share    *auth.ShareSigner
	schema   *schema.Validator
	cache    *redisrepo.Cache
	media    MediaCleaner
	notifier *shared.Notifier
	logger   *slog.Logger
	cfg      Config
}

func New(
	store repository.Store,
	gate *access.Gate,
	share *auth.ShareSigner,
	v *schema.Validator,
	cache *redisrepo.Cache,
	mediaStore MediaCleaner,
	notifier *shared.Notifier,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.EventMaxHorizon <= 0 {
		cfg.EventMaxHorizon = 730
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.DefaultTheme == "" {
		cfg.DefaultTheme = "classic"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:    store,
		uow:      uow.NewUoW(store),
		gate:     gate,
		share:    share,
		schema:   v,
		cache:    cache,
		media:    mediaStore,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

type NewInvitation struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// AddNew creates a draft invitation with one main event a month ahead.
//
// Returns:
//   - apperr.Limit when the owner already has domain.MaxDraft drafts.
//   - apperr.Duplicate when the name is taken.
func (s *Service) AddNew(ctx context.Context, actor access.Actor, in NewInvitation) (*domain.Invitation, error) {
	const op = "service.invitation.AddNew"

	if !actor.Authenticated() {
		return nil, apperr.E(op, apperr.Auth, "please sign in again")
	}
	if !schema.ValidInvitationName(in.Name) {
		return nil, apperr.E(op, apperr.Validation, fmt.Sprintf(
			"name must be %d to %d lowercase letters, digits or hyphens",
			schema.MinInvitationName, schema.MaxInvitationName,
		))
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Name
	}
	if err := s.schema.DisplayName(in.DisplayName); err != nil {
		return nil, apperr.Wrap(op, apperr.Validation, err, err.Error())
	}

	now := s.cfg.Now()
	inv := &domain.Invitation{
		ID:          uuid.NewString(),
		OwnerUserID: actor.UserID,
		Name:        in.Name,
		DisplayName: in.DisplayName,
		Status:      domain.StatusDraft,
		Couple: []domain.Person{
			{Role: "groom"},
			{Role: "bride"},
		},
		Events: []domain.Event{{
			ID:        1,
			Date:      day(now, domain.LocalTimeWIB.Location()).AddDate(0, 1, 0),
			EventName: "Akad",
			TimeStart: "08:00",
			LocalTime: domain.LocalTimeWIB,
		}},
		Galleries: []domain.Asset{},
		Loadout:   domain.Loadout{Theme: s.cfg.DefaultTheme},
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Invitations, after func(uow.AfterCommit)) error {
		drafts, err := tx.CountDrafts(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if drafts >= domain.MaxDraft {
			return apperr.E(op, apperr.Limit, fmt.Sprintf("you can only have %d draft invitations", domain.MaxDraft))
		}

		taken, err := tx.NameExists(ctx, inv.Name)
		if err != nil {
			return err
		}
		if taken {
			return apperr.E(op, apperr.Duplicate, fmt.Sprintf("the name %q is already taken", inv.Name))
		}

		if err := tx.Create(ctx, inv); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperr.Wrap(op, apperr.Duplicate, err, fmt.Sprintf("the name %q is already taken", inv.Name))
			}
			return err
		}

		after(func(ctx context.Context) {
			s.logger.Info("invitation created", "invitation_id", inv.ID, "owner", actor.UserID)
		})
		return nil
	})
	if err != nil {
		return nil, shared.StoreError(op, err)
	}

	return inv, nil
}

// Get returns the invitation if actor owns it.
func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (*domain.Invitation, error) {
	const op = "service.invitation.Get"

	if !actor.Authenticated() {
		return nil, apperr.E(op, apperr.Auth, "please sign in again")
	}

	inv, err := shared.Cached(ctx, s.cache, redisrepo.KeyInvitation(id), s.cfg.CacheTTL,
		func(ctx context.Context) (*domain.Invitation, error) {
			return s.store.Invitations().Get(ctx, id)
		})
	if err != nil {
		return nil, shared.StoreError(op, err)
	}

	if err := s.gate.AuthorizeOwner(actor, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, actor access.Actor) ([]domain.Invitation, error) {
	const op = "service.invitation.List"

	if !actor.Authenticated() {
		return nil, apperr.E(op, apperr.Auth, "please sign in again")
	}

	invs, err := s.store.Invitations().ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}
	return invs, nil
}

// Delete removes the invitation's stored files, then the invitation. When the
// files cannot be removed the invitation is kept.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	const op = "service.invitation.Delete"

	inv, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}

	if s.media != nil {
		n, err := s.media.DeletePrefix(ctx, media.Path(s.cfg.Env, id))
		if err != nil {
			return apperr.Wrap(op, apperr.Internal, err, "could not delete the invitation's files")
		}
		s.logger.Debug("invitation files deleted", "invitation_id", id, "count", n)
	}

	if err := s.store.Invitations().Delete(ctx, id); err != nil {
		s.logger.Error("invitation files deleted but row kept", "invitation_id", id, "error", err)
		return shared.StoreError(op, err)
	}

	s.notifier.Changed(context.WithoutCancel(ctx), id, inv.Name)
	return nil
}

func (s *Service) UpdateDisplayName(ctx context.Context, actor access.Actor, id, name string) (string, error) {
	return update(ctx, s, actor, id, "service.invitation.UpdateDisplayName", name, s.schema.DisplayName,
		s.store.Invitations().UpdateDisplayName)
}

func (s *Service) UpdateStories(ctx context.Context, actor access.Actor, id, md string) (string, error) {
	return update(ctx, s, actor, id, "service.invitation.UpdateStories", md, s.schema.Stories,
		s.store.Invitations().UpdateStories)
}

func (s *Service) UpdateSurprise(ctx context.Context, actor access.Actor, id, md string) (string, error) {
	return update(ctx, s, actor, id, "service.invitation.UpdateSurprise", md, s.schema.Surprise,
		s.store.Invitations().UpdateSurprise)
}

func (s *Service) UpdateCouple(ctx context.Context, actor access.Actor, id string, couple []domain.Person) ([]domain.Person, error) {
	return update(ctx, s, actor, id, "service.invitation.UpdateCouple", couple, s.schema.Couple,
		s.store.Invitations().UpdateCouple)
}

func (s *Service) UpdateGalleries(ctx context.Context, actor access.Actor, id string, galleries []domain.Asset) ([]domain.Asset, error) {
	return update(ctx, s, actor, id, "service.invitation.UpdateGalleries", galleries, s.schema.Galleries,
		s.store.Invitations().UpdateGalleries)
}

func (s *Service) UpdateLoadout(ctx context.Context, actor access.Actor, id string, l domain.Loadout) (domain.Loadout, error) {
	return update(ctx, s, actor, id, "service.invitation.UpdateLoadout", l, s.schema.Loadout,
		s.store.Invitations().UpdateLoadout)
}

func (s *Service) UpdateMusic(ctx context.Context, actor access.Actor, id string, music *domain.Asset) (*domain.Asset, error) {
	return update(ctx, s, actor, id, "service.invitation.UpdateMusic", music, s.schema.Music,
		s.store.Invitations().UpdateMusic)
}

// UpdateEvents replaces the event list. See PrepareEvents for the rules.
func (s *Service) UpdateEvents(ctx context.Context, actor access.Actor, id string, events []domain.Event) ([]domain.Event, error) {
	const op = "service.invitation.UpdateEvents"

	inv, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	prepared, err := PrepareEvents(inv.Events, events, s.cfg.Now(), s.cfg.EventMaxHorizon)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.Validation, err, err.Error())
	}
	if err := s.schema.Events(prepared); err != nil {
		return nil, apperr.Wrap(op, apperr.Validation, err, err.Error())
	}

	saved, err := s.store.Invitations().UpdateEvents(ctx, id, prepared)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}

	s.notifier.Changed(context.WithoutCancel(ctx), id, inv.Name)
	return saved, nil
}

// UpdateStatus publishes or unpublishes the invitation. Going live needs an
// unexpired payment; going back to draft counts against the draft limit.
func (s *Service) UpdateStatus(ctx context.Context, actor access.Actor, id string, status domain.Status) (domain.Status, error) {
	const op = "service.invitation.UpdateStatus"

	if err := s.schema.Status(status); err != nil {
		return "", apperr.Wrap(op, apperr.Validation, err, "status must be draft or live")
	}

	var (
		saved domain.Status
		name  string
	)
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Invitations, after func(uow.AfterCommit)) error {
		inv, err := s.gate.Owned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		name = inv.Name

		if inv.Status == status {
			saved = status
			return nil
		}

		switch status {
		case domain.StatusLive:
			payments, err := tx.Payments(ctx, id)
			if err != nil {
				return err
			}
			if !domain.CanPublish(payments, s.cfg.Now()) {
				return apperr.E(op, apperr.Forbidden, "purchase a package before publishing")
			}
		case domain.StatusDraft:
			drafts, err := tx.CountDrafts(ctx, actor.UserID)
			if err != nil {
				return err
			}
			if drafts >= domain.MaxDraft {
				return apperr.E(op, apperr.Limit, fmt.Sprintf("you can only have %d draft invitations", domain.MaxDraft))
			}
		}

		saved, err = tx.UpdateStatus(ctx, id, status)
		if err != nil {
			return err
		}

		after(func(ctx context.Context) {
			s.notifier.Changed(ctx, id, name)
		})
		return nil
	})
	if err != nil {
		return "", shared.StoreError(op, err)
	}

	return saved, nil
}

// update is the shape shared by every single-slice owner write.
func update[T any](
	ctx context.Context,
	s *Service,
	actor access.Actor,
	id, op string,
	v T,
	check func(T) error,
	write func(ctx context.Context, id string, v T) (T, error),
) (T, error) {
	var zero T

	inv, err := s.Get(ctx, actor, id)
	if err != nil {
		return zero, err
	}

	if err := check(v); err != nil {
		return zero, apperr.Wrap(op, apperr.Validation, err, err.Error())
	}

	saved, err := write(ctx, id, v)
	if err != nil {
		return zero, shared.StoreError(op, err)
	}

	s.notifier.Changed(context.WithoutCancel(ctx), id, inv.Name)
	return saved, nil
}
