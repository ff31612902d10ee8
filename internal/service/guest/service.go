package guest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/repository"
	"github.com/kirinyoku/wedgo/internal/service/shared"
)

type Config struct {
	// GuestBase is the allowance before any guest block is bought.
	GuestBase int
}

type Service struct {
	store    repository.Store
	gate     *access.Gate
	tokens   *domain.TokenRegistry
	notifier *shared.Notifier
	logger   *slog.Logger
	cfg      Config
}

func New(
	store repository.Store,
	gate *access.Gate,
	tokens *domain.TokenRegistry,
	notifier *shared.Notifier,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.GuestBase <= 0 {
		cfg.GuestBase = 20
	}
	if tokens == nil {
		tokens = domain.NewTokenRegistry(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:    store,
		gate:     gate,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

func (s *Service) List(ctx context.Context, actor access.Actor, id string) ([]domain.Guest, error) {
	const op = "service.guest.List"

	repo := s.store.Invitations()
	if _, err := s.gate.Owned(ctx, repo, actor, id); err != nil {
		return nil, err
	}

	guests, err := repo.Guests(ctx, id)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}
	return guests, nil
}

// SaveResult reports the stored guest list. CommentsError is set when the
// guests were saved but their comments could not be re-linked.
type SaveResult struct {
	Guests          []domain.Guest `json:"guests"`
	CommentsChanged int            `json:"commentsChanged"`
	CommentsError   string         `json:"commentsError,omitempty"`
}

// Save replaces the whole guest list, then rewrites the aliases of comments
// posted by guests whose slug changed. A guest keeps an incoming token only
// if it is new or was already theirs; tokens of deleted guests are not reused.
//
// Returns:
//   - apperr.Limit when the list exceeds the paid guest allowance.
//   - apperr.Duplicate when two names map to the same slug.
//   - apperr.Validation when a name is malformed.
func (s *Service) Save(ctx context.Context, actor access.Actor, id string, guests []domain.Guest) (*SaveResult, error) {
	const op = "service.guest.Save"

	repo := s.store.Invitations()
	inv, err := s.gate.Owned(ctx, repo, actor, id)
	if err != nil {
		return nil, err
	}

	payments, err := repo.Payments(ctx, id)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}
	if limit := domain.GuestLimit(payments, s.cfg.GuestBase); len(guests) > limit {
		return nil, apperr.E(op, apperr.Limit, fmt.Sprintf("your plan allows up to %d guests", limit))
	}

	previous, err := repo.Guests(ctx, id)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}
	comments, err := repo.Comments(ctx, id)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}
	retired := make([]string, 0, len(comments))
	for _, c := range comments {
		retired = append(retired, c.Token)
	}

	normalized, err := domain.NormalizeGuestsFrom(previous, guests, retired, s.tokens)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSlug) {
			return nil, apperr.Wrap(op, apperr.Duplicate, err, err.Error())
		}
		return nil, apperr.Wrap(op, apperr.Validation, err, err.Error())
	}

	saved, err := repo.UpdateGuests(ctx, id, normalized)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}
	s.notifier.Changed(context.WithoutCancel(ctx), id, inv.Name)

	res := &SaveResult{Guests: saved}

	n, err := s.reconcile(ctx, id, previous, saved)
	if err != nil {
		s.logger.Warn("guest comments not re-linked", "invitation_id", id, "error", err)
		res.CommentsError = apperr.Message(err)
		return res, nil
	}
	res.CommentsChanged = n

	return res, nil
}

func (s *Service) reconcile(ctx context.Context, id string, previous, saved []domain.Guest) (int, error) {
	const op = "service.guest.reconcile"

	repo := s.store.Invitations()
	comments, err := repo.Comments(ctx, id)
	if err != nil {
		return 0, shared.StoreError(op, err)
	}

	out, changed := domain.ReconcileComments(previous, saved, comments)
	if changed == 0 {
		return 0, nil
	}

	if _, err := repo.UpdateComments(ctx, id, out); err != nil {
		return 0, shared.StoreError(op, err)
	}
	return changed, nil
}
