package editor

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/service/guest"
)

// GuestStore reads and replaces an invitation's guest list.
type GuestStore interface {
	Guests(ctx context.Context, id string) ([]domain.Guest, error)
	SaveGuests(ctx context.Context, id string, guests []domain.Guest) (*guest.SaveResult, error)
}

// GuestSheet edits the whole guest list locally and writes it back in one
// request. Rows are normalized as they are edited so slugs and tokens match
// what the server will store.
type GuestSheet struct {
	id     string
	store  GuestStore
	state  *State
	tokens *domain.TokenRegistry

	mu       sync.Mutex
	rows     []domain.Guest
	snapshot []domain.Guest
}

func NewGuestSheet(id string, store GuestStore, state *State, tokens *domain.TokenRegistry) *GuestSheet {
	if tokens == nil {
		tokens = domain.NewTokenRegistry(nil)
	}
	return &GuestSheet{id: id, store: store, state: state, tokens: tokens}
}

// Load fetches the current list and makes it the snapshot Cancel returns to.
func (s *GuestSheet) Load(ctx context.Context) error {
	guests, err := s.store.Guests(ctx, s.id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rows = slices.Clone(guests)
	s.snapshot = slices.Clone(guests)
	s.mu.Unlock()

	if s.state != nil {
		s.state.SetGuests(s.id, guests)
	}
	return nil
}

func (s *GuestSheet) Rows() []domain.Guest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

// Dirty reports whether the rows differ from the snapshot.
func (s *GuestSheet) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !slices.Equal(s.rows, s.snapshot)
}

// Add appends a guest with a fresh id and token.
func (s *GuestSheet) Add(name string) (domain.Guest, error) {
	const op = "editor.GuestSheet.Add"

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := domain.NewGuest(s.rows, name, s.tokens)
	if err != nil {
		return domain.Guest{}, rowError(op, err)
	}
	s.rows = append(s.rows, g)
	return g, nil
}

// Rename changes the name of row i. Id and token are kept.
func (s *GuestSheet) Rename(i int, name string) (domain.Guest, error) {
	const op = "editor.GuestSheet.Rename"

	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.rows) {
		return domain.Guest{}, apperr.E(op, apperr.NotFound, "guest not found")
	}

	next := slices.Clone(s.rows)
	next[i].Name = name
	out, err := domain.NormalizeGuests(next, s.tokens)
	if err != nil {
		return domain.Guest{}, rowError(op, err)
	}
	s.rows = out
	return out[i], nil
}

func (s *GuestSheet) Remove(i int) error {
	const op = "editor.GuestSheet.Remove"

	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.rows) {
		return apperr.E(op, apperr.NotFound, "guest not found")
	}
	s.rows = slices.Delete(s.rows, i, i+1)
	return nil
}

// Cancel drops every local edit.
func (s *GuestSheet) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = slices.Clone(s.snapshot)
}

// Save writes the rows. On success the stored list becomes both the rows
// and the snapshot; on failure the rows are kept for another try.
func (s *GuestSheet) Save(ctx context.Context) (*guest.SaveResult, error) {
	s.mu.Lock()
	rows := slices.Clone(s.rows)
	s.mu.Unlock()

	res, err := s.store.SaveGuests(ctx, s.id, rows)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.rows = slices.Clone(res.Guests)
	s.snapshot = slices.Clone(res.Guests)
	s.mu.Unlock()

	if s.state != nil {
		s.state.SetGuests(s.id, res.Guests)
	}
	return res, nil
}

func rowError(op string, err error) error {
	if errors.Is(err, domain.ErrDuplicateSlug) {
		return apperr.Wrap(op, apperr.Duplicate, err, err.Error())
	}
	return apperr.Wrap(op, apperr.Validation, err, err.Error())
}
