// Package memory is an in-process invitation store for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/repository"
	"github.com/kirinyoku/wedgo/internal/schema"
)

type row struct {
	inv      domain.Invitation
	guests   []domain.Guest
	comments []domain.Comment
	payments []domain.Payment
}

type Store struct {
	txMu   sync.Mutex
	mu     sync.RWMutex
	rows   map[string]*row
	schema *schema.Validator
	now    func() time.Time
}

func NewStore(v *schema.Validator) *Store {
	return &Store{
		rows:   make(map[string]*row),
		schema: v,
		now:    time.Now,
	}
}

func (s *Store) Invitations() repository.Invitations {
	return s
}

// RunTx serialises units of work. When fn fails, the rows fn wrote are put
// back as they were; writes made outside the unit of work are kept.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Invitations) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{before: make(map[string]*row)}
	if err := fn(context.WithValue(ctx, journalKey{}, j), s); err != nil {
		s.mu.Lock()
		for id, r := range j.before {
			if r == nil {
				delete(s.rows, id)
			} else {
				s.rows[id] = r
			}
		}
		s.mu.Unlock()
		return err
	}

	return nil
}

type journalKey struct{}

// journal holds the first before-image of each row a unit of work wrote. A
// nil image means the row did not exist.
type journal struct {
	before map[string]*row
}

// touch records the before-image of row id when ctx belongs to a unit of
// work. Callers hold s.mu.
func (s *Store) touch(ctx context.Context, id string) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		return
	}
	if _, seen := j.before[id]; seen {
		return
	}

	r, ok := s.rows[id]
	if !ok {
		j.before[id] = nil
		return
	}
	j.before[id] = &row{
		inv:      cloneInvitation(r.inv),
		guests:   slices.Clone(r.guests),
		comments: slices.Clone(r.comments),
		payments: slices.Clone(r.payments),
	}
}

func (s *Store) Create(ctx context.Context, inv *domain.Invitation) error {
	const op = "memory.Store.Create"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[inv.ID]; ok {
		return fmt.Errorf("%s: %w", op, repository.ErrConflict)
	}
	for _, r := range s.rows {
		if r.inv.Name == inv.Name {
			return fmt.Errorf("%s: %w", op, repository.ErrConflict)
		}
	}

	now := s.now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	s.touch(ctx, inv.ID)
	s.rows[inv.ID] = &row{
		inv:      cloneInvitation(*inv),
		guests:   []domain.Guest{},
		comments: []domain.Comment{},
		payments: []domain.Payment{},
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Invitation, error) {
	const op = "memory.Store.Get"

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rows[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	inv := cloneInvitation(r.inv)
	return &inv, nil
}

func (s *Store) GetByName(ctx context.Context, name string) (*domain.Invitation, error) {
	const op = "memory.Store.GetByName"

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.rows {
		if r.inv.Name == name {
			inv := cloneInvitation(r.inv)
			return &inv, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Invitation, 0)
	for _, r := range s.rows {
		if r.inv.OwnerUserID == ownerID {
			out = append(out, cloneInvitation(r.inv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *Store) CountDrafts(ctx context.Context, ownerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.rows {
		if r.inv.OwnerUserID == ownerID && r.inv.Status == domain.StatusDraft {
			n++
		}
	}

	return n, nil
}

func (s *Store) NameExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.rows {
		if r.inv.Name == name {
			return true, nil
		}
	}

	return false, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "memory.Store.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	s.touch(ctx, id)
	delete(s.rows, id)

	return nil
}

func (s *Store) Guests(ctx context.Context, id string) ([]domain.Guest, error) {
	return read(s, "Guests", id, func(r *row) []domain.Guest { return slices.Clone(r.guests) })
}

func (s *Store) Comments(ctx context.Context, id string) ([]domain.Comment, error) {
	return read(s, "Comments", id, func(r *row) []domain.Comment { return slices.Clone(r.comments) })
}

func (s *Store) Payments(ctx context.Context, id string) ([]domain.Payment, error) {
	return read(s, "Payments", id, func(r *row) []domain.Payment { return slices.Clone(r.payments) })
}

func (s *Store) UpdateGuests(ctx context.Context, id string, guests []domain.Guest) ([]domain.Guest, error) {
	return write(ctx, s, "UpdateGuests", id, orEmpty(guests), s.schema.Guests,
		func(r *row, v []domain.Guest) { r.guests = v })
}

func (s *Store) UpdateComments(ctx context.Context, id string, comments []domain.Comment) ([]domain.Comment, error) {
	return write(ctx, s, "UpdateComments", id, orEmpty(comments), s.schema.Comments,
		func(r *row, v []domain.Comment) { r.comments = v })
}

func (s *Store) UpdateEvents(ctx context.Context, id string, events []domain.Event) ([]domain.Event, error) {
	return write(ctx, s, "UpdateEvents", id, orEmpty(events), s.schema.Events,
		func(r *row, v []domain.Event) { r.inv.Events = v })
}

func (s *Store) UpdateCouple(ctx context.Context, id string, couple []domain.Person) ([]domain.Person, error) {
	return write(ctx, s, "UpdateCouple", id, orEmpty(couple), s.schema.Couple,
		func(r *row, v []domain.Person) { r.inv.Couple = v })
}

func (s *Store) UpdateGalleries(ctx context.Context, id string, galleries []domain.Asset) ([]domain.Asset, error) {
	return write(ctx, s, "UpdateGalleries", id, orEmpty(galleries), s.schema.Galleries,
		func(r *row, v []domain.Asset) { r.inv.Galleries = v })
}

func (s *Store) UpdateLoadout(ctx context.Context, id string, loadout domain.Loadout) (domain.Loadout, error) {
	return write(ctx, s, "UpdateLoadout", id, loadout, s.schema.Loadout,
		func(r *row, v domain.Loadout) { r.inv.Loadout = v })
}

func (s *Store) UpdateMusic(ctx context.Context, id string, music *domain.Asset) (*domain.Asset, error) {
	return write(ctx, s, "UpdateMusic", id, cloneAsset(music), s.schema.Music,
		func(r *row, v *domain.Asset) { r.inv.Music = v })
}

func (s *Store) UpdateDisplayName(ctx context.Context, id string, name string) (string, error) {
	return write(ctx, s, "UpdateDisplayName", id, name, s.schema.DisplayName,
		func(r *row, v string) { r.inv.DisplayName = v })
}

func (s *Store) UpdateStories(ctx context.Context, id string, md string) (string, error) {
	return write(ctx, s, "UpdateStories", id, md, s.schema.Stories,
		func(r *row, v string) { r.inv.Stories = v })
}

func (s *Store) UpdateSurprise(ctx context.Context, id string, md string) (string, error) {
	return write(ctx, s, "UpdateSurprise", id, md, s.schema.Surprise,
		func(r *row, v string) { r.inv.Surprise = v })
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Status, error) {
	return write(ctx, s, "UpdateStatus", id, status, s.schema.Status,
		func(r *row, v domain.Status) { r.inv.Status = v })
}

func (s *Store) AppendPayment(ctx context.Context, id string, p domain.Payment) ([]domain.Payment, error) {
	const op = "memory.Store.AppendPayment"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	next := append(slices.Clone(r.payments), p)
	if err := s.schema.Payments(next); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, repository.ErrCorrupt, err)
	}
	s.touch(ctx, id)
	r.payments = next
	r.inv.UpdatedAt = s.now()

	return slices.Clone(next), nil
}

// Len reports the number of stored invitations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// IDs lists the stored invitation ids.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.rows))
}

func read[T any](s *Store, method, id string, get func(*row) T) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rows[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("memory.Store.%s: %w", method, repository.ErrNotFound)
	}

	return get(r), nil
}

// write validates v like the postgres store validates its RETURNING value,
// then stores it.
func write[T any](
	ctx context.Context,
	s *Store,
	method, id string,
	v T,
	check func(T) error,
	set func(*row, T),
) (T, error) {
	op := "memory.Store." + method

	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok {
		return zero, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	if err := check(v); err != nil {
		return zero, fmt.Errorf("%s: %w: %v", op, repository.ErrCorrupt, err)
	}

	s.touch(ctx, id)
	set(r, v)
	r.inv.UpdatedAt = s.now()

	return v, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

func cloneAsset(a *domain.Asset) *domain.Asset {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

func cloneInvitation(inv domain.Invitation) domain.Invitation {
	inv.Couple = slices.Clone(inv.Couple)
	inv.Events = slices.Clone(inv.Events)
	inv.Galleries = slices.Clone(inv.Galleries)
	inv.Music = cloneAsset(inv.Music)
	return inv
}
