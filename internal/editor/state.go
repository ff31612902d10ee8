package editor

import (
	"slices"
	"sync"

	"github.com/kirinyoku/wedgo/internal/domain"
)

// State holds the last confirmed copy of every invitation the editor has
// loaded. Fields write into it after each successful save; views read from
// it. Readers get copies.
type State struct {
	mu          sync.RWMutex
	invitations map[string]domain.Invitation
	guests      map[string][]domain.Guest
	comments    map[string][]domain.Comment
	payments    map[string][]domain.Payment
	versions    map[string]uint64
	watchers    []func(id string)
}

func NewState() *State {
	return &State{
		invitations: make(map[string]domain.Invitation),
		guests:      make(map[string][]domain.Guest),
		comments:    make(map[string][]domain.Comment),
		payments:    make(map[string][]domain.Payment),
		versions:    make(map[string]uint64),
	}
}

// Watch registers fn to be called after every change, with the invitation id.
func (s *State) Watch(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Version counts the changes made to invitation id.
func (s *State) Version(id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[id]
}

func (s *State) Invitation(id string) (domain.Invitation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invitations[id]
	if !ok {
		return domain.Invitation{}, false
	}
	return cloneInvitation(inv), true
}

func (s *State) PutInvitation(inv domain.Invitation) {
	s.change(inv.ID, func() {
		s.invitations[inv.ID] = cloneInvitation(inv)
	})
}

// UpdateInvitation applies fn to the stored copy. It is a no-op for an
// invitation that was never loaded.
func (s *State) UpdateInvitation(id string, fn func(inv *domain.Invitation)) {
	s.change(id, func() {
		inv, ok := s.invitations[id]
		if !ok {
			return
		}
		fn(&inv)
		s.invitations[id] = inv
	})
}

func (s *State) Guests(id string) []domain.Guest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.guests[id])
}

func (s *State) SetGuests(id string, guests []domain.Guest) {
	s.change(id, func() { s.guests[id] = slices.Clone(guests) })
}

func (s *State) Comments(id string) []domain.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.comments[id])
}

func (s *State) SetComments(id string, comments []domain.Comment) {
	s.change(id, func() { s.comments[id] = slices.Clone(comments) })
}

func (s *State) Payments(id string) []domain.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.payments[id])
}

func (s *State) SetPayments(id string, payments []domain.Payment) {
	s.change(id, func() { s.payments[id] = slices.Clone(payments) })
}

// Forget drops everything held for id.
func (s *State) Forget(id string) {
	s.change(id, func() {
		delete(s.invitations, id)
		delete(s.guests, id)
		delete(s.comments, id)
		delete(s.payments, id)
	})
}

func (s *State) change(id string, fn func()) {
	s.mu.Lock()
	fn()
	s.versions[id]++
	watchers := slices.Clone(s.watchers)
	s.mu.Unlock()

	for _, w := range watchers {
		w(id)
	}
}

func cloneInvitation(inv domain.Invitation) domain.Invitation {
	inv.Couple = slices.Clone(inv.Couple)
	inv.Events = slices.Clone(inv.Events)
	inv.Galleries = slices.Clone(inv.Galleries)
	if inv.Music != nil {
		m := *inv.Music
		inv.Music = &m
	}
	return inv
}
