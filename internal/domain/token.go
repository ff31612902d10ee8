package domain

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"
)

var ErrDuplicateSlug = errors.New("duplicate guest")

const (
	tokenMin   = 100000
	tokenSpace = 900000
)

// TokenRegistry hands out guest tokens. Tokens identify a guest in shared
// links; they are not secrets.
type TokenRegistry struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewTokenRegistry(src rand.Source) *TokenRegistry {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1|1)
	}

	return &TokenRegistry{rnd: rand.New(src)}
}

// NextToken returns a 6-digit token not present in existing.
func (r *TokenRegistry) NextToken(existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		taken[t] = struct{}{}
	}

	return r.next(taken)
}

func (r *TokenRegistry) next(taken map[string]struct{}) string {
	if len(taken) >= tokenSpace {
		panic("domain: guest token space exhausted")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		t := strconv.Itoa(tokenMin + r.rnd.IntN(tokenSpace))
		if _, ok := taken[t]; !ok {
			return t
		}
	}
}

// NextGuestID is max(existing, 0) + 1.
func NextGuestID(existing []int) int {
	maxID := 0
	for _, id := range existing {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

func isToken(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// NewGuest builds a guest entry for name, unique against existing.
func NewGuest(existing []Guest, name string, reg *TokenRegistry) (Guest, error) {
	out, err := NormalizeGuests(append(append([]Guest(nil), existing...), Guest{Name: name}), reg)
	if err != nil {
		return Guest{}, err
	}
	return out[len(out)-1], nil
}

// NormalizeGuests derives slug and group from each name, keeps valid unique
// ids and tokens, and assigns fresh ones where they are missing or collide.
func NormalizeGuests(in []Guest, reg *TokenRegistry) ([]Guest, error) {
	return normalizeGuests(in, nil, reg)
}

// NormalizeGuestsFrom normalizes in as the replacement for prev. An incoming
// token is kept only when it is unknown or belonged to the guest with the same
// id in prev. Tokens of prev guests and retired tokens are never handed to
// another guest, so comments of deleted guests stay unmatched.
func NormalizeGuestsFrom(prev, in []Guest, retired []string, reg *TokenRegistry) ([]Guest, error) {
	owners := make(map[string]int, len(prev))
	reserved := make(map[string]struct{}, len(prev)+len(retired))
	for _, t := range retired {
		if t != "" {
			reserved[t] = struct{}{}
		}
	}
	for _, g := range prev {
		owners[g.Token] = g.ID
		reserved[g.Token] = struct{}{}
	}

	guests := make([]Guest, len(in))
	copy(guests, in)
	for i := range guests {
		g := &guests[i]
		if _, ok := reserved[g.Token]; !ok {
			continue
		}
		if id, ok := owners[g.Token]; !ok || id != g.ID || g.ID <= 0 {
			g.Token = ""
		}
	}

	return normalizeGuests(guests, reserved, reg)
}

func normalizeGuests(in []Guest, reserved map[string]struct{}, reg *TokenRegistry) ([]Guest, error) {
	out := make([]Guest, len(in))
	copy(out, in)

	ids := make([]int, 0, len(out))
	seenIDs := make(map[int]struct{}, len(out))
	seenTokens := make(map[string]struct{}, len(out)+len(reserved))
	seenSlugs := make(map[string]int, len(out))

	for i := range out {
		g := &out[i]

		if err := ValidateGuestName(g.Name); err != nil {
			return nil, fmt.Errorf("guest %d: %w", i+1, err)
		}

		group, _ := ParseGroup(g.Name)
		name := NameWithoutGroup(g.Name)
		g.Name = name
		if group != "" {
			g.Name = "(" + group + ") " + name
		}
		g.Group = group
		g.Slug = ToSlug(name, group)

		if prev, ok := seenSlugs[g.Slug]; ok {
			return nil, fmt.Errorf("%w: %q appears at %d and %d", ErrDuplicateSlug, g.Name, prev+1, i+1)
		}
		seenSlugs[g.Slug] = i

		if _, dup := seenIDs[g.ID]; g.ID > 0 && !dup {
			seenIDs[g.ID] = struct{}{}
			ids = append(ids, g.ID)
		} else {
			g.ID = 0
		}

		if _, dup := seenTokens[g.Token]; isToken(g.Token) && !dup {
			seenTokens[g.Token] = struct{}{}
		} else {
			g.Token = ""
		}
	}

	// kept tokens are already in seenTokens
	for t := range reserved {
		seenTokens[t] = struct{}{}
	}

	for i := range out {
		g := &out[i]
		if g.ID == 0 {
			g.ID = NextGuestID(ids)
			ids = append(ids, g.ID)
		}
		if g.Token == "" {
			g.Token = reg.next(seenTokens)
			seenTokens[g.Token] = struct{}{}
		}
	}

	return out, nil
}
