package repository

import (
	"context"

	"github.com/kirinyoku/wedgo/internal/domain"
)

// Invitations is the invitation aggregate store. Every slice write replaces
// the whole column, bumps updated_at and returns the value as stored.
type Invitations interface {
	Create(ctx context.Context, inv *domain.Invitation) error
	Get(ctx context.Context, id string) (*domain.Invitation, error)
	GetByName(ctx context.Context, name string) (*domain.Invitation, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Invitation, error)
	CountDrafts(ctx context.Context, ownerID string) (int, error)
	NameExists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, id string) error

	Guests(ctx context.Context, id string) ([]domain.Guest, error)
	Comments(ctx context.Context, id string) ([]domain.Comment, error)
	Payments(ctx context.Context, id string) ([]domain.Payment, error)

	UpdateGuests(ctx context.Context, id string, guests []domain.Guest) ([]domain.Guest, error)
	UpdateComments(ctx context.Context, id string, comments []domain.Comment) ([]domain.Comment, error)
	UpdateEvents(ctx context.Context, id string, events []domain.Event) ([]domain.Event, error)
	UpdateCouple(ctx context.Context, id string, couple []domain.Person) ([]domain.Person, error)
	UpdateGalleries(ctx context.Context, id string, galleries []domain.Asset) ([]domain.Asset, error)
	UpdateLoadout(ctx context.Context, id string, loadout domain.Loadout) (domain.Loadout, error)
	UpdateMusic(ctx context.Context, id string, music *domain.Asset) (*domain.Asset, error)
	UpdateDisplayName(ctx context.Context, id string, name string) (string, error)
	UpdateStories(ctx context.Context, id string, md string) (string, error)
	UpdateSurprise(ctx context.Context, id string, md string) (string, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Status, error)
	AppendPayment(ctx context.Context, id string, p domain.Payment) ([]domain.Payment, error)
}

// Store hands out the invitation repository and runs units of work.
type Store interface {
	Invitations() Invitations
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Invitations) error) error
}
