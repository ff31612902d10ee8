package service

import (
	"log/slog"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/auth"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/payment"
	"github.com/kirinyoku/wedgo/internal/repository"
	redisrepo "github.com/kirinyoku/wedgo/internal/repository/redis"
	"github.com/kirinyoku/wedgo/internal/schema"
	"github.com/kirinyoku/wedgo/internal/service/asset"
	"github.com/kirinyoku/wedgo/internal/service/checkout"
	"github.com/kirinyoku/wedgo/internal/service/comment"
	"github.com/kirinyoku/wedgo/internal/service/guest"
	"github.com/kirinyoku/wedgo/internal/service/invitation"
	"github.com/kirinyoku/wedgo/internal/service/shared"
)

type Services struct {
	Invitations *invitation.Service
	Guests      *guest.Service
	Comments    *comment.Service
	Checkout    *checkout.Service
	Assets      *asset.Service
}

type Config struct {
	Invitation invitation.Config
	Guest      guest.Config
	Checkout   checkout.Config
	Asset      asset.Config
}

// Deps are the adapters shared by every service. Cache, PubSub, Limiter,
// Media and Gateway may be nil when the backing system is not configured.
type Deps struct {
	Store   repository.Store
	Schema  *schema.Validator
	Share   *auth.ShareSigner
	Cache   *redisrepo.Cache
	PubSub  shared.Publisher
	Limiter comment.Limiter
	Media   Media
	Gateway checkout.Gateway
	Catalog payment.Catalog
	Logger  *slog.Logger
}

// Media is the union of what the invitation and asset services need from
// the file store.
type Media interface {
	asset.Storage
	invitation.MediaCleaner
}

func NewServices(deps Deps, cfg Config) *Services {
	gate := access.NewGate(deps.Share)
	notifier := shared.NewNotifier(deps.Cache, deps.PubSub, deps.Logger)

	var (
		cleaner invitation.MediaCleaner
		storage asset.Storage
	)
	if deps.Media != nil {
		cleaner, storage = deps.Media, deps.Media
	}

	return &Services{
		Invitations: invitation.New(deps.Store, gate, deps.Share, deps.Schema, deps.Cache, cleaner, notifier, deps.Logger, cfg.Invitation),
		Guests:      guest.New(deps.Store, gate, domain.NewTokenRegistry(nil), notifier, deps.Logger, cfg.Guest),
		Comments:    comment.New(deps.Store, gate, deps.Schema, deps.Limiter),
		Checkout:    checkout.New(deps.Store, gate, deps.Schema, deps.Catalog, deps.Gateway, notifier, cfg.Checkout),
		Assets:      asset.New(deps.Store, gate, storage, cfg.Asset),
	}
}
