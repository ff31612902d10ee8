package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/payment"
	"github.com/kirinyoku/wedgo/internal/payment/midtrans"
	"github.com/kirinyoku/wedgo/internal/repository"
	"github.com/kirinyoku/wedgo/internal/schema"
	"github.com/kirinyoku/wedgo/internal/service/shared"
	"github.com/kirinyoku/wedgo/internal/uow"
)

// Gateway opens a hosted payment for an order.
type Gateway interface {
	CreateTransaction(ctx context.Context, order payment.Order, customer midtrans.Customer) (midtrans.Transaction, error)
}

type Config struct {
	GuestBase int
	Now       func() time.Time
}

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	gate     *access.Gate
	schema   *schema.Validator
	catalog  payment.Catalog
	gateway  Gateway
	notifier *shared.Notifier
	cfg      Config
}

func New(
	store repository.Store,
	gate *access.Gate,
	v *schema.Validator,
	catalog payment.Catalog,
	gateway Gateway,
	notifier *shared.Notifier,
	cfg Config,
) *Service {
	if cfg.GuestBase <= 0 {
		cfg.GuestBase = 20
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		store:    store,
		uow:      uow.NewUoW(store),
		gate:     gate,
		schema:   v,
		catalog:  catalog,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (s *Service) Catalog() payment.Catalog {
	return s.catalog
}

// Summary is the paid state of an invitation.
type Summary struct {
	Payments    []domain.Payment `json:"payments"`
	GuestLimit  int              `json:"guestLimit"`
	ActiveUntil *time.Time       `json:"activeUntil,omitempty"`
	CanPublish  bool             `json:"canPublish"`
}

func (s *Service) Summary(ctx context.Context, actor access.Actor, id string) (*Summary, error) {
	const op = "service.checkout.Summary"

	repo := s.store.Invitations()
	if _, err := s.gate.Owned(ctx, repo, actor, id); err != nil {
		return nil, err
	}

	payments, err := repo.Payments(ctx, id)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}
	return s.summarize(payments), nil
}

func (s *Service) summarize(payments []domain.Payment) *Summary {
	sum := &Summary{
		Payments:   payments,
		GuestLimit: domain.GuestLimit(payments, s.cfg.GuestBase),
		CanPublish: domain.CanPublish(payments, s.cfg.Now()),
	}
	if until := domain.ActiveUntil(payments); !until.IsZero() {
		sum.ActiveUntil = &until
	}
	return sum
}

type Checkout struct {
	Order       payment.Order        `json:"order"`
	Transaction midtrans.Transaction `json:"transaction"`
}

// Checkout prices req and opens a gateway transaction for it. Nothing is
// stored until the client reports the payment through Record.
func (s *Service) Checkout(ctx context.Context, actor access.Actor, id string, req payment.Request) (*Checkout, error) {
	const op = "service.checkout.Checkout"

	repo := s.store.Invitations()
	if _, err := s.gate.Owned(ctx, repo, actor, id); err != nil {
		return nil, err
	}

	payments, err := repo.Payments(ctx, id)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}

	order, err := s.catalog.Quote(id, req, len(payments) == 0)
	if err != nil {
		msg := "invalid order"
		switch {
		case errors.Is(err, payment.ErrPublishRequired):
			msg = payment.ErrPublishRequired.Error()
		case errors.Is(err, payment.ErrEmptyOrder):
			msg = payment.ErrEmptyOrder.Error()
		}
		return nil, apperr.Wrap(op, apperr.Validation, err, msg)
	}

	if s.gateway == nil {
		return nil, apperr.E(op, apperr.Internal, "payment gateway is not configured")
	}
	tx, err := s.gateway.CreateTransaction(ctx, order, midtrans.Customer{UserID: actor.UserID, Email: actor.Email})
	if err != nil {
		return nil, apperr.Wrap(op, apperr.Internal, err, "")
	}

	return &Checkout{Order: order, Transaction: tx}, nil
}

// Record appends a payment reported by the client after checkout. A payment
// whose order id is already recorded is not appended twice.
//
// The gateway is not asked to confirm the payment.
func (s *Service) Record(ctx context.Context, actor access.Actor, id string, p domain.Payment) (*Summary, error) {
	const op = "service.checkout.Record"

	if p.PaidAt.IsZero() {
		p.PaidAt = s.cfg.Now().UTC()
	}
	if err := s.schema.Payments([]domain.Payment{p}); err != nil {
		return nil, apperr.Wrap(op, apperr.Validation, err, err.Error())
	}

	var payments []domain.Payment
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Invitations, after func(uow.AfterCommit)) error {
		inv, err := s.gate.Owned(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		payments, err = tx.Payments(ctx, id)
		if err != nil {
			return err
		}
		for _, existing := range payments {
			if existing.OrderID == p.OrderID {
				return nil
			}
		}

		payments, err = tx.AppendPayment(ctx, id, p)
		if err != nil {
			return err
		}

		after(func(ctx context.Context) {
			s.notifier.Changed(ctx, id, inv.Name)
		})
		return nil
	})
	if err != nil {
		return nil, shared.StoreError(op, err)
	}

	return s.summarize(payments), nil
}
