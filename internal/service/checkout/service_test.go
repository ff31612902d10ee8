package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/auth"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/payment"
	"github.com/kirinyoku/wedgo/internal/payment/midtrans"
	"github.com/kirinyoku/wedgo/internal/repository/memory"
	"github.com/kirinyoku/wedgo/internal/schema"
)

var (
	owner = access.Actor{UserID: "user-1", Email: "budi@example.com"}
	now   = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
)

type fakeGateway struct {
	orders    []payment.Order
	customers []midtrans.Customer
	err       error
}

func (f *fakeGateway) CreateTransaction(_ context.Context, o payment.Order, c midtrans.Customer) (midtrans.Transaction, error) {
	f.orders = append(f.orders, o)
	f.customers = append(f.customers, c)
	if f.err != nil {
		return midtrans.Transaction{}, f.err
	}
	return midtrans.Transaction{OrderID: o.ID, Token: "snap-token", RedirectURL: "https://pay.example.com/" + o.ID}, nil
}

func newService(t *testing.T) (*Service, *fakeGateway, string) {
	t.Helper()

	v := schema.New()
	store := memory.NewStore(v)
	require.NoError(t, store.Create(context.Background(), &domain.Invitation{
		ID:          "inv-1",
		OwnerUserID: owner.UserID,
		Name:        "budi-and-sari",
		Status:      domain.StatusDraft,
		Events:      []domain.Event{{ID: 1, EventName: "Akad", Date: now, TimeStart: "08:00", LocalTime: domain.LocalTimeWIB}},
		Loadout:     domain.Loadout{Theme: "classic"},
	}))

	gw := &fakeGateway{}
	gate := access.NewGate(auth.NewShareSigner("secret", time.Hour))
	svc := New(store, gate, v, payment.DefaultCatalog(), gw, nil, Config{
		GuestBase: 20,
		Now:       func() time.Time { return now },
	})
	return svc, gw, "inv-1"
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	svc, gw, id := newService(t)

	_, err := svc.Checkout(ctx, owner, id, payment.Request{GuestBlocks: 1})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Equal(t, payment.ErrPublishRequired.Error(), apperr.Message(err))
	assert.Empty(t, gw.orders)

	co, err := svc.Checkout(ctx, owner, id, payment.Request{Publish: true, GuestBlocks: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(99000+2*30000), co.Order.Total)
	assert.Equal(t, "snap-token", co.Transaction.Token)
	assert.Equal(t, "budi@example.com", gw.customers[0].Email)

	gw.err = errors.New("gateway down")
	_, err = svc.Checkout(ctx, owner, id, payment.Request{Publish: true})
	assert.True(t, apperr.Is(err, apperr.Internal))

	_, err = svc.Checkout(ctx, access.Actor{UserID: "intruder"}, id, payment.Request{Publish: true})
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}

func TestRecord_IsIdempotentByOrderID(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newService(t)

	p := domain.Payment{OrderID: "wg-inv-1-abc", Amount: 129000, Guests: 100, ActiveDays: 90, Method: "qris"}

	sum, err := svc.Record(ctx, owner, id, p)
	require.NoError(t, err)
	require.Len(t, sum.Payments, 1)
	assert.Equal(t, now, sum.Payments[0].PaidAt)
	assert.Equal(t, 120, sum.GuestLimit)
	assert.True(t, sum.CanPublish)
	require.NotNil(t, sum.ActiveUntil)
	assert.Equal(t, now.AddDate(0, 0, 90), *sum.ActiveUntil)

	sum, err = svc.Record(ctx, owner, id, p)
	require.NoError(t, err)
	assert.Len(t, sum.Payments, 1)

	_, err = svc.Record(ctx, owner, id, domain.Payment{OrderID: "x", Amount: 0})
	assert.True(t, apperr.Is(err, apperr.Validation))

	// once paid, checkouts no longer need the publish package
	_, err = svc.Checkout(ctx, owner, id, payment.Request{ExtendMonths: 1})
	assert.NoError(t, err)
}

func TestSummary(t *testing.T) {
	svc, _, id := newService(t)

	sum, err := svc.Summary(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Empty(t, sum.Payments)
	assert.Equal(t, 20, sum.GuestLimit)
	assert.Nil(t, sum.ActiveUntil)
	assert.False(t, sum.CanPublish)

	_, err = svc.Summary(context.Background(), access.Actor{}, id)
	assert.True(t, apperr.Is(err, apperr.Auth))
}
