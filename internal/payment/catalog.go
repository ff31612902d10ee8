// Package payment prices checkouts and holds the bundling rules. Paid
// records themselves are domain.Payment values appended to the invitation.
package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CodePublish = "publish"
	CodeExtend  = "extend"
	CodeGuests  = "guests"

	// GuestBlock is how many guests one guest package adds.
	GuestBlock = 100
	// MaxGuestBlocks caps a single checkout.
	MaxGuestBlocks  = 10
	MaxExtendMonths = 12
)

var (
	ErrPublishRequired = errors.New("the first purchase must include the publish package")
	ErrEmptyOrder      = errors.New("nothing to pay for")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Package is one purchasable line.
type Package struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Guests     int    `json:"guests"`
	ActiveDays int    `json:"activeDays"`
}

// Catalog prices are in rupiah.
type Catalog struct {
	Publish Package
	Extend  Package
	Guests  Package
}

func DefaultCatalog() Catalog {
	return Catalog{
		Publish: Package{Code: CodePublish, Name: "Publish invitation", Price: 99000, ActiveDays: 90},
		Extend:  Package{Code: CodeExtend, Name: "Extend 30 days", Price: 25000, ActiveDays: 30},
		Guests:  Package{Code: CodeGuests, Name: "100 more guests", Price: 30000, Guests: GuestBlock},
	}
}

// Request is what the owner picks at checkout.
type Request struct {
	Publish      bool `json:"publish"`
	ExtendMonths int  `json:"extendMonths" validate:"gte=0,lte=12"`
	GuestBlocks  int  `json:"guestBlocks" validate:"gte=0,lte=10"`
}

type Item struct {
	Package
	Quantity int   `json:"quantity"`
	Subtotal int64 `json:"subtotal"`
}

// Order is a priced checkout, ready to be sent to the gateway.
type Order struct {
	ID           string    `json:"orderId"`
	InvitationID string    `json:"invitationId"`
	Items        []Item    `json:"items"`
	Total        int64     `json:"total"`
	Guests       int       `json:"guests"`
	ActiveDays   int       `json:"activeDays"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Quote prices req. firstPurchase is true when the invitation has no
// payments yet.
func (c Catalog) Quote(invitationID string, req Request, firstPurchase bool) (Order, error) {
	const op = "payment.Catalog.Quote"

	if req.ExtendMonths < 0 || req.ExtendMonths > MaxExtendMonths ||
		req.GuestBlocks < 0 || req.GuestBlocks > MaxGuestBlocks {
		return Order{}, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}
	if firstPurchase && !req.Publish {
		return Order{}, fmt.Errorf("%s: %w", op, ErrPublishRequired)
	}

	o := Order{
		ID:           OrderID(invitationID),
		InvitationID: invitationID,
		CreatedAt:    time.Now(),
	}

	add := func(p Package, qty int) {
		if qty <= 0 {
			return
		}
		sub := p.Price * int64(qty)
		o.Items = append(o.Items, Item{Package: p, Quantity: qty, Subtotal: sub})
		o.Total += sub
		o.Guests += p.Guests * qty
		o.ActiveDays += p.ActiveDays * qty
	}

	if req.Publish {
		add(c.Publish, 1)
	}
	add(c.Extend, req.ExtendMonths)
	add(c.Guests, req.GuestBlocks)

	if o.Total <= 0 {
		return Order{}, fmt.Errorf("%s: %w", op, ErrEmptyOrder)
	}

	return o, nil
}

// OrderID is unique per checkout and readable in the gateway dashboard.
func OrderID(invitationID string) string {
	short := invitationID
	if len(short) > 8 {
		short = short[:8]
	}
	rnd := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("wg-%s-%s", short, rnd)
}
