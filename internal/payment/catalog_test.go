package payment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote_FirstPurchase(t *testing.T) {
	c := DefaultCatalog()

	_, err := c.Quote("inv-1", Request{GuestBlocks: 1}, true)
	assert.ErrorIs(t, err, ErrPublishRequired)

	o, err := c.Quote("inv-1", Request{Publish: true, GuestBlocks: 2}, true)
	require.NoError(t, err)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, c.Publish.Price+2*c.Guests.Price, o.Total)
	assert.Equal(t, 200, o.Guests)
	assert.Equal(t, 90, o.ActiveDays)
	assert.True(t, strings.HasPrefix(o.ID, "wg-inv-1-"))
}

func TestQuote_TopUp(t *testing.T) {
	c := DefaultCatalog()

	o, err := c.Quote("inv-1", Request{ExtendMonths: 2}, false)
	require.NoError(t, err)
	assert.Equal(t, 2*c.Extend.Price, o.Total)
	assert.Equal(t, 60, o.ActiveDays)
	assert.Zero(t, o.Guests)

	_, err = c.Quote("inv-1", Request{}, false)
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = c.Quote("inv-1", Request{GuestBlocks: MaxGuestBlocks + 1}, false)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestOrderID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := OrderID("0b5b3c3e-5a43-4e7a-9c1b-0a9f3c1d2e4f")
		assert.False(t, seen[id])
		seen[id] = true
		assert.LessOrEqual(t, len(id), 50)
	}
}
