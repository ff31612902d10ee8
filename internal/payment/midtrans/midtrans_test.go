package midtrans

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/wedgo/internal/payment"
)

func TestCreateTransaction(t *testing.T) {
	var got snapRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/snap/v1/transactions", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "server-key", user)
		assert.Empty(t, pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"snap-token","redirect_url":"https://pay.example/snap-token"}`))
	}))
	defer srv.Close()

	c := New(Config{ServerKey: "server-key", BaseURL: srv.URL})
	order, err := payment.DefaultCatalog().Quote("inv-1", payment.Request{Publish: true, GuestBlocks: 1}, true)
	require.NoError(t, err)

	tx, err := c.CreateTransaction(context.Background(), order, Customer{Email: "owner@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "snap-token", tx.Token)
	assert.Equal(t, order.ID, tx.OrderID)

	assert.Equal(t, order.Total, got.TransactionDetails.GrossAmount)
	assert.Len(t, got.ItemDetails, 2)
	assert.Equal(t, "inv-1", got.CustomField1)
	assert.Equal(t, "owner@example.com", got.CustomerDetails.Email)
}

func TestCreateTransaction_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_messages":["transaction_details.gross_amount is not equal to the sum of item_details"]}`))
	}))
	defer srv.Close()

	c := New(Config{ServerKey: "k", BaseURL: srv.URL})
	_, err := c.CreateTransaction(context.Background(), payment.Order{ID: "o", Total: 1}, Customer{})
	assert.ErrorIs(t, err, ErrGateway)
	assert.ErrorContains(t, err, "gross_amount")
}
