// Package midtrans creates Snap transactions. Only the token-creation call
// is implemented; the hosted checkout widget does the rest.
package midtrans

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"

	"github.com/kirinyoku/wedgo/internal/payment"
)

var ErrGateway = errors.New("payment gateway error")

type Config struct {
	ServerKey string
	BaseURL   string
	Timeout   time.Duration
	Retries   int
}

// Transaction is what the client needs to open the checkout widget.
type Transaction struct {
	OrderID     string `json:"orderId"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl"`
}

type Customer struct {
	UserID string
	Email  string
}

type Client struct {
	http    *httpclient.Client
	baseURL string
	auth    string
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	backoff := heimdall.NewConstantBackoff(200*time.Millisecond, 50*time.Millisecond)

	return &Client{
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(cfg.Timeout),
			httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
			httpclient.WithRetryCount(cfg.Retries),
		),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		auth:    "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.ServerKey+":")),
	}
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type itemDetail struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type customerDetails struct {
	Email string `json:"email,omitempty"`
}

type snapRequest struct {
	TransactionDetails transactionDetails `json:"transaction_details"`
	ItemDetails        []itemDetail       `json:"item_details"`
	CustomerDetails    *customerDetails   `json:"customer_details,omitempty"`
	CustomField1       string             `json:"custom_field1,omitempty"`
}

type snapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

// CreateTransaction asks Snap for a transaction token for order.
func (c *Client) CreateTransaction(ctx context.Context, order payment.Order, customer Customer) (Transaction, error) {
	const op = "midtrans.Client.CreateTransaction"

	body := snapRequest{
		TransactionDetails: transactionDetails{OrderID: order.ID, GrossAmount: order.Total},
		CustomField1:       order.InvitationID,
	}
	for _, it := range order.Items {
		body.ItemDetails = append(body.ItemDetails, itemDetail{
			ID:       it.Code,
			Price:    it.Price,
			Quantity: it.Quantity,
			Name:     it.Name,
		})
	}
	if customer.Email != "" {
		body.CustomerDetails = &customerDetails{Email: customer.Email}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return Transaction{}, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/snap/v1/transactions", bytes.NewReader(b))
	if err != nil {
		return Transaction{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.auth)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Transaction{}, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return Transaction{}, fmt.Errorf("%s: %w: %v", op, ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transaction{}, fmt.Errorf("%s: %w", op, err)
	}

	var out snapResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= http.StatusBadRequest || out.Token == "" {
		msg := resp.Status
		if len(out.ErrorMessages) > 0 {
			msg = strings.Join(out.ErrorMessages, "; ")
		}
		return Transaction{}, fmt.Errorf("%s: %w: %s", op, ErrGateway, msg)
	}

	return Transaction{OrderID: order.ID, Token: out.Token, RedirectURL: out.RedirectURL}, nil
}
