package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"

	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/media"
	"github.com/kirinyoku/wedgo/internal/service/guest"
)

type ClientConfig struct {
	BaseURL string
	// Bearer is the owner session token.
	Bearer  string
	Timeout time.Duration
	Retries int
}

// Client talks to the wedgo REST API on behalf of an owner.
type Client struct {
	http    *httpclient.Client
	baseURL string
	bearer  string
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	backoff := heimdall.NewExponentialBackoff(100*time.Millisecond, 2*time.Second, 2, 50*time.Millisecond)

	return &Client{
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(cfg.Timeout),
			httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
			httpclient.WithRetryCount(cfg.Retries),
		),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		bearer:  cfg.Bearer,
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type valueBody[T any] struct {
	Value T `json:"value"`
}

func (c *Client) Invitation(ctx context.Context, id string) (*domain.Invitation, error) {
	var inv domain.Invitation
	if err := c.doJSON(ctx, "editor.Client.Invitation", http.MethodGet, invitationPath(id), nil, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) Guests(ctx context.Context, id string) ([]domain.Guest, error) {
	var out valueBody[[]domain.Guest]
	if err := c.doJSON(ctx, "editor.Client.Guests", http.MethodGet, invitationPath(id)+"/guests", nil, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

func (c *Client) SaveGuests(ctx context.Context, id string, guests []domain.Guest) (*guest.SaveResult, error) {
	var out guest.SaveResult
	body := valueBody[[]domain.Guest]{Value: guests}
	if err := c.doJSON(ctx, "editor.Client.SaveGuests", http.MethodPut, invitationPath(id)+"/guests", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload sends one file as multipart form data.
func (c *Client) Upload(ctx context.Context, id, filename, contentType string, body io.Reader) (media.Object, error) {
	const op = "editor.Client.Upload"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return media.Object{}, apperr.Wrap(op, apperr.Internal, err, "")
	}
	if _, err := io.Copy(part, body); err != nil {
		return media.Object{}, apperr.Wrap(op, apperr.Internal, err, "could not read the file")
	}
	if err := mw.Close(); err != nil {
		return media.Object{}, apperr.Wrap(op, apperr.Internal, err, "")
	}

	var obj media.Object
	if err := c.do(ctx, op, http.MethodPost, invitationPath(id)+"/media", &buf, mw.FormDataContentType(), &obj); err != nil {
		return media.Object{}, err
	}
	return obj, nil
}

// PatchWriter writes one invitation slice through PATCH /{slice}.
func PatchWriter[T any](c *Client, id, slice string) Writer[T] {
	op := "editor.Client.Patch." + slice
	return func(ctx context.Context, v T) (T, error) {
		var out valueBody[T]
		if err := c.doJSON(ctx, op, http.MethodPatch, invitationPath(id)+"/"+slice, valueBody[T]{Value: v}, &out); err != nil {
			var zero T
			return zero, err
		}
		return out.Value, nil
	}
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return apperr.Wrap(op, apperr.Internal, err, "")
		}
		body = bytes.NewReader(b)
	}
	return c.do(ctx, op, method, path, body, "application/json", out)
}

// do sends the request and decodes a 2xx body into out. Error bodies become
// apperr kinds; a cancelled context becomes Abort.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperr.Wrap(op, apperr.Internal, err, "")
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return apperr.Wrap(op, apperr.Abort, ctxErr, "")
		}
		return apperr.Wrap(op, apperr.Internal, err, "could not reach the server")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return apperr.Wrap(op, apperr.Abort, ctxErr, "")
		}
		return apperr.Wrap(op, apperr.Internal, err, "")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		if json.Unmarshal(raw, &eb) != nil || eb.Kind == "" {
			return apperr.E(op, statusKind(resp.StatusCode), resp.Status)
		}
		return apperr.E(op, apperr.ParseKind(eb.Kind), eb.Error)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(op, apperr.Internal, err, "")
	}
	return nil
}

func statusKind(status int) apperr.Kind {
	switch status {
	case http.StatusUnauthorized:
		return apperr.Auth
	case http.StatusForbidden:
		return apperr.Forbidden
	case http.StatusNotFound:
		return apperr.NotFound
	case http.StatusConflict:
		return apperr.Duplicate
	case http.StatusBadRequest:
		return apperr.Validation
	default:
		return apperr.Internal
	}
}

func invitationPath(id string) string {
	return "/api/invitations/" + url.PathEscape(id)
}
