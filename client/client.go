// Package client talks to the storefront API over HTTP. A *Client is both
// a cart.Repository and a cart.Authenticator, so a cart.Model can run
// against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freshcatch/seafood-api/cart"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID string `json:"id"`
	} `json:"user"`
}

// Login signs in with email and password and keeps the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "login", "", http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", err
	}
	c.SetToken(resp.Token)
	return resp.User.ID, nil
}

// CurrentUserID asks the server who the token belongs to.
func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	if c.Token() == "" {
		return "", cart.NotAuthenticated("current user")
	}
	var profile struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "current user", "", http.MethodGet, "/user/profile", nil, &profile); err != nil {
		return "", err
	}
	return profile.ID, nil
}

type cartResponse struct {
	UserID string      `json:"user_id"`
	Lines  []cart.Line `json:"lines"`
}

// ListLines fetches the cart of the signed-in user. The server scopes the
// cart by token, so userID only guards against a token for someone else.
func (c *Client) ListLines(ctx context.Context, userID string) ([]cart.Line, error) {
	var resp cartResponse
	if err := c.do(ctx, "list lines", "", http.MethodGet, "/user/cart", nil, &resp); err != nil {
		return nil, err
	}
	if resp.UserID != "" && resp.UserID != userID {
		return nil, cart.RequestFailed("list lines", fmt.Errorf("cart of %s returned for %s", resp.UserID, userID))
	}
	return resp.Lines, nil
}

func (c *Client) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.do(ctx, "update quantity", lineID, http.MethodPatch, "/user/cart/"+url.PathEscape(lineID), body, nil)
}

func (c *Client) DeleteLine(ctx context.Context, lineID string) error {
	return c.do(ctx, "delete line", lineID, http.MethodDelete, "/user/cart/"+url.PathEscape(lineID), nil, nil)
}

// AddProduct adds quantity units of a product to the cart.
func (c *Client) AddProduct(ctx context.Context, productID string, quantity int) (cart.Line, error) {
	var line cart.Line
	body := map[string]any{"product_id": productID, "quantity": quantity}
	err := c.do(ctx, "add product", "", http.MethodPost, "/user/cart", body, &line)
	return line, err
}

// Quote is the server-side price of a selection.
type Quote struct {
	LineIDs     []string        `json:"line_ids"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
}

func (c *Client) Quote(ctx context.Context, lineIDs []string) (Quote, error) {
	var q Quote
	err := c.do(ctx, "quote", "", http.MethodPost, "/user/cart/quote", map[string]any{"line_ids": lineIDs}, &q)
	return q, err
}

// do sends one request and maps the outcome onto the cart error kinds:
// 401 is NotAuthenticated, 404 is NotFound, anything else is RequestFailed.
func (c *Client) do(ctx context.Context, op, lineID, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return cart.RequestFailed(op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return cart.RequestFailed(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return cart.RequestFailed(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return cart.RequestFailed(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return &cart.Error{Kind: cart.KindNotAuthenticated, Op: op, Err: apiErr}
		case http.StatusNotFound:
			return &cart.Error{Kind: cart.KindNotFound, Op: op, LineID: lineID, Err: apiErr}
		default:
			return cart.RequestFailed(op, apiErr)
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return cart.RequestFailed(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
