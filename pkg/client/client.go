// Package client is the HTTP client for the storefront gateway.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/naveenspark/shopterm/pkg/domain"
)

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

// LoginResponse is the gateway's login payload. Field names follow the
// gateway wire format; the session layer maps them into domain.Session.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   int64       `json:"expires_at"` // epoch seconds
	User        domain.User `json:"user"`
}

// CreateProductRequest is the payload for listing a new product.
type CreateProductRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// OrderResponse is the gateway's order-creation payload. IdempotentReplay
// is true when the gateway recognised the Idempotency-Key as already
// processed and returned the original order instead of creating a new one.
type OrderResponse struct {
	Order            domain.Order `json:"order"`
	IdempotentReplay bool         `json:"idempotentReplay"`
}

// Client is the storefront gateway API client.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a new gateway client. token may be empty for an
// unauthenticated client; it is attached later via SetToken on login.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken replaces the bearer credential attached to subsequent requests.
// An empty token reverts the client to unauthenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Register creates a new account. No session is established.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	var created domain.User
	if err := c.post(ctx, "/users", req, &created); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &created, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var res LoginResponse
	if err := c.post(ctx, "/users/login", body, &res); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &res, nil
}

// ListProducts fetches the public catalog. No auth required.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.get(ctx, "/products", &products); err != nil {
		return nil, fmt.Errorf("client.ListProducts: %w", err)
	}
	return products, nil
}

// CreateProduct lists a new product. Requires a SELLER or ADMIN session.
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	var created domain.Product
	if err := c.post(ctx, "/products", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateProduct: %w", err)
	}
	return &created, nil
}

// ListUsers fetches the user directory. Requires an ADMIN session.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "/users", &users); err != nil {
		return nil, fmt.Errorf("client.ListUsers: %w", err)
	}
	return users, nil
}

// ListOrders fetches the caller's orders (all orders for ADMIN).
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.get(ctx, "/orders", &orders); err != nil {
		return nil, fmt.Errorf("client.ListOrders: %w", err)
	}
	return orders, nil
}

// CreateOrder submits an idempotency-keyed order creation. The key marks
// one logical attempt: resubmitting with the same key can create at most
// one order, and the gateway flags the duplicate as a replay.
func (c *Client) CreateOrder(ctx context.Context, productID string, quantity int, idempotencyKey string) (*OrderResponse, error) {
	body := map[string]any{"productId": productID, "quantity": quantity}
	headers := map[string]string{"Idempotency-Key": idempotencyKey}

	var res OrderResponse
	if err := c.doRequest(ctx, http.MethodPost, "/orders", body, headers, &res); err != nil {
		return nil, fmt.Errorf("client.CreateOrder: %w", err)
	}
	return &res, nil
}

// CancelOrder requests a CREATED → CANCELLED transition for an order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var updated domain.Order
	if err := c.doRequest(ctx, http.MethodPatch, "/orders/"+url.PathEscape(orderID)+"/cancel", nil, nil, &updated); err != nil {
		return nil, fmt.Errorf("client.CancelOrder: %w", err)
	}
	return &updated, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return decodeErrorBody(resp.StatusCode, respBody, http.StatusText(resp.StatusCode))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
