// Package client is a small HTTP client for the storefront API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/storefront/internal/cart"
	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/models/dto"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront: status=%d message=%s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken sets the bearer token sent with every request. An empty token sends none.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := c.do(ctx, http.MethodGet, "/api/products", nil, &out)
	return out, err
}

func (c *Client) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	var out models.Product
	err := c.do(ctx, http.MethodGet, "/api/products/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error) {
	var out models.Product
	err := c.do(ctx, http.MethodPost, "/api/products", in, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (models.Product, error) {
	var out models.Product
	err := c.do(ctx, http.MethodPut, "/api/products/"+strconv.FormatInt(id, 10), in, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (dto.SessionResponse, error) {
	var out dto.SessionResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", dto.CredentialsRequest{Email: email, Password: password}, &out)
	return out, err
}

// SignIn authenticates and keeps the returned token for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (dto.SignInResponse, error) {
	var out dto.SignInResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signin", dto.CredentialsRequest{Email: email, Password: password}, &out); err != nil {
		return dto.SignInResponse{}, err
	}
	c.token = out.Token
	return out, nil
}

// SignOut revokes the current token and forgets it.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) Me(ctx context.Context) (dto.SessionResponse, error) {
	var out dto.SessionResponse
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out)
	return out, err
}

// Checkout submits the cart. The cart is cleared only when the server accepts it.
func (c *Client) Checkout(ctx context.Context, crt *cart.Cart) (dto.CheckoutResponse, error) {
	lines := crt.CheckoutLines()
	req := dto.CheckoutRequest{Cart: make([]dto.CheckoutLine, 0, len(lines))}
	for _, l := range lines {
		req.Cart = append(req.Cart, dto.CheckoutLine{
			Product:  dto.CheckoutProduct{ID: l.ProductID, Name: l.Name, Price: l.ClientPrice},
			Quantity: l.Quantity,
		})
	}

	var out dto.CheckoutResponse
	if err := c.do(ctx, http.MethodPost, "/api/checkout", req, &out); err != nil {
		return dto.CheckoutResponse{}, err
	}
	crt.Clear()
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("storefront: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("storefront: new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storefront: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("storefront: decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("storefront: decode data: %w", err)
		}
	}
	return nil
}
