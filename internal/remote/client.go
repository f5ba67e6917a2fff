// Package remote binds the storefront to another storefront's JSON data
// API (/api/v1) so it can be used as a backend.Backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/sony/gobreaker/v2"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

// Error codes carried in the "error" field of API error bodies.
const (
	CodeNotFound          = "not_found"
	CodeInsufficientStock = "insufficient_stock"
	CodeInvalidStatus     = "invalid_status"
	CodeInvalidProduct    = "invalid_product"
	CodeInvalidOrder      = "invalid_order"
	CodeBadRequest        = "bad_request"
)

// ErrorBody is the JSON shape of every API error.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Created is returned by endpoints that assign an id.
type Created struct {
	ID uint64 `json:"id"`
}

// StatusChange is the body of PUT /orders/:id/status.
type StatusChange struct {
	Status domain.OrderStatus `json:"status"`
}

type reply struct {
	status int
	body   []byte
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*reply]
}

var _ backend.Backend = (*Client)(nil)

// New talks to the data API at baseURL, authenticating with token.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		cb:      newBreaker("storefront-remote"),
	}
}

// Ping checks the remote health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	r, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if r.status != http.StatusOK {
		return errors.Errorf("healthz: status %d", r.status)
	}
	return nil
}

// do sends one request through the breaker. Transport errors and 5xx
// responses count as failures; 4xx are answers.
func (c *Client) do(ctx context.Context, method, path string, in any) (*reply, error) {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return nil, errors.Annotatef(err, "encode %s %s", method, path)
		}
	}

	r, err := c.cb.Execute(func() (*reply, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, errors.Trace(err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, errors.Trace(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Annotate(err, "read body")
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, errors.Errorf("status %d", resp.StatusCode)
		}
		return &reply{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return nil, errors.Annotatef(err, "%s %s", method, path)
	}
	return r, nil
}

// call performs the request and decodes a 2xx body into out. Errors are
// mapped onto the backend sentinels; notFound is used for 404.
func (c *Client) call(ctx context.Context, method, path string, in, out any, notFound error) error {
	r, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if r.status >= 200 && r.status < 300 {
		if out == nil || len(r.body) == 0 {
			return nil
		}
		return errors.Annotatef(json.Unmarshal(r.body, out), "decode %s %s", method, path)
	}
	return apiError(r, notFound)
}

func apiError(r *reply, notFound error) error {
	var body ErrorBody
	_ = json.Unmarshal(r.body, &body)

	switch {
	case r.status == http.StatusUnauthorized:
		return errors.Unauthorizedf("%s", body.Message)
	case r.status == http.StatusNotFound && notFound != nil:
		return errors.Annotate(notFound, body.Message)
	case body.Error == CodeInsufficientStock || r.status == http.StatusConflict:
		return errors.Annotate(backend.ErrInsufficientStock, body.Message)
	case body.Error == CodeInvalidStatus:
		return errors.Annotate(backend.ErrInvalidStatus, body.Message)
	case body.Error == CodeInvalidProduct:
		return errors.Annotate(backend.ErrInvalidProduct, body.Message)
	case body.Error == CodeInvalidOrder:
		return errors.Annotate(backend.ErrInvalidOrder, body.Message)
	case r.status == http.StatusBadRequest:
		return errors.BadRequestf("%s", body.Message)
	}
	return errors.Errorf("unexpected status %d: %s", r.status, body.Message)
}

// getOne fetches a single record; 404 becomes None.
func getOne[T any](ctx context.Context, c *Client, path string) (domain.Option[T], error) {
	r, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.None[T](), err
	}
	if r.status == http.StatusNotFound {
		return domain.None[T](), nil
	}
	if r.status != http.StatusOK {
		return domain.None[T](), apiError(r, nil)
	}
	var v T
	if err := json.Unmarshal(r.body, &v); err != nil {
		return domain.None[T](), errors.Annotatef(err, "decode %s", path)
	}
	return domain.Some(v), nil
}

func list[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	out := []T{}
	if err := c.call(ctx, http.MethodGet, path, nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func productPath(id uint64) string { return fmt.Sprintf("/api/v1/products/%d", id) }
func orderPath(id uint64) string   { return fmt.Sprintf("/api/v1/orders/%d", id) }

func (c *Client) AddProduct(ctx context.Context, p domain.Product) (uint64, error) {
	var created Created
	err := c.call(ctx, http.MethodPost, "/api/v1/products", p, &created, nil)
	return created.ID, err
}

func (c *Client) UpdateProduct(ctx context.Context, id uint64, p domain.Product) error {
	return c.call(ctx, http.MethodPut, productPath(id), p, nil, backend.ErrProductNotFound)
}

func (c *Client) DeleteProduct(ctx context.Context, id uint64) error {
	return c.call(ctx, http.MethodDelete, productPath(id), nil, nil, backend.ErrProductNotFound)
}

func (c *Client) GetProduct(ctx context.Context, id uint64) (domain.Option[domain.Product], error) {
	return getOne[domain.Product](ctx, c, productPath(id))
}

func (c *Client) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	return list[domain.Product](ctx, c, "/api/v1/products", nil)
}

func (c *Client) GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if category == "" {
		return []domain.Product{}, nil
	}
	return list[domain.Product](ctx, c, "/api/v1/products", url.Values{"category": {category}})
}

func (c *Client) GetProductsBySeller(ctx context.Context, sellerID string) ([]domain.Product, error) {
	if sellerID == "" {
		return []domain.Product{}, nil
	}
	return list[domain.Product](ctx, c, "/api/v1/products", url.Values{"seller": {sellerID}})
}

func (c *Client) CreateOrder(ctx context.Context, o domain.Order) (uint64, error) {
	var created Created
	err := c.call(ctx, http.MethodPost, "/api/v1/orders", o, &created, backend.ErrProductNotFound)
	return created.ID, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id uint64, status domain.OrderStatus) error {
	return c.call(ctx, http.MethodPut, orderPath(id)+"/status", StatusChange{Status: status}, nil, backend.ErrOrderNotFound)
}

func (c *Client) GetOrder(ctx context.Context, id uint64) (domain.Option[domain.Order], error) {
	return getOne[domain.Order](ctx, c, orderPath(id))
}

func (c *Client) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	return list[domain.Order](ctx, c, "/api/v1/orders", nil)
}

func (c *Client) GetOrdersByBuyer(ctx context.Context, email string) ([]domain.Order, error) {
	if email == "" {
		return []domain.Order{}, nil
	}
	return list[domain.Order](ctx, c, "/api/v1/orders", url.Values{"buyer": {email}})
}

func (c *Client) GetOrdersBySeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	if sellerID == "" {
		return []domain.Order{}, nil
	}
	return list[domain.Order](ctx, c, "/api/v1/orders", url.Values{"seller": {sellerID}})
}
