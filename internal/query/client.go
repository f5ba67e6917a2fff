// Package query is the storefront's data access layer. It wraps a
// backend.Backend with keyed read caching and drops dependent cache
// entries whenever a mutation succeeds.
package query

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/juju/pubsub/v2"
	"github.com/rs/zerolog"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

// ErrNotReady is returned by mutations issued before a backend is bound.
const ErrNotReady = errors.ConstError("connection not ready")

// InvalidatedTopic carries an Invalidation after every successful mutation.
const InvalidatedTopic = "query.invalidated"

// Invalidation describes the cache entries a mutation dropped.
type Invalidation struct {
	Mutation string
	Prefixes []Key
	Dropped  []Key
}

type Client struct {
	mu      sync.RWMutex
	backend backend.Backend

	cache  *cache
	hub    *pubsub.SimpleHub
	logger zerolog.Logger
}

type ClientOption func(*Client)

// WithMaxAge refetches cached reads older than d, so writes made by other
// storefronts sharing the backend show up. Zero disables expiry.
func WithMaxAge(d time.Duration) ClientOption {
	return func(c *Client) { c.cache.maxAge = d }
}

func NewClient(logger zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		cache:  newCache(),
		hub:    pubsub.NewSimpleHub(nil),
		logger: logger.With().Str("component", "query").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind installs b as the connection and starts with an empty cache.
func (c *Client) Bind(b backend.Backend) {
	c.mu.Lock()
	c.backend = b
	c.mu.Unlock()
	c.cache.reset()
	c.logger.Info().Msg("backend bound")
}

// Unbind drops the connection. Cached reads stay available so pages keep
// showing what they had.
func (c *Client) Unbind() {
	c.mu.Lock()
	c.backend = nil
	c.mu.Unlock()
	c.logger.Warn().Msg("backend unbound")
}

func (c *Client) Ready() bool {
	_, ok := c.conn()
	return ok
}

func (c *Client) conn() (backend.Backend, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend, c.backend != nil
}

// Subscribe registers fn for invalidation events. Delivery is
// asynchronous; the returned func unsubscribes.
func (c *Client) Subscribe(fn func(Invalidation)) func() {
	return c.hub.Subscribe(InvalidatedTopic, func(_ string, data interface{}) {
		if inv, ok := data.(Invalidation); ok {
			fn(inv)
		}
	})
}

// read serves key from the cache, or fetches and caches it. Without a
// connection or on failure it returns empty and caches nothing.
func read[T any](ctx context.Context, c *Client, key Key, empty T, fetch func(context.Context, backend.Backend) (T, error)) T {
	if v, ok := c.cache.get(key); ok {
		return v.(T)
	}
	b, ok := c.conn()
	if !ok {
		return empty
	}
	gen := c.cache.generation()
	v, err := fetch(ctx, b)
	if err != nil {
		c.logger.Error().Err(err).Str("key", key.String()).Msg("read failed")
		return empty
	}
	c.cache.put(key, v, gen)
	return v
}

func (c *Client) Products(ctx context.Context) []domain.Product {
	return slices.Clone(read(ctx, c, AllProductsKey(), []domain.Product{}, func(ctx context.Context, b backend.Backend) ([]domain.Product, error) {
		return b.GetAllProducts(ctx)
	}))
}

func (c *Client) Product(ctx context.Context, id uint64) domain.Option[domain.Product] {
	return read(ctx, c, ProductKey(id), domain.None[domain.Product](), func(ctx context.Context, b backend.Backend) (domain.Option[domain.Product], error) {
		return b.GetProduct(ctx, id)
	})
}

func (c *Client) ProductsByCategory(ctx context.Context, category string) []domain.Product {
	return slices.Clone(read(ctx, c, ProductsByCategoryKey(category), []domain.Product{}, func(ctx context.Context, b backend.Backend) ([]domain.Product, error) {
		return b.GetProductsByCategory(ctx, category)
	}))
}

func (c *Client) ProductsBySeller(ctx context.Context, sellerID string) []domain.Product {
	return slices.Clone(read(ctx, c, ProductsBySellerKey(sellerID), []domain.Product{}, func(ctx context.Context, b backend.Backend) ([]domain.Product, error) {
		return b.GetProductsBySeller(ctx, sellerID)
	}))
}

func (c *Client) Orders(ctx context.Context) []domain.Order {
	return slices.Clone(read(ctx, c, AllOrdersKey(), []domain.Order{}, func(ctx context.Context, b backend.Backend) ([]domain.Order, error) {
		return b.GetAllOrders(ctx)
	}))
}

func (c *Client) Order(ctx context.Context, id uint64) domain.Option[domain.Order] {
	return read(ctx, c, OrderKey(id), domain.None[domain.Order](), func(ctx context.Context, b backend.Backend) (domain.Option[domain.Order], error) {
		return b.GetOrder(ctx, id)
	})
}

func (c *Client) OrdersByBuyer(ctx context.Context, email string) []domain.Order {
	return slices.Clone(read(ctx, c, OrdersByBuyerKey(email), []domain.Order{}, func(ctx context.Context, b backend.Backend) ([]domain.Order, error) {
		return b.GetOrdersByBuyer(ctx, email)
	}))
}

func (c *Client) OrdersBySeller(ctx context.Context, sellerID string) []domain.Order {
	return slices.Clone(read(ctx, c, OrdersBySellerKey(sellerID), []domain.Order{}, func(ctx context.Context, b backend.Backend) ([]domain.Order, error) {
		return b.GetOrdersBySeller(ctx, sellerID)
	}))
}

// mutate runs fn against the connection. Only a successful call touches
// the cache.
func (c *Client) mutate(ctx context.Context, name string, fn func(context.Context, backend.Backend) error, prefixes ...Key) error {
	b, ok := c.conn()
	if !ok {
		return errors.Annotate(ErrNotReady, name)
	}
	if err := fn(ctx, b); err != nil {
		return errors.Annotate(err, name)
	}

	dropped := c.cache.invalidate(prefixes...)
	c.logger.Debug().Str("mutation", name).Int("dropped", len(dropped)).Int("cached", c.cache.len()).Msg("cache invalidated")
	_ = c.hub.Publish(InvalidatedTopic, Invalidation{Mutation: name, Prefixes: prefixes, Dropped: dropped})
	return nil
}

func (c *Client) AddProduct(ctx context.Context, p domain.Product) (uint64, error) {
	var id uint64
	err := c.mutate(ctx, "add product", func(ctx context.Context, b backend.Backend) (err error) {
		id, err = b.AddProduct(ctx, p)
		return err
	}, ProductsKey)
	return id, err
}

func (c *Client) UpdateProduct(ctx context.Context, id uint64, p domain.Product) error {
	return c.mutate(ctx, "update product", func(ctx context.Context, b backend.Backend) error {
		return b.UpdateProduct(ctx, id, p)
	}, ProductsKey)
}

func (c *Client) DeleteProduct(ctx context.Context, id uint64) error {
	return c.mutate(ctx, "delete product", func(ctx context.Context, b backend.Backend) error {
		return b.DeleteProduct(ctx, id)
	}, ProductsKey)
}

// CreateOrder drops orders and products: placing an order moves stock.
func (c *Client) CreateOrder(ctx context.Context, o domain.Order) (uint64, error) {
	var id uint64
	err := c.mutate(ctx, "create order", func(ctx context.Context, b backend.Backend) (err error) {
		id, err = b.CreateOrder(ctx, o)
		return err
	}, OrdersKey, ProductsKey)
	return id, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id uint64, status domain.OrderStatus) error {
	return c.mutate(ctx, "update order status", func(ctx context.Context, b backend.Backend) error {
		return b.UpdateOrderStatus(ctx, id, status)
	}, OrdersKey)
}
