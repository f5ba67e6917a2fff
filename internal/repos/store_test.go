package repos_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/backend"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mug(seller string, price, stock int64) domain.Product {
	return domain.Product{
		Title:       "Bunny Mug",
		Description: "ceramic",
		Price:       price,
		Stock:       stock,
		Category:    "Ceramics",
		ImageURL:    "/static/img/mug.jpg",
		SellerID:    seller,
	}
}

func TestProductCRUD(t *testing.T) {
	ctx := context.Background()
	s := repos.NewStore(memdb(t))

	id, err := s.AddProduct(ctx, mug("u-mina", 1800, 3))
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := s.GetProduct(ctx, id)
	require.NoError(t, err)
	p, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, "Bunny Mug", p.Title)
	assert.Equal(t, int64(1800), p.Price)
	assert.False(t, p.CreatedAt.IsZero())

	upd := p
	upd.Title = "Bunny Mug XL"
	upd.Price = 2100
	require.NoError(t, s.UpdateProduct(ctx, id, upd))

	all, err := s.GetAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Bunny Mug XL", all[0].Title)
	assert.Equal(t, int64(2100), all[0].Price)

	require.NoError(t, s.DeleteProduct(ctx, id))
	got, err = s.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.IsNone())

	all, err = s.GetAllProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProductMissingAndInvalid(t *testing.T) {
	ctx := context.Background()
	s := repos.NewStore(memdb(t))

	assert.True(t, errors.Is(s.UpdateProduct(ctx, 404, mug("u", 1, 1)), backend.ErrProductNotFound))
	assert.True(t, errors.Is(s.DeleteProduct(ctx, 404), backend.ErrProductNotFound))

	_, err := s.AddProduct(ctx, mug("u", -1, 1))
	assert.True(t, errors.Is(err, backend.ErrInvalidProduct))
}

func TestProductFilters(t *testing.T) {
	ctx := context.Background()
	s := repos.NewStore(memdb(t))

	_, err := s.AddProduct(ctx, mug("u-mina", 100, 1))
	require.NoError(t, err)
	ring := mug("u-otto", 200, 1)
	ring.Title, ring.Category = "Ring", "Jewelry"
	_, err = s.AddProduct(ctx, ring)
	require.NoError(t, err)

	byCat, err := s.GetProductsByCategory(ctx, "Jewelry")
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "Ring", byCat[0].Title)

	bySeller, err := s.GetProductsBySeller(ctx, "u-mina")
	require.NoError(t, err)
	require.Len(t, bySeller, 1)
	assert.Equal(t, "Bunny Mug", bySeller[0].Title)

	none, err := s.GetProductsBySeller(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateOrderTakesStock(t *testing.T) {
	ctx := context.Background()
	s := repos.NewStore(memdb(t))

	pid, err := s.AddProduct(ctx, mug("u-mina", 500, 3))
	require.NoError(t, err)

	oid, err := s.CreateOrder(ctx, domain.Order{
		BuyerName:  "Jane",
		BuyerEmail: "Jane@Example.com",
		Items:      []domain.OrderItem{{ProductID: pid, Quantity: 2, Price: 500}},
		TotalPrice: 1, // recomputed from items
		Status:     domain.StatusFulfilled,
	})
	require.NoError(t, err)

	got, err := s.GetOrder(ctx, oid)
	require.NoError(t, err)
	o, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, int64(1000), o.TotalPrice)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, []domain.OrderItem{{ProductID: pid, Quantity: 2, Price: 500}}, o.Items)

	p, _ := s.GetProduct(ctx, pid)
	assert.Equal(t, int64(1), p.OrElse(domain.Product{}).Stock)

	byBuyer, err := s.GetOrdersByBuyer(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Len(t, byBuyer, 1)

	bySeller, err := s.GetOrdersBySeller(ctx, "u-mina")
	require.NoError(t, err)
	assert.Len(t, bySeller, 1)

	other, err := s.GetOrdersBySeller(ctx, "u-otto")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	s := repos.NewStore(memdb(t))

	a, err := s.AddProduct(ctx, mug("u-mina", 100, 5))
	require.NoError(t, err)
	b, err := s.AddProduct(ctx, mug("u-mina", 100, 1))
	require.NoError(t, err)

	_, err = s.CreateOrder(ctx, domain.Order{
		BuyerName:  "Jane",
		BuyerEmail: "jane@example.com",
		Items: []domain.OrderItem{
			{ProductID: a, Quantity: 2, Price: 100},
			{ProductID: b, Quantity: 2, Price: 100},
		},
	})
	assert.True(t, errors.Is(err, backend.ErrInsufficientStock), "%v", err)

	pa, _ := s.GetProduct(ctx, a)
	assert.Equal(t, int64(5), pa.OrElse(domain.Product{}).Stock)
	orders, err := s.GetAllOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = s.CreateOrder(ctx, domain.Order{
		BuyerName: "Jane",
		Items:     []domain.OrderItem{{ProductID: 999, Quantity: 1, Price: 1}},
	})
	assert.True(t, errors.Is(err, backend.ErrProductNotFound), "%v", err)
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	s := repos.NewStore(memdb(t))

	pid, err := s.AddProduct(ctx, mug("u-mina", 100, 5))
	require.NoError(t, err)
	oid, err := s.CreateOrder(ctx, domain.Order{
		BuyerName: "Jane", BuyerEmail: "jane@example.com",
		Items: []domain.OrderItem{{ProductID: pid, Quantity: 1, Price: 100}},
	})
	require.NoError(t, err)

	require.NoError(t, s.UpdateOrderStatus(ctx, oid, domain.StatusFulfilled))
	got, _ := s.GetOrder(ctx, oid)
	assert.Equal(t, domain.StatusFulfilled, got.OrElse(domain.Order{}).Status)

	assert.True(t, errors.Is(s.UpdateOrderStatus(ctx, oid, "shipped"), backend.ErrInvalidStatus))
	assert.True(t, errors.Is(s.UpdateOrderStatus(ctx, 404, domain.StatusCancelled), backend.ErrOrderNotFound))

	missing, err := s.GetOrder(ctx, 404)
	require.NoError(t, err)
	assert.True(t, missing.IsNone())
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := memdb(t)
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	t.Cleanup(func() { applog.SetOutput(io.Discard) })

	require.NoError(t, repos.SeedDemo(db))
	require.NoError(t, repos.SeedDemo(db))
	assert.Equal(t, 1, strings.Count(buf.String(), `"action":"seed.demo"`))

	all, err := repos.NewStore(db).GetAllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for _, p := range all {
		assert.Empty(t, p.ImageURL, p.Title)
	}
}

func TestSessions(t *testing.T) {
	users := repos.NewUserRepo(memdb(t))

	u, err := users.ByEmail("MINA@storefront.test")
	require.NoError(t, err)
	assert.True(t, u.IsSeller())

	require.NoError(t, users.BindSession("sid-1", u.ID))
	su, err := users.SessionUser("sid-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, su.ID)

	require.NoError(t, users.UnbindSession("sid-1"))
	_, err = users.SessionUser("sid-1")
	assert.Error(t, err)
}

func TestDriverFor(t *testing.T) {
	assert.Equal(t, "postgres", repos.DriverFor("postgres://u:p@localhost/db"))
	assert.Equal(t, "postgres", repos.DriverFor("postgresql://localhost/db"))
	assert.Equal(t, "sqlite", repos.DriverFor("storefront.db"))
	assert.Equal(t, "sqlite", repos.DriverFor(":memory:"))
}
