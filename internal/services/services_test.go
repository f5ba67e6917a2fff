package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/backend"
	"storefront/internal/domain"
	"storefront/internal/query"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/session"
)

type fixture struct {
	db       *sqlx.DB
	data     *query.Client
	sessions *session.Store
	catalog  *services.CatalogService
	carts    *services.CartService
	checkout *services.CheckoutService
	seller   *services.SellerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	data := query.NewClient(zerolog.Nop())
	data.Bind(repos.NewStore(db))
	sessions := session.NewStore()
	return &fixture{
		db:       db,
		data:     data,
		sessions: sessions,
		catalog:  services.NewCatalogService(data),
		carts:    services.NewCartService(data, sessions),
		checkout: services.NewCheckoutService(data, sessions),
		seller:   services.NewSellerService(data),
	}
}

func (f *fixture) product(t *testing.T, title, category, seller string, price, stock int64) uint64 {
	t.Helper()
	id, err := f.data.AddProduct(context.Background(), domain.Product{
		Title: title, Category: category, SellerID: seller, Price: price, Stock: stock,
	})
	require.NoError(t, err)
	return id
}

func TestCatalogFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "Bunny Mug", "Ceramics", "u-mina", 1800, 3)
	f.product(t, "Cloud Planter", "Ceramics", "u-mina", 2400, 1)
	f.product(t, "Star Earrings", "Jewelry", "u-otto", 1500, 9)
	f.product(t, "No Category", "", "u-otto", 100, 1)

	assert.Len(t, f.catalog.List(ctx, "", ""), 4)
	assert.Len(t, f.catalog.List(ctx, "", "Ceramics"), 2)
	got := f.catalog.List(ctx, "MUG", "")
	require.Len(t, got, 1)
	assert.Equal(t, "Bunny Mug", got[0].Title)
	assert.Empty(t, f.catalog.List(ctx, "mug", "Jewelry"))

	assert.Equal(t, []string{"Ceramics", "Jewelry"}, f.catalog.Categories(ctx))
}

func TestCartAddCapsAtStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.product(t, "Moon Necklace", "Jewelry", "u-otto", 500, 2)

	for range 3 {
		_, err := f.carts.Add(ctx, "s1", id)
		require.NoError(t, err)
	}
	c := f.carts.View("s1")
	assert.Len(t, c.Items(), 1)
	assert.Equal(t, int64(2), c.TotalItems())
	assert.Equal(t, int64(1000), c.TotalPrice())

	c = f.carts.Update("s1", id, 0)
	assert.True(t, c.IsEmpty())
}

func TestCartAddUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soldOut := f.product(t, "Frog Plush", "Toys", "u-mina", 2200, 0)

	_, err := f.carts.Add(ctx, "s1", soldOut)
	assert.True(t, errors.Is(err, services.ErrProductUnavailable))
	_, err = f.carts.Add(ctx, "s1", 999)
	assert.True(t, errors.Is(err, services.ErrProductUnavailable))
	assert.True(t, f.carts.View("s1").IsEmpty())
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.product(t, "Bunny Mug", "Ceramics", "u-mina", 1800, 3)
	_, err := f.carts.Add(ctx, "s1", id)
	require.NoError(t, err)
	f.carts.Update("s1", id, 2)

	oid, err := f.checkout.Place(ctx, "s1", services.Contact{Name: " Ada ", Email: "ada@example.com"})
	require.NoError(t, err)

	o, ok := f.data.Order(ctx, oid).Get()
	require.True(t, ok)
	assert.Equal(t, "Ada", o.BuyerName)
	assert.Equal(t, int64(3600), o.TotalPrice)
	assert.Equal(t, domain.StatusPending, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(2), o.Items[0].Quantity)

	assert.True(t, f.carts.View("s1").IsEmpty())
	assert.Equal(t, "ada@example.com", f.sessions.BuyerEmail("s1"))
	assert.Len(t, f.checkout.History(ctx, "s1"), 1)

	p, _ := f.catalog.Product(ctx, id).Get()
	assert.Equal(t, int64(1), p.Stock)
}

func TestCheckoutKeepsItemsAddedWhilePlacing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mug := f.product(t, "Bunny Mug", "Ceramics", "u-mina", 1800, 5)
	planter := f.product(t, "Cloud Planter", "Ceramics", "u-mina", 2400, 5)
	_, err := f.carts.Add(ctx, "s1", mug)
	require.NoError(t, err)
	f.carts.Update("s1", mug, 2)

	// the shopper adds more while the order is being built
	f.checkout.Now = func() time.Time {
		_, err := f.carts.Add(ctx, "s1", mug)
		require.NoError(t, err)
		_, err = f.carts.Add(ctx, "s1", planter)
		require.NoError(t, err)
		return time.Now()
	}

	oid, err := f.checkout.Place(ctx, "s1", services.Contact{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	o, _ := f.data.Order(ctx, oid).Get()
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(2), o.Items[0].Quantity)

	left := f.carts.View("s1")
	m, ok := left.Item(mug).Get()
	require.True(t, ok)
	assert.Equal(t, int64(1), m.Quantity)
	p, ok := left.Item(planter).Get()
	require.True(t, ok)
	assert.Equal(t, int64(1), p.Quantity)
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.product(t, "Bunny Mug", "Ceramics", "u-mina", 1800, 2)
	_, err := f.carts.Add(ctx, "s1", id)
	require.NoError(t, err)
	f.carts.Update("s1", id, 2)

	// someone else buys the stock first
	err = f.data.UpdateProduct(ctx, id, domain.Product{Title: "Bunny Mug", Category: "Ceramics", SellerID: "u-mina", Price: 1800, Stock: 1})
	require.NoError(t, err)

	_, err = f.checkout.Place(ctx, "s1", services.Contact{Name: "Ada", Email: "ada@example.com"})
	assert.True(t, errors.Is(err, backend.ErrInsufficientStock))
	assert.Equal(t, int64(2), f.carts.View("s1").TotalItems())
	assert.Empty(t, f.sessions.BuyerEmail("s1"))
}

func TestCheckoutNotReadyKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.product(t, "Bunny Mug", "Ceramics", "u-mina", 1800, 2)
	_, err := f.carts.Add(ctx, "s1", id)
	require.NoError(t, err)

	f.data.Unbind()
	_, err = f.checkout.Place(ctx, "s1", services.Contact{Name: "Ada", Email: "ada@example.com"})
	assert.True(t, errors.Is(err, query.ErrNotReady))
	assert.Len(t, f.carts.View("s1").Items(), 1)
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.checkout.Place(ctx, "s1", services.Contact{Name: "", Email: "ada@example.com"})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = f.checkout.Place(ctx, "s1", services.Contact{Name: "Ada", Email: "nope"})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = f.checkout.Place(ctx, "s1", services.Contact{Name: "Ada", Email: "ada@example.com"})
	assert.True(t, errors.Is(err, services.ErrCartEmpty))
}

func TestSellerSaveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.seller.SaveProduct(ctx, "u-mina", 0, services.ProductForm{
		Title: "Bunny Mug", Category: "Ceramics", Price: "18.999", Stock: "4.7",
	})
	require.NoError(t, err)
	p, ok := f.data.Product(ctx, id).Get()
	require.True(t, ok)
	assert.Equal(t, int64(1900), p.Price)
	assert.Equal(t, int64(4), p.Stock)
	assert.Equal(t, "u-mina", p.SellerID)

	_, err = f.seller.SaveProduct(ctx, "u-mina", id, services.ProductForm{
		Title: "Bunny Mug", Category: "Ceramics", Price: "20", Stock: "-3",
	})
	require.NoError(t, err)
	p, _ = f.data.Product(ctx, id).Get()
	assert.Equal(t, int64(2000), p.Price)
	assert.Zero(t, p.Stock)

	_, err = f.seller.SaveProduct(ctx, "u-mina", 0, services.ProductForm{Title: "", Category: "Ceramics", Price: "1", Stock: "1"})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = f.seller.SaveProduct(ctx, "u-mina", 0, services.ProductForm{Title: "Mug", Category: "", Price: "1", Stock: "1"})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = f.seller.SaveProduct(ctx, "u-mina", 0, services.ProductForm{Title: "Mug", Category: "Ceramics", Price: "abc", Stock: "1"})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestSellerCannotTouchOthersProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.product(t, "Star Earrings", "Jewelry", "u-otto", 1500, 9)

	_, err := f.seller.SaveProduct(ctx, "u-mina", id, services.ProductForm{Title: "Mine", Category: "Jewelry", Price: "1", Stock: "1"})
	assert.True(t, errors.Is(err, services.ErrNotOwner))
	assert.True(t, errors.Is(f.seller.DeleteProduct(ctx, "u-mina", id), services.ErrNotOwner))
	assert.True(t, errors.Is(f.seller.DeleteProduct(ctx, "u-mina", 999), errors.NotFound))

	require.NoError(t, f.seller.DeleteProduct(ctx, "u-otto", id))
	assert.True(t, f.data.Product(ctx, id).IsNone())
}

func TestSellerDashboardAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mug := f.product(t, "Bunny Mug", "Ceramics", "u-mina", 1000, 10)
	f.product(t, "Star Earrings", "Jewelry", "u-otto", 1500, 9)

	for _, sid := range []string{"a", "b"} {
		_, err := f.carts.Add(ctx, sid, mug)
		require.NoError(t, err)
		_, err = f.checkout.Place(ctx, sid, services.Contact{Name: "Ada", Email: "ada@example.com"})
		require.NoError(t, err)
	}

	d := f.seller.Dashboard(ctx, "u-mina")
	assert.Equal(t, 1, d.ProductCount)
	assert.Equal(t, 2, d.OrderCount)
	assert.Equal(t, 2, d.PendingCount)
	assert.Zero(t, d.Revenue)

	require.NoError(t, f.seller.SetOrderStatus(ctx, "u-mina", d.Orders[0].ID, "fulfilled"))
	d = f.seller.Dashboard(ctx, "u-mina")
	assert.Equal(t, 1, d.PendingCount)
	assert.Equal(t, int64(1000), d.Revenue)

	err := f.seller.SetOrderStatus(ctx, "u-mina", d.Orders[1].ID, "shipped")
	assert.True(t, errors.Is(err, errors.NotValid))
	err = f.seller.SetOrderStatus(ctx, "u-otto", d.Orders[1].ID, "cancelled")
	assert.True(t, errors.Is(err, errors.NotFound))

	assert.Zero(t, f.seller.Dashboard(ctx, "u-otto").OrderCount)
}

func TestAuthLogin(t *testing.T) {
	f := newFixture(t)
	auth := &services.AuthService{Users: repos.NewUserRepo(f.db)}

	_, err := auth.Login("sid-1", "mina@storefront.test", "wrong")
	assert.True(t, errors.Is(err, services.ErrBadCreds))

	u, err := auth.Login("sid-1", "MINA@storefront.test", "Passw0rd!")
	require.NoError(t, err)
	assert.True(t, u.IsSeller())

	cur, err := auth.CurrentUser("sid-1")
	require.NoError(t, err)
	assert.Equal(t, "u-mina", cur.ID)

	require.NoError(t, auth.Logout("sid-1"))
	_, err = auth.CurrentUser("sid-1")
	assert.Error(t, err)
}
