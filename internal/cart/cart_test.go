package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func product(id uint64, price, stock int64) domain.CartItem {
	return domain.Product{ID: id, Title: "p", Price: price, Stock: stock}.Snapshot()
}

func TestAddCapsAtStock(t *testing.T) {
	p := product(1, 500, 2)
	c := Cart{}.Add(p).Add(p).Add(p)

	require.Len(t, c.Items(), 1)
	it, ok := c.Item(1).Get()
	require.True(t, ok)
	assert.Equal(t, int64(2), it.Quantity)
	assert.Equal(t, int64(1000), c.TotalPrice())
	assert.Equal(t, int64(2), c.TotalItems())
}

func TestRepeatedAddsMatchMin(t *testing.T) {
	for stock := int64(1); stock <= 5; stock++ {
		for adds := 1; adds <= 7; adds++ {
			c := Cart{}
			for i := 0; i < adds; i++ {
				c = c.Add(product(3, 100, stock))
			}
			it, _ := c.Item(3).Get()
			assert.Equal(t, min(int64(adds), stock), it.Quantity, "stock=%d adds=%d", stock, adds)
		}
	}
}

func TestAddOutOfStockIgnored(t *testing.T) {
	c := Cart{}.Add(product(1, 100, 0))
	assert.True(t, c.IsEmpty())
}

func TestCeilingIsCapturedAtFirstAdd(t *testing.T) {
	c := Cart{}.Add(product(1, 100, 1))
	// stock rose remotely; the entry keeps the ceiling it was added with
	c = c.Add(product(1, 100, 10))
	it, _ := c.Item(1).Get()
	assert.Equal(t, int64(1), it.Quantity)
	assert.Equal(t, int64(1), it.Stock)
}

func TestMutationsReturnNewSnapshots(t *testing.T) {
	before := Cart{}.Add(product(1, 100, 5))
	after := before.Add(product(1, 100, 5)).Add(product(2, 50, 5))

	it, _ := before.Item(1).Get()
	assert.Equal(t, int64(1), it.Quantity)
	assert.Len(t, before.Items(), 1)
	assert.Len(t, after.Items(), 2)

	items := after.Items()
	items[0].Quantity = 99
	it, _ = after.Item(1).Get()
	assert.Equal(t, int64(2), it.Quantity)
}

func TestUpdateQuantity(t *testing.T) {
	c := Cart{}.Add(product(1, 250, 4))

	c = c.UpdateQuantity(1, 3)
	it, _ := c.Item(1).Get()
	assert.Equal(t, int64(3), it.Quantity)

	c = c.UpdateQuantity(1, 40)
	it, _ = c.Item(1).Get()
	assert.Equal(t, int64(4), it.Quantity)
	assert.Equal(t, int64(1000), c.TotalPrice())

	for _, q := range []int64{0, -1, -100} {
		assert.True(t, c.UpdateQuantity(1, q).Item(1).IsNone(), q)
	}
}

func TestUpdateAbsentIsNoop(t *testing.T) {
	c := Cart{}.Add(product(1, 100, 3))
	got := c.UpdateQuantity(42, 2)
	assert.Len(t, got.Items(), 1)
	assert.True(t, got.Item(42).IsNone())
}

func TestRemoveAndClear(t *testing.T) {
	c := Cart{}.Add(product(1, 100, 3)).Add(product(2, 300, 3))

	c = c.Remove(1).Remove(99)
	assert.Len(t, c.Items(), 1)
	assert.True(t, c.Item(1).IsNone())

	assert.True(t, c.Clear().IsEmpty())
	assert.Equal(t, int64(0), c.Clear().TotalPrice())
}

func TestTotalPriceExact(t *testing.T) {
	c := Cart{}.
		Add(product(1, 333, 9)).Add(product(1, 333, 9)).
		Add(product(2, 1, 9)).
		Add(product(3, 9_999_999, 9))
	c = c.UpdateQuantity(3, 7)

	var want int64
	for _, it := range c.Items() {
		want += it.Price * it.Quantity
	}
	assert.Equal(t, want, c.TotalPrice())
	assert.Equal(t, int64(333*2+1+9_999_999*7), c.TotalPrice())
}

func TestOrderItems(t *testing.T) {
	c := Cart{}.Add(product(1, 500, 2)).Add(product(1, 500, 2)).Add(product(2, 75, 1))
	assert.Equal(t, []domain.OrderItem{
		{ProductID: 1, Quantity: 2, Price: 500},
		{ProductID: 2, Quantity: 1, Price: 75},
	}, c.OrderItems())
}
