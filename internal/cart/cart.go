// Package cart holds a shopper's pending purchase as an immutable value.
//
// Every mutating method returns a new Cart and leaves the receiver as it
// was, so a snapshot handed to a page or to checkout never changes under it.
package cart

import "storefront/internal/domain"

type Cart struct {
	items []domain.CartItem
}

func (c Cart) index(productID uint64) int {
	for i, it := range c.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) put(it domain.CartItem) Cart {
	if i := c.index(it.ProductID); i >= 0 {
		return c.replace(i, it)
	}
	items := make([]domain.CartItem, len(c.items), len(c.items)+1)
	copy(items, c.items)
	return Cart{items: append(items, it)}
}

func (c Cart) replace(i int, it domain.CartItem) Cart {
	items := make([]domain.CartItem, len(c.items))
	copy(items, c.items)
	items[i] = it
	return Cart{items: items}
}

// Add puts one unit of the product in the cart. An existing entry grows by
// one unless it already sits at its stock ceiling.
func (c Cart) Add(snapshot domain.CartItem) Cart {
	if i := c.index(snapshot.ProductID); i >= 0 {
		it := c.items[i]
		if it.Quantity+1 > it.Stock {
			return c
		}
		it.Quantity++
		return c.replace(i, it)
	}
	if snapshot.Stock <= 0 {
		return c
	}
	snapshot.Quantity = 1
	return c.put(snapshot)
}

// Remove drops the entry for productID if present.
func (c Cart) Remove(productID uint64) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	items := make([]domain.CartItem, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)
	return Cart{items: items}
}

// UpdateQuantity sets an explicit quantity. Zero or less removes the entry;
// anything above the ceiling is capped. Unknown products are ignored.
func (c Cart) UpdateQuantity(productID uint64, quantity int64) Cart {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	i := c.index(productID)
	if i < 0 {
		return c
	}
	it := c.items[i]
	it.Quantity = min(quantity, it.Stock)
	return c.replace(i, it)
}

func (c Cart) Clear() Cart { return Cart{} }

// Items returns a copy of the entries in insertion order.
func (c Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c Cart) Item(productID uint64) domain.Option[domain.CartItem] {
	if i := c.index(productID); i >= 0 {
		return domain.Some(c.items[i])
	}
	return domain.None[domain.CartItem]()
}

func (c Cart) IsEmpty() bool { return len(c.items) == 0 }

// TotalItems is the sum of quantities.
func (c Cart) TotalItems() int64 {
	var n int64
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the exact sum of unit price times quantity, in cents.
func (c Cart) TotalPrice() int64 {
	var total int64
	for _, it := range c.items {
		total += it.Subtotal()
	}
	return total
}

// OrderItems converts the entries into order lines at their captured price.
func (c Cart) OrderItems() []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return out
}
