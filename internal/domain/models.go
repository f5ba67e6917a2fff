package domain

import "time"

// Prices are integer cents throughout.

type Product struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Stock       int64     `json:"stock"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl"`
	SellerID    string    `json:"sellerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusFulfilled OrderStatus = "fulfilled"
	StatusCancelled OrderStatus = "cancelled"
)

// Statuses lists every order state in display order.
var Statuses = []OrderStatus{StatusPending, StatusFulfilled, StatusCancelled}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

type OrderItem struct {
	ProductID uint64 `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"` // unit price at order time
}

type Order struct {
	ID         uint64      `json:"id"`
	BuyerName  string      `json:"buyerName"`
	BuyerEmail string      `json:"buyerEmail"`
	Items      []OrderItem `json:"items"`
	TotalPrice int64       `json:"totalPrice"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// ItemsTotal sums unit price times quantity over the order lines.
func (o Order) ItemsTotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.Price * it.Quantity
	}
	return total
}

type CartItem struct {
	ProductID uint64 `json:"productId"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"imageUrl"`
	Quantity  int64  `json:"quantity"`
	Stock     int64  `json:"stock"` // ceiling captured when the item was added
}

func (c CartItem) Subtotal() int64 { return c.Price * c.Quantity }

// Snapshot captures what the cart needs from a product at add time.
func (p Product) Snapshot() CartItem {
	return CartItem{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		Stock:     p.Stock,
	}
}
