// Package backend defines the data service the storefront reads products
// and orders from. Implementations live in repos (SQL) and remote (HTTP).
package backend

import (
	"context"

	"github.com/juju/errors"

	"storefront/internal/domain"
)

const (
	ErrProductNotFound   = errors.ConstError("product not found")
	ErrOrderNotFound     = errors.ConstError("order not found")
	ErrInsufficientStock = errors.ConstError("insufficient stock")
	ErrInvalidStatus     = errors.ConstError("invalid order status")
	ErrInvalidProduct    = errors.ConstError("invalid product")
	ErrInvalidOrder      = errors.ConstError("invalid order")
)

type Backend interface {
	AddProduct(ctx context.Context, p domain.Product) (uint64, error)
	UpdateProduct(ctx context.Context, id uint64, p domain.Product) error
	DeleteProduct(ctx context.Context, id uint64) error
	GetProduct(ctx context.Context, id uint64) (domain.Option[domain.Product], error)
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	GetProductsBySeller(ctx context.Context, sellerID string) ([]domain.Product, error)

	CreateOrder(ctx context.Context, o domain.Order) (uint64, error)
	UpdateOrderStatus(ctx context.Context, id uint64, status domain.OrderStatus) error
	GetOrder(ctx context.Context, id uint64) (domain.Option[domain.Order], error)
	GetAllOrders(ctx context.Context) ([]domain.Order, error)
	GetOrdersByBuyer(ctx context.Context, email string) ([]domain.Order, error)
	GetOrdersBySeller(ctx context.Context, sellerID string) ([]domain.Order, error)
}

// CheckProduct enforces the record invariants every implementation shares.
func CheckProduct(p domain.Product) error {
	if p.Price < 0 || p.Stock < 0 {
		return errors.Annotatef(ErrInvalidProduct, "price and stock must be non-negative")
	}
	if p.Title == "" {
		return errors.Annotatef(ErrInvalidProduct, "title required")
	}
	return nil
}

// CheckOrder validates order lines before they reach storage.
func CheckOrder(o domain.Order) error {
	if len(o.Items) == 0 {
		return errors.Annotatef(ErrInvalidOrder, "no items")
	}
	for _, it := range o.Items {
		if it.Quantity < 1 || it.Price < 0 {
			return errors.Annotatef(ErrInvalidOrder, "bad line for product %d", it.ProductID)
		}
	}
	return nil
}
