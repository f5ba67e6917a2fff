package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

// Store serves the data service contract from SQL.
type Store struct {
	Products *ProductRepo
	Orders   *OrderRepo
}

var _ backend.Backend = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{Products: NewProductRepo(db), Orders: NewOrderRepo(db)}
}

func (s *Store) AddProduct(ctx context.Context, p domain.Product) (uint64, error) {
	if err := backend.CheckProduct(p); err != nil {
		return 0, err
	}
	return s.Products.Create(ctx, p)
}

func (s *Store) UpdateProduct(ctx context.Context, id uint64, p domain.Product) error {
	if err := backend.CheckProduct(p); err != nil {
		return err
	}
	return s.Products.Update(ctx, id, p)
}

func (s *Store) DeleteProduct(ctx context.Context, id uint64) error {
	return s.Products.Delete(ctx, id)
}

func (s *Store) GetProduct(ctx context.Context, id uint64) (domain.Option[domain.Product], error) {
	return s.Products.Get(ctx, id)
}

func (s *Store) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Products.List(ctx, ProductFilter{})
}

func (s *Store) GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if category == "" {
		return []domain.Product{}, nil
	}
	return s.Products.List(ctx, ProductFilter{Category: category})
}

func (s *Store) GetProductsBySeller(ctx context.Context, sellerID string) ([]domain.Product, error) {
	if sellerID == "" {
		return []domain.Product{}, nil
	}
	return s.Products.List(ctx, ProductFilter{SellerID: sellerID})
}

func (s *Store) CreateOrder(ctx context.Context, o domain.Order) (uint64, error) {
	return s.Orders.Create(ctx, o)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id uint64, status domain.OrderStatus) error {
	return s.Orders.UpdateStatus(ctx, id, status)
}

func (s *Store) GetOrder(ctx context.Context, id uint64) (domain.Option[domain.Order], error) {
	return s.Orders.Get(ctx, id)
}

func (s *Store) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.Orders.List(ctx, OrderFilter{})
}

func (s *Store) GetOrdersByBuyer(ctx context.Context, email string) ([]domain.Order, error) {
	if email == "" {
		return []domain.Order{}, nil
	}
	return s.Orders.List(ctx, OrderFilter{BuyerEmail: email})
}

func (s *Store) GetOrdersBySeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	if sellerID == "" {
		return []domain.Order{}, nil
	}
	return s.Orders.List(ctx, OrderFilter{SellerID: sellerID})
}
