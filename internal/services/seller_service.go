package services

import (
	"context"
	"slices"

	"github.com/juju/errors"

	"storefront/internal/domain"
	"storefront/internal/money"
	"storefront/internal/query"
	"storefront/internal/validate"
)

type SellerService struct {
	Data *query.Client
}

func NewSellerService(data *query.Client) *SellerService {
	return &SellerService{Data: data}
}

type Dashboard struct {
	Products     []domain.Product
	Orders       []domain.Order
	ProductCount int
	OrderCount   int
	PendingCount int
	Revenue      int64 // cents, fulfilled orders only
}

func (s *SellerService) Dashboard(ctx context.Context, sellerID string) Dashboard {
	d := Dashboard{
		Products: s.Data.ProductsBySeller(ctx, sellerID),
		Orders:   s.Data.OrdersBySeller(ctx, sellerID),
	}
	d.ProductCount = len(d.Products)
	d.OrderCount = len(d.Orders)
	for _, o := range d.Orders {
		switch o.Status {
		case domain.StatusPending:
			d.PendingCount++
		case domain.StatusFulfilled:
			d.Revenue += o.TotalPrice
		}
	}
	return d
}

// ProductForm is the raw seller input for a product.
type ProductForm struct {
	Title       string
	Description string
	Price       string // dollars
	Stock       string
	Category    string
	ImageURL    string
}

func (f ProductForm) product(sellerID string) (domain.Product, error) {
	title, ok := validate.Title(f.Title)
	if !ok {
		return domain.Product{}, errors.NotValidf("title")
	}
	category, ok := validate.Category(f.Category)
	if !ok {
		return domain.Product{}, errors.NotValidf("category")
	}
	price, err := money.ParseDollars(f.Price)
	if err != nil {
		return domain.Product{}, errors.Trace(err)
	}
	stock, ok := validate.Stock(f.Stock)
	if !ok {
		return domain.Product{}, errors.NotValidf("stock %q", f.Stock)
	}
	return domain.Product{
		Title:       title,
		Description: f.Description,
		Price:       price,
		Stock:       stock,
		Category:    category,
		ImageURL:    f.ImageURL,
		SellerID:    sellerID,
	}, nil
}

// SaveProduct creates a product when id is 0, otherwise updates the
// seller's existing product.
func (s *SellerService) SaveProduct(ctx context.Context, sellerID string, id uint64, f ProductForm) (uint64, error) {
	p, err := f.product(sellerID)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return s.Data.AddProduct(ctx, p)
	}
	existing, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return 0, err
	}
	p.CreatedAt = existing.CreatedAt
	return id, s.Data.UpdateProduct(ctx, id, p)
}

func (s *SellerService) DeleteProduct(ctx context.Context, sellerID string, id uint64) error {
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return err
	}
	return s.Data.DeleteProduct(ctx, id)
}

func (s *SellerService) owned(ctx context.Context, sellerID string, id uint64) (domain.Product, error) {
	p, ok := s.Data.Product(ctx, id).Get()
	if !ok {
		return p, errors.NotFoundf("product %d", id)
	}
	if p.SellerID != sellerID {
		return p, errors.Annotatef(ErrNotOwner, "product %d", id)
	}
	return p, nil
}

// SetOrderStatus changes the status of an order that contains one of the
// seller's products.
func (s *SellerService) SetOrderStatus(ctx context.Context, sellerID string, id uint64, status string) error {
	st, ok := validate.Status(status)
	if !ok {
		return errors.NotValidf("status %q", status)
	}
	mine := slices.ContainsFunc(s.Data.OrdersBySeller(ctx, sellerID), func(o domain.Order) bool { return o.ID == id })
	if !mine {
		return errors.NotFoundf("order %d", id)
	}
	return s.Data.UpdateOrderStatus(ctx, id, st)
}
