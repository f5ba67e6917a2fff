package services

import (
	"context"
	"slices"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/query"
)

type CatalogService struct {
	Data *query.Client
}

func NewCatalogService(data *query.Client) *CatalogService {
	return &CatalogService{Data: data}
}

// List returns products whose title contains q (case-insensitive) and,
// when category is set, whose category matches exactly.
func (s *CatalogService) List(ctx context.Context, q, category string) []domain.Product {
	var products []domain.Product
	if category != "" {
		products = s.Data.ProductsByCategory(ctx, category)
	} else {
		products = s.Data.Products(ctx)
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return products
	}
	out := products[:0]
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}
	return out
}

// Categories lists the distinct non-empty categories, sorted.
func (s *CatalogService) Categories(ctx context.Context) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range s.Data.Products(ctx) {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	slices.Sort(out)
	return out
}

func (s *CatalogService) Product(ctx context.Context, id uint64) domain.Option[domain.Product] {
	return s.Data.Product(ctx, id)
}
