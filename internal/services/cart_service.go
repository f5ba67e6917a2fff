package services

import (
	"context"

	"github.com/juju/errors"

	"storefront/internal/cart"
	"storefront/internal/query"
	"storefront/internal/session"
)

type CartService struct {
	Data     *query.Client
	Sessions *session.Store
}

func NewCartService(data *query.Client, sessions *session.Store) *CartService {
	return &CartService{Data: data, Sessions: sessions}
}

// Add puts one unit of the product into the session cart, snapshotting its
// title, price and stock at this moment.
func (s *CartService) Add(ctx context.Context, sid string, productID uint64) (cart.Cart, error) {
	p, ok := s.Data.Product(ctx, productID).Get()
	if !ok {
		return s.Sessions.Cart(sid), errors.Annotatef(ErrProductUnavailable, "product %d", productID)
	}
	if p.Stock <= 0 {
		return s.Sessions.Cart(sid), errors.Annotatef(ErrProductUnavailable, "product %d out of stock", productID)
	}
	snap := p.Snapshot()
	return s.Sessions.UpdateCart(sid, func(c cart.Cart) cart.Cart { return c.Add(snap) }), nil
}

func (s *CartService) Update(sid string, productID uint64, qty int64) cart.Cart {
	return s.Sessions.UpdateCart(sid, func(c cart.Cart) cart.Cart { return c.UpdateQuantity(productID, qty) })
}

func (s *CartService) Remove(sid string, productID uint64) cart.Cart {
	return s.Sessions.UpdateCart(sid, func(c cart.Cart) cart.Cart { return c.Remove(productID) })
}

func (s *CartService) Clear(sid string) cart.Cart {
	return s.Sessions.UpdateCart(sid, func(c cart.Cart) cart.Cart { return c.Clear() })
}

func (s *CartService) View(sid string) cart.Cart {
	return s.Sessions.Cart(sid)
}
