package services

import (
	"context"
	"time"

	"github.com/juju/errors"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/query"
	"storefront/internal/session"
	"storefront/internal/validate"
)

type Contact struct {
	Name  string
	Email string
}

// Validate trims the contact and checks name and email.
func (c Contact) Validate() (Contact, error) {
	name, ok := validate.Name(c.Name)
	if !ok {
		return c, errors.NotValidf("name")
	}
	email, ok := validate.Email(c.Email)
	if !ok {
		return c, errors.NotValidf("email %q", c.Email)
	}
	return Contact{Name: name, Email: email}, nil
}

type CheckoutService struct {
	Data     *query.Client
	Sessions *session.Store
	Now      func() time.Time
}

func NewCheckoutService(data *query.Client, sessions *session.Store) *CheckoutService {
	return &CheckoutService{Data: data, Sessions: sessions, Now: time.Now}
}

// Place turns the session cart into a pending order. Once the order exists
// the ordered quantities leave the cart; anything added meanwhile stays.
func (s *CheckoutService) Place(ctx context.Context, sid string, contact Contact) (uint64, error) {
	contact, err := contact.Validate()
	if err != nil {
		return 0, err
	}
	c := s.Sessions.Cart(sid)
	if c.IsEmpty() {
		return 0, ErrCartEmpty
	}

	id, err := s.Data.CreateOrder(ctx, domain.Order{
		BuyerName:  contact.Name,
		BuyerEmail: contact.Email,
		Items:      c.OrderItems(),
		TotalPrice: c.TotalPrice(),
		Status:     domain.StatusPending,
		CreatedAt:  s.Now(),
	})
	if err != nil {
		return 0, errors.Trace(err)
	}

	ordered := c.Items()
	s.Sessions.UpdateCart(sid, func(cur cart.Cart) cart.Cart {
		for _, it := range ordered {
			if left, ok := cur.Item(it.ProductID).Get(); ok {
				cur = cur.UpdateQuantity(it.ProductID, left.Quantity-it.Quantity)
			}
		}
		return cur
	})
	s.Sessions.SetBuyerEmail(sid, contact.Email)
	return id, nil
}

// History lists orders placed with the email this session last used.
func (s *CheckoutService) History(ctx context.Context, sid string) []domain.Order {
	email := s.Sessions.BuyerEmail(sid)
	if email == "" {
		return nil
	}
	return s.Data.OrdersByBuyer(ctx, email)
}
