// Package session keeps per-browser shopper state in process memory.
package session

import (
	"sync"

	"storefront/internal/cart"
)

type state struct {
	cart       cart.Cart
	buyerEmail string
}

// Store is owned by the server and injected into the handlers that need it.
// Nothing survives a restart.
type Store struct {
	mu       sync.Mutex
	sessions map[string]state
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]state)}
}

// Cart returns the current snapshot for sid (empty for unknown sessions).
func (s *Store) Cart(sid string) cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sid].cart
}

// UpdateCart applies fn to the current snapshot and stores the result.
func (s *Store) UpdateCart(sid string, fn func(cart.Cart) cart.Cart) cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sessions[sid]
	st.cart = fn(st.cart)
	s.sessions[sid] = st
	return st.cart
}

func (s *Store) BuyerEmail(sid string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sid].buyerEmail
}

func (s *Store) SetBuyerEmail(sid, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sessions[sid]
	st.buyerEmail = email
	s.sessions[sid] = st
}

func (s *Store) Drop(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
}
