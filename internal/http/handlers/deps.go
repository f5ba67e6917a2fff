package handlers

import (
	"storefront/internal/query"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/session"
)

type Deps struct {
	Auth     *services.AuthService
	Sessions *session.Store
	Carts    *services.CartService

	AuthHandler    *AuthHandler
	CatalogHandler *CatalogHandler
	ProductHandler *ProductHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	SellerHandler  *SellerHandler
	APIHandler     *APIHandler
}

func NewDeps(data *query.Client, users *repos.UserRepo, sessions *session.Store) *Deps {
	authSvc := &services.AuthService{Users: users}
	catalogSvc := services.NewCatalogService(data)
	cartSvc := services.NewCartService(data, sessions)
	checkoutSvc := services.NewCheckoutService(data, sessions)
	sellerSvc := services.NewSellerService(data)

	return &Deps{
		Auth:     authSvc,
		Sessions: sessions,
		Carts:    cartSvc,

		AuthHandler:    &AuthHandler{Auth: authSvc, Sessions: sessions},
		CatalogHandler: &CatalogHandler{Catalog: catalogSvc},
		ProductHandler: &ProductHandler{Catalog: catalogSvc},
		CartHandler:    &CartHandler{Cart: cartSvc},
		OrderHandler:   &OrderHandler{Cart: cartSvc, Orders: checkoutSvc, Data: data, Sessions: sessions},
		SellerHandler:  &SellerHandler{Seller: sellerSvc},
		APIHandler:     &APIHandler{Data: data},
	}
}
