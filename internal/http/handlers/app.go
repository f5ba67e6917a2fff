package handlers

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "storefront/internal/log"
	"storefront/web"
)

type AppOptions struct {
	CookieSecure bool
	// RateLimit is requests per minute per IP for pages; 0 disables it.
	RateLimit int
	// LoginLimit is login attempts per 10 minutes per IP; 0 disables it.
	LoginLimit int
	// AccessLog enables fiber's request logger.
	AccessLog bool
	// APIToken is the bearer token /api/v1 requires; empty rejects every call.
	APIToken string
}

func isMachinePath(p string) bool {
	return strings.HasPrefix(p, "/api/") || p == "/healthz" || strings.HasPrefix(p, "/static/")
}

// ErrorHandler logs the error and shows a friendly message, never internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	applog.Error(c, "server.error", err, nil)
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok && fe.Code < 500 {
		code = fe.Code
	}
	if isMachinePath(c.Path()) {
		return c.Status(code).JSON(fiber.Map{"error": "internal", "message": "internal error"})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": genericFailure}); rerr != nil {
		return c.Status(code).SendString(genericFailure)
	}
	return nil
}

// NewApp builds the storefront: middleware, pages and the JSON data API.
func NewApp(d *Deps, opt AppOptions) *fiber.App {
	secureCookies = opt.CookieSecure

	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
		// cookie and form values are kept as session keys and emails
		Immutable: true,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	if opt.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	// Attach user and cart size to context (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if isMachinePath(c.Path()) {
			return c.Next()
		}
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := d.Auth.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
			c.Locals("cartCount", d.Sessions.Cart(sid).TotalItems())
		}
		return c.Next()
	})
	if opt.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opt.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return isMachinePath(string(c.Request().URI().Path()))
			},
		}))
	}
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		ContextKey:     "csrf",
		CookieSameSite: "Lax",
		CookieSecure:   opt.CookieSecure,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf")})
			return failure(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Use("/static", filesystem.New(filesystem.Config{Root: web.Static()}))

	Register(app, d, opt)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return apiError(c, fiber.StatusNotFound, "not_found", "no such endpoint")
		}
		return notFound(c, "Page not found")
	})
	return app
}

// Register mounts the page routes and the /api/v1 data API.
func Register(app *fiber.App, d *Deps, opt AppOptions) {
	// Shop
	app.Get("/", d.CatalogHandler.Home)
	app.Get("/product/:id", d.ProductHandler.Detail)

	// Cart & Orders
	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Post("/cart/update", d.CartHandler.Update)
	app.Post("/cart/remove", d.CartHandler.Remove)
	app.Post("/cart/clear", d.CartHandler.Clear)
	app.Get("/checkout", d.OrderHandler.Checkout)
	app.Post("/orders", d.OrderHandler.Place)
	app.Get("/order/:id", d.OrderHandler.View)
	app.Get("/orders", d.OrderHandler.History)

	// Auth routes (login throttled)
	loginChain := []fiber.Handler{}
	if opt.LoginLimit > 0 {
		loginChain = append(loginChain, limiter.New(limiter.Config{
			Max:        opt.LoginLimit,
			Expiration: 10 * time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.login.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).Render("login", withSession(c, fiber.Map{"Err": "Too many attempts. Please try again later."}))
			},
		}))
	}
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", append(loginChain, d.AuthHandler.Login)...)
	app.Post("/logout", d.AuthHandler.Logout)

	// Seller
	seller := app.Group("/seller", RequireSeller(d.Auth))
	seller.Get("/", d.SellerHandler.Dashboard)
	seller.Post("/products", d.SellerHandler.CreateProduct)
	seller.Post("/products/:id", d.SellerHandler.UpdateProduct)
	seller.Post("/products/:id/delete", d.SellerHandler.DeleteProduct)
	seller.Post("/orders/:id/status", d.SellerHandler.UpdateOrderStatus)

	// Data API
	api := app.Group("/api/v1", apiAuth(opt.APIToken))
	api.Get("/products", d.APIHandler.ListProducts)
	api.Post("/products", d.APIHandler.CreateProduct)
	api.Get("/products/:id", d.APIHandler.GetProduct)
	api.Put("/products/:id", d.APIHandler.UpdateProduct)
	api.Delete("/products/:id", d.APIHandler.DeleteProduct)
	api.Get("/orders", d.APIHandler.ListOrders)
	api.Post("/orders", d.APIHandler.CreateOrder)
	api.Get("/orders/:id", d.APIHandler.GetOrder)
	api.Put("/orders/:id/status", d.APIHandler.UpdateOrderStatus)
}

// apiAuth admits callers presenting the shared bearer token.
func apiAuth(token string) fiber.Handler {
	return keyauth.New(keyauth.Config{
		KeyLookup:  "header:" + fiber.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			if token == "" {
				return false, keyauth.ErrMissingOrMalformedAPIKey
			}
			return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "api.auth.fail", nil)
			return apiError(c, fiber.StatusUnauthorized, "unauthorized", "missing or invalid API token")
		},
	})
}
