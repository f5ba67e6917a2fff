package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"

	"storefront/internal/backend"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/query"
	"storefront/internal/services"
	"storefront/internal/session"
	"storefront/internal/validate"
)

type OrderHandler struct {
	Cart     *services.CartService
	Orders   *services.CheckoutService
	Data     *query.Client
	Sessions *session.Store
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	ct := h.Cart.View(sid)
	if ct.IsEmpty() {
		return c.Redirect("/")
	}
	return render(c, "checkout", fiber.Map{
		"Cart":  cartData(ct),
		"Email": h.Sessions.BuyerEmail(sid),
	})
}

func (h *OrderHandler) checkoutError(c *fiber.Ctx, status int, msg, name, email string) error {
	ct := h.Cart.View(ensureSID(c))
	return c.Status(status).Render("checkout", withSession(c, fiber.Map{
		"Cart":  cartData(ct),
		"Err":   msg,
		"Name":  name,
		"Email": email,
	}))
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c)
	contact := services.Contact{Name: c.FormValue("name"), Email: c.FormValue("email")}

	orderID, err := h.Orders.Place(c.UserContext(), sid, contact)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrCartEmpty):
		return c.Redirect("/")
	case errors.Is(err, errors.NotValid):
		field := "email"
		if _, ok := validate.Name(contact.Name); !ok {
			field = "name"
		}
		applog.Security(c, "validation.fail", map[string]any{"field": field})
		msg := "Please enter a valid email address."
		if field == "name" {
			msg = "Please enter your name."
		}
		return h.checkoutError(c, fiber.StatusBadRequest, msg, contact.Name, contact.Email)
	case errors.Is(err, backend.ErrInsufficientStock):
		applog.Error(c, "order.place.fail", err, map[string]any{"sid": sid})
		return h.checkoutError(c, fiber.StatusConflict, "Some items are no longer in stock. Please review your cart.", contact.Name, contact.Email)
	default:
		applog.Error(c, "order.place.fail", err, map[string]any{"sid": sid})
		return h.checkoutError(c, fiber.StatusBadGateway, genericFailure, contact.Name, contact.Email)
	}

	applog.Audit(c, "order.place", map[string]any{"order_id": orderID})
	return c.Redirect("/order/" + strconv.FormatUint(orderID, 10))
}

// View shows an order to the session that placed it or to a seller.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Order not found")
	}
	o, ok := h.Data.Order(c.UserContext(), id).Get()
	if !ok {
		return notFound(c, "Order not found")
	}

	buyer := h.Sessions.BuyerEmail(c.Cookies("sid"))
	mine := buyer != "" && strings.EqualFold(buyer, o.BuyerEmail)
	if !mine && !currentUser(c).IsSeller() {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		return notFound(c, "Order not found")
	}
	return render(c, "order", fiber.Map{"Order": o, "Lines": h.lines(c, o)})
}

type orderLine struct {
	ProductID uint64
	Title     string
	Quantity  int64
	Price     int64
	Subtotal  int64
}

func (h *OrderHandler) lines(c *fiber.Ctx, o domain.Order) []orderLine {
	out := make([]orderLine, 0, len(o.Items))
	for _, it := range o.Items {
		gone := domain.Product{Title: "Product #" + strconv.FormatUint(it.ProductID, 10)}
		title := h.Data.Product(c.UserContext(), it.ProductID).OrElse(gone).Title
		out = append(out, orderLine{
			ProductID: it.ProductID,
			Title:     title,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Subtotal:  it.Price * it.Quantity,
		})
	}
	return out
}

// History lists orders placed with the email this session last checked
// out with.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	sid := ensureSID(c)
	return render(c, "orders", fiber.Map{
		"Orders": h.Orders.History(c.UserContext(), sid),
		"Email":  h.Sessions.BuyerEmail(sid),
	})
}
