package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"

	"storefront/internal/cart"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func cartData(ct cart.Cart) fiber.Map {
	return fiber.Map{
		"Items":      ct.Items(),
		"TotalItems": ct.TotalItems(),
		"TotalPrice": ct.TotalPrice(),
		"Empty":      ct.IsEmpty(),
	}
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	return render(c, "cart", fiber.Map{"Cart": cartData(h.Cart.View(ensureSID(c)))})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if _, err := h.Cart.Add(c.UserContext(), sid, id); err != nil {
		if errors.Is(err, services.ErrProductUnavailable) {
			return failure(c, fiber.StatusConflict, "This item is no longer available")
		}
		applog.Error(c, "cart.add.fail", err, map[string]any{"product_id": id})
		return failure(c, fiber.StatusInternalServerError, genericFailure)
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": id})
	return c.Redirect("/cart")
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty, ok := validate.Qty(c.FormValue("qty"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "qty"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid qty")
	}
	h.Cart.Update(sid, id, qty)
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	h.Cart.Remove(sid, id)
	return c.Redirect("/cart")
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	h.Cart.Clear(ensureSID(c))
	return c.Redirect("/cart")
}
