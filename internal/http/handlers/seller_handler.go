package handlers

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type SellerHandler struct {
	Seller *services.SellerService
}

// GET /seller
func (h *SellerHandler) Dashboard(c *fiber.Ctx) error {
	u := currentUser(c)
	d := h.Seller.Dashboard(c.UserContext(), u.ID)
	return render(c, "seller", fiber.Map{"D": d, "Err": c.Query("err")})
}

func productForm(c *fiber.Ctx) services.ProductForm {
	return services.ProductForm{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		Stock:       c.FormValue("stock"),
		Category:    c.FormValue("category"),
		ImageURL:    c.FormValue("imageUrl"),
	}
}

// sellerError redirects back to the dashboard with a short message.
func (h *SellerHandler) sellerError(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	msg := genericFailure
	switch {
	case errors.Is(err, errors.NotValid):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": err.Error()})
		msg = "Please check the form: " + err.Error()
	case errors.Is(err, services.ErrNotOwner), errors.Is(err, errors.NotFound):
		applog.Security(c, "access.denied.seller", fields)
		return failure(c, fiber.StatusNotFound, "Not found")
	default:
		applog.Error(c, action+".fail", err, fields)
	}
	return c.Redirect("/seller?err=" + url.QueryEscape(msg))
}

// POST /seller/products
func (h *SellerHandler) CreateProduct(c *fiber.Ctx) error {
	u := currentUser(c)
	id, err := h.Seller.SaveProduct(c.UserContext(), u.ID, 0, productForm(c))
	if err != nil {
		return h.sellerError(c, "seller.product.create", err, nil)
	}
	applog.Audit(c, "seller.product.create", map[string]any{"product_id": id, "seller": u.ID})
	return c.Redirect("/seller")
}

// POST /seller/products/:id
func (h *SellerHandler) UpdateProduct(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return failure(c, fiber.StatusNotFound, "Not found")
	}
	if _, err := h.Seller.SaveProduct(c.UserContext(), u.ID, id, productForm(c)); err != nil {
		return h.sellerError(c, "seller.product.update", err, map[string]any{"product_id": id})
	}
	applog.Audit(c, "seller.product.update", map[string]any{"product_id": id, "seller": u.ID})
	return c.Redirect("/seller")
}

// POST /seller/products/:id/delete
func (h *SellerHandler) DeleteProduct(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return failure(c, fiber.StatusNotFound, "Not found")
	}
	if err := h.Seller.DeleteProduct(c.UserContext(), u.ID, id); err != nil {
		return h.sellerError(c, "seller.product.delete", err, map[string]any{"product_id": id})
	}
	applog.Audit(c, "seller.product.delete", map[string]any{"product_id": id, "seller": u.ID})
	return c.Redirect("/seller")
}

// POST /seller/orders/:id/status
func (h *SellerHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return failure(c, fiber.StatusNotFound, "Not found")
	}
	status := c.FormValue("status")
	if err := h.Seller.SetOrderStatus(c.UserContext(), u.ID, id, status); err != nil {
		return h.sellerError(c, "seller.orders.update", err, map[string]any{"order_id": id})
	}
	applog.Audit(c, "seller.orders.update", map[string]any{"order_id": strconv.FormatUint(id, 10), "status": status})
	return c.Redirect("/seller")
}
