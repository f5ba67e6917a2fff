package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"

	"storefront/internal/backend"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/query"
	"storefront/internal/remote"
	"storefront/internal/validate"
)

// APIHandler serves the JSON data API consumed by remote storefronts.
type APIHandler struct {
	Data *query.Client
}

func apiError(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(remote.ErrorBody{Error: code, Message: msg})
}

// mutationError maps data-layer errors onto API status codes.
func mutationError(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, query.ErrNotReady):
		return apiError(c, fiber.StatusServiceUnavailable, "not_ready", "backend not ready")
	case errors.Is(err, backend.ErrProductNotFound):
		return apiError(c, fiber.StatusNotFound, remote.CodeNotFound, "product not found")
	case errors.Is(err, backend.ErrOrderNotFound):
		return apiError(c, fiber.StatusNotFound, remote.CodeNotFound, "order not found")
	case errors.Is(err, backend.ErrInsufficientStock):
		return apiError(c, fiber.StatusConflict, remote.CodeInsufficientStock, err.Error())
	case errors.Is(err, backend.ErrInvalidStatus):
		return apiError(c, fiber.StatusBadRequest, remote.CodeInvalidStatus, err.Error())
	case errors.Is(err, backend.ErrInvalidProduct):
		return apiError(c, fiber.StatusBadRequest, remote.CodeInvalidProduct, err.Error())
	case errors.Is(err, backend.ErrInvalidOrder):
		return apiError(c, fiber.StatusBadRequest, remote.CodeInvalidOrder, err.Error())
	}
	applog.Error(c, action+".fail", err, nil)
	return apiError(c, fiber.StatusInternalServerError, "internal", "internal error")
}

// GET /api/v1/products?category=&seller=
func (h *APIHandler) ListProducts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	category, seller := c.Query("category"), c.Query("seller")
	var out []domain.Product
	switch {
	case category != "":
		out = h.Data.ProductsByCategory(ctx, category)
		if seller != "" {
			mine := out[:0]
			for _, p := range out {
				if p.SellerID == seller {
					mine = append(mine, p)
				}
			}
			out = mine
		}
	case seller != "":
		out = h.Data.ProductsBySeller(ctx, seller)
	default:
		out = h.Data.Products(ctx)
	}
	return c.JSON(out)
}

// GET /api/v1/products/:id
func (h *APIHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apiError(c, fiber.StatusBadRequest, remote.CodeBadRequest, "invalid id")
	}
	p, ok := h.Data.Product(c.UserContext(), id).Get()
	if !ok {
		return apiError(c, fiber.StatusNotFound, remote.CodeNotFound, "product not found")
	}
	return c.JSON(p)
}

// POST /api/v1/products
func (h *APIHandler) CreateProduct(c *fiber.Ctx) error {
	var p domain.Product
	if err := c.BodyParser(&p); err != nil {
		return apiError(c, fiber.StatusBadRequest, remote.CodeBadRequest, "invalid body")
	}
	id, err := h.Data.AddProduct(c.UserContext(), p)
	if err != nil {
		return mutationError(c, "api.product.create", err)
	}
	applog.Audit(c, "api.product.create", map[string]any{"product_id": id})
	return c.Status(fiber.StatusCreated).JSON(remote.Created{ID: id})
}

// PUT /api/v1/products/:id
func (h *APIHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apiError(c, fiber.StatusBadRequest, remote.CodeBadRequest, "invalid id")
	}
	var p domain.Product
	if err := c.BodyParser(&p); err != nil {
		return apiError(c, fiber.StatusBadRequest, remote.CodeBadRequest, "invalid body")
	}
	if err := h.Data.UpdateProduct(c.UserContext(), id, p); err != nil {
		return mutationError(c, "api.product.update", err)
	}
	applog.Audit(c, "api.product.update", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// DELETE /api/v1/products/:id
func (h *APIHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apiError(c, fiber.StatusBadRequest, remote.CodeBadRequest, "invalid id")
	}
	if err := h.Data.DeleteProduct(c.UserContext(), id); err != nil {
		return mutationError(c, "api.product.delete", err)
	}
	applog.Audit(c, "api.product.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/orders?buyer=&seller=
func (h *APIHandler) ListOrders(c *fiber.Ctx) error {
	ctx := c.UserContext()
	buyer, seller := c.Query("buyer"), c.Query("seller")
	var out []domain.Order
	switch {
	case buyer != "":
		out = h.Data.OrdersByBuyer(ctx, buyer)
	case seller != "":
		out = h.Data.OrdersBySeller(ctx, seller)
	default:
		out = h.Data.Orders(ctx)
	}
	return c.JSON(out)
}

// GET /api/v1/orders/:id
func (h *APIHandler) GetOrder(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apiError(c, fiber.StatusBadRequest, remote.CodeBadRequest, "invalid id")
	}
	o, ok := h.Data.Order(c.UserContext(), id).Get()
	if !ok {
		return apiError(c, fiber.StatusNotFound, remote.CodeNotFound, "order not found")
	}
	return c.JSON(o)
}

// POST /api/v1/orders
func (h *APIHandler) CreateOrder(c *fiber.Ctx) error {
	var o domain.Order
	if err := c.BodyParser(&o); err != nil {
		return apiError(c, fiber.StatusBadRequest, remote.CodeBadRequest, "invalid body")
	}
	id, err := h.Data.CreateOrder(c.UserContext(), o)
	if err != nil {
		return mutationError(c, "api.order.create", err)
	}
	applog.Audit(c, "api.order.create", map[string]any{"order_id": id})
	return c.Status(fiber.StatusCreated).JSON(remote.Created{ID: id})
}

// PUT /api/v1/orders/:id/status
func (h *APIHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apiError(c, fiber.StatusBadRequest, remote.CodeBadRequest, "invalid id")
	}
	var body remote.StatusChange
	if err := c.BodyParser(&body); err != nil {
		return apiError(c, fiber.StatusBadRequest, remote.CodeBadRequest, "invalid body")
	}
	if err := h.Data.UpdateOrderStatus(c.UserContext(), id, body.Status); err != nil {
		return mutationError(c, "api.order.status", err)
	}
	applog.Audit(c, "api.order.status", map[string]any{"order_id": id, "status": body.Status})
	return c.SendStatus(fiber.StatusNoContent)
}
