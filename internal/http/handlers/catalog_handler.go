package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// Home lists the catalog, optionally filtered by ?q= and ?category=.
func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	ctx := c.UserContext()
	categories := h.Catalog.Categories(ctx)
	category := strings.TrimSpace(c.Query("category"))
	data := fiber.Map{"Categories": categories, "Q": "", "Category": category}

	rawQ := c.Query("q")
	q := ""
	if strings.TrimSpace(rawQ) != "" {
		var ok bool
		if q, ok = validate.Q(rawQ); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
			data["Err"] = "Enter a valid keyword"
			data["Products"] = nil
			return c.Status(fiber.StatusBadRequest).Render("products", withSession(c, data))
		}
	}
	products := h.Catalog.List(ctx, q, category)
	data["Q"] = q
	data["Products"] = products
	data["Count"] = len(products)
	return render(c, "products", data)
}
