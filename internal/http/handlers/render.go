package handlers

import (
	"github.com/gofiber/fiber/v2"
)

const genericFailure = "Something went wrong. Please try again."

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	return c.Render(tmpl, withSession(c, data))
}

// withSession injects the logged-in user, the CSRF token and the cart
// badge count into template data.
func withSession(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if n, ok := c.Locals("cartCount").(int64); ok {
		data["CartCount"] = n
	}
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		// Fallback: attempt to read the CSRF cookie directly if Locals wasn't populated
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return data
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", withSession(c, fiber.Map{"Message": msg}))
}

func failure(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).Render("notfound", withSession(c, fiber.Map{"Message": msg}))
}
