package middleware

import "github.com/gofiber/fiber/v2"

// AllowedHeaders are the request headers browser clients send to the functions.
const AllowedHeaders = "authorization, x-client-info, apikey, content-type"

// CORS sets the permissive CORS headers on every response, including errors,
// whether or not the request carries an Origin. Preflight requests are
// answered here with no body.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowHeaders, AllowedHeaders)

		if c.Method() == fiber.MethodOptions {
			c.Status(fiber.StatusOK)
			return nil
		}
		return c.Next()
	}
}
