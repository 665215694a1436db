package handler

import "github.com/gofiber/fiber/v2"

// Index lists the public API endpoints.
func Index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Community Board API",
		"endpoints": fiber.Map{
			"auth": []string{
				"POST /api/auth/login",
				"GET /api/auth/verify",
				"POST /api/auth/verify",
				"POST /api/auth/google",
				"POST /api/auth/logout",
			},
			"users": []string{
				"GET /api/users",
				"GET /api/users/:id",
				"PUT /api/users/:id",
				"GET /api/users/:id/avatar",
				"PUT /api/users/:id/avatar",
				"POST /api/users/import",
				"POST /api/users/delete",
				"POST /api/users/:id/toggle-admin",
			},
			"tags": []string{
				"GET /api/tags",
			},
		},
	})
}
