package router

import (
	"github.com/ManuelReschke/RecurFox/app/controllers"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Provider push notifications. Authentication happens inside the
	// handler so failed credentials still get a JSON body.
	app.Post("/webhooks/recurly", controllers.HandleRecurlyWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
