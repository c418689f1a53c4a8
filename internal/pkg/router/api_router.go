package router

import (
	"github.com/ManuelReschke/RecurFox/app/controllers"
	"github.com/ManuelReschke/RecurFox/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes, admin API key required
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())

	v1.Post("/tokens", controllers.HandleTokenCreate)
	v1.Get("/tokens/:token", controllers.HandleGetToken)

	v1.Get("/accounts", controllers.HandleListAccounts)
	v1.Get("/accounts/:code", controllers.HandleGetAccount)
	v1.Post("/accounts/:code/sync", controllers.HandleAccountSync)
	v1.Get("/accounts/:code/subscriptions", controllers.HandleListAccountSubscriptions)
	v1.Get("/accounts/:code/payments", controllers.HandleListAccountPayments)

	v1.Get("/subscriptions", controllers.HandleListSubscriptions)
	v1.Get("/subscriptions/:uuid", controllers.HandleGetSubscription)
	v1.Post("/subscriptions/:uuid/sync", controllers.HandleSubscriptionSync)

	v1.Get("/payments", controllers.HandleListPayments)
	v1.Get("/payments/:transaction_id", controllers.HandleGetPayment)
	v1.Post("/payments/:transaction_id/sync", controllers.HandlePaymentSync)

	v1.Get("/webhook-events", controllers.HandleListWebhookEvents)
	v1.Get("/stats", controllers.HandleGetStats)

	v1.Post("/users", controllers.HandleUserCreate)
	v1.Put("/users/:id/password", controllers.HandleUserChangePassword)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
