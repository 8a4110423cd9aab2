package payments

import (
	"classfund/app/routes/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentsRoutes(app *fiber.App) {
	pages := app.Group("/",
		auth.RequireAuth, auth.ResolveClass, auth.InjectFundBalance)

	pages.Get("/payments/pending", PendingPaymentsHandler)
	pages.Get("/payments/info", PaymentInfoHandler)
	pages.Get("/budget", BudgetPageHandler)
}
