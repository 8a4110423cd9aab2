package dashboard

import (
	"classfund/app/routes/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupDashboardRoutes(app *fiber.App) {
	app.Get("/dashboard",
		auth.RequireAuth, auth.ResolveClass, auth.InjectFundBalance,
		DashboardPageHandler)
}
