package accounts

import (
	"github.com/gofiber/fiber/v2"

	"classfund/app/routes/auth"
)

// SetupAccountsRoutes registers the roster and CSV import pages. All of
// them are treasurer-only.
func SetupAccountsRoutes(app *fiber.App) {
	students := app.Group("/treasurer/students",
		auth.RequireAuth,
		auth.ResolveClass,
		auth.RequireTreasurer,
		auth.InjectFundBalance,
	)

	students.Get("/", StudentsPageHandler)
	students.Get("/import", ShowImportPage)
	students.Post("/import", ImportStudentsHandler)
}
