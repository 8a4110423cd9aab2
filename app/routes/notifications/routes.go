package notifications

import (
	"github.com/gofiber/fiber/v2"

	"classfund/app/routes/auth"
)

// SetupNotificationRoutes registers the treasurer-only notification log.
func SetupNotificationRoutes(app *fiber.App) {
	group := app.Group("/treasurer/notifications",
		auth.RequireAuth,
		auth.ResolveClass,
		auth.RequireTreasurer,
		auth.InjectFundBalance,
	)

	group.Get("/", NotificationLogHandler)
}
