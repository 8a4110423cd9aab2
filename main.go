package main

import (
	"encoding/json"
	"log"
	"strings"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/routes/accounts"
	"classfund/app/routes/auth"
	"classfund/app/routes/dashboard"
	"classfund/app/routes/notifications"
	"classfund/app/routes/payments"
	"classfund/app/routes/treasurer"
	"classfund/app/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/template/html/v2"
)

// customErrorHandler renders error pages for web requests and JSON for
// the API surface.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	if strings.HasPrefix(c.Path(), "/api") || strings.Contains(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"code":    code,
		})
	}

	switch code {
	case 404:
		return c.Status(404).Render("404", fiber.Map{
			"Title":       "Page Not Found - Class Fund Manager",
			"CurrentPage": "",
		})
	case 403:
		return c.Status(403).Render("error", fiber.Map{
			"Title":        "Access Forbidden - Class Fund Manager",
			"CurrentPage":  "",
			"ErrorCode":    "403",
			"ErrorTitle":   "Access Forbidden",
			"ErrorMessage": "You don't have permission to access this resource.",
		})
	case 401:
		return c.Status(401).Render("error", fiber.Map{
			"Title":        "Unauthorized - Class Fund Manager",
			"CurrentPage":  "",
			"ErrorCode":    "401",
			"ErrorTitle":   "Unauthorized",
			"ErrorMessage": "Please log in to access this resource.",
		})
	case 500:
		return c.Status(500).Render("500", fiber.Map{
			"Title":        "Server Error - Class Fund Manager",
			"CurrentPage":  "",
			"ErrorCode":    "500",
			"ErrorTitle":   "Internal Server Error",
			"ErrorMessage": "We're experiencing technical difficulties. Please try again later.",
			"ShowRetry":    true,
		})
	default:
		return c.Status(code).Render("error", fiber.Map{
			"Title":        "Error - Class Fund Manager",
			"CurrentPage":  "",
			"ErrorCode":    code,
			"ErrorTitle":   "An Error Occurred",
			"ErrorMessage": err.Error(),
		})
	}
}

func main() {
	config.Load()
	defer config.GetDB().Close()

	if err := database.RunMigrations(config.GetDB()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Background overdue-payment reminders
	services.StartReminderScheduler(config.GetDB(), config.AppConfig.ReminderHour)

	engine := html.New("./app/templates", ".html")
	engine.AddFunc("json", func(v interface{}) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	})

	app := fiber.New(fiber.Config{
		Views:             engine,
		ViewsLayout:       "layouts/main",
		PassLocalsToViews: true,
		ErrorHandler:      customErrorHandler,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Static files
	app.Static("/static", "./static")

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/auth/login")
	})

	auth.SetupAuthRoutes(app)
	dashboard.SetupDashboardRoutes(app)
	payments.SetupPaymentsRoutes(app)
	treasurer.SetupTreasurerRoutes(app)
	accounts.SetupAccountsRoutes(app)
	notifications.SetupNotificationRoutes(app)

	// Catch-all route for 404 errors (must be last)
	app.Use("*", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Page not found")
	})

	log.Println("Server starting on " + config.AppConfig.ListenAddr)
	log.Fatal(app.Listen(config.AppConfig.ListenAddr))
}
