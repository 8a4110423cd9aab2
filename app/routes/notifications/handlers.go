package notifications

import (
	"strconv"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/flash"
	"classfund/app/models"
	"classfund/app/routes/auth"

	"github.com/gofiber/fiber/v2"
)

// NotificationLogHandler shows the most recent outbound notifications,
// newest first. The ?limit= query caps the page size at 500.
func NotificationLogHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	logs, err := database.GetNotificationLogs(config.GetDB(), auth.ClassID(c), limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load notification log")
	}

	failed := 0
	for _, entry := range logs {
		if !entry.Success {
			failed++
		}
	}

	return c.Render("notifications/log", fiber.Map{
		"Title":       "Notification Log - Class Fund Manager",
		"CurrentPage": "notifications",
		"Messages":    flash.Pop(c),
		"user":        user,
		"Class":       auth.CurrentClass(c),
		"Logs":        logs,
		"FailedCount": failed,
	})
}
