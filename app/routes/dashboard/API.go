package dashboard

import (
	"time"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/flash"
	"classfund/app/models"
	"classfund/app/routes/auth"
	"classfund/app/services"

	"github.com/gofiber/fiber/v2"
)

// DashboardPageHandler renders the personal dashboard: summary cards, the
// five most recent transactions and the five most recent published class
// expenses. Treasurers are sent to their own dashboard.
func DashboardPageHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if user.IsTreasurer() {
		return c.Redirect("/treasurer")
	}

	db := config.GetDB()
	classID := auth.ClassID(c)
	profiles := auth.CurrentProfiles(c)

	requests, err := database.GetClassPaymentRequests(db, classID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load payment requests")
	}
	profileIDs := make([]string, len(profiles))
	for i, sp := range profiles {
		profileIDs[i] = sp.ID
	}
	txs, err := database.GetTransactionsForProfiles(db, profileIDs)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load transactions")
	}

	snap := services.BuildStudentSnapshot(requests, profiles, txs, time.Now())

	recentTxs := snap.History
	if len(recentTxs) > 5 {
		recentTxs = recentTxs[:5]
	}
	recentExpenses, err := database.GetClassExpenses(db, classID, true, 5)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load expenses")
	}

	return c.Render("dashboard/index", fiber.Map{
		"Title":          "Dashboard - Class Fund Manager",
		"CurrentPage":    "dashboard",
		"Messages":       flash.Pop(c),
		"user":           user,
		"Class":          auth.CurrentClass(c),
		"Snapshot":       snap,
		"RecentTxs":      recentTxs,
		"RecentExpenses": recentExpenses,
	})
}
