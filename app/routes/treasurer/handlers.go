package treasurer

import (
	"database/sql"
	"time"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/flash"
	"classfund/app/models"
	"classfund/app/routes/auth"
	"classfund/app/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// classData is everything the reconciliation builders need, loaded once
// per request.
type classData struct {
	requests []*models.PaymentRequest
	roster   []*models.StudentProfile
	txs      []*models.Transaction
	idx      *services.PairIndex
}

func loadClassData(db *sql.DB, classID string) (*classData, error) {
	requests, err := database.GetClassPaymentRequests(db, classID)
	if err != nil {
		return nil, err
	}
	roster, err := database.GetClassStudents(db, classID)
	if err != nil {
		return nil, err
	}
	txs, err := database.GetClassTransactions(db, classID)
	if err != nil {
		return nil, err
	}
	return &classData{
		requests: requests,
		roster:   roster,
		txs:      txs,
		idx:      services.IndexTransactions(txs),
	}, nil
}

// findStudent returns the roster entry with the given profile id, or nil
// when the student is not in this class.
func (d *classData) findStudent(profileID string) *models.StudentProfile {
	for _, sp := range d.roster {
		if sp.ID == profileID {
			return sp
		}
	}
	return nil
}

// findRequest returns the class request with the given id, or nil.
func (d *classData) findRequest(requestID string) *models.PaymentRequest {
	for _, pr := range d.requests {
		if pr.ID == requestID {
			return pr
		}
	}
	return nil
}

// unconfirmedRequestsForStudent lists the requests a student is assigned
// to that have no confirmed transaction yet, the choices offered when
// logging a transfer for them.
func (d *classData) unconfirmedRequestsForStudent(sp *models.StudentProfile) []*models.PaymentRequest {
	var out []*models.PaymentRequest
	for _, pr := range d.requests {
		assigned := pr.AssignToAll
		if !assigned {
			for _, id := range pr.AssigneeIDs {
				if id == sp.ID {
					assigned = true
					break
				}
			}
		}
		if !assigned {
			continue
		}
		if d.idx.HasConfirmed(sp.ID, pr.ID) {
			continue
		}
		out = append(out, pr)
	}
	return out
}

// DashboardHandler renders the treasurer overview: per-request progress,
// per-student summary rows, the pending/missing tab, and recent expenses.
// A treasurer without an assigned class sees an empty dashboard.
func DashboardHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	db := config.GetDB()
	classID := auth.ClassID(c)
	today := time.Now()

	data, err := loadClassData(db, classID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load class data")
	}

	requestStats := services.BuildRequestStats(data.requests, data.roster, data.idx, today)
	studentRows := services.BuildStudentRows(data.requests, data.roster, data.idx)
	submitted, missing := services.BuildPendingItems(data.requests, data.roster, data.idx)

	recentExpenses, err := database.GetClassExpenses(db, classID, false, 8)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load expenses")
	}

	return c.Render("treasurer/dashboard", fiber.Map{
		"Title":          "Treasurer Dashboard - Class Fund Manager",
		"CurrentPage":    "treasurer",
		"Messages":       flash.Pop(c),
		"user":           user,
		"Class":          auth.CurrentClass(c),
		"RequestStats":   requestStats,
		"StudentRows":    studentRows,
		"SubmittedItems": submitted,
		"MissingItems":   missing,
		"RecentExpenses": recentExpenses,
		"Today":          today.Format("2006-01-02"),
	})
}

// SendRemindersHandler lets the treasurer trigger reminder emails for
// every missing payment of one request (or all overdue requests when no
// request id is posted). Sending happens in the background; failures land
// in the notification log.
func SendRemindersHandler(c *fiber.Ctx) error {
	db := config.GetDB()
	classID := auth.ClassID(c)
	requestID := c.FormValue("pr_id")

	data, err := loadClassData(db, classID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load class data")
	}
	_, missing := services.BuildPendingItems(data.requests, data.roster, data.idx)

	now := time.Now()
	var targets []*services.PendingItem
	for _, item := range missing {
		if requestID != "" {
			if item.Request.ID == requestID {
				targets = append(targets, item)
			}
		} else if item.Request.IsOverdue(now) {
			targets = append(targets, item)
		}
	}

	go func(items []*services.PendingItem) {
		for _, item := range items {
			if item.Student.Parent != nil && item.Student.Parent.Email != "" {
				services.SendPaymentReminder(db, item.Student.Parent, item.Request, item.Student.ChildName)
			}
		}
	}(targets)

	if len(targets) == 0 {
		flash.Info(c, "No outstanding payments to remind about.")
	} else {
		flash.Success(c, "Sending reminders, see the notification log for results.")
	}
	return c.Redirect("/treasurer")
}
