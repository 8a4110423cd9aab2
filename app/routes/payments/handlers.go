package payments

import (
	"time"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/flash"
	"classfund/app/models"
	"classfund/app/routes/auth"
	"classfund/app/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// QRItem pairs a (student, request) item with its rendered SPAYD QR code.
// QRBase64 is empty when no bank account is configured or encoding failed;
// the template simply omits the image.
type QRItem struct {
	*services.PendingItem
	QRBase64 string
}

func attachQR(items []*services.PendingItem, account *models.BankAccount) []*QRItem {
	out := make([]*QRItem, 0, len(items))
	for _, item := range items {
		qi := &QRItem{PendingItem: item}
		if account != nil {
			amount := item.Request.Amount
			qi.QRBase64 = services.GenerateSPAYDQR(
				account.PaymentID(), &amount, item.Request.Title,
				item.Request.VariableSymbol, item.Request.SpecificSymbol,
			)
		}
		out = append(out, qi)
	}
	return out
}

// PendingPaymentsHandler lists every request the parent still owes, with a
// per-request scannable SPAYD QR code.
func PendingPaymentsHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
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

	account, err := database.GetClassBankAccount(db, classID)
	if err != nil && err != database.ErrNotFound {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load bank account")
	}

	return c.Render("payments/pending", fiber.Map{
		"Title":       "Pending Payments - Class Fund Manager",
		"CurrentPage": "payments",
		"Messages":    flash.Pop(c),
		"user":        user,
		"Unpaid":      attachQR(snap.Unpaid, account),
		"Awaiting":    attachQR(snap.Awaiting, account),
		"TotalOwed":   snap.TotalOwed.StringFixed(2),
		"OverdueIDs":  snap.OverdueIDs,
		"Today":       snap.Today.Format("2006-01-02"),
		"Account":     account,
	})
}

// PaymentInfoHandler shows the class bank account details and a generic
// QR code without a preset amount.
func PaymentInfoHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	classID := auth.ClassID(c)

	account, err := database.GetClassBankAccount(config.GetDB(), classID)
	if err != nil && err != database.ErrNotFound {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load bank account")
	}

	qrBase64 := ""
	if account != nil {
		qrBase64 = services.GenerateSPAYDQR(
			account.PaymentID(), nil, "Class Fund - "+account.OwnerName, "", "")
	}

	return c.Render("payments/info", fiber.Map{
		"Title":       "Payment Info - Class Fund Manager",
		"CurrentPage": "payments",
		"Messages":    flash.Pop(c),
		"user":        user,
		"Account":     account,
		"QRBase64":    qrBase64,
	})
}

// MonthGroup is one month of published expenses on the budget page.
type MonthGroup struct {
	Year     int
	Month    time.Month
	Items    []*models.Expense
	Subtotal decimal.Decimal
}

// CategoryTotal is one slice of the category breakdown.
type CategoryTotal struct {
	Category models.ExpenseCategory
	Label    string
	Total    decimal.Decimal
	Pct      int
}

// GroupExpensesByMonth buckets expenses (already ordered newest first)
// into consecutive month groups with subtotals.
func GroupExpensesByMonth(expenses []*models.Expense) []*MonthGroup {
	var groups []*MonthGroup
	for _, e := range expenses {
		y, m, _ := e.SpentAt.Date()
		if len(groups) == 0 || groups[len(groups)-1].Year != y || groups[len(groups)-1].Month != m {
			groups = append(groups, &MonthGroup{Year: y, Month: m, Subtotal: decimal.Zero})
		}
		g := groups[len(groups)-1]
		g.Items = append(g.Items, e)
		g.Subtotal = g.Subtotal.Add(e.Amount)
	}
	return groups
}

// BuildCategoryTotals sums expenses per category and derives percentage
// shares of the total, largest first.
func BuildCategoryTotals(expenses []*models.Expense) ([]*CategoryTotal, decimal.Decimal) {
	perCategory := make(map[models.ExpenseCategory]decimal.Decimal)
	total := decimal.Zero
	for _, e := range expenses {
		perCategory[e.Category] = perCategory[e.Category].Add(e.Amount)
		total = total.Add(e.Amount)
	}

	var totals []*CategoryTotal
	for cat, sum := range perCategory {
		ct := &CategoryTotal{
			Category: cat,
			Label:    models.ExpenseCategoryLabels[cat],
			Total:    sum,
		}
		if ct.Label == "" {
			ct.Label = string(cat)
		}
		if !total.IsZero() {
			ct.Pct = int(sum.Div(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
		}
		totals = append(totals, ct)
	}
	// Largest share first, category name as tie-break for stable output.
	for i := 0; i < len(totals); i++ {
		for j := i + 1; j < len(totals); j++ {
			if totals[j].Total.GreaterThan(totals[i].Total) ||
				(totals[j].Total.Equal(totals[i].Total) && totals[j].Category < totals[i].Category) {
				totals[i], totals[j] = totals[j], totals[i]
			}
		}
	}
	return totals, total
}

// BudgetPageHandler renders the transparency page: the full timeline of
// published class expenses grouped by month, plus a category breakdown.
func BudgetPageHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	classID := auth.ClassID(c)

	expenses, err := database.GetClassExpenses(config.GetDB(), classID, true, 0)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load expenses")
	}

	grouped := GroupExpensesByMonth(expenses)
	categoryTotals, totalSpent := BuildCategoryTotals(expenses)

	return c.Render("payments/budget", fiber.Map{
		"Title":          "Budget - Class Fund Manager",
		"CurrentPage":    "budget",
		"Messages":       flash.Pop(c),
		"user":           user,
		"Grouped":        grouped,
		"CategoryTotals": categoryTotals,
		"TotalSpent":     totalSpent.StringFixed(2),
		"ExpenseCount":   len(expenses),
	})
}
