package treasurer

import (
	"time"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/flash"
	"classfund/app/models"
	"classfund/app/routes/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ExpenseForm carries the log/edit expense form fields.
type ExpenseForm struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description"`
	Amount      string `form:"amount" validate:"required"`
	Category    string `form:"category" validate:"required,oneof=trip supplies food decoration donation other"`
	SpentAt     string `form:"spent_at"`
	IsPublished string `form:"is_published"`
}

// ShowExpensePage renders the expense form, prefilled when editing an
// existing expense. An id outside the treasurer's class is "not found".
func ShowExpensePage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	classID := auth.ClassID(c)

	var instance *models.Expense
	if expenseID := c.Params("id"); expenseID != "" {
		e, err := database.GetExpense(config.GetDB(), expenseID, classID)
		if err == database.ErrNotFound {
			flash.Error(c, "Expense not found.")
			return c.Redirect("/treasurer")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load expense")
		}
		instance = e
	}

	return c.Render("treasurer/log_expense", fiber.Map{
		"Title":       "Log Expense - Class Fund Manager",
		"CurrentPage": "treasurer",
		"Messages":    flash.Pop(c),
		"user":        user,
		"Class":       auth.CurrentClass(c),
		"Instance":    instance,
		"Categories":  models.ExpenseCategoryLabels,
	})
}

// SaveExpenseHandler creates a new expense or updates an existing one,
// always scoped to the treasurer's class.
func SaveExpenseHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	class := auth.CurrentClass(c)
	if class == nil {
		flash.Error(c, "You have no class assigned yet.")
		return c.Redirect("/treasurer")
	}
	db := config.GetDB()

	var form ExpenseForm
	if err := c.BodyParser(&form); err != nil {
		flash.Error(c, "Invalid form submission.")
		return c.Redirect("/treasurer/expenses/log")
	}
	if err := validate.Struct(&form); err != nil {
		flash.Error(c, "Please fix the errors below.")
		return c.Redirect("/treasurer/expenses/log")
	}
	amount, err := decimal.NewFromString(form.Amount)
	if err != nil || amount.IsNegative() || amount.IsZero() {
		flash.Error(c, "Amount must be a positive number.")
		return c.Redirect("/treasurer/expenses/log")
	}

	spentAt := time.Now()
	if form.SpentAt != "" {
		parsed, err := time.Parse("2006-01-02", form.SpentAt)
		if err != nil {
			flash.Error(c, "Date must be in YYYY-MM-DD format.")
			return c.Redirect("/treasurer/expenses/log")
		}
		spentAt = parsed
	}

	expenseID := c.Params("id")
	verb := "logged"
	if expenseID != "" {
		existing, err := database.GetExpense(db, expenseID, class.ID)
		if err == database.ErrNotFound {
			flash.Error(c, "Expense not found.")
			return c.Redirect("/treasurer")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load expense")
		}
		existing.Title = form.Title
		existing.Description = form.Description
		existing.Amount = amount
		existing.Category = models.ExpenseCategory(form.Category)
		existing.SpentAt = spentAt
		existing.IsPublished = form.IsPublished == "on" || form.IsPublished == "true"
		if err := database.UpdateExpense(db, existing); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update expense")
		}
		verb = "updated"
	} else {
		expense := &models.Expense{
			SchoolClassID: class.ID,
			Title:         form.Title,
			Description:   form.Description,
			Amount:        amount,
			Category:      models.ExpenseCategory(form.Category),
			SpentAt:       spentAt,
			RecordedBy:    &user.ID,
			IsPublished:   form.IsPublished == "on" || form.IsPublished == "true",
		}
		if err := database.CreateExpense(db, expense); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create expense")
		}
	}

	flash.Success(c, "Expense \""+form.Title+"\" ("+amount.StringFixed(2)+" CZK) "+verb+".")
	return c.Redirect("/treasurer")
}

// DeleteExpenseHandler removes an expense from the treasurer's class.
// POST only.
func DeleteExpenseHandler(c *fiber.Ctx) error {
	classID := auth.ClassID(c)
	expenseID := c.Params("id")

	expense, err := database.GetExpense(config.GetDB(), expenseID, classID)
	if err == database.ErrNotFound {
		flash.Error(c, "Expense not found.")
		return c.Redirect("/treasurer")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load expense")
	}

	if err := database.DeleteExpense(config.GetDB(), expenseID, classID); err != nil {
		if err == database.ErrNotFound {
			flash.Error(c, "Expense not found.")
			return c.Redirect("/treasurer")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete expense")
	}

	flash.Success(c, "Expense \""+expense.Title+"\" deleted.")
	return c.Redirect("/treasurer")
}
