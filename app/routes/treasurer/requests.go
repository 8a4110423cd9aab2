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

// PaymentRequestForm carries the create-request form fields.
type PaymentRequestForm struct {
	Title          string `form:"title" validate:"required,max=200"`
	Description    string `form:"description"`
	Amount         string `form:"amount" validate:"required"`
	DueDate        string `form:"due_date"`
	VariableSymbol string `form:"variable_symbol" validate:"omitempty,max=10,numeric"`
	SpecificSymbol string `form:"specific_symbol" validate:"omitempty,max=10,numeric"`
	AssignToAll    string `form:"assign_to_all"`
}

func ShowCreatePaymentRequestPage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	roster, err := database.GetClassStudents(config.GetDB(), auth.ClassID(c))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load students")
	}
	return c.Render("treasurer/create_payment_request", fiber.Map{
		"Title":       "New Payment Request - Class Fund Manager",
		"CurrentPage": "treasurer",
		"Messages":    flash.Pop(c),
		"user":        user,
		"Class":       auth.CurrentClass(c),
		"Students":    roster,
	})
}

// CreatePaymentRequestHandler validates the form and creates the request
// scoped to the treasurer's class. Explicitly assigned students outside
// the class are silently dropped; with assign-to-all the explicit list is
// ignored entirely.
func CreatePaymentRequestHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	class := auth.CurrentClass(c)
	if class == nil {
		flash.Error(c, "You have no class assigned yet.")
		return c.Redirect("/treasurer")
	}

	var form PaymentRequestForm
	if err := c.BodyParser(&form); err != nil {
		flash.Error(c, "Invalid form submission.")
		return c.Redirect("/treasurer/payment-requests/new")
	}
	if err := validate.Struct(&form); err != nil {
		flash.Error(c, "Please fix the errors below.")
		return c.Redirect("/treasurer/payment-requests/new")
	}
	amount, err := decimal.NewFromString(form.Amount)
	if err != nil || amount.IsNegative() || amount.IsZero() {
		flash.Error(c, "Amount must be a positive number.")
		return c.Redirect("/treasurer/payment-requests/new")
	}

	pr := &models.PaymentRequest{
		SchoolClassID:  class.ID,
		Title:          form.Title,
		Description:    form.Description,
		Amount:         amount,
		VariableSymbol: form.VariableSymbol,
		SpecificSymbol: form.SpecificSymbol,
		AssignToAll:    form.AssignToAll == "on" || form.AssignToAll == "true",
		CreatedBy:      &user.ID,
	}
	if form.DueDate != "" {
		due, err := time.Parse("2006-01-02", form.DueDate)
		if err != nil {
			flash.Error(c, "Due date must be in YYYY-MM-DD format.")
			return c.Redirect("/treasurer/payment-requests/new")
		}
		pr.DueDate = &due
	}

	if !pr.AssignToAll {
		roster, err := database.GetClassStudents(config.GetDB(), class.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load students")
		}
		inClass := make(map[string]bool, len(roster))
		for _, sp := range roster {
			inClass[sp.ID] = true
		}
		// Multi-value field; keep only students enrolled in this class.
		var picked struct {
			Assignees []string `form:"assignees"`
		}
		if err := c.BodyParser(&picked); err == nil {
			for _, id := range picked.Assignees {
				if inClass[id] {
					pr.AssigneeIDs = append(pr.AssigneeIDs, id)
				}
			}
		}
		if len(pr.AssigneeIDs) == 0 {
			flash.Error(c, "Select at least one student or assign to the whole class.")
			return c.Redirect("/treasurer/payment-requests/new")
		}
	}

	if err := database.CreatePaymentRequest(config.GetDB(), pr); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to create payment request")
	}

	flash.Success(c, "Payment request \""+pr.Title+"\" created successfully.")
	return c.Redirect("/treasurer")
}

// BankAccountForm carries the bank-account management form fields.
type BankAccountForm struct {
	OwnerName     string `form:"owner_name" validate:"required,max=200"`
	AccountNumber string `form:"account_number" validate:"required,max=50"`
	IBAN          string `form:"iban" validate:"omitempty,max=34"`
	BankName      string `form:"bank_name" validate:"omitempty,max=100"`
	Note          string `form:"note"`
	IsActive      string `form:"is_active"`
}

func ShowBankAccountPage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	account, err := database.GetClassBankAccount(config.GetDB(), auth.ClassID(c))
	if err != nil && err != database.ErrNotFound {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load bank account")
	}
	return c.Render("treasurer/bank_account", fiber.Map{
		"Title":       "Bank Account - Class Fund Manager",
		"CurrentPage": "treasurer",
		"Messages":    flash.Pop(c),
		"user":        user,
		"Class":       auth.CurrentClass(c),
		"Account":     account,
	})
}

// SaveBankAccountHandler creates or updates the single bank account of
// the treasurer's class.
func SaveBankAccountHandler(c *fiber.Ctx) error {
	class := auth.CurrentClass(c)
	if class == nil {
		flash.Error(c, "You have no class assigned yet.")
		return c.Redirect("/treasurer")
	}

	var form BankAccountForm
	if err := c.BodyParser(&form); err != nil {
		flash.Error(c, "Invalid form submission.")
		return c.Redirect("/treasurer/bank-account")
	}
	if err := validate.Struct(&form); err != nil {
		flash.Error(c, "Please fix the errors below.")
		return c.Redirect("/treasurer/bank-account")
	}

	account := &models.BankAccount{
		SchoolClassID: class.ID,
		OwnerName:     form.OwnerName,
		AccountNumber: form.AccountNumber,
		IBAN:          form.IBAN,
		BankName:      form.BankName,
		Note:          form.Note,
		IsActive:      form.IsActive == "on" || form.IsActive == "true" || form.IsActive == "",
	}
	if err := database.UpsertBankAccount(config.GetDB(), account); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to save bank account")
	}

	flash.Success(c, "Bank account saved.")
	return c.Redirect("/treasurer/bank-account")
}
