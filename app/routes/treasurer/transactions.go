package treasurer

import (
	"encoding/json"
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

// requestOption is one entry of the per-student request dropdown.
type requestOption struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Amount string `json:"amount"`
}

func requestOptions(requests []*models.PaymentRequest) []requestOption {
	opts := make([]requestOption, 0, len(requests))
	for _, pr := range requests {
		opts = append(opts, requestOption{
			ID:     pr.ID,
			Title:  pr.Title + " – " + pr.Amount.StringFixed(2) + " CZK",
			Amount: pr.Amount.StringFixed(2),
		})
	}
	return opts
}

// ShowLogTransactionPage renders the log-transfer form, optionally
// prefilled from the /:pr_id/:student_id variant or a ?student= query.
// The per-student unconfirmed requests are embedded as JSON so the form
// can filter the request dropdown client-side.
func ShowLogTransactionPage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	db := config.GetDB()
	classID := auth.ClassID(c)

	data, err := loadClassData(db, classID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load class data")
	}

	requestsByStudent := make(map[string][]requestOption, len(data.roster))
	for _, sp := range data.roster {
		requestsByStudent[sp.ID] = requestOptions(data.unconfirmedRequestsForStudent(sp))
	}
	requestsJSON, err := json.Marshal(requestsByStudent)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to encode request data")
	}

	prefill := fiber.Map{}
	studentID := c.Params("student_id", c.Query("student"))
	requestID := c.Params("pr_id")

	var pendingTx *models.Transaction
	if sp := data.findStudent(studentID); sp != nil {
		prefill["StudentID"] = sp.ID
		if pr := data.findRequest(requestID); pr != nil {
			prefill["RequestID"] = pr.ID
			prefill["Amount"] = pr.Amount.StringFixed(2)
			pendingTx = data.idx.PendingTx(sp.ID, pr.ID)
			if pendingTx != nil {
				prefill["Amount"] = pendingTx.Amount.StringFixed(2)
				prefill["Note"] = pendingTx.Note
			}
		}
	}

	return c.Render("treasurer/log_transaction", fiber.Map{
		"Title":             "Log Bank Transfer - Class Fund Manager",
		"CurrentPage":       "treasurer",
		"Messages":          flash.Pop(c),
		"user":              user,
		"Class":             auth.CurrentClass(c),
		"Students":          data.roster,
		"RequestsByStudent": string(requestsJSON),
		"Prefill":           prefill,
		"PendingTx":         pendingTx,
	})
}

// TransactionForm carries the log-transfer form fields.
type TransactionForm struct {
	StudentID string `form:"student" validate:"required,uuid"`
	RequestID string `form:"payment_request" validate:"required,uuid"`
	Amount    string `form:"amount" validate:"required"`
	Status    string `form:"status" validate:"required,oneof=pending confirmed rejected"`
	Note      string `form:"note"`
	PaidAt    string `form:"paid_at"`
}

// LogTransactionHandler records a transfer for a (student, request) pair.
// The student must be enrolled in the treasurer's class and assigned to
// the request; a pair that is already confirmed is rejected.
func LogTransactionHandler(c *fiber.Ctx) error {
	db := config.GetDB()
	classID := auth.ClassID(c)

	var form TransactionForm
	if err := c.BodyParser(&form); err != nil {
		flash.Error(c, "Invalid form submission.")
		return c.Redirect("/treasurer/transactions/log")
	}
	if err := validate.Struct(&form); err != nil {
		flash.Error(c, "Please fix the errors below.")
		return c.Redirect("/treasurer/transactions/log")
	}
	amount, err := decimal.NewFromString(form.Amount)
	if err != nil || amount.IsNegative() || amount.IsZero() {
		flash.Error(c, "Amount must be a positive number.")
		return c.Redirect("/treasurer/transactions/log")
	}

	data, err := loadClassData(db, classID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load class data")
	}

	// Ownership checks before writing: both the student and the request
	// must belong to this class, and the student must be assigned.
	student := data.findStudent(form.StudentID)
	request := data.findRequest(form.RequestID)
	if student == nil || request == nil {
		flash.Error(c, "Access denied: that student or request is not in your class.")
		return c.Redirect("/treasurer")
	}
	assigned := false
	for _, sp := range services.AssignedStudents(request, data.roster) {
		if sp.ID == student.ID {
			assigned = true
			break
		}
	}
	if !assigned {
		flash.Error(c, student.ChildName+" is not assigned to \""+request.Title+"\".")
		return c.Redirect("/treasurer/transactions/log")
	}

	t := &models.Transaction{
		PaymentRequestID: request.ID,
		SchoolClassID:    classID,
		StudentID:        student.ID,
		Amount:           amount,
		Status:           models.TransactionStatus(form.Status),
		Note:             form.Note,
	}
	if form.PaidAt != "" {
		if paidAt, err := time.Parse("2006-01-02", form.PaidAt); err == nil {
			t.PaidAt = &paidAt
		}
	}

	if err := database.LogTransaction(db, t); err != nil {
		if err == database.ErrAlreadyConfirmed {
			flash.Error(c, "A confirmed payment already exists for "+student.ChildName+" and \""+request.Title+"\".")
			return c.Redirect("/treasurer/transactions/log")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to log transaction")
	}

	if t.Status == models.TransactionConfirmed {
		sendReceiptAsync(student, request, t)
	}

	flash.Success(c, "Transfer logged: "+student.ChildName+" / \""+request.Title+"\" ("+amount.StringFixed(2)+" CZK, "+form.Status+").")
	return c.Redirect("/treasurer")
}

// ConfirmPendingHandler promotes a pending transaction to confirmed.
// Accepts either tx_id or the (student_id, pr_id) pair. POST only.
func ConfirmPendingHandler(c *fiber.Ctx) error {
	db := config.GetDB()
	classID := auth.ClassID(c)

	var tx *models.Transaction
	if txID := c.FormValue("tx_id"); txID != "" {
		t, err := database.GetPendingTransactionByID(db, txID, classID)
		if err == nil {
			tx = t
		} else if err != database.ErrNotFound {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load transaction")
		}
	}
	if tx == nil {
		studentID := c.FormValue("student_id")
		requestID := c.FormValue("pr_id")
		if studentID != "" && requestID != "" {
			t, err := database.FindPendingTransaction(db, classID, studentID, requestID)
			if err == nil {
				tx = t
			} else if err != database.ErrNotFound {
				return fiber.NewError(fiber.StatusInternalServerError, "Failed to load transaction")
			}
		}
	}
	if tx == nil {
		flash.Error(c, "Pending transaction not found.")
		return c.Redirect("/treasurer")
	}

	if err := database.ConfirmPendingTransaction(db, tx.ID, classID); err != nil {
		if err == database.ErrNotFound {
			// Lost a race with another confirm; the pair is settled either way.
			flash.Error(c, "Pending transaction not found.")
			return c.Redirect("/treasurer")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to confirm transaction")
	}

	if student, err := database.GetStudentProfile(db, tx.StudentID); err == nil {
		if request, err := database.GetPaymentRequest(db, tx.PaymentRequestID, classID); err == nil {
			sendReceiptAsync(student, request, tx)
		}
	}

	flash.Success(c, "Confirmed payment for "+tx.StudentName+" / \""+tx.RequestTitle+"\".")
	return c.Redirect("/treasurer")
}

// sendReceiptAsync emails a payment receipt to the student's parent in
// the background. Best effort; the outcome lands in the notification log.
func sendReceiptAsync(student *models.StudentProfile, request *models.PaymentRequest, t *models.Transaction) {
	db := config.GetDB()
	receipt := &models.Transaction{
		PaymentRequestID: request.ID,
		StudentID:        student.ID,
		Amount:           t.Amount,
		RequestTitle:     request.Title,
		StudentName:      student.ChildName,
	}
	if student.ParentID == nil {
		return
	}
	parentID := *student.ParentID
	go func() {
		parent, err := database.GetUserByID(db, parentID)
		if err != nil {
			return
		}
		services.SendReceipt(db, parent, receipt)
	}()
}

// StudentRequestsJSON returns the unconfirmed requests for one student as
// [{id, title, amount}]. Students outside the treasurer's class yield an
// empty list, not an error.
func StudentRequestsJSON(c *fiber.Ctx) error {
	db := config.GetDB()
	classID := auth.ClassID(c)

	data, err := loadClassData(db, classID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load class data"})
	}
	sp := data.findStudent(c.Params("student_id"))
	if sp == nil {
		return c.JSON([]requestOption{})
	}
	return c.JSON(requestOptions(data.unconfirmedRequestsForStudent(sp)))
}
