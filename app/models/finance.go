package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount holds the class bank account details shown to students on
// the payment-info page. One account per class; only an active account is
// ever shown.
type BankAccount struct {
	ID            string    `json:"id"`
	SchoolClassID string    `json:"school_class_id"`
	OwnerName     string    `json:"owner_name" validate:"required"`
	AccountNumber string    `json:"account_number" validate:"required"`
	IBAN          string    `json:"iban,omitempty"`
	BankName      string    `json:"bank_name,omitempty"`
	Note          string    `json:"note,omitempty"`
	IsActive      bool      `json:"is_active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PaymentID returns the identifier used in SPAYD codes: the IBAN when
// present, otherwise the local account number.
func (a *BankAccount) PaymentID() string {
	if a.IBAN != "" {
		return a.IBAN
	}
	return a.AccountNumber
}

// PaymentRequest asks students to pay a specific amount. It targets either
// every active student in its class (AssignToAll) or an explicit subset.
type PaymentRequest struct {
	ID             string          `json:"id"`
	SchoolClassID  string          `json:"school_class_id"`
	Title          string          `json:"title" validate:"required,max=200"`
	Description    string          `json:"description,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	VariableSymbol string          `json:"variable_symbol,omitempty" validate:"omitempty,max=10,numeric"`
	SpecificSymbol string          `json:"specific_symbol,omitempty" validate:"omitempty,max=10,numeric"`
	AssignToAll    bool            `json:"assign_to_all"`
	CreatedBy      *string         `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`

	// Student profile ids explicitly assigned; only meaningful when
	// AssignToAll is false.
	AssigneeIDs []string `json:"assignee_ids,omitempty"`
}

// IsOverdue reports whether the request's due date has passed as of today.
// Requests without a due date are never overdue.
func (pr *PaymentRequest) IsOverdue(today time.Time) bool {
	if pr.DueDate == nil {
		return false
	}
	y, m, d := today.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	return pr.DueDate.Before(midnight)
}

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionConfirmed TransactionStatus = "confirmed"
	TransactionRejected  TransactionStatus = "rejected"
)

// Transaction records a single payment made (or claimed) by a student
// towards a PaymentRequest. Confirmation is an in-place state transition
// from pending to confirmed; the row is never deleted, preserving the
// audit trail.
type Transaction struct {
	ID               string            `json:"id"`
	PaymentRequestID string            `json:"payment_request_id"`
	SchoolClassID    string            `json:"school_class_id"`
	StudentID        string            `json:"student_id"`
	Amount           decimal.Decimal   `json:"amount"`
	Status           TransactionStatus `json:"status"`
	Note             string            `json:"note,omitempty"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	ConfirmedAt      *time.Time        `json:"confirmed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`

	// Joined for display.
	RequestTitle string `json:"request_title,omitempty"`
	StudentName  string `json:"student_name,omitempty"`
}

type ExpenseCategory string

const (
	ExpenseTrip       ExpenseCategory = "trip"
	ExpenseSupplies   ExpenseCategory = "supplies"
	ExpenseFood       ExpenseCategory = "food"
	ExpenseDecoration ExpenseCategory = "decoration"
	ExpenseDonation   ExpenseCategory = "donation"
	ExpenseOther      ExpenseCategory = "other"
)

// ExpenseCategoryLabels maps category values to display labels.
var ExpenseCategoryLabels = map[ExpenseCategory]string{
	ExpenseTrip:       "Trip / Excursion",
	ExpenseSupplies:   "Supplies",
	ExpenseFood:       "Food & Drinks",
	ExpenseDecoration: "Decoration",
	ExpenseDonation:   "Donation",
	ExpenseOther:      "Other",
}

// Expense is money spent from the class fund by the treasurer. Published
// expenses are visible to every student in the class.
type Expense struct {
	ID            string          `json:"id"`
	SchoolClassID string          `json:"school_class_id"`
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Category      ExpenseCategory `json:"category" validate:"required,oneof=trip supplies food decoration donation other"`
	SpentAt       time.Time       `json:"spent_at"`
	RecordedBy    *string         `json:"recorded_by,omitempty"`
	IsPublished   bool            `json:"is_published"`
	CreatedAt     time.Time       `json:"created_at"`
}
