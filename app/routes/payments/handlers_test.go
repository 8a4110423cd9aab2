package payments

import (
	"testing"
	"time"

	"classfund/app/models"
	"classfund/app/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expense(title string, amount int64, category models.ExpenseCategory, spentAt time.Time) *models.Expense {
	return &models.Expense{
		Title:    title,
		Amount:   decimal.NewFromInt(amount),
		Category: category,
		SpentAt:  spentAt,
	}
}

func TestGroupExpensesByMonth(t *testing.T) {
	// Newest first, the order the query layer returns.
	expenses := []*models.Expense{
		expense("Theatre tickets", 1200, models.ExpenseTrip, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)),
		expense("Paint", 300, models.ExpenseSupplies, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
		expense("Christmas party", 800, models.ExpenseFood, time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)),
	}

	groups := GroupExpensesByMonth(expenses)
	require.Len(t, groups, 2)

	assert.Equal(t, 2026, groups[0].Year)
	assert.Equal(t, time.March, groups[0].Month)
	assert.Len(t, groups[0].Items, 2)
	assert.True(t, groups[0].Subtotal.Equal(decimal.NewFromInt(1500)))

	assert.Equal(t, 2025, groups[1].Year)
	assert.Equal(t, time.December, groups[1].Month)
	assert.True(t, groups[1].Subtotal.Equal(decimal.NewFromInt(800)))
}

func TestGroupExpensesByMonthEmpty(t *testing.T) {
	assert.Empty(t, GroupExpensesByMonth(nil))
}

func TestBuildCategoryTotals(t *testing.T) {
	expenses := []*models.Expense{
		expense("Bus", 600, models.ExpenseTrip, time.Now()),
		expense("Tickets", 400, models.ExpenseTrip, time.Now()),
		expense("Paint", 250, models.ExpenseSupplies, time.Now()),
		expense("Cake", 150, models.ExpenseFood, time.Now()),
	}

	totals, total := BuildCategoryTotals(expenses)
	require.Len(t, totals, 3)
	assert.True(t, total.Equal(decimal.NewFromInt(1400)))

	// Largest share first.
	assert.Equal(t, models.ExpenseTrip, totals[0].Category)
	assert.True(t, totals[0].Total.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 71, totals[0].Pct)

	assert.Equal(t, models.ExpenseSupplies, totals[1].Category)
	assert.Equal(t, 18, totals[1].Pct)

	assert.Equal(t, models.ExpenseFood, totals[2].Category)
	assert.Equal(t, 11, totals[2].Pct)
}

func TestBuildCategoryTotalsEmpty(t *testing.T) {
	totals, total := BuildCategoryTotals(nil)
	assert.Empty(t, totals)
	assert.True(t, total.IsZero())
}

func TestAttachQR(t *testing.T) {
	amount := decimal.NewFromInt(500)
	items := []*services.PendingItem{
		{
			Student: &models.StudentProfile{ID: "s1", ChildName: "Alice"},
			Request: &models.PaymentRequest{ID: "r1", Title: "Trip", Amount: amount, VariableSymbol: "42"},
		},
	}

	// No account configured: the item survives without a QR image.
	out := attachQR(items, nil)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].QRBase64)

	account := &models.BankAccount{OwnerName: "Jana Novak", AccountNumber: "123456/0100"}
	out = attachQR(items, account)
	require.Len(t, out, 1)
	assert.NotEmpty(t, out[0].QRBase64)
}
