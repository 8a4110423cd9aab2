package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserFullName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"both names", User{FirstName: "Jana", LastName: "Novak", Email: "j@example.com"}, "Jana Novak"},
		{"first only", User{FirstName: "Jana", Email: "j@example.com"}, "Jana"},
		{"last only", User{LastName: "Novak", Email: "j@example.com"}, "Novak"},
		{"falls back to email", User{Email: "j@example.com"}, "j@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.FullName())
		})
	}
}

func TestUserIsTreasurer(t *testing.T) {
	assert.True(t, (&User{Role: RoleTreasurer}).IsTreasurer())
	assert.False(t, (&User{Role: RoleParent}).IsTreasurer())
}

func TestBankAccountPaymentID(t *testing.T) {
	withIBAN := &BankAccount{AccountNumber: "123456/0100", IBAN: "CZ6508000000192000145399"}
	assert.Equal(t, "CZ6508000000192000145399", withIBAN.PaymentID())

	withoutIBAN := &BankAccount{AccountNumber: "123456/0100"}
	assert.Equal(t, "123456/0100", withoutIBAN.PaymentID())
}

func TestExpenseCategoryLabels(t *testing.T) {
	// Every declared category has a display label.
	for _, cat := range []ExpenseCategory{
		ExpenseTrip, ExpenseSupplies, ExpenseFood,
		ExpenseDecoration, ExpenseDonation, ExpenseOther,
	} {
		assert.NotEmpty(t, ExpenseCategoryLabels[cat], string(cat))
	}
}
