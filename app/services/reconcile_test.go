package services

import (
	"testing"
	"time"

	"classfund/app/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func student(id, name string) *models.StudentProfile {
	return &models.StudentProfile{ID: id, ChildName: name, IsActive: true}
}

func request(id, title string, amount int64, due *time.Time, assignToAll bool, assignees ...string) *models.PaymentRequest {
	return &models.PaymentRequest{
		ID:          id,
		Title:       title,
		Amount:      decimal.NewFromInt(amount),
		DueDate:     due,
		AssignToAll: assignToAll,
		AssigneeIDs: assignees,
	}
}

func tx(studentID, requestID string, amount int64, status models.TransactionStatus) *models.Transaction {
	return &models.Transaction{
		ID:               studentID + "-" + requestID,
		StudentID:        studentID,
		PaymentRequestID: requestID,
		Amount:           decimal.NewFromInt(amount),
		Status:           status,
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildRequestStats(t *testing.T) {
	today := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	roster := []*models.StudentProfile{
		student("s1", "Alice"),
		student("s2", "Bob"),
		student("s3", "Cyril"),
	}
	trip := request("r1", "Trip", 500, date(2026, 3, 1), true)

	idx := IndexTransactions([]*models.Transaction{
		tx("s1", "r1", 500, models.TransactionConfirmed),
		tx("s2", "r1", 500, models.TransactionPending),
	})

	stats := BuildRequestStats([]*models.PaymentRequest{trip}, roster, idx, today)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, 1, s.ConfirmedCount)
	assert.Equal(t, 1, s.PendingCount)
	assert.Equal(t, 1, s.MissingCount)
	assert.Equal(t, 3, s.ExpectedCount)
	assert.True(t, s.Collected.Equal(decimal.NewFromInt(500)), "collected %s", s.Collected)
	assert.True(t, s.ExpectedTotal.Equal(decimal.NewFromInt(1500)), "expected total %s", s.ExpectedTotal)
	assert.True(t, s.IsOverdue)
}

func TestBuildRequestStatsCountInvariant(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	roster := []*models.StudentProfile{
		student("s1", "Alice"),
		student("s2", "Bob"),
		student("s3", "Cyril"),
		student("s4", "Dana"),
	}
	requests := []*models.PaymentRequest{
		request("r1", "Trip", 500, nil, true),
		request("r2", "Supplies", 300, nil, false, "s1", "s3"),
		request("r3", "Theatre", 250, date(2026, 4, 1), false, "s2"),
	}
	idx := IndexTransactions([]*models.Transaction{
		tx("s1", "r1", 500, models.TransactionConfirmed),
		tx("s2", "r1", 500, models.TransactionPending),
		tx("s3", "r1", 500, models.TransactionRejected), // ignored
		tx("s1", "r2", 300, models.TransactionPending),
		tx("s3", "r2", 300, models.TransactionConfirmed),
	})

	for _, s := range BuildRequestStats(requests, roster, idx, today) {
		assert.Equal(t, s.ExpectedCount, s.ConfirmedCount+s.PendingCount+s.MissingCount,
			"request %s", s.Request.Title)
	}
}

func TestBuildRequestStatsClampsStrayTransactions(t *testing.T) {
	// A confirmed transaction from a student who left the class must not
	// drive MissingCount negative.
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	roster := []*models.StudentProfile{student("s1", "Alice")}
	trip := request("r1", "Trip", 500, nil, true)
	idx := IndexTransactions([]*models.Transaction{
		tx("s1", "r1", 500, models.TransactionConfirmed),
		tx("gone", "r1", 500, models.TransactionConfirmed),
	})

	stats := BuildRequestStats([]*models.PaymentRequest{trip}, roster, idx, today)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].ConfirmedCount)
	assert.Equal(t, 1, stats[0].ExpectedCount)
	assert.Equal(t, 0, stats[0].MissingCount)
}

func TestIndexTransactionsConfirmedSettlesStalePending(t *testing.T) {
	// A pair with both a confirmed row and a leftover pending claim counts
	// as paid, not pending.
	idx := IndexTransactions([]*models.Transaction{
		tx("s1", "r1", 500, models.TransactionPending),
		tx("s1", "r1", 500, models.TransactionConfirmed),
	})

	assert.True(t, idx.HasConfirmed("s1", "r1"))
	assert.False(t, idx.HasPending("s1", "r1"))
	assert.Nil(t, idx.PendingTx("s1", "r1"))

	roster := []*models.StudentProfile{student("s1", "Alice")}
	trip := request("r1", "Trip", 500, nil, true)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	stats := BuildRequestStats([]*models.PaymentRequest{trip}, roster, idx, today)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].ConfirmedCount)
	assert.Equal(t, 0, stats[0].PendingCount)
	assert.Equal(t, 0, stats[0].MissingCount)

	rows := BuildStudentRows([]*models.PaymentRequest{trip}, roster, idx)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].PaidCount)
	assert.Equal(t, 0, rows[0].PendingCount)
	assert.True(t, rows[0].OwedTotal.IsZero())
}

func TestAssignedStudents(t *testing.T) {
	roster := []*models.StudentProfile{
		student("s1", "Alice"),
		student("s2", "Bob"),
	}

	all := request("r1", "Trip", 500, nil, true, "ignored")
	assert.Len(t, AssignedStudents(all, roster), 2)

	some := request("r2", "Supplies", 300, nil, false, "s2", "left-the-class")
	got := AssignedStudents(some, roster)
	require.Len(t, got, 1)
	assert.Equal(t, "s2", got[0].ID)
}

func TestBuildStudentRows(t *testing.T) {
	roster := []*models.StudentProfile{
		student("s1", "Alice"),
		student("s2", "Bob"),
		student("s3", "Cyril"),
	}
	requests := []*models.PaymentRequest{
		request("r1", "Trip", 500, nil, true),
	}
	idx := IndexTransactions([]*models.Transaction{
		tx("s1", "r1", 500, models.TransactionConfirmed),
		tx("s2", "r1", 500, models.TransactionPending),
	})

	rows := BuildStudentRows(requests, roster, idx)
	require.Len(t, rows, 3)

	alice, bob, cyril := rows[0], rows[1], rows[2]

	assert.Equal(t, 1, alice.PaidCount)
	assert.True(t, alice.PaidTotal.Equal(decimal.NewFromInt(500)))
	assert.True(t, alice.OwedTotal.IsZero())

	// Pending money is not confirmed received, so Bob still owes it.
	assert.Equal(t, 1, bob.PendingCount)
	assert.True(t, bob.OwedTotal.Equal(decimal.NewFromInt(500)))

	assert.Equal(t, 1, cyril.MissingCount)
	assert.True(t, cyril.PaidTotal.IsZero())
	assert.True(t, cyril.OwedTotal.Equal(decimal.NewFromInt(500)))
}

func TestBuildPendingItems(t *testing.T) {
	roster := []*models.StudentProfile{
		student("s1", "Alice"),
		student("s2", "Bob"),
		student("s3", "Cyril"),
	}
	requests := []*models.PaymentRequest{
		request("r1", "Trip", 500, nil, true),
	}
	idx := IndexTransactions([]*models.Transaction{
		tx("s1", "r1", 500, models.TransactionConfirmed),
		tx("s2", "r1", 500, models.TransactionPending),
	})

	submitted, missing := BuildPendingItems(requests, roster, idx)

	require.Len(t, submitted, 1)
	assert.Equal(t, "s2", submitted[0].Student.ID)
	require.NotNil(t, submitted[0].Tx)

	require.Len(t, missing, 1)
	assert.Equal(t, "s3", missing[0].Student.ID)
	assert.Nil(t, missing[0].Tx)
}

func TestBuildStudentSnapshot(t *testing.T) {
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	child := student("s1", "Alice")
	children := []*models.StudentProfile{child}

	requests := []*models.PaymentRequest{
		request("r1", "Trip", 500, date(2026, 3, 1), true),      // overdue, unpaid
		request("r2", "Supplies", 300, nil, true),               // no due date, unpaid
		request("r3", "Theatre", 250, date(2026, 2, 20), true),  // overdue, confirmed
		request("r4", "Museum", 150, date(2026, 2, 25), true),   // overdue, pending claim
		request("r5", "Snacks", 100, date(2026, 12, 24), true),  // future, unpaid
	}
	txs := []*models.Transaction{
		tx("s1", "r3", 250, models.TransactionConfirmed),
		tx("s1", "r4", 150, models.TransactionPending),
	}

	snap := BuildStudentSnapshot(requests, children, txs, today)

	assert.Len(t, snap.Assigned, 5)
	require.Len(t, snap.Awaiting, 1)
	assert.Equal(t, "r4", snap.Awaiting[0].Request.ID)

	// Due date ascending, nil due dates last.
	require.Len(t, snap.Unpaid, 3)
	assert.Equal(t, "r1", snap.Unpaid[0].Request.ID)
	assert.Equal(t, "r5", snap.Unpaid[1].Request.ID)
	assert.Equal(t, "r2", snap.Unpaid[2].Request.ID)

	// Owed = everything not confirmed: 500 + 300 + 150 + 100.
	assert.True(t, snap.TotalOwed.Equal(decimal.NewFromInt(1050)), "owed %s", snap.TotalOwed)
	assert.True(t, snap.TotalPaid.Equal(decimal.NewFromInt(250)), "paid %s", snap.TotalPaid)

	assert.True(t, snap.OverdueIDs["r1"])
	assert.True(t, snap.OverdueIDs["r3"])
	assert.True(t, snap.OverdueIDs["r4"])
	assert.False(t, snap.OverdueIDs["r2"])
	assert.False(t, snap.OverdueIDs["r5"])
}

func TestIsOverdue(t *testing.T) {
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  *time.Time
		want bool
	}{
		{"no due date", nil, false},
		{"due yesterday", date(2026, 3, 9), true},
		{"due today", date(2026, 3, 10), false},
		{"due tomorrow", date(2026, 3, 11), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := request("r", "Trip", 500, tt.due, true)
			assert.Equal(t, tt.want, pr.IsOverdue(today))
		})
	}
}

func TestFundBalance(t *testing.T) {
	collected := decimal.NewFromInt(1200)
	spent := decimal.NewFromInt(450)
	assert.True(t, FundBalance(collected, spent).Equal(decimal.NewFromInt(750)))

	// Overspending is allowed to show as a negative balance.
	assert.True(t, FundBalance(spent, collected).IsNegative())
}
