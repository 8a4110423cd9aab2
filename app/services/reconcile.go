package services

import (
	"sort"
	"time"

	"classfund/app/models"

	"github.com/shopspring/decimal"
)

// Reconciliation is pure set arithmetic over rows already loaded for one
// class: it classifies every (student, payment request) pair as confirmed,
// pending, or missing, and derives the per-request and per-student totals
// shown on the treasurer dashboard. No function here touches the database.

type pair struct {
	studentID string
	requestID string
}

// PairIndex buckets a class's transactions by (student, request) pair and
// by student, so the dashboard builders run in a single pass.
type PairIndex struct {
	confirmed    map[pair]*models.Transaction
	pending      map[pair]*models.Transaction
	confirmedIDs map[string]map[string]bool // studentID -> set of requestIDs
	pendingIDs   map[string]map[string]bool
	paidTotal    map[string]decimal.Decimal
}

// IndexTransactions builds a PairIndex from a flat transaction list.
// Rejected transactions are ignored for reconciliation purposes.
func IndexTransactions(txs []*models.Transaction) *PairIndex {
	idx := &PairIndex{
		confirmed:    make(map[pair]*models.Transaction),
		pending:      make(map[pair]*models.Transaction),
		confirmedIDs: make(map[string]map[string]bool),
		pendingIDs:   make(map[string]map[string]bool),
		paidTotal:    make(map[string]decimal.Decimal),
	}
	for _, t := range txs {
		p := pair{t.StudentID, t.PaymentRequestID}
		switch t.Status {
		case models.TransactionConfirmed:
			idx.confirmed[p] = t
			if idx.confirmedIDs[t.StudentID] == nil {
				idx.confirmedIDs[t.StudentID] = make(map[string]bool)
			}
			idx.confirmedIDs[t.StudentID][t.PaymentRequestID] = true
			idx.paidTotal[t.StudentID] = idx.paidTotal[t.StudentID].Add(t.Amount)
		case models.TransactionPending:
			idx.pending[p] = t
			if idx.pendingIDs[t.StudentID] == nil {
				idx.pendingIDs[t.StudentID] = make(map[string]bool)
			}
			idx.pendingIDs[t.StudentID][t.PaymentRequestID] = true
		}
	}
	// A confirmed pair settles the debt; a leftover pending claim for the
	// same pair must not count the student as owing again.
	for p := range idx.pending {
		if _, ok := idx.confirmed[p]; ok {
			delete(idx.pending, p)
			if set := idx.pendingIDs[p.studentID]; set != nil {
				delete(set, p.requestID)
			}
		}
	}
	return idx
}

// HasConfirmed reports whether a confirmed transaction exists for the
// (student, request) pair.
func (idx *PairIndex) HasConfirmed(studentID, requestID string) bool {
	_, ok := idx.confirmed[pair{studentID, requestID}]
	return ok
}

// HasPending reports whether a pending claim exists for the pair.
func (idx *PairIndex) HasPending(studentID, requestID string) bool {
	_, ok := idx.pending[pair{studentID, requestID}]
	return ok
}

// PendingTx returns the pending transaction for the pair, or nil.
func (idx *PairIndex) PendingTx(studentID, requestID string) *models.Transaction {
	return idx.pending[pair{studentID, requestID}]
}

// AssignedStudents expands a request's audience against the active class
// roster: every active student when AssignToAll is set, otherwise the
// explicit assignees filtered through the roster. Stale assignee entries
// for students no longer enrolled simply drop out.
func AssignedStudents(pr *models.PaymentRequest, roster []*models.StudentProfile) []*models.StudentProfile {
	if pr.AssignToAll {
		return roster
	}
	assigned := make(map[string]bool, len(pr.AssigneeIDs))
	for _, id := range pr.AssigneeIDs {
		assigned[id] = true
	}
	var out []*models.StudentProfile
	for _, sp := range roster {
		if assigned[sp.ID] {
			out = append(out, sp)
		}
	}
	return out
}

// RequestStats is the per-request progress summary.
type RequestStats struct {
	Request        *models.PaymentRequest
	ConfirmedCount int
	PendingCount   int
	ExpectedCount  int
	MissingCount   int
	Collected      decimal.Decimal
	ExpectedTotal  decimal.Decimal
	IsOverdue      bool
}

// BuildRequestStats computes progress counts for every request.
// ConfirmedCount + PendingCount + MissingCount always equals ExpectedCount
// for transactions belonging to enrolled students; strays from unenrolled
// students are clamped out of MissingCount.
func BuildRequestStats(requests []*models.PaymentRequest, roster []*models.StudentProfile,
	idx *PairIndex, today time.Time) []*RequestStats {

	stats := make([]*RequestStats, 0, len(requests))
	for _, pr := range requests {
		s := &RequestStats{Request: pr, Collected: decimal.Zero}
		for p, t := range idx.confirmed {
			if p.requestID == pr.ID {
				s.ConfirmedCount++
				s.Collected = s.Collected.Add(t.Amount)
			}
		}
		for p := range idx.pending {
			if p.requestID == pr.ID {
				s.PendingCount++
			}
		}
		s.ExpectedCount = len(AssignedStudents(pr, roster))
		s.MissingCount = s.ExpectedCount - s.ConfirmedCount - s.PendingCount
		if s.MissingCount < 0 {
			s.MissingCount = 0
		}
		s.ExpectedTotal = pr.Amount.Mul(decimal.NewFromInt(int64(s.ExpectedCount)))
		s.IsOverdue = pr.IsOverdue(today)
		stats = append(stats, s)
	}
	return stats
}

// StudentRow is the per-student summary on the treasurer dashboard.
type StudentRow struct {
	Student      *models.StudentProfile
	PaidCount    int
	PendingCount int
	MissingCount int
	PaidTotal    decimal.Decimal
	OwedTotal    decimal.Decimal
}

// BuildStudentRows computes, for each active student, how many of their
// assigned requests are paid/pending/missing and the money totals. The
// owed total covers both missing and pending requests (pending money has
// not been confirmed as received yet).
func BuildStudentRows(requests []*models.PaymentRequest, roster []*models.StudentProfile,
	idx *PairIndex) []*StudentRow {

	amounts := make(map[string]decimal.Decimal, len(requests))
	assignedTo := make(map[string][]string) // studentID -> assigned requestIDs
	for _, pr := range requests {
		amounts[pr.ID] = pr.Amount
		for _, sp := range AssignedStudents(pr, roster) {
			assignedTo[sp.ID] = append(assignedTo[sp.ID], pr.ID)
		}
	}

	rows := make([]*StudentRow, 0, len(roster))
	for _, sp := range roster {
		row := &StudentRow{
			Student:   sp,
			PaidTotal: idx.paidTotal[sp.ID],
			OwedTotal: decimal.Zero,
		}
		confirmed := idx.confirmedIDs[sp.ID]
		pending := idx.pendingIDs[sp.ID]
		for _, reqID := range assignedTo[sp.ID] {
			switch {
			case confirmed[reqID]:
				row.PaidCount++
			case pending[reqID]:
				row.PendingCount++
				row.OwedTotal = row.OwedTotal.Add(amounts[reqID])
			default:
				row.MissingCount++
				row.OwedTotal = row.OwedTotal.Add(amounts[reqID])
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// PendingItem is one (student, request) pair on the treasurer's pending
// tab: either a submitted claim awaiting confirmation, or a missing
// payment with no transaction at all.
type PendingItem struct {
	Student *models.StudentProfile
	Request *models.PaymentRequest
	Tx      *models.Transaction // nil for missing items
}

// BuildPendingItems classifies every (request, assigned student) pair that
// has no confirmed transaction into submitted (a pending claim exists) and
// missing (nothing recorded).
func BuildPendingItems(requests []*models.PaymentRequest, roster []*models.StudentProfile,
	idx *PairIndex) (submitted, missing []*PendingItem) {

	for _, pr := range requests {
		for _, sp := range AssignedStudents(pr, roster) {
			p := pair{sp.ID, pr.ID}
			if _, ok := idx.confirmed[p]; ok {
				continue
			}
			if t, ok := idx.pending[p]; ok {
				submitted = append(submitted, &PendingItem{Student: sp, Request: pr, Tx: t})
			} else {
				missing = append(missing, &PendingItem{Student: sp, Request: pr})
			}
		}
	}
	return submitted, missing
}

// StudentSnapshot is the read-only view a parent sees on their dashboard,
// covering all of their children in the class.
type StudentSnapshot struct {
	Assigned   []*PendingItem // every (child, request) pair assigned
	Unpaid     []*PendingItem // no transaction yet, due date asc, nulls last
	Awaiting   []*PendingItem // pending claim awaiting the treasurer
	History    []*models.Transaction
	TotalOwed  decimal.Decimal
	TotalPaid  decimal.Decimal
	Today      time.Time
	OverdueIDs map[string]bool // request ids past due as of Today
}

// BuildStudentSnapshot computes the parent-facing payment summary for the
// given children. Unpaid pairs are ordered by due date ascending with null
// due dates last; TotalOwed excludes only confirmed pairs, so money stuck
// in pending claims still counts as owed.
func BuildStudentSnapshot(requests []*models.PaymentRequest, children []*models.StudentProfile,
	txs []*models.Transaction, today time.Time) *StudentSnapshot {

	idx := IndexTransactions(txs)
	snap := &StudentSnapshot{
		TotalOwed:  decimal.Zero,
		TotalPaid:  decimal.Zero,
		Today:      today,
		OverdueIDs: make(map[string]bool),
	}

	for _, pr := range requests {
		if pr.IsOverdue(today) {
			snap.OverdueIDs[pr.ID] = true
		}
		for _, sp := range AssignedStudents(pr, children) {
			p := pair{sp.ID, pr.ID}
			item := &PendingItem{Student: sp, Request: pr}
			snap.Assigned = append(snap.Assigned, item)
			if _, ok := idx.confirmed[p]; ok {
				continue
			}
			snap.TotalOwed = snap.TotalOwed.Add(pr.Amount)
			if t, ok := idx.pending[p]; ok {
				snap.Awaiting = append(snap.Awaiting, &PendingItem{Student: sp, Request: pr, Tx: t})
			} else {
				snap.Unpaid = append(snap.Unpaid, item)
			}
		}
	}

	sort.SliceStable(snap.Unpaid, func(i, j int) bool {
		di, dj := snap.Unpaid[i].Request.DueDate, snap.Unpaid[j].Request.DueDate
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})

	for _, t := range txs {
		if t.Status == models.TransactionConfirmed {
			snap.TotalPaid = snap.TotalPaid.Add(t.Amount)
		}
	}
	// History arrives newest first from the query layer; keep as-is.
	snap.History = txs

	return snap
}

// FundBalance returns collected − spent. Kept as a function so both the
// page middleware and tests share one definition.
func FundBalance(collected, spent decimal.Decimal) decimal.Decimal {
	return collected.Sub(spent)
}
