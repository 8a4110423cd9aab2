package database

import (
	"database/sql"
	"time"

	"classfund/app/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Bank accounts

// GetClassBankAccount returns the active bank account for a class, or
// ErrNotFound. Callers must treat a missing account as non-fatal (pages
// render without payment details or QR codes).
func GetClassBankAccount(db *sql.DB, classID string) (*models.BankAccount, error) {
	if classID == "" {
		return nil, ErrNotFound
	}
	acc := &models.BankAccount{}
	query := `SELECT id, school_class_id, owner_name, account_number, iban, bank_name, note, is_active, updated_at
			  FROM bank_accounts
			  WHERE school_class_id = $1 AND is_active = true
			  ORDER BY updated_at DESC LIMIT 1`
	err := db.QueryRow(query, classID).Scan(
		&acc.ID, &acc.SchoolClassID, &acc.OwnerName, &acc.AccountNumber,
		&acc.IBAN, &acc.BankName, &acc.Note, &acc.IsActive, &acc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// UpsertBankAccount creates or replaces the single bank account row for a
// class.
func UpsertBankAccount(db *sql.DB, acc *models.BankAccount) error {
	query := `INSERT INTO bank_accounts (school_class_id, owner_name, account_number, iban, bank_name, note, is_active, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			  ON CONFLICT (school_class_id) DO UPDATE SET
				  owner_name = EXCLUDED.owner_name,
				  account_number = EXCLUDED.account_number,
				  iban = EXCLUDED.iban,
				  bank_name = EXCLUDED.bank_name,
				  note = EXCLUDED.note,
				  is_active = EXCLUDED.is_active,
				  updated_at = NOW()
			  RETURNING id, updated_at`
	return db.QueryRow(query,
		acc.SchoolClassID, acc.OwnerName, acc.AccountNumber,
		acc.IBAN, acc.BankName, acc.Note, acc.IsActive,
	).Scan(&acc.ID, &acc.UpdatedAt)
}

// Payment requests

const paymentRequestColumns = `pr.id, pr.school_class_id, pr.title, pr.description, pr.amount,
	pr.due_date, pr.variable_symbol, pr.specific_symbol, pr.assign_to_all, pr.created_by, pr.created_at`

func scanPaymentRequest(row interface{ Scan(...any) error }) (*models.PaymentRequest, error) {
	pr := &models.PaymentRequest{}
	var classID sql.NullString
	err := row.Scan(
		&pr.ID, &classID, &pr.Title, &pr.Description, &pr.Amount,
		&pr.DueDate, &pr.VariableSymbol, &pr.SpecificSymbol,
		&pr.AssignToAll, &pr.CreatedBy, &pr.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	pr.SchoolClassID = classID.String
	return pr, nil
}

// GetClassPaymentRequests returns every payment request of a class, newest
// first, with explicit assignee ids preloaded.
func GetClassPaymentRequests(db *sql.DB, classID string) ([]*models.PaymentRequest, error) {
	if classID == "" {
		return nil, nil
	}
	query := `SELECT ` + paymentRequestColumns + `,
				COALESCE(array_agg(pra.student_profile_id) FILTER (WHERE pra.student_profile_id IS NOT NULL), '{}')
			  FROM payment_requests pr
			  LEFT JOIN payment_request_assignees pra ON pra.payment_request_id = pr.id
			  WHERE pr.school_class_id = $1
			  GROUP BY pr.id
			  ORDER BY pr.created_at DESC`
	rows, err := db.Query(query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.PaymentRequest
	for rows.Next() {
		pr := &models.PaymentRequest{}
		var classID sql.NullString
		var assignees pq.StringArray
		err := rows.Scan(
			&pr.ID, &classID, &pr.Title, &pr.Description, &pr.Amount,
			&pr.DueDate, &pr.VariableSymbol, &pr.SpecificSymbol,
			&pr.AssignToAll, &pr.CreatedBy, &pr.CreatedAt, &assignees,
		)
		if err != nil {
			return nil, err
		}
		pr.SchoolClassID = classID.String
		pr.AssigneeIDs = assignees
		requests = append(requests, pr)
	}
	return requests, rows.Err()
}

// GetPaymentRequest returns a single request scoped to a class.
func GetPaymentRequest(db *sql.DB, requestID, classID string) (*models.PaymentRequest, error) {
	query := `SELECT ` + paymentRequestColumns + `
			  FROM payment_requests pr
			  WHERE pr.id = $1 AND pr.school_class_id = $2`
	pr, err := scanPaymentRequest(db.QueryRow(query, requestID, classID))
	if err != nil {
		return nil, err
	}
	assignees, err := getRequestAssignees(db, pr.ID)
	if err != nil {
		return nil, err
	}
	pr.AssigneeIDs = assignees
	return pr, nil
}

func getRequestAssignees(db *sql.DB, requestID string) ([]string, error) {
	rows, err := db.Query(
		`SELECT student_profile_id FROM payment_request_assignees WHERE payment_request_id = $1`,
		requestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreatePaymentRequest inserts the request and its explicit assignees in
// one transaction. Assignees are ignored when AssignToAll is set.
func CreatePaymentRequest(db *sql.DB, pr *models.PaymentRequest) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO payment_requests
				(school_class_id, title, description, amount, due_date,
				 variable_symbol, specific_symbol, assign_to_all, created_by)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id, created_at`
	err = tx.QueryRow(query,
		pr.SchoolClassID, pr.Title, pr.Description, pr.Amount, pr.DueDate,
		pr.VariableSymbol, pr.SpecificSymbol, pr.AssignToAll, pr.CreatedBy,
	).Scan(&pr.ID, &pr.CreatedAt)
	if err != nil {
		return err
	}

	if !pr.AssignToAll {
		for _, profileID := range pr.AssigneeIDs {
			_, err = tx.Exec(
				`INSERT INTO payment_request_assignees (payment_request_id, student_profile_id)
				 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				pr.ID, profileID,
			)
			if err != nil {
				return err
			}
		}
	} else {
		pr.AssigneeIDs = nil
	}

	return tx.Commit()
}

// Transactions

const transactionColumns = `t.id, t.payment_request_id, t.school_class_id, t.student_profile_id,
	t.amount, t.status, t.note, t.paid_at, t.confirmed_at, t.created_at`

func scanTransactions(rows *sql.Rows, withJoins bool) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	for rows.Next() {
		t := &models.Transaction{}
		var classID sql.NullString
		dest := []any{
			&t.ID, &t.PaymentRequestID, &classID, &t.StudentID,
			&t.Amount, &t.Status, &t.Note, &t.PaidAt, &t.ConfirmedAt, &t.CreatedAt,
		}
		if withJoins {
			dest = append(dest, &t.RequestTitle, &t.StudentName)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		t.SchoolClassID = classID.String
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// GetClassTransactions returns every transaction of a class, newest first,
// with the request title and child name joined for display.
func GetClassTransactions(db *sql.DB, classID string) ([]*models.Transaction, error) {
	if classID == "" {
		return nil, nil
	}
	query := `SELECT ` + transactionColumns + `, pr.title, sp.child_name
			  FROM transactions t
			  JOIN payment_requests pr ON pr.id = t.payment_request_id
			  JOIN student_profiles sp ON sp.id = t.student_profile_id
			  WHERE pr.school_class_id = $1
			  ORDER BY t.created_at DESC`
	rows, err := db.Query(query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows, true)
}

// GetTransactionsForProfiles returns the transaction history for a set of
// student profiles (a parent's children), newest first.
func GetTransactionsForProfiles(db *sql.DB, profileIDs []string) ([]*models.Transaction, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + transactionColumns + `, pr.title, sp.child_name
			  FROM transactions t
			  JOIN payment_requests pr ON pr.id = t.payment_request_id
			  JOIN student_profiles sp ON sp.id = t.student_profile_id
			  WHERE t.student_profile_id = ANY($1)
			  ORDER BY t.created_at DESC`
	rows, err := db.Query(query, pq.Array(profileIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows, true)
}

// FindPendingTransaction returns the pending transaction for a
// (student, request) pair within a class, or ErrNotFound.
func FindPendingTransaction(db *sql.DB, classID, profileID, requestID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `, pr.title, sp.child_name
			  FROM transactions t
			  JOIN payment_requests pr ON pr.id = t.payment_request_id
			  JOIN student_profiles sp ON sp.id = t.student_profile_id
			  WHERE t.student_profile_id = $1 AND t.payment_request_id = $2
				AND pr.school_class_id = $3 AND t.status = 'pending'
			  LIMIT 1`
	rows, err := db.Query(query, profileID, requestID, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txs, err := scanTransactions(rows, true)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, ErrNotFound
	}
	return txs[0], nil
}

func GetPendingTransactionByID(db *sql.DB, txID, classID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `, pr.title, sp.child_name
			  FROM transactions t
			  JOIN payment_requests pr ON pr.id = t.payment_request_id
			  JOIN student_profiles sp ON sp.id = t.student_profile_id
			  WHERE t.id = $1 AND pr.school_class_id = $2 AND t.status = 'pending'`
	rows, err := db.Query(query, txID, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txs, err := scanTransactions(rows, true)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, ErrNotFound
	}
	return txs[0], nil
}

// LogTransaction records a transfer for a (student, request) pair.
//
// Confirmation supersedes a claim in place: when a confirmed transfer is
// logged and a pending row already exists for the pair, that row is
// promoted (amount and note refreshed) and any further pending rows for
// the pair are removed. Logging a pending transfer refreshes an existing
// pending claim rather than inserting a duplicate, so the pair never
// accumulates more than one pending row. A pair that already has a
// confirmed row yields ErrAlreadyConfirmed.
func LogTransaction(db *sql.DB, t *models.Transaction) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var confirmedExists bool
	err = tx.QueryRow(
		`SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE student_profile_id = $1 AND payment_request_id = $2 AND status = 'confirmed'
		)`,
		t.StudentID, t.PaymentRequestID,
	).Scan(&confirmedExists)
	if err != nil {
		return err
	}
	if confirmedExists && t.Status == models.TransactionConfirmed {
		return ErrAlreadyConfirmed
	}

	if t.Status == models.TransactionConfirmed {
		now := time.Now()
		t.ConfirmedAt = &now
		// Promote an existing pending claim instead of inserting a new row.
		err = tx.QueryRow(
			`UPDATE transactions
			 SET status = 'confirmed', amount = $1, note = $2, paid_at = COALESCE($3, paid_at), confirmed_at = $4
			 WHERE id = (
				 SELECT id FROM transactions
				 WHERE student_profile_id = $5 AND payment_request_id = $6 AND status = 'pending'
				 LIMIT 1
			 )
			 RETURNING id, created_at`,
			t.Amount, t.Note, t.PaidAt, now, t.StudentID, t.PaymentRequestID,
		).Scan(&t.ID, &t.CreatedAt)
		if err == nil {
			if err = deleteOtherPending(tx, t.StudentID, t.PaymentRequestID, t.ID); err != nil {
				return err
			}
			return tx.Commit()
		}
		if err != sql.ErrNoRows {
			return err
		}
	}

	if t.Status == models.TransactionPending {
		// Refresh an existing claim rather than stacking a second pending row.
		err = tx.QueryRow(
			`UPDATE transactions
			 SET amount = $1, note = $2, paid_at = COALESCE($3, paid_at)
			 WHERE id = (
				 SELECT id FROM transactions
				 WHERE student_profile_id = $4 AND payment_request_id = $5 AND status = 'pending'
				 LIMIT 1
			 )
			 RETURNING id, created_at`,
			t.Amount, t.Note, t.PaidAt, t.StudentID, t.PaymentRequestID,
		).Scan(&t.ID, &t.CreatedAt)
		if err == nil {
			return tx.Commit()
		}
		if err != sql.ErrNoRows {
			return err
		}
	}

	err = tx.QueryRow(
		`INSERT INTO transactions
			(payment_request_id, school_class_id, student_profile_id, amount, status, note, paid_at, confirmed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		t.PaymentRequestID, t.SchoolClassID, t.StudentID, t.Amount,
		string(t.Status), t.Note, t.PaidAt, t.ConfirmedAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// deleteOtherPending removes any pending rows for the (student, request)
// pair other than keepID. Run inside the confirming transaction so a
// confirmed pair never leaves a stale claim behind.
func deleteOtherPending(tx *sql.Tx, studentID, requestID, keepID string) error {
	_, err := tx.Exec(
		`DELETE FROM transactions
		 WHERE student_profile_id = $1 AND payment_request_id = $2
		   AND status = 'pending' AND id <> $3`,
		studentID, requestID, keepID,
	)
	return err
}

// ConfirmPendingTransaction promotes a pending transaction to confirmed in
// place and clears any other pending rows for the same pair. The status
// guard in the WHERE clause means a concurrent confirm of the same row
// surfaces as ErrNotFound rather than a duplicate.
func ConfirmPendingTransaction(db *sql.DB, txID, classID string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var studentID, requestID string
	err = tx.QueryRow(
		`UPDATE transactions t
		 SET status = 'confirmed', confirmed_at = NOW()
		 FROM payment_requests pr
		 WHERE t.id = $1 AND t.status = 'pending'
		   AND pr.id = t.payment_request_id AND pr.school_class_id = $2
		 RETURNING t.student_profile_id, t.payment_request_id`,
		txID, classID,
	).Scan(&studentID, &requestID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err = deleteOtherPending(tx, studentID, requestID, txID); err != nil {
		return err
	}
	return tx.Commit()
}

// Expenses

const expenseColumns = `id, school_class_id, title, description, amount, category,
	spent_at, recorded_by, is_published, created_at`

// GetClassExpenses returns a class's expenses, most recent first. Limit 0
// means no limit; publishedOnly restricts to student-visible rows.
func GetClassExpenses(db *sql.DB, classID string, publishedOnly bool, limit int) ([]*models.Expense, error) {
	if classID == "" {
		return nil, nil
	}
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE school_class_id = $1`
	if publishedOnly {
		query += ` AND is_published = true`
	}
	query += ` ORDER BY spent_at DESC, created_at DESC`
	args := []any{classID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e := &models.Expense{}
		var classID sql.NullString
		err := rows.Scan(
			&e.ID, &classID, &e.Title, &e.Description, &e.Amount, &e.Category,
			&e.SpentAt, &e.RecordedBy, &e.IsPublished, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		e.SchoolClassID = classID.String
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func GetExpense(db *sql.DB, expenseID, classID string) (*models.Expense, error) {
	e := &models.Expense{}
	var scID sql.NullString
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND school_class_id = $2`
	err := db.QueryRow(query, expenseID, classID).Scan(
		&e.ID, &scID, &e.Title, &e.Description, &e.Amount, &e.Category,
		&e.SpentAt, &e.RecordedBy, &e.IsPublished, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.SchoolClassID = scID.String
	return e, nil
}

func CreateExpense(db *sql.DB, e *models.Expense) error {
	query := `INSERT INTO expenses
				(school_class_id, title, description, amount, category, spent_at, recorded_by, is_published)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id, created_at`
	return db.QueryRow(query,
		e.SchoolClassID, e.Title, e.Description, e.Amount, string(e.Category),
		e.SpentAt, e.RecordedBy, e.IsPublished,
	).Scan(&e.ID, &e.CreatedAt)
}

func UpdateExpense(db *sql.DB, e *models.Expense) error {
	res, err := db.Exec(
		`UPDATE expenses
		 SET title = $1, description = $2, amount = $3, category = $4, spent_at = $5, is_published = $6
		 WHERE id = $7 AND school_class_id = $8`,
		e.Title, e.Description, e.Amount, string(e.Category), e.SpentAt,
		e.IsPublished, e.ID, e.SchoolClassID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func DeleteExpense(db *sql.DB, expenseID, classID string) error {
	res, err := db.Exec(
		`DELETE FROM expenses WHERE id = $1 AND school_class_id = $2`,
		expenseID, classID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Fund totals

// GetFundTotals returns the class fund aggregates: collected is the sum of
// confirmed transaction amounts, spent the sum of all expense amounts.
func GetFundTotals(db *sql.DB, classID string) (collected, spent decimal.Decimal, err error) {
	if classID == "" {
		return decimal.Zero, decimal.Zero, nil
	}
	err = db.QueryRow(
		`SELECT COALESCE(SUM(t.amount), 0)
		 FROM transactions t
		 JOIN payment_requests pr ON pr.id = t.payment_request_id
		 WHERE t.status = 'confirmed' AND pr.school_class_id = $1`,
		classID,
	).Scan(&collected)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	err = db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE school_class_id = $1`,
		classID,
	).Scan(&spent)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return collected, spent, nil
}
