package database

import (
	"database/sql"
	"log"
)

// RunMigrations creates missing tables and applies incremental schema
// updates. Everything here is idempotent so it can run on every startup.
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'parent',
			hide_fund_balance BOOLEAN NOT NULL DEFAULT false,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			deleted_at TIMESTAMP WITH TIME ZONE
		)`,
		`CREATE TABLE IF NOT EXISTS school_classes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(100) UNIQUE NOT NULL,
			teacher_id UUID REFERENCES users(id) ON DELETE SET NULL,
			school_year VARCHAR(20) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS student_profiles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_class_id UUID NOT NULL REFERENCES school_classes(id) ON DELETE CASCADE,
			parent_id UUID REFERENCES users(id) ON DELETE SET NULL,
			child_name VARCHAR(200) NOT NULL,
			variable_symbol VARCHAR(10) UNIQUE NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS bank_accounts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_class_id UUID UNIQUE REFERENCES school_classes(id) ON DELETE SET NULL,
			owner_name VARCHAR(200) NOT NULL,
			account_number VARCHAR(50) NOT NULL,
			iban VARCHAR(34) NOT NULL DEFAULT '',
			bank_name VARCHAR(100) NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT true,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS payment_requests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_class_id UUID REFERENCES school_classes(id) ON DELETE SET NULL,
			title VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			amount NUMERIC(10,2) NOT NULL,
			due_date DATE,
			variable_symbol VARCHAR(10) NOT NULL DEFAULT '',
			specific_symbol VARCHAR(10) NOT NULL DEFAULT '',
			assign_to_all BOOLEAN NOT NULL DEFAULT true,
			created_by UUID REFERENCES users(id) ON DELETE SET NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS payment_request_assignees (
			payment_request_id UUID NOT NULL REFERENCES payment_requests(id) ON DELETE CASCADE,
			student_profile_id UUID NOT NULL REFERENCES student_profiles(id) ON DELETE CASCADE,
			PRIMARY KEY (payment_request_id, student_profile_id)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			payment_request_id UUID NOT NULL REFERENCES payment_requests(id) ON DELETE CASCADE,
			school_class_id UUID REFERENCES school_classes(id) ON DELETE SET NULL,
			student_profile_id UUID NOT NULL REFERENCES student_profiles(id) ON DELETE CASCADE,
			amount NUMERIC(10,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			note TEXT NOT NULL DEFAULT '',
			paid_at TIMESTAMP WITH TIME ZONE,
			confirmed_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_class_id UUID REFERENCES school_classes(id) ON DELETE SET NULL,
			title VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			amount NUMERIC(10,2) NOT NULL,
			category VARCHAR(20) NOT NULL DEFAULT 'other',
			spent_at DATE NOT NULL DEFAULT CURRENT_DATE,
			recorded_by UUID REFERENCES users(id) ON DELETE SET NULL,
			is_published BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS notification_logs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			recipient_id UUID REFERENCES users(id) ON DELETE SET NULL,
			notification_type VARCHAR(30) NOT NULL DEFAULT 'payment_reminder',
			channel VARCHAR(10) NOT NULL DEFAULT 'email',
			subject VARCHAR(255) NOT NULL DEFAULT '',
			body_preview TEXT NOT NULL DEFAULT '',
			payment_request_id UUID REFERENCES payment_requests(id) ON DELETE SET NULL,
			sent_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			success BOOLEAN NOT NULL DEFAULT true,
			error_message TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, q := range tables {
		if _, err := db.Exec(q); err != nil {
			log.Printf("Error creating tables: %v", err)
			return err
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_student_profiles_class ON student_profiles(school_class_id)`,
		`CREATE INDEX IF NOT EXISTS idx_student_profiles_parent ON student_profiles(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_requests_class ON payment_requests(school_class_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_request ON transactions(payment_request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_student ON transactions(student_profile_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_class ON expenses(school_class_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_spent_at ON expenses(spent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_logs_sent_at ON notification_logs(sent_at)`,
	}
	for _, q := range indexes {
		if _, err := db.Exec(q); err != nil {
			log.Printf("Error creating index: %v", err)
			// Continue as some might be duplicate index errors depending on PG version
		}
	}

	if err := addHideFundBalanceColumn(db); err != nil {
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// hide_fund_balance was added after the first deployment; older databases
// need the column backfilled.
func addHideFundBalanceColumn(db *sql.DB) error {
	query := `
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1
				FROM information_schema.columns
				WHERE table_name = 'users'
				AND column_name = 'hide_fund_balance'
			) THEN
				ALTER TABLE users ADD COLUMN hide_fund_balance BOOLEAN NOT NULL DEFAULT false;
			END IF;
		END $$;
	`
	if _, err := db.Exec(query); err != nil {
		log.Printf("Failed to run migration for hide_fund_balance column: %v", err)
		return err
	}
	return nil
}
