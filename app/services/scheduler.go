package services

import (
	"database/sql"
	"log"
	"time"

	"classfund/app/database"
)

// StartReminderScheduler starts the background ticker that sends payment
// reminder emails for overdue requests once a day at the configured hour.
// A negative hour disables the scheduler entirely.
func StartReminderScheduler(db *sql.DB, hour int) {
	if hour < 0 {
		log.Println("Reminder scheduler disabled (REMINDER_HOUR not set)")
		return
	}
	go func() {
		log.Printf("Reminder scheduler started, firing daily at %02d:00", hour)
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			now := time.Now()
			if now.Hour() == hour && now.Minute() == 0 {
				log.Println("Sending overdue payment reminders...")
				if err := SendOverdueReminders(db, now); err != nil {
					log.Printf("Error sending overdue reminders: %v", err)
				}
			}
		}
	}()
}

// SendOverdueReminders walks every class and emails the parent of each
// (student, request) pair that is overdue and has no transaction recorded.
// Send failures are logged per recipient and never abort the sweep.
func SendOverdueReminders(db *sql.DB, now time.Time) error {
	rows, err := db.Query(`SELECT id FROM school_classes`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var classIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		classIDs = append(classIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, classID := range classIDs {
		requests, err := database.GetClassPaymentRequests(db, classID)
		if err != nil {
			log.Printf("Reminder sweep: loading requests for class %s: %v", classID, err)
			continue
		}
		roster, err := database.GetClassStudents(db, classID)
		if err != nil {
			log.Printf("Reminder sweep: loading roster for class %s: %v", classID, err)
			continue
		}
		txs, err := database.GetClassTransactions(db, classID)
		if err != nil {
			log.Printf("Reminder sweep: loading transactions for class %s: %v", classID, err)
			continue
		}

		idx := IndexTransactions(txs)
		_, missing := BuildPendingItems(requests, roster, idx)
		sent := 0
		for _, item := range missing {
			if !item.Request.IsOverdue(now) {
				continue
			}
			if item.Student.Parent == nil || item.Student.Parent.Email == "" {
				continue
			}
			if SendPaymentReminder(db, item.Student.Parent, item.Request, item.Student.ChildName) {
				sent++
			}
		}
		if sent > 0 {
			log.Printf("Reminder sweep: sent %d reminders for class %s", sent, classID)
		}
	}
	return nil
}
