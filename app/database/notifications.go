package database

import (
	"database/sql"

	"classfund/app/models"
)

// InsertNotificationLog persists one outbound notification attempt.
func InsertNotificationLog(db *sql.DB, n *models.NotificationLog) error {
	query := `INSERT INTO notification_logs
				(recipient_id, notification_type, channel, subject, body_preview,
				 payment_request_id, success, error_message)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id, sent_at`
	return db.QueryRow(query,
		n.RecipientID, string(n.Type), string(n.Channel), n.Subject,
		n.BodyPreview, n.PaymentRequestID, n.Success, n.ErrorMessage,
	).Scan(&n.ID, &n.SentAt)
}

// GetNotificationLogs returns a class's most recent notification attempts
// with recipient email and request title joined for display. A log row
// belongs to the class when its payment request does, or when the
// recipient is a parent of a student enrolled in the class (welcome mails
// carry no request). Empty classID returns nothing.
func GetNotificationLogs(db *sql.DB, classID string, limit int) ([]*models.NotificationLog, error) {
	if classID == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT n.id, n.recipient_id, n.notification_type, n.channel, n.subject,
					 n.body_preview, n.payment_request_id, n.sent_at, n.success, n.error_message,
					 COALESCE(u.email, ''), COALESCE(pr.title, '')
			  FROM notification_logs n
			  LEFT JOIN users u ON u.id = n.recipient_id
			  LEFT JOIN payment_requests pr ON pr.id = n.payment_request_id
			  WHERE pr.school_class_id = $1
				 OR EXISTS (
					SELECT 1 FROM student_profiles sp
					WHERE sp.parent_id = n.recipient_id AND sp.school_class_id = $1
				 )
			  ORDER BY n.sent_at DESC
			  LIMIT $2`
	rows, err := db.Query(query, classID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.NotificationLog
	for rows.Next() {
		n := &models.NotificationLog{}
		var recipientID, requestID sql.NullString
		err := rows.Scan(
			&n.ID, &recipientID, &n.Type, &n.Channel, &n.Subject,
			&n.BodyPreview, &requestID, &n.SentAt, &n.Success, &n.ErrorMessage,
			&n.RecipientEmail, &n.RequestTitle,
		)
		if err != nil {
			return nil, err
		}
		if recipientID.Valid {
			n.RecipientID = &recipientID.String
		}
		if requestID.Valid {
			n.PaymentRequestID = &requestID.String
		}
		logs = append(logs, n)
	}
	return logs, rows.Err()
}
