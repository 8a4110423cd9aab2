package services

import (
	"database/sql"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/models"
)

// sendMail delivers one plain-text email through the configured SMTP
// server. Swappable in tests.
var sendMail = func(cfg config.SMTPConfig, to, subject, body string) error {
	if cfg.Host == "" {
		return fmt.Errorf("smtp not configured")
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	msg := strings.Join([]string{
		"From: " + cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	return smtp.SendMail(addr, auth, cfg.From, []string{to}, []byte(msg))
}

// notify sends an email and records the attempt in notification_logs.
// Failures are logged, never returned to page handlers.
func notify(db *sql.DB, recipient *models.User, nType models.NotificationType,
	subject, body string, requestID *string) bool {

	err := sendMail(config.AppConfig.SMTP, recipient.Email, subject, body)

	entry := &models.NotificationLog{
		RecipientID:      &recipient.ID,
		Type:             nType,
		Channel:          models.ChannelEmail,
		Subject:          subject,
		PaymentRequestID: requestID,
		Success:          err == nil,
	}
	if len(body) > 500 {
		entry.BodyPreview = body[:500]
	} else {
		entry.BodyPreview = body
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
		log.Printf("Failed to send %s email to %s: %v", nType, recipient.Email, err)
	}
	if logErr := database.InsertNotificationLog(db, entry); logErr != nil {
		log.Printf("Failed to record notification log: %v", logErr)
	}
	return err == nil
}

// SendWelcomeEmail greets a newly imported parent account.
func SendWelcomeEmail(db *sql.DB, parent *models.User, className, initialPassword string) bool {
	subject := "Welcome to Class Fund Manager"
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"An account has been created for you in the %s class fund.\n"+
			"Log in at %s/auth/login with this email address.\n"+
			"Your initial password is: %s\n\n"+
			"Please change it after your first login.\n",
		parent.FullName(), className, config.AppConfig.SiteURL, initialPassword,
	)
	return notify(db, parent, models.NotificationWelcome, subject, body, nil)
}

// SendPaymentReminder nudges a parent about an unpaid request.
func SendPaymentReminder(db *sql.DB, parent *models.User, pr *models.PaymentRequest, childName string) bool {
	subject := "Payment Reminder: " + pr.Title
	due := "as soon as possible"
	if pr.DueDate != nil {
		due = "by " + pr.DueDate.Format("2006-01-02")
	}
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"A payment of %s CZK for \"%s\" (%s) is still outstanding %s.\n"+
			"You can find the bank details and a QR code at %s/payments/pending.\n",
		parent.FullName(), pr.Amount.String(), pr.Title, childName, due,
		config.AppConfig.SiteURL,
	)
	return notify(db, parent, models.NotificationReminder, subject, body, &pr.ID)
}

// SendReceipt confirms to a parent that their payment was recorded.
func SendReceipt(db *sql.DB, parent *models.User, t *models.Transaction) bool {
	subject := "Payment Received: " + t.RequestTitle
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your payment of %s CZK for \"%s\" (%s) has been confirmed by the treasurer.\n"+
			"Thank you!\n",
		parent.FullName(), t.Amount.String(), t.RequestTitle, t.StudentName,
	)
	var requestID *string
	if t.PaymentRequestID != "" {
		requestID = &t.PaymentRequestID
	}
	return notify(db, parent, models.NotificationReceipt, subject, body, requestID)
}
