package models

import "time"

type NotificationType string

const (
	NotificationWelcome  NotificationType = "welcome"
	NotificationReminder NotificationType = "payment_reminder"
	NotificationReceipt  NotificationType = "receipt"
	NotificationCustom   NotificationType = "custom"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// NotificationLog records every outbound notification attempt so the
// treasurer has an audit trail ("reminder sent to parent X on Tuesday").
type NotificationLog struct {
	ID               string              `json:"id"`
	RecipientID      *string             `json:"recipient_id,omitempty"`
	Type             NotificationType    `json:"type"`
	Channel          NotificationChannel `json:"channel"`
	Subject          string              `json:"subject,omitempty"`
	BodyPreview      string              `json:"body_preview,omitempty"`
	PaymentRequestID *string             `json:"payment_request_id,omitempty"`
	SentAt           time.Time           `json:"sent_at"`
	Success          bool                `json:"success"`
	ErrorMessage     string              `json:"error_message,omitempty"`

	// Joined for display.
	RecipientEmail string `json:"recipient_email,omitempty"`
	RequestTitle   string `json:"request_title,omitempty"`
}
