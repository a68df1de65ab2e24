package types

import (
	"time"
)

// PresenceRecord is the durable per-username online status and its current
// session binding. SessionId is empty when the user is offline.
type PresenceRecord struct {
	Username  string    `json:"username"`
	SessionId string    `json:"session_id,omitempty"`
	Online    bool      `json:"online"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Message struct {
	Id            string    `json:"id"`
	SenderName    string    `json:"sender_name"`
	SenderSession string    `json:"sender_session"`
	Room          string    `json:"room,omitempty"`
	Content       string    `json:"content"`
	Private       bool      `json:"private,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

const (
	StatusDelivered = "delivered"
	StatusError     = "error"
)

// DeliveryReceipt is returned to a sender after a send attempt. MessageId and
// Timestamp are store-assigned and only set when the message was persisted.
type DeliveryReceipt struct {
	Status    string    `json:"status"`
	MessageId string    `json:"message_id,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Error     string    `json:"error,omitempty"`
}
