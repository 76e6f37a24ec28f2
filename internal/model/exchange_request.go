package model

import "time"

type ExchangeStatus string

const (
	ExchangePending  ExchangeStatus = "pending"
	ExchangeAccepted ExchangeStatus = "accepted"
	ExchangeRejected ExchangeStatus = "rejected"
)

// ExchangeRequest is a barter-style offer for another user's reward,
// distinct from the direct point-redemption path.
type ExchangeRequest struct {
	ID           int64          `json:"id"`
	SenderID     int64          `json:"sender_id"`
	SenderName   string         `json:"sender_name,omitempty"`
	ReceiverID   int64          `json:"receiver_id"`
	ReceiverName string         `json:"receiver_name,omitempty"`
	RewardID     int64          `json:"reward_id"`
	RewardTitle  string         `json:"reward_title,omitempty"`
	Status       ExchangeStatus `json:"status"`
	Message      string         `json:"message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
