package model

import "time"

type TransactionType string

const (
	// TypeRedemption is the only transaction type written today; the column
	// exists so exchange settlements can be recorded later without a schema
	// change.
	TypeRedemption TransactionType = "redemption"
)

// Transaction is an immutable audit record of a point transfer. Rows are
// inserted inside the redemption transaction and never updated or deleted.
type Transaction struct {
	ID          int64           `json:"id"`
	FromUserID  int64           `json:"from_user_id"`
	FromName    string          `json:"from_name,omitempty"`
	ToUserID    int64           `json:"to_user_id"`
	ToName      string          `json:"to_name,omitempty"`
	Points      int             `json:"points"`
	RewardID    int64           `json:"reward_id"`
	RewardTitle string          `json:"reward_title,omitempty"`
	Type        TransactionType `json:"type"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RedemptionResult is returned to the redeemer after a successful redemption.
type RedemptionResult struct {
	UserPoints  int           `json:"user_points"`
	Reward      RewardSummary `json:"reward"`
	Transaction *Transaction  `json:"transaction,omitempty"`
}

type RewardSummary struct {
	ID     int64        `json:"id"`
	Title  string       `json:"title"`
	Status RewardStatus `json:"status"`
}
