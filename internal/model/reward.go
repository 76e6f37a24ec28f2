package model

import "time"

// RewardStatus is the lifecycle state of a reward. Only rewards in
// StatusAvailable can be redeemed or exchanged.
type RewardStatus string

const (
	StatusAvailable RewardStatus = "available"
	StatusPending   RewardStatus = "pending"
	StatusRedeemed  RewardStatus = "redeemed"
	StatusExchanged RewardStatus = "exchanged"
)

type Reward struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	PointCost   int          `json:"point_cost"`
	Code        string       `json:"code"`
	OwnerID     int64        `json:"owner_id"`
	OwnerName   string       `json:"owner_name,omitempty"`
	CategoryID  *int64       `json:"category_id,omitempty"`
	Category    *Category    `json:"category,omitempty"`
	Status      RewardStatus `json:"status"`
	Active      bool         `json:"is_active"`
	ExpiresAt   time.Time    `json:"expires_at"`
	RedeemedBy  *int64       `json:"redeemed_by,omitempty"`
	RedeemedAt  *time.Time   `json:"redeemed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Redeemable reports whether the reward can still be claimed at time now.
func (r *Reward) Redeemable(now time.Time) bool {
	return r.Status == StatusAvailable && r.Active && r.ExpiresAt.After(now)
}
