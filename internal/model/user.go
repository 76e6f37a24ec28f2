package model

import "time"

type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Points          int       `json:"points"`
	RedeemedRewards int       `json:"redeemed_rewards"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StartingPoints is granted to every user at registration.
const StartingPoints = 100
