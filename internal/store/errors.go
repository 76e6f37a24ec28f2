package store

import "errors"

// Sentinel errors for failures the handlers branch on. Everything else is a
// wrapped persistence error and surfaces as a 500.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrRewardUnavailable  = errors.New("reward is not available")
	ErrSelfRedemption     = errors.New("cannot redeem your own reward")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrNotOwner           = errors.New("not the reward owner")
	ErrRequestNotFound    = errors.New("exchange request not found")
	ErrRequestClosed      = errors.New("exchange request already resolved")
)
