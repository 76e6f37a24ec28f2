package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/rex/internal/model"
)

// RedemptionStore runs the point-transfer flow. All writes for a single
// redemption happen in one database transaction, and the status transition
// is a conditional update: the transfer only proceeds if the reward is still
// 'available' at update time, so two concurrent attempts can never both
// succeed.
type RedemptionStore struct {
	db *sql.DB
}

func NewRedemptionStore(db *sql.DB) *RedemptionStore {
	return &RedemptionStore{db: db}
}

// Redeem transfers a reward's point cost from the acting user to the owner
// and marks the reward consumed.
//
// Branchable failures: ErrRewardNotFound, ErrSelfRedemption,
// ErrRewardUnavailable, ErrUserNotFound, ErrInsufficientPoints.
func (s *RedemptionStore) Redeem(ctx context.Context, rewardID, actingUserID int64) (*model.RedemptionResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin redemption: %w", err)
	}
	defer tx.Rollback()

	var (
		ownerID   int64
		title     string
		cost      int
		status    model.RewardStatus
		active    int
		expiresAt time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT owner_id, title, point_cost, status, is_active, expires_at FROM rewards WHERE id = ?`,
		rewardID,
	).Scan(&ownerID, &title, &cost, &status, &active, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrRewardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load reward: %w", err)
	}

	if actingUserID == ownerID {
		return nil, ErrSelfRedemption
	}
	now := time.Now().UTC()
	if status != model.StatusAvailable || active == 0 || !expiresAt.After(now) {
		return nil, ErrRewardUnavailable
	}

	var balance int
	err = tx.QueryRowContext(ctx, `SELECT points FROM users WHERE id = ?`, actingUserID).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if balance < cost {
		return nil, ErrInsufficientPoints
	}

	// The status transition is the linchpin: it only fires if the reward is
	// still available, and every other write is gated on it.
	res, err := tx.ExecContext(ctx,
		`UPDATE rewards SET status = ?, is_active = 0, redeemed_by = ?, redeemed_at = ?,
		 updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'available' AND is_active = 1`,
		model.StatusRedeemed, actingUserID, now, rewardID,
	)
	if err != nil {
		return nil, fmt.Errorf("transition reward: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrRewardUnavailable
	}

	// Guarded debit: refuses to drive the balance negative even if it moved
	// since the read above.
	res, err = tx.ExecContext(ctx,
		`UPDATE users SET points = points - ?, redeemed_rewards = redeemed_rewards + 1,
		 updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND points >= ?`,
		cost, actingUserID, cost,
	)
	if err != nil {
		return nil, fmt.Errorf("debit user: %w", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrInsufficientPoints
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET points = points + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		cost, ownerID,
	); err != nil {
		return nil, fmt.Errorf("credit owner: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (from_user_id, to_user_id, points, reward_id, type)
		 VALUES (?, ?, ?, ?, ?)`,
		actingUserID, ownerID, cost, rewardID, model.TypeRedemption,
	)
	if err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	txnID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var newBalance int
	if err := tx.QueryRowContext(ctx, `SELECT points FROM users WHERE id = ?`, actingUserID).Scan(&newBalance); err != nil {
		return nil, fmt.Errorf("reload balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit redemption: %w", err)
	}

	return &model.RedemptionResult{
		UserPoints: newBalance,
		Reward: model.RewardSummary{
			ID:     rewardID,
			Title:  title,
			Status: model.StatusRedeemed,
		},
		Transaction: &model.Transaction{
			ID:         txnID,
			FromUserID: actingUserID,
			ToUserID:   ownerID,
			Points:     cost,
			RewardID:   rewardID,
			Type:       model.TypeRedemption,
			CreatedAt:  now,
		},
	}, nil
}
