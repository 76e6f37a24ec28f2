package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/rex/internal/model"
)

// ExchangeStore handles the barter-style negotiation path. Accepting a
// request flips the reward 'available' -> 'exchanged' with the same
// conditional-update discipline as the redemption flow; no points move.
type ExchangeStore struct {
	db *sql.DB
}

func NewExchangeStore(db *sql.DB) *ExchangeStore {
	return &ExchangeStore{db: db}
}

const exchangeCols = `e.id, e.sender_id, su.name, e.receiver_id, ru.name,
	e.reward_id, r.title, e.status, e.message, e.created_at, e.updated_at`

const exchangeFrom = ` FROM exchange_requests e
	JOIN users su ON su.id = e.sender_id
	JOIN users ru ON ru.id = e.receiver_id
	JOIN rewards r ON r.id = e.reward_id`

func scanExchange(scanner interface{ Scan(...any) error }) (*model.ExchangeRequest, error) {
	var e model.ExchangeRequest
	err := scanner.Scan(&e.ID, &e.SenderID, &e.SenderName, &e.ReceiverID, &e.ReceiverName,
		&e.RewardID, &e.RewardTitle, &e.Status, &e.Message, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create records a pending request from sender for the given reward. The
// receiver is the reward's current owner.
func (s *ExchangeStore) Create(senderID, receiverID, rewardID int64, message string) (*model.ExchangeRequest, error) {
	result, err := s.db.Exec(
		`INSERT INTO exchange_requests (sender_id, receiver_id, reward_id, message) VALUES (?, ?, ?, ?)`,
		senderID, receiverID, rewardID, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert exchange request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ExchangeStore) GetByID(id int64) (*model.ExchangeRequest, error) {
	row := s.db.QueryRow(`SELECT `+exchangeCols+exchangeFrom+` WHERE e.id = ?`, id)
	e, err := scanExchange(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get exchange request: %w", err)
	}
	return e, nil
}

// ListForUser returns requests where the user is sender or receiver, newest
// first.
func (s *ExchangeStore) ListForUser(userID int64) ([]model.ExchangeRequest, error) {
	rows, err := s.db.Query(
		`SELECT `+exchangeCols+exchangeFrom+`
		 WHERE e.sender_id = ? OR e.receiver_id = ?
		 ORDER BY e.created_at DESC, e.id DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list exchange requests: %w", err)
	}
	defer rows.Close()

	var requests []model.ExchangeRequest
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange request: %w", err)
		}
		requests = append(requests, *e)
	}
	return requests, rows.Err()
}

// Accept resolves a pending request in the receiver's favor: the reward is
// conditionally marked exchanged, the request accepted, and every other
// pending request for the same reward rejected. Fails with
// ErrRequestClosed if the request was already resolved and
// ErrRewardUnavailable if the reward's status moved first.
func (s *ExchangeStore) Accept(ctx context.Context, requestID int64) (*model.ExchangeRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin accept: %w", err)
	}
	defer tx.Rollback()

	var rewardID int64
	var status model.ExchangeStatus
	err = tx.QueryRowContext(ctx,
		`SELECT reward_id, status FROM exchange_requests WHERE id = ?`, requestID,
	).Scan(&rewardID, &status)
	if err == sql.ErrNoRows {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if status != model.ExchangePending {
		return nil, ErrRequestClosed
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE rewards SET status = ?, is_active = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'available' AND is_active = 1`,
		model.StatusExchanged, rewardID,
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

	if _, err := tx.ExecContext(ctx,
		`UPDATE exchange_requests SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.ExchangeAccepted, requestID,
	); err != nil {
		return nil, fmt.Errorf("accept request: %w", err)
	}

	// Close out competitors for the same reward.
	if _, err := tx.ExecContext(ctx,
		`UPDATE exchange_requests SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE reward_id = ? AND id != ? AND status = 'pending'`,
		model.ExchangeRejected, rewardID, requestID,
	); err != nil {
		return nil, fmt.Errorf("reject competing requests: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit accept: %w", err)
	}
	return s.GetByID(requestID)
}

// Reject resolves a pending request against the sender.
func (s *ExchangeStore) Reject(id int64) (*model.ExchangeRequest, error) {
	res, err := s.db.Exec(
		`UPDATE exchange_requests SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`,
		model.ExchangeRejected, id,
	)
	if err != nil {
		return nil, fmt.Errorf("reject request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		existing, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrRequestNotFound
		}
		return nil, ErrRequestClosed
	}
	return s.GetByID(id)
}
