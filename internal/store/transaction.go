package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/rex/internal/model"
)

type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionCols = `t.id, t.from_user_id, fu.name, t.to_user_id, tu.name,
	t.points, t.reward_id, r.title, t.type, t.created_at`

const transactionFrom = ` FROM transactions t
	JOIN users fu ON fu.id = t.from_user_id
	JOIN users tu ON tu.id = t.to_user_id
	JOIN rewards r ON r.id = t.reward_id`

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.Transaction, error) {
	var t model.Transaction
	err := scanner.Scan(&t.ID, &t.FromUserID, &t.FromName, &t.ToUserID, &t.ToName,
		&t.Points, &t.RewardID, &t.RewardTitle, &t.Type, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TransactionStore) GetByID(id int64) (*model.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionCols+transactionFrom+` WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListByUser returns all transactions where the user is sender or receiver,
// newest first.
func (s *TransactionStore) ListByUser(userID int64) ([]model.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+transactionFrom+`
		 WHERE t.from_user_id = ? OR t.to_user_id = ?
		 ORDER BY t.created_at DESC, t.id DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}
