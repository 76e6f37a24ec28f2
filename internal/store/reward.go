package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/rex/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

// rewardCols selects the reward row joined with its owner's name and the
// optional category.
const rewardCols = `r.id, r.title, r.description, r.point_cost, r.code, r.owner_id, u.name,
	r.category_id, c.name, c.slug, c.icon, r.status, r.is_active, r.expires_at,
	r.redeemed_by, r.redeemed_at, r.created_at, r.updated_at`

const rewardFrom = ` FROM rewards r
	JOIN users u ON u.id = r.owner_id
	LEFT JOIN categories c ON c.id = r.category_id`

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var active int
	var categoryID sql.NullInt64
	var catName, catSlug, catIcon sql.NullString
	var redeemedBy sql.NullInt64
	var redeemedAt sql.NullTime

	err := scanner.Scan(&r.ID, &r.Title, &r.Description, &r.PointCost, &r.Code, &r.OwnerID,
		&r.OwnerName, &categoryID, &catName, &catSlug, &catIcon, &r.Status, &active,
		&r.ExpiresAt, &redeemedBy, &redeemedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.Active = active != 0
	if categoryID.Valid {
		r.CategoryID = &categoryID.Int64
		r.Category = &model.Category{
			ID:   categoryID.Int64,
			Name: catName.String,
			Slug: catSlug.String,
			Icon: catIcon.String,
		}
	}
	if redeemedBy.Valid {
		r.RedeemedBy = &redeemedBy.Int64
	}
	if redeemedAt.Valid {
		t := redeemedAt.Time
		r.RedeemedAt = &t
	}
	return &r, nil
}

// CreateRewardParams carries validated input for a new reward. Code must
// already be set; the handler generates one when the client omits it.
type CreateRewardParams struct {
	Title       string
	Description string
	PointCost   int
	Code        string
	OwnerID     int64
	CategoryID  *int64
	ExpiresAt   time.Time
}

func (s *RewardStore) Create(p CreateRewardParams) (*model.Reward, error) {
	var categoryID sql.NullInt64
	if p.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *p.CategoryID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO rewards (title, description, point_cost, code, owner_id, category_id, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Description, p.PointCost, p.Code, p.OwnerID, categoryID, p.ExpiresAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+rewardFrom+` WHERE r.id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns all rewards, newest first.
func (s *RewardStore) List() ([]model.Reward, error) {
	rows, err := s.db.Query(`SELECT ` + rewardCols + rewardFrom + ` ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	return collectRewards(rows)
}

// ListAvailableForUser returns rewards the given user can redeem: available,
// active, unexpired, and not their own. This is the "available to others"
// read-side filter; the repository itself does not restrict reads.
func (s *RewardStore) ListAvailableForUser(userID int64, now time.Time) ([]model.Reward, error) {
	rows, err := s.db.Query(
		`SELECT `+rewardCols+rewardFrom+`
		 WHERE r.status = 'available' AND r.is_active = 1 AND r.expires_at > ? AND r.owner_id != ?
		 ORDER BY r.created_at DESC, r.id DESC`,
		now.UTC(), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list available rewards: %w", err)
	}
	return collectRewards(rows)
}

// ListByCategorySlug returns available, active, unexpired rewards in the
// given category.
func (s *RewardStore) ListByCategorySlug(slug string, now time.Time) ([]model.Reward, error) {
	rows, err := s.db.Query(
		`SELECT `+rewardCols+rewardFrom+`
		 WHERE c.slug = ? AND r.status = 'available' AND r.is_active = 1 AND r.expires_at > ?
		 ORDER BY r.created_at DESC, r.id DESC`,
		slug, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list rewards by category: %w", err)
	}
	return collectRewards(rows)
}

func collectRewards(rows *sql.Rows) ([]model.Reward, error) {
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

// UpdateRewardParams carries owner-editable fields.
type UpdateRewardParams struct {
	Title       string
	Description string
	PointCost   int
	Code        string
	CategoryID  *int64
	ExpiresAt   time.Time
	Active      bool
}

// Update rewrites the owner-editable fields. Ownership and status checks
// belong to the caller; the update itself refuses rewards whose status has
// left 'available' so a concurrent redemption cannot be overwritten.
func (s *RewardStore) Update(id int64, p UpdateRewardParams) (*model.Reward, error) {
	var categoryID sql.NullInt64
	if p.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *p.CategoryID, Valid: true}
	}
	var active int
	if p.Active {
		active = 1
	}

	result, err := s.db.Exec(
		`UPDATE rewards SET title = ?, description = ?, point_cost = ?, code = ?, category_id = ?,
		 expires_at = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'available'`,
		p.Title, p.Description, p.PointCost, p.Code, categoryID, p.ExpiresAt.UTC(), active, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrRewardUnavailable
	}
	return s.GetByID(id)
}

func (s *RewardStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}
