package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukerupert/rex/internal/database"
	"github.com/dukerupert/rex/internal/model"
)

// testDB opens a file-backed database in a temp dir so concurrent
// connections in the pool all see the same data.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "rex_test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, us *UserStore, name, email string) *model.User {
	t.Helper()
	u, err := us.Create(name, email, "$2a$10$fakehashfakehashfakehash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func setBalance(t *testing.T, db *sql.DB, userID int64, points int) {
	t.Helper()
	if _, err := db.Exec(`UPDATE users SET points = ? WHERE id = ?`, points, userID); err != nil {
		t.Fatalf("set balance: %v", err)
	}
}

func createTestReward(t *testing.T, rs *RewardStore, ownerID int64, title string, cost int) *model.Reward {
	t.Helper()
	r, err := rs.Create(CreateRewardParams{
		Title:       title,
		Description: "test reward",
		PointCost:   cost,
		Code:        "CODE-" + title,
		OwnerID:     ownerID,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create reward %s: %v", title, err)
	}
	return r
}
