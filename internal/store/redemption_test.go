package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dukerupert/rex/internal/model"
)

func TestRedeemTransfersPoints(t *testing.T) {
	db := testDB(t)
	us := NewUserStore(db)
	rs := NewRewardStore(db)
	rd := NewRedemptionStore(db)
	ts := NewTransactionStore(db)

	// User A (100 points) redeems user B's reward costing 40.
	a := createTestUser(t, us, "A", "a@example.com")
	b := createTestUser(t, us, "B", "b@example.com")
	reward := createTestReward(t, rs, b.ID, "Treat", 40)

	result, err := rd.Redeem(context.Background(), reward.ID, a.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if result.UserPoints != 60 {
		t.Errorf("user_points = %d, want 60", result.UserPoints)
	}
	if result.Reward.Status != model.StatusRedeemed {
		t.Errorf("reward status = %q, want redeemed", result.Reward.Status)
	}

	aAfter, _ := us.GetByID(a.ID)
	bAfter, _ := us.GetByID(b.ID)
	if aAfter.Points != 60 {
		t.Errorf("A points = %d, want 60", aAfter.Points)
	}
	if bAfter.Points != 140 {
		t.Errorf("B points = %d, want 140", bAfter.Points)
	}
	if aAfter.RedeemedRewards != 1 {
		t.Errorf("A redeemed_rewards = %d, want 1", aAfter.RedeemedRewards)
	}

	got, _ := rs.GetByID(reward.ID)
	if got.Status != model.StatusRedeemed || got.Active {
		t.Errorf("reward = %q/active=%v, want redeemed/false", got.Status, got.Active)
	}
	if got.RedeemedBy == nil || *got.RedeemedBy != a.ID {
		t.Errorf("redeemed_by = %v, want %d", got.RedeemedBy, a.ID)
	}
	if got.RedeemedAt == nil {
		t.Error("redeemed_at not set")
	}

	// Exactly one transaction record linking A -> B for 40 points.
	history, err := ts.ListByUser(a.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(history))
	}
	txn := history[0]
	if txn.FromUserID != a.ID || txn.ToUserID != b.ID || txn.Points != 40 {
		t.Errorf("transaction = %d->%d %dpts, want %d->%d 40pts",
			txn.FromUserID, txn.ToUserID, txn.Points, a.ID, b.ID)
	}
	if txn.RewardID != reward.ID {
		t.Errorf("reward_id = %d, want %d", txn.RewardID, reward.ID)
	}
	if txn.Type != model.TypeRedemption {
		t.Errorf("type = %q, want redemption", txn.Type)
	}
}

func TestRedeemTwiceFails(t *testing.T) {
	db := testDB(t)
	us := NewUserStore(db)
	rs := NewRewardStore(db)
	rd := NewRedemptionStore(db)

	a := createTestUser(t, us, "A", "a@example.com")
	b := createTestUser(t, us, "B", "b@example.com")
	c := createTestUser(t, us, "C", "c@example.com")
	reward := createTestReward(t, rs, b.ID, "Once", 40)

	if _, err := rd.Redeem(context.Background(), reward.ID, a.ID); err != nil {
		t.Fatalf("first redeem: %v", err)
	}

	_, err := rd.Redeem(context.Background(), reward.ID, c.ID)
	if !errors.Is(err, ErrRewardUnavailable) {
		t.Fatalf("second redeem err = %v, want ErrRewardUnavailable", err)
	}

	// Balances unchanged by the failed attempt.
	cAfter, _ := us.GetByID(c.ID)
	bAfter, _ := us.GetByID(b.ID)
	if cAfter.Points != 100 {
		t.Errorf("C points = %d, want 100", cAfter.Points)
	}
	if bAfter.Points != 140 {
		t.Errorf("B points = %d, want 140", bAfter.Points)
	}
}

func TestRedeemOwnRewardFails(t *testing.T) {
	db := testDB(t)
	us := NewUserStore(db)
	rs := NewRewardStore(db)
	rd := NewRedemptionStore(db)

	owner := createTestUser(t, us, "Owner", "owner@example.com")
	setBalance(t, db, owner.ID, 1000)
	reward := createTestReward(t, rs, owner.ID, "Own", 5)

	_, err := rd.Redeem(context.Background(), reward.ID, owner.ID)
	if !errors.Is(err, ErrSelfRedemption) {
		t.Fatalf("err = %v, want ErrSelfRedemption", err)
	}
}

func TestRedeemInsufficientPoints(t *testing.T) {
	db := testDB(t)
	us := NewUserStore(db)
	rs := NewRewardStore(db)
	rd := NewRedemptionStore(db)

	a := createTestUser(t, us, "A", "a@example.com")
	b := createTestUser(t, us, "B", "b@example.com")
	setBalance(t, db, a.ID, 39)
	reward := createTestReward(t, rs, b.ID, "Pricey", 40)

	_, err := rd.Redeem(context.Background(), reward.ID, a.ID)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}

	aAfter, _ := us.GetByID(a.ID)
	bAfter, _ := us.GetByID(b.ID)
	if aAfter.Points != 39 || bAfter.Points != 100 {
		t.Errorf("balances = %d/%d, want 39/100", aAfter.Points, bAfter.Points)
	}

	got, _ := rs.GetByID(reward.ID)
	if got.Status != model.StatusAvailable {
		t.Errorf("reward status = %q, want available", got.Status)
	}
}

func TestRedeemMissingRewardAndUser(t *testing.T) {
	db := testDB(t)
	us := NewUserStore(db)
	rs := NewRewardStore(db)
	rd := NewRedemptionStore(db)

	owner := createTestUser(t, us, "Owner", "owner@example.com")
	reward := createTestReward(t, rs, owner.ID, "Orphan", 10)

	if _, err := rd.Redeem(context.Background(), 9999, owner.ID); !errors.Is(err, ErrRewardNotFound) {
		t.Fatalf("err = %v, want ErrRewardNotFound", err)
	}
	if _, err := rd.Redeem(context.Background(), reward.ID, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestRedeemInactiveReward(t *testing.T) {
	db := testDB(t)
	us := NewUserStore(db)
	rs := NewRewardStore(db)
	rd := NewRedemptionStore(db)

	a := createTestUser(t, us, "A", "a@example.com")
	b := createTestUser(t, us, "B", "b@example.com")
	reward := createTestReward(t, rs, b.ID, "Disabled", 10)

	if _, err := db.Exec(`UPDATE rewards SET is_active = 0 WHERE id = ?`, reward.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := rd.Redeem(context.Background(), reward.ID, a.ID)
	if !errors.Is(err, ErrRewardUnavailable) {
		t.Fatalf("err = %v, want ErrRewardUnavailable", err)
	}
}

// TestRedeemConcurrent drives two simultaneous redemption attempts at the
// same reward. The conditional status transition must let exactly one
// through; the loser sees the reward as unavailable and no points leak.
func TestRedeemConcurrent(t *testing.T) {
	db := testDB(t)
	us := NewUserStore(db)
	rs := NewRewardStore(db)
	rd := NewRedemptionStore(db)

	owner := createTestUser(t, us, "Owner", "owner@example.com")
	r1 := createTestUser(t, us, "R1", "r1@example.com")
	r2 := createTestUser(t, us, "R2", "r2@example.com")
	reward := createTestReward(t, rs, owner.ID, "Contested", 40)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, uid := range []int64{r1.ID, r2.ID} {
		wg.Add(1)
		go func(i int, uid int64) {
			defer wg.Done()
			_, errs[i] = rd.Redeem(context.Background(), reward.ID, uid)
		}(i, uid)
	}
	wg.Wait()

	var successes, unavailable int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrRewardUnavailable):
			unavailable++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || unavailable != 1 {
		t.Fatalf("successes = %d, unavailable = %d, want 1/1", successes, unavailable)
	}

	// Point mass is conserved: owner gained exactly one reward's worth.
	ownerAfter, _ := us.GetByID(owner.ID)
	r1After, _ := us.GetByID(r1.ID)
	r2After, _ := us.GetByID(r2.ID)
	if ownerAfter.Points != 140 {
		t.Errorf("owner points = %d, want 140", ownerAfter.Points)
	}
	if r1After.Points+r2After.Points != 160 {
		t.Errorf("redeemer points = %d+%d, want sum 160", r1After.Points, r2After.Points)
	}
}
