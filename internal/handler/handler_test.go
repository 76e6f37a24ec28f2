package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/rex/internal/auth"
	"github.com/dukerupert/rex/internal/database"
	"github.com/dukerupert/rex/internal/model"
	"github.com/dukerupert/rex/internal/store"
	"github.com/dukerupert/rex/internal/token"
)

const testPassword = "password123"

type testEnv struct {
	db     *sql.DB
	tokens *token.Manager

	users       *store.UserStore
	rewards     *store.RewardStore
	categories  *store.CategoryStore
	exchanges   *store.ExchangeStore
	redemptions *store.RedemptionStore

	authH        *AuthHandler
	rewardH      *RewardHandler
	transactionH *TransactionHandler
	categoryH    *CategoryHandler
	exchangeH    *ExchangeHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "rex_handler_test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := token.NewManager("handler-test-secret", time.Hour)

	env := &testEnv{
		db:          db,
		tokens:      tokens,
		users:       store.NewUserStore(db),
		rewards:     store.NewRewardStore(db),
		categories:  store.NewCategoryStore(db),
		exchanges:   store.NewExchangeStore(db),
		redemptions: store.NewRedemptionStore(db),
	}
	transactions := store.NewTransactionStore(db)

	env.authH = NewAuthHandler(env.users, tokens, logger, true)
	env.rewardH = NewRewardHandler(env.rewards, env.categories, nil, logger, true)
	env.transactionH = NewTransactionHandler(env.redemptions, transactions, nil, logger, true)
	env.categoryH = NewCategoryHandler(env.categories, env.rewards, logger, true)
	env.exchangeH = NewExchangeHandler(env.exchanges, env.rewards, nil, logger, true)

	return env
}

func (e *testEnv) createUser(t *testing.T, name, email string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := e.users.Create(name, email, string(hash))
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func (e *testEnv) createReward(t *testing.T, owner *model.User, title string, cost int) *model.Reward {
	t.Helper()
	r, err := e.rewards.Create(store.CreateRewardParams{
		Title:       title,
		Description: "test reward",
		PointCost:   cost,
		Code:        "CODE-" + title,
		OwnerID:     owner.ID,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	return r
}

// jsonRequest builds a request with an optional JSON body and an optional
// authenticated identity on the context.
func jsonRequest(method, target string, body any, as *model.User) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		ctx := auth.WithAuth(context.Background(), auth.AuthContext{UserID: as.ID, Email: as.Email})
		req = req.WithContext(ctx)
	}
	return req
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func decodeInto(rec *httptest.ResponseRecorder, v any) error {
	return json.NewDecoder(rec.Body).Decode(v)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestRegisterIssuesToken(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.authH.Register(rec, jsonRequest("POST", "/api/auth/register", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": testPassword,
	}, nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	body := decodeBody(t, rec)
	tok, _ := body["token"].(string)
	if tok == "" {
		t.Fatal("no token in response")
	}
	claims, err := env.tokens.Verify(tok)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("claims email = %q", claims.Email)
	}

	user, _ := body["user"].(map[string]any)
	if user == nil {
		t.Fatal("no user in response")
	}
	if pts, _ := user["points"].(float64); int(pts) != model.StartingPoints {
		t.Errorf("points = %v, want %d", user["points"], model.StartingPoints)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Error("password hash leaked in response")
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.authH.Register(rec, jsonRequest("POST", "/api/auth/register", map[string]string{
		"name": "", "email": "not-an-email", "password": "short",
	}, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := decodeBody(t, rec)
	fields, _ := body["fields"].(map[string]any)
	for _, f := range []string{"name", "email", "password"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("missing field error for %q", f)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "Alice", "alice@example.com")

	rec := httptest.NewRecorder()
	env.authH.Register(rec, jsonRequest("POST", "/api/auth/register", map[string]string{
		"name": "Alice Again", "email": "alice@example.com", "password": testPassword,
	}, nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "Alice", "alice@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"valid", "alice@example.com", testPassword, http.StatusOK},
		{"wrong password", "alice@example.com", "wrong-password", http.StatusUnauthorized},
		{"unknown email", "nobody@example.com", testPassword, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.authH.Login(rec, jsonRequest("POST", "/api/auth/login", map[string]string{
				"email": tt.email, "password": tt.password,
			}, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				if body := decodeBody(t, rec); body["error"] != "invalid credentials" {
					t.Errorf("error = %v, want generic invalid credentials", body["error"])
				}
			}
		})
	}
}

// The unknown-email path burns a bcrypt comparison against dummyHash so it
// costs the same as a wrong password; the constant must stay a well-formed
// hash at the cost real registrations use.
func TestLoginDummyHash(t *testing.T) {
	cost, err := bcrypt.Cost(dummyHash)
	if err != nil {
		t.Fatalf("dummy hash is not a valid bcrypt hash: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("dummy hash cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@example.com")

	rec := httptest.NewRecorder()
	env.authH.Profile(rec, jsonRequest("GET", "/api/auth/profile", nil, alice))
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.authH.UpdateProfile(rec, jsonRequest("PUT", "/api/auth/profile", map[string]string{
		"name": "Alice B", "email": "alice.b@example.com",
	}, alice))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["name"] != "Alice B" {
		t.Errorf("name = %v, want Alice B", body["name"])
	}
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@example.com")
	env.createUser(t, "Bob", "bob@example.com")

	rec := httptest.NewRecorder()
	env.authH.UpdateProfile(rec, jsonRequest("PUT", "/api/auth/profile", map[string]string{
		"name": "Alice", "email": "bob@example.com",
	}, alice))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
