package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/rex/internal/auth"
	"github.com/dukerupert/rex/internal/store"
	"github.com/dukerupert/rex/internal/token"
)

const minPasswordLength = 8

// dummyHash is compared against when the login email is unknown, so that
// path pays the same bcrypt cost as a wrong password and response timing
// cannot separate the two.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type AuthHandler struct {
	userStore *store.UserStore
	tokens    *token.Manager
	logger    *slog.Logger
	dev       bool
}

func NewAuthHandler(us *store.UserStore, tokens *token.Manager, logger *slog.Logger, dev bool) *AuthHandler {
	return &AuthHandler{userStore: us, tokens: tokens, logger: logger, dev: dev}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "a valid email is required"
	}
	if len(req.Password) < minPasswordLength {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeInternal(w, err, h.dev)
		return
	}

	user, err := h.userStore.Create(req.Name, req.Email, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "email already registered")
			return
		}
		h.logger.Error("create user", "error", err)
		writeInternal(w, err, h.dev)
		return
	}

	t, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeInternal(w, err, h.dev)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"token": t, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// Same failure for unknown email and wrong password, so responses
	// cannot be used to enumerate accounts.
	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	if user == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	t, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeInternal(w, err, h.dev)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": t, "user": user})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("load profile", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "a valid email is required"
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	user, err := h.userStore.UpdateProfile(auth.UserID(r.Context()), req.Name, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "email already registered")
			return
		}
		h.logger.Error("update profile", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
