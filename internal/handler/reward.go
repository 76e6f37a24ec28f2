package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/rex/internal/auth"
	"github.com/dukerupert/rex/internal/categorize"
	"github.com/dukerupert/rex/internal/model"
	"github.com/dukerupert/rex/internal/sanitize"
	"github.com/dukerupert/rex/internal/store"
	"github.com/dukerupert/rex/internal/websocket"
)

type RewardHandler struct {
	rewardStore   *store.RewardStore
	categoryStore *store.CategoryStore
	hub           *websocket.Hub
	logger        *slog.Logger
	dev           bool
}

func NewRewardHandler(rs *store.RewardStore, cs *store.CategoryStore, hub *websocket.Hub, logger *slog.Logger, dev bool) *RewardHandler {
	return &RewardHandler{rewardStore: rs, categoryStore: cs, hub: hub, logger: logger, dev: dev}
}

func (h *RewardHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type rewardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PointCost   int    `json:"point_cost"`
	Code        string `json:"code"`
	CategoryID  *int64 `json:"category_id"`
	ExpiresAt   string `json:"expires_at"`
	Active      *bool  `json:"is_active"`
}

// validate normalizes the request and returns field-scoped errors. The
// expiry must parse as RFC 3339 and sit strictly in the future.
func (h *RewardHandler) validate(req *rewardRequest) (time.Time, map[string]string) {
	fields := map[string]string{}

	req.Title = sanitize.Text(req.Title)
	req.Description = sanitize.Text(req.Description)
	req.Code = strings.TrimSpace(req.Code)

	if req.Title == "" {
		fields["title"] = "title is required"
	}
	if req.Description == "" {
		fields["description"] = "description is required"
	}
	if req.PointCost < 0 {
		fields["point_cost"] = "point_cost must be >= 0"
	}

	var expires time.Time
	if req.ExpiresAt == "" {
		fields["expires_at"] = "expires_at is required"
	} else {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		switch {
		case err != nil:
			fields["expires_at"] = "expires_at must be an RFC 3339 timestamp"
		case !t.After(time.Now()):
			fields["expires_at"] = "expires_at must be in the future"
		default:
			expires = t
		}
	}

	if req.CategoryID != nil {
		cat, err := h.categoryStore.GetByID(*req.CategoryID)
		if err != nil {
			h.logger.Error("load category", "error", err)
			fields["category_id"] = "could not verify category"
		} else if cat == nil || !cat.Active {
			fields["category_id"] = "unknown category"
		}
	}

	return expires, fields
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	expires, fields := h.validate(&req)
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	if req.Code == "" {
		req.Code = uuid.NewString()
	}

	// No category picked: suggest one from the title and description.
	if req.CategoryID == nil {
		if cat, err := h.categoryStore.GetBySlug(categorize.Suggest(req.Title, req.Description)); err == nil && cat != nil && cat.Active {
			req.CategoryID = &cat.ID
		}
	}

	reward, err := h.rewardStore.Create(store.CreateRewardParams{
		Title:       req.Title,
		Description: req.Description,
		PointCost:   req.PointCost,
		Code:        req.Code,
		OwnerID:     auth.UserID(r.Context()),
		CategoryID:  req.CategoryID,
		ExpiresAt:   expires,
	})
	if err != nil {
		h.logger.Error("create reward", "error", err)
		writeInternal(w, err, h.dev)
		return
	}

	h.broadcast(websocket.NewMessage("reward", "created", reward.ID, nil))

	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		rewards []model.Reward
		err     error
	)

	// ?available=true narrows to rewards the caller could actually redeem;
	// it needs an identity, which OptionalAuth provides for public reads.
	if r.URL.Query().Get("available") == "true" && auth.UserID(r.Context()) != 0 {
		rewards, err = h.rewardStore.ListAvailableForUser(auth.UserID(r.Context()), time.Now())
	} else {
		rewards, err = h.rewardStore.List()
	}
	if err != nil {
		h.logger.Error("list rewards", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	reward, err := h.rewardStore.GetByID(id)
	if err != nil {
		h.logger.Error("get reward", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	if reward == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

// loadOwned fetches the reward and checks the caller owns it. It writes the
// error response itself and returns nil when the caller should stop.
func (h *RewardHandler) loadOwned(w http.ResponseWriter, r *http.Request) *model.Reward {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}

	reward, err := h.rewardStore.GetByID(id)
	if err != nil {
		h.logger.Error("get reward", "error", err)
		writeInternal(w, err, h.dev)
		return nil
	}
	if reward == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return nil
	}
	if reward.OwnerID != auth.UserID(r.Context()) {
		writeError(w, http.StatusForbidden, "not the reward owner")
		return nil
	}
	return reward
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	reward := h.loadOwned(w, r)
	if reward == nil {
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	expires, fields := h.validate(&req)
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}
	if req.Code == "" {
		req.Code = reward.Code
	}
	active := reward.Active
	if req.Active != nil {
		active = *req.Active
	}

	updated, err := h.rewardStore.Update(reward.ID, store.UpdateRewardParams{
		Title:       req.Title,
		Description: req.Description,
		PointCost:   req.PointCost,
		Code:        req.Code,
		CategoryID:  req.CategoryID,
		ExpiresAt:   expires,
		Active:      active,
	})
	if err != nil {
		if errors.Is(err, store.ErrRewardUnavailable) {
			writeError(w, http.StatusBadRequest, "reward is no longer editable")
			return
		}
		h.logger.Error("update reward", "error", err)
		writeInternal(w, err, h.dev)
		return
	}

	h.broadcast(websocket.NewMessage("reward", "updated", reward.ID, nil))

	writeJSON(w, http.StatusOK, updated)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	reward := h.loadOwned(w, r)
	if reward == nil {
		return
	}

	// Consumed rewards stay for the audit trail; only unredeemed listings
	// can be withdrawn.
	if reward.Status != model.StatusAvailable {
		writeError(w, http.StatusBadRequest, "reward is not available")
		return
	}

	if err := h.rewardStore.Delete(reward.ID); err != nil {
		h.logger.Error("delete reward", "error", err)
		writeInternal(w, err, h.dev)
		return
	}

	h.broadcast(websocket.NewMessage("reward", "deleted", reward.ID, nil))

	writeJSON(w, http.StatusOK, map[string]string{"message": "reward deleted"})
}
