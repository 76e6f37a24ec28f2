package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/rex/internal/auth"
	"github.com/dukerupert/rex/internal/model"
	"github.com/dukerupert/rex/internal/sanitize"
	"github.com/dukerupert/rex/internal/store"
	"github.com/dukerupert/rex/internal/websocket"
)

type ExchangeHandler struct {
	exchangeStore *store.ExchangeStore
	rewardStore   *store.RewardStore
	hub           *websocket.Hub
	logger        *slog.Logger
	dev           bool
}

func NewExchangeHandler(es *store.ExchangeStore, rs *store.RewardStore, hub *websocket.Hub, logger *slog.Logger, dev bool) *ExchangeHandler {
	return &ExchangeHandler{exchangeStore: es, rewardStore: rs, hub: hub, logger: logger, dev: dev}
}

func (h *ExchangeHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type exchangeRequest struct {
	RewardID int64  `json:"reward_id"`
	Message  string `json:"message"`
}

func (h *ExchangeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reward, err := h.rewardStore.GetByID(req.RewardID)
	if err != nil {
		h.logger.Error("get reward", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	if reward == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	senderID := auth.UserID(r.Context())
	if reward.OwnerID == senderID {
		writeError(w, http.StatusBadRequest, "cannot request your own reward")
		return
	}
	if !reward.Redeemable(time.Now()) {
		writeError(w, http.StatusBadRequest, "reward is not available")
		return
	}

	request, err := h.exchangeStore.Create(senderID, reward.OwnerID, reward.ID, sanitize.Text(req.Message))
	if err != nil {
		h.logger.Error("create exchange request", "error", err)
		writeInternal(w, err, h.dev)
		return
	}

	h.broadcast(websocket.NewMessage("exchange_request", "created", request.ID, nil))

	writeJSON(w, http.StatusCreated, request)
}

func (h *ExchangeHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.exchangeStore.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list exchange requests", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	if requests == nil {
		requests = []model.ExchangeRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// loadAsReceiver fetches the request and checks the caller is its receiver.
// It writes the error response itself and returns nil when the caller
// should stop.
func (h *ExchangeHandler) loadAsReceiver(w http.ResponseWriter, r *http.Request) *model.ExchangeRequest {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}

	request, err := h.exchangeStore.GetByID(id)
	if err != nil {
		h.logger.Error("get exchange request", "error", err)
		writeInternal(w, err, h.dev)
		return nil
	}
	if request == nil {
		writeError(w, http.StatusNotFound, "exchange request not found")
		return nil
	}
	if request.ReceiverID != auth.UserID(r.Context()) {
		writeError(w, http.StatusForbidden, "not the reward owner")
		return nil
	}
	return request
}

func (h *ExchangeHandler) Accept(w http.ResponseWriter, r *http.Request) {
	request := h.loadAsReceiver(w, r)
	if request == nil {
		return
	}

	accepted, err := h.exchangeStore.Accept(r.Context(), request.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRequestClosed):
			writeError(w, http.StatusBadRequest, "exchange request already resolved")
		case errors.Is(err, store.ErrRewardUnavailable):
			writeError(w, http.StatusBadRequest, "reward is not available")
		default:
			h.logger.Error("accept exchange request", "error", err)
			writeInternal(w, err, h.dev)
		}
		return
	}

	h.broadcast(websocket.NewMessage("exchange_request", "accepted", request.ID, map[string]any{
		"reward_id": request.RewardID,
	}))

	writeJSON(w, http.StatusOK, accepted)
}

func (h *ExchangeHandler) Reject(w http.ResponseWriter, r *http.Request) {
	request := h.loadAsReceiver(w, r)
	if request == nil {
		return
	}

	rejected, err := h.exchangeStore.Reject(request.ID)
	if err != nil {
		if errors.Is(err, store.ErrRequestClosed) {
			writeError(w, http.StatusBadRequest, "exchange request already resolved")
			return
		}
		h.logger.Error("reject exchange request", "error", err)
		writeInternal(w, err, h.dev)
		return
	}

	h.broadcast(websocket.NewMessage("exchange_request", "rejected", request.ID, nil))

	writeJSON(w, http.StatusOK, rejected)
}
