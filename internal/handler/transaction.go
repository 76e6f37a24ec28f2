package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/rex/internal/auth"
	"github.com/dukerupert/rex/internal/model"
	"github.com/dukerupert/rex/internal/store"
	"github.com/dukerupert/rex/internal/websocket"
)

type TransactionHandler struct {
	redemptions  *store.RedemptionStore
	transactions *store.TransactionStore
	hub          *websocket.Hub
	logger       *slog.Logger
	dev          bool
}

func NewTransactionHandler(rd *store.RedemptionStore, ts *store.TransactionStore, hub *websocket.Hub, logger *slog.Logger, dev bool) *TransactionHandler {
	return &TransactionHandler{redemptions: rd, transactions: ts, hub: hub, logger: logger, dev: dev}
}

// Redeem runs the point-transfer flow for POST /api/transactions/redeem/{id}.
// Every distinct failure of the redemption contract maps to its own status.
func (h *TransactionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	rewardID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reward id")
		return
	}

	result, err := h.redemptions.Redeem(r.Context(), rewardID, auth.UserID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRewardNotFound):
			writeError(w, http.StatusNotFound, "reward not found")
		case errors.Is(err, store.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, store.ErrRewardUnavailable):
			writeError(w, http.StatusBadRequest, "reward is not available")
		case errors.Is(err, store.ErrSelfRedemption):
			writeError(w, http.StatusBadRequest, "cannot redeem your own reward")
		case errors.Is(err, store.ErrInsufficientPoints):
			writeError(w, http.StatusBadRequest, "insufficient points")
		default:
			h.logger.Error("redeem reward", "reward_id", rewardID, "error", err)
			writeInternal(w, err, h.dev)
		}
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("reward", "redeemed", rewardID, map[string]any{
			"status": string(model.StatusRedeemed),
		}))
	}

	writeJSON(w, http.StatusOK, result)
}

// History serves GET /api/transactions/history: every transfer the caller
// participated in, on either side.
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.transactions.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list transactions", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}
