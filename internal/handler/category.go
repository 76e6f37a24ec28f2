package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/rex/internal/model"
	"github.com/dukerupert/rex/internal/store"
)

type CategoryHandler struct {
	categoryStore *store.CategoryStore
	rewardStore   *store.RewardStore
	logger        *slog.Logger
	dev           bool
}

func NewCategoryHandler(cs *store.CategoryStore, rs *store.RewardStore, logger *slog.Logger, dev bool) *CategoryHandler {
	return &CategoryHandler{categoryStore: cs, rewardStore: rs, logger: logger, dev: dev}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryStore.ListActive()
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Rewards(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	category, err := h.categoryStore.GetBySlug(slug)
	if err != nil {
		h.logger.Error("get category", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	if category == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	rewards, err := h.rewardStore.ListByCategorySlug(slug, time.Now())
	if err != nil {
		h.logger.Error("list category rewards", "error", err)
		writeInternal(w, err, h.dev)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"rewards":  rewards,
	})
}
