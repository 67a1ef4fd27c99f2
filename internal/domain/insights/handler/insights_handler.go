// Package handler serves the dashboard views over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/bizpulse/internal/domain/insights"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/pkg/interceptors"
	"github.com/FACorreiaa/bizpulse/pkg/respond"
)

type viewFunc func(ctx context.Context, ownerID uuid.UUID, period insights.Period, now time.Time) (any, error)

// InsightsHandler serves GET /dashboard/{view}
type InsightsHandler struct {
	svc    *insights.Service
	views  map[string]viewFunc
	logger *slog.Logger
}

// NewInsightsHandler constructs a new handler.
func NewInsightsHandler(svc *insights.Service, logger *slog.Logger) *InsightsHandler {
	h := &InsightsHandler{svc: svc, logger: logger}
	h.views = map[string]viewFunc{
		"overview": func(ctx context.Context, id uuid.UUID, p insights.Period, now time.Time) (any, error) {
			return svc.Overview(ctx, id, p, now)
		},
		"financial": func(ctx context.Context, id uuid.UUID, p insights.Period, now time.Time) (any, error) {
			return svc.Financial(ctx, id, p, now)
		},
		"sales": func(ctx context.Context, id uuid.UUID, p insights.Period, now time.Time) (any, error) {
			return svc.Sales(ctx, id, p, now)
		},
		"fleet": func(ctx context.Context, id uuid.UUID, p insights.Period, now time.Time) (any, error) {
			return svc.Fleet(ctx, id, p, now)
		},
	}
	return h
}

// Routes registers the handler on an authenticated router
func (h *InsightsHandler) Routes(r chi.Router) {
	r.Get("/dashboard/{view}", h.GetView)
}

// GetView renders one dashboard. Query parameters:
//   - period: all, year, quarter or month (default all)
//   - as_of: YYYY-MM-DD anchor for the period (default today)
func (h *InsightsHandler) GetView(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	name := chi.URLParam(r, "view")
	view, ok := h.views[name]
	if !ok {
		respond.Error(w, http.StatusNotFound, "unknown dashboard view "+name)
		return
	}

	period, err := insights.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.svc.Now()
	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		if now, err = time.Parse(time.DateOnly, asOf); err != nil {
			respond.Error(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
	}

	result, err := view(r.Context(), ownerID, period, now)
	if err != nil {
		h.logger.Error("failed to build dashboard", "owner_id", ownerID, "view", name, slog.Any("error", err))
		var se *records.StoreError
		if errors.As(err, &se) {
			respond.Error(w, http.StatusBadGateway, err.Error())
			return
		}
		respond.Error(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	respond.JSON(w, http.StatusOK, result)
}
