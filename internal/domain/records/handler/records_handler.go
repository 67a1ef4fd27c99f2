// Package handler serves manual entries, demo seeding and data clearing.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/bizpulse/internal/domain/import/validator"
	"github.com/FACorreiaa/bizpulse/internal/domain/mockdata"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/internal/domain/records/service"
	"github.com/FACorreiaa/bizpulse/pkg/interceptors"
	"github.com/FACorreiaa/bizpulse/pkg/respond"
)

// EntryRequest is the body of POST /entries/{type}
type EntryRequest struct {
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	VehicleID   string  `json:"vehicle_id"`
	Liters      float64 `json:"liters"`
}

// RecordsHandler serves the owner's record management routes
type RecordsHandler struct {
	entries *service.EntryService
	seeder  *mockdata.Seeder // Optional: nil disables POST /demo
	now     func() time.Time
	logger  *slog.Logger
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(entries *service.EntryService, seeder *mockdata.Seeder, logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{entries: entries, seeder: seeder, now: time.Now, logger: logger}
}

// Routes registers the handler on an authenticated router
func (h *RecordsHandler) Routes(r chi.Router) {
	r.Post("/entries/{type}", h.AddEntry)
	r.Delete("/data", h.ClearAll)
	if h.seeder != nil {
		r.Post("/demo", h.LoadDemo)
	}
}

func (h *RecordsHandler) owner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ownerID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return ownerID, ok
}

// AddEntry stores a single revenue, expense, employee cost or fuel entry.
func (h *RecordsHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	entryType, err := service.ParseEntryType(chi.URLParam(r, "type"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, err.Error())
		return
	}

	var req EntryRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, ok := validator.ParseDate(req.Date)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "date must be a calendar date such as 2024-05-15")
		return
	}

	rec, err := h.entries.Add(r.Context(), ownerID, entryType, service.Entry{
		Date:        date,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		VehicleID:   req.VehicleID,
		Liters:      req.Liters,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, rec)
}

// ClearAll removes every record and archived upload of the caller.
func (h *RecordsHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.entries.ClearAll(r.Context(), ownerID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadDemo seeds the caller's datasets with generated sample records.
func (h *RecordsHandler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	result, err := h.seeder.Seed(r.Context(), ownerID, h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, result)
}

func (h *RecordsHandler) writeError(w http.ResponseWriter, err error) {
	var se *records.StoreError
	switch {
	case errors.Is(err, service.ErrInvalidEntry):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &se):
		respond.Error(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("records request failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
