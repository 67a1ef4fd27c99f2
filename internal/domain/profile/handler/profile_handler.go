// Package handler serves the company profile over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/bizpulse/internal/domain/profile"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/pkg/interceptors"
	"github.com/FACorreiaa/bizpulse/pkg/respond"
)

// ProfileHandler serves GET and PUT /profile
type ProfileHandler struct {
	service *profile.Service
	logger  *slog.Logger
}

// NewProfileHandler constructs a new handler.
func NewProfileHandler(svc *profile.Service, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: svc, logger: logger}
}

// Routes registers the handler on an authenticated router
func (h *ProfileHandler) Routes(r chi.Router) {
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
}

// GetProfile returns the caller's company profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	p, err := h.service.Get(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// UpdateProfile saves the caller's company name and currency.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in profile.Update
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.service.Save(r.Context(), ownerID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) writeError(w http.ResponseWriter, err error) {
	var se *records.StoreError
	switch {
	case errors.Is(err, profile.ErrInvalidProfile):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &se):
		respond.Error(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("profile request failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
