// Package profile manages the company profile shown on every dashboard.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/internal/domain/records/repository"
	"github.com/FACorreiaa/bizpulse/pkg/money"
)

// ErrInvalidProfile is returned when a profile fails validation
var ErrInvalidProfile = errors.New("invalid profile")

// Refresher is notified after the profile changed
type Refresher interface {
	Refresh(ctx context.Context, ownerID uuid.UUID)
}

// Update is the editable part of a profile
type Update struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Service reads and saves company profiles
type Service struct {
	store     repository.RecordStore
	refresher Refresher
	logger    *slog.Logger
}

// NewService creates a new profile service
func NewService(store repository.RecordStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// WithRefresher sets the collaborator refreshed after a save
func (s *Service) WithRefresher(r Refresher) *Service {
	s.refresher = r
	return s
}

// Get returns the owner's profile, or the default one when none was saved
func (s *Service) Get(ctx context.Context, ownerID uuid.UUID) (*records.CompanyProfile, error) {
	p, err := s.store.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, records.WrapStoreError("get profile", err)
	}
	if p == nil {
		return records.DefaultProfile(ownerID), nil
	}
	return p, nil
}

// Save validates and upserts the profile. Nothing is written when validation fails.
func (s *Service) Save(ctx context.Context, ownerID uuid.UUID, in Update) (*records.CompanyProfile, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if err := money.ValidateCurrency(in.Currency); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	p := &records.CompanyProfile{
		OwnerID:  ownerID,
		Name:     name,
		Currency: money.NormalizeCurrency(in.Currency),
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		s.logger.Error("failed to save profile", "owner_id", ownerID, slog.Any("error", err))
		return nil, records.WrapStoreError("upsert profile", err)
	}

	s.logger.Info("profile saved", "owner_id", ownerID, "currency", p.Currency)
	if s.refresher != nil {
		s.refresher.Refresh(ctx, ownerID)
	}
	return p, nil
}
