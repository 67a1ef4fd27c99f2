// Package service implements manual record entry and clearing an owner's data.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/internal/domain/records/repository"
	"github.com/FACorreiaa/bizpulse/pkg/storage"
)

// ErrInvalidEntry is returned when a manual entry fails validation
var ErrInvalidEntry = errors.New("invalid entry")

// EntryType is one of the manual entry forms
type EntryType string

const (
	EntryRevenue  EntryType = "revenue"
	EntryExpense  EntryType = "expense"
	EntryEmployee EntryType = "employee"
	EntryFuel     EntryType = "fuel"
)

// ParseEntryType resolves an entry type from a path segment
func ParseEntryType(s string) (EntryType, error) {
	switch t := EntryType(strings.ToLower(strings.TrimSpace(s))); t {
	case EntryRevenue, EntryExpense, EntryEmployee, EntryFuel:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown entry type %q", ErrInvalidEntry, s)
}

// Entry is a single manually entered amount
type Entry struct {
	Date        time.Time
	Category    string
	Amount      float64
	Description string
	VehicleID   string
	Liters      float64
}

// Refresher is notified after an owner's records changed
type Refresher interface {
	Refresh(ctx context.Context, ownerID uuid.UUID)
}

// EntryService writes single records and clears datasets
type EntryService struct {
	store     repository.RecordStore
	uploads   storage.Storage // Optional: archived uploads removed by ClearAll
	refresher Refresher
	logger    *slog.Logger
}

// NewEntryService creates a new entry service
func NewEntryService(store repository.RecordStore, logger *slog.Logger) *EntryService {
	return &EntryService{store: store, logger: logger}
}

// WithUploads sets the upload archive cleared together with the records
func (s *EntryService) WithUploads(files storage.Storage) *EntryService {
	s.uploads = files
	return s
}

// WithRefresher sets the collaborator refreshed after every write
func (s *EntryService) WithRefresher(r Refresher) *EntryService {
	s.refresher = r
	return s
}

func validateEntry(e Entry) error {
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidEntry)
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount < 0 {
		return fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidEntry)
	}
	return nil
}

// Add dispatches to the writer for the entry type and returns the stored record
func (s *EntryService) Add(ctx context.Context, ownerID uuid.UUID, t EntryType, e Entry) (any, error) {
	switch t {
	case EntryRevenue:
		return s.AddRevenue(ctx, ownerID, e)
	case EntryExpense:
		return s.AddExpense(ctx, ownerID, e)
	case EntryEmployee:
		return s.AddEmployeeCost(ctx, ownerID, e)
	case EntryFuel:
		return s.AddFuel(ctx, ownerID, e)
	}
	return nil, fmt.Errorf("%w: unknown entry type %q", ErrInvalidEntry, t)
}

// AddRevenue records a Revenue line. The category defaults to General.
func (s *EntryService) AddRevenue(ctx context.Context, ownerID uuid.UUID, e Entry) (*records.FinancialRecord, error) {
	return s.addFinancial(ctx, ownerID, records.TypeRevenue, orDefault(e.Category, records.DefaultCategory), e)
}

// AddExpense records an Expense line. The category defaults to General.
func (s *EntryService) AddExpense(ctx context.Context, ownerID uuid.UUID, e Entry) (*records.FinancialRecord, error) {
	return s.addFinancial(ctx, ownerID, records.TypeExpense, orDefault(e.Category, records.DefaultCategory), e)
}

// AddEmployeeCost records a salary as an Expense in the Salaries category
func (s *EntryService) AddEmployeeCost(ctx context.Context, ownerID uuid.UUID, e Entry) (*records.FinancialRecord, error) {
	return s.addFinancial(ctx, ownerID, records.TypeExpense, records.SalariesCategory, e)
}

func (s *EntryService) addFinancial(ctx context.Context, ownerID uuid.UUID, typ, category string, e Entry) (*records.FinancialRecord, error) {
	if err := validateEntry(e); err != nil {
		return nil, err
	}
	rec := &records.FinancialRecord{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Date:        e.Date,
		Type:        typ,
		Category:    category,
		Amount:      e.Amount,
		Description: strings.TrimSpace(e.Description),
		PeriodType:  records.DefaultPeriodType,
	}
	if err := s.store.InsertFinancial(ctx, rec); err != nil {
		return nil, s.storeFailed(ownerID, "insert financial", err)
	}
	s.written(ctx, ownerID, "financial")
	return rec, nil
}

// AddFuel records a fuel purchase. The vehicle defaults to UNKNOWN and is
// created first when it does not exist yet.
func (s *EntryService) AddFuel(ctx context.Context, ownerID uuid.UUID, e Entry) (*records.FuelRecord, error) {
	if err := validateEntry(e); err != nil {
		return nil, err
	}
	vehicleID := orDefault(e.VehicleID, records.DefaultVehicleID)
	if _, err := s.store.GetOrCreateVehicle(ctx, ownerID, vehicleID); err != nil {
		return nil, s.storeFailed(ownerID, "ensure vehicle", err)
	}

	rec := &records.FuelRecord{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Date:      e.Date,
		VehicleID: vehicleID,
		Cost:      e.Amount,
		Liters:    e.Liters,
	}
	if err := s.store.InsertFuel(ctx, rec); err != nil {
		return nil, s.storeFailed(ownerID, "insert fuel", err)
	}
	s.written(ctx, ownerID, "fuel")
	return rec, nil
}

// ClearAll deletes every dataset of the owner, then the archived uploads.
// It stops at the first failure.
func (s *EntryService) ClearAll(ctx context.Context, ownerID uuid.UUID) error {
	cleared := 0
	for _, kind := range records.AllKinds {
		if err := s.store.DeleteAll(ctx, ownerID, kind); err != nil {
			if cleared > 0 && s.refresher != nil {
				s.refresher.Refresh(ctx, ownerID)
			}
			return s.storeFailed(ownerID, "delete "+string(kind), err)
		}
		cleared++
	}
	if s.uploads != nil {
		if err := s.uploads.DeleteAll(ctx, ownerID); err != nil {
			s.logger.Warn("failed to delete archived uploads", "owner_id", ownerID, slog.Any("error", err))
		}
	}

	s.logger.Info("owner data cleared", "owner_id", ownerID)
	if s.refresher != nil {
		s.refresher.Refresh(ctx, ownerID)
	}
	return nil
}

func (s *EntryService) storeFailed(ownerID uuid.UUID, op string, err error) error {
	s.logger.Error("record store failure", "owner_id", ownerID, "op", op, slog.Any("error", err))
	return records.WrapStoreError(op, err)
}

func (s *EntryService) written(ctx context.Context, ownerID uuid.UUID, kind string) {
	s.logger.Debug("manual entry added", "owner_id", ownerID, "kind", kind)
	if s.refresher != nil {
		s.refresher.Refresh(ctx, ownerID)
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
