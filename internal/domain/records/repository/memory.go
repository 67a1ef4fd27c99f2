package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

// MemoryRecordStore implements RecordStore in process memory.
// It backs the demo mode and the service tests.
type MemoryRecordStore struct {
	mu     sync.RWMutex
	owners map[uuid.UUID]*ownerData
	now    func() time.Time
}

type ownerData struct {
	financials  []records.FinancialRecord
	sales       []records.SalesRecord
	fuel        []records.FuelRecord
	maintenance []records.MaintenanceRecord
	vehicles    map[string]*records.Vehicle
	profile     *records.CompanyProfile
	ids         map[uuid.UUID]struct{}
}

// NewMemoryRecordStore creates an empty in-memory store
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		owners: make(map[uuid.UUID]*ownerData),
		now:    time.Now,
	}
}

func (s *MemoryRecordStore) owner(id uuid.UUID) *ownerData {
	o, ok := s.owners[id]
	if !ok {
		o = &ownerData{
			vehicles: make(map[string]*records.Vehicle),
			ids:      make(map[uuid.UUID]struct{}),
		}
		s.owners[id] = o
	}
	return o
}

// claim reserves an id and reports false when it was already stored
func (o *ownerData) claim(id *uuid.UUID) bool {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if _, ok := o.ids[*id]; ok {
		return false
	}
	o.ids[*id] = struct{}{}
	return true
}

func (s *MemoryRecordStore) ListFinancials(ctx context.Context, ownerID uuid.UUID) ([]records.FinancialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.owners[ownerID]; ok {
		return append([]records.FinancialRecord(nil), o.financials...), nil
	}
	return nil, nil
}

func (s *MemoryRecordStore) ListSales(ctx context.Context, ownerID uuid.UUID) ([]records.SalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.owners[ownerID]; ok {
		return append([]records.SalesRecord(nil), o.sales...), nil
	}
	return nil, nil
}

func (s *MemoryRecordStore) ListFuel(ctx context.Context, ownerID uuid.UUID) ([]records.FuelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.owners[ownerID]; ok {
		return append([]records.FuelRecord(nil), o.fuel...), nil
	}
	return nil, nil
}

func (s *MemoryRecordStore) ListMaintenance(ctx context.Context, ownerID uuid.UUID) ([]records.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.owners[ownerID]; ok {
		return append([]records.MaintenanceRecord(nil), o.maintenance...), nil
	}
	return nil, nil
}

func (s *MemoryRecordStore) InsertFinancial(ctx context.Context, rec *records.FinancialRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.BulkInsertFinancials(ctx, []records.FinancialRecord{*rec})
	return err
}

func (s *MemoryRecordStore) InsertSale(ctx context.Context, rec *records.SalesRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.BulkInsertSales(ctx, []records.SalesRecord{*rec})
	return err
}

func (s *MemoryRecordStore) InsertFuel(ctx context.Context, rec *records.FuelRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.BulkInsertFuel(ctx, []records.FuelRecord{*rec})
	return err
}

func (s *MemoryRecordStore) InsertMaintenance(ctx context.Context, rec *records.MaintenanceRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.BulkInsertMaintenance(ctx, []records.MaintenanceRecord{*rec})
	return err
}

func (s *MemoryRecordStore) BulkInsertFinancials(ctx context.Context, recs []records.FinancialRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, rec := range recs {
		o := s.owner(rec.OwnerID)
		if !o.claim(&rec.ID) {
			continue
		}
		o.financials = append(o.financials, rec)
		inserted++
	}
	return inserted, nil
}

func (s *MemoryRecordStore) BulkInsertSales(ctx context.Context, recs []records.SalesRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, rec := range recs {
		o := s.owner(rec.OwnerID)
		if !o.claim(&rec.ID) {
			continue
		}
		o.sales = append(o.sales, rec)
		inserted++
	}
	return inserted, nil
}

func (s *MemoryRecordStore) BulkInsertFuel(ctx context.Context, recs []records.FuelRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, rec := range recs {
		o := s.owner(rec.OwnerID)
		if !o.claim(&rec.ID) {
			continue
		}
		o.fuel = append(o.fuel, rec)
		inserted++
	}
	return inserted, nil
}

func (s *MemoryRecordStore) BulkInsertMaintenance(ctx context.Context, recs []records.MaintenanceRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, rec := range recs {
		o := s.owner(rec.OwnerID)
		if !o.claim(&rec.ID) {
			continue
		}
		o.maintenance = append(o.maintenance, rec)
		inserted++
	}
	return inserted, nil
}

func (s *MemoryRecordStore) DeleteAll(ctx context.Context, ownerID uuid.UUID, kind records.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[ownerID]
	if !ok {
		return nil
	}
	switch kind {
	case records.KindFinancials:
		for _, r := range o.financials {
			delete(o.ids, r.ID)
		}
		o.financials = nil
	case records.KindSales:
		for _, r := range o.sales {
			delete(o.ids, r.ID)
		}
		o.sales = nil
	case records.KindFuel:
		for _, r := range o.fuel {
			delete(o.ids, r.ID)
		}
		o.fuel = nil
	case records.KindMaintenance:
		for _, r := range o.maintenance {
			delete(o.ids, r.ID)
		}
		o.maintenance = nil
	default:
		return fmt.Errorf("%w: %q", records.ErrUnknownKind, kind)
	}
	return nil
}

func (s *MemoryRecordStore) GetOrCreateVehicle(ctx context.Context, ownerID uuid.UUID, vehicleID string) (*records.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.owner(ownerID)
	v, ok := o.vehicles[vehicleID]
	if !ok {
		v = &records.Vehicle{
			OwnerID:   ownerID,
			VehicleID: vehicleID,
			Status:    records.DefaultVehicleStatus,
			CreatedAt: s.now(),
		}
		o.vehicles[vehicleID] = v
	}
	cp := *v
	return &cp, nil
}

func (s *MemoryRecordStore) ListVehicles(ctx context.Context, ownerID uuid.UUID) ([]records.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[ownerID]
	if !ok {
		return nil, nil
	}
	out := make([]records.Vehicle, 0, len(o.vehicles))
	for _, v := range o.vehicles {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out, nil
}

func (s *MemoryRecordStore) GetProfile(ctx context.Context, ownerID uuid.UUID) (*records.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[ownerID]
	if !ok || o.profile == nil {
		return nil, nil
	}
	cp := *o.profile
	return &cp, nil
}

func (s *MemoryRecordStore) UpsertProfile(ctx context.Context, profile *records.CompanyProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile.UpdatedAt = s.now()
	cp := *profile
	s.owner(profile.OwnerID).profile = &cp
	return nil
}
