package mockdata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/internal/domain/records/repository"
)

const seedChunkSize = 50

// Refresher is notified after demo records were written for an owner
type Refresher interface {
	Refresh(ctx context.Context, ownerID uuid.UUID)
}

// SeedResult reports how many records of each kind were written
type SeedResult struct {
	Financials  int `json:"financials"`
	Sales       int `json:"sales"`
	Fuel        int `json:"fuel"`
	Maintenance int `json:"maintenance"`
	Vehicles    int `json:"vehicles"`
}

// Total returns the number of records written across all kinds
func (r *SeedResult) Total() int {
	return r.Financials + r.Sales + r.Fuel + r.Maintenance
}

// Seeder writes a generated dataset into a record store
type Seeder struct {
	store     repository.RecordStore
	gen       *Generator
	refresher Refresher
	logger    *slog.Logger
	chunkSize int
}

// NewSeeder creates a seeder. A nil generator uses a randomly seeded one.
func NewSeeder(store repository.RecordStore, gen *Generator, logger *slog.Logger) *Seeder {
	if gen == nil {
		gen = NewGenerator()
	}
	return &Seeder{
		store:     store,
		gen:       gen,
		logger:    logger,
		chunkSize: seedChunkSize,
	}
}

// WithRefresher sets the collaborator refreshed after seeding
func (s *Seeder) WithRefresher(r Refresher) *Seeder {
	s.refresher = r
	return s
}

// WithChunkSize overrides how many records are written per store call
func (s *Seeder) WithChunkSize(n int) *Seeder {
	if n > 0 {
		s.chunkSize = n
	}
	return s
}

// Seed generates a demo dataset for ownerID and writes it. Vehicles are
// ensured before any fleet record. The first store failure aborts the seed
// and is returned as a *records.StoreError; records already written stay.
func (s *Seeder) Seed(ctx context.Context, ownerID uuid.UUID, now time.Time) (*SeedResult, error) {
	ds := s.gen.Generate(ownerID, now)
	result := &SeedResult{}

	for _, id := range VehicleIDs {
		if _, err := s.store.GetOrCreateVehicle(ctx, ownerID, id); err != nil {
			return result, s.fail(ctx, ownerID, result, "ensure vehicle", fmt.Errorf("failed to ensure vehicle %s: %w", id, err))
		}
		result.Vehicles++
	}

	var err error
	if result.Financials, err = repository.InsertChunks(ctx, ds.Financials, s.chunkSize, s.store.BulkInsertFinancials); err != nil {
		return result, s.fail(ctx, ownerID, result, "insert financials", err)
	}
	if result.Sales, err = repository.InsertChunks(ctx, ds.Sales, s.chunkSize, s.store.BulkInsertSales); err != nil {
		return result, s.fail(ctx, ownerID, result, "insert sales", err)
	}
	if result.Fuel, err = repository.InsertChunks(ctx, ds.Fuel, s.chunkSize, s.store.BulkInsertFuel); err != nil {
		return result, s.fail(ctx, ownerID, result, "insert fuel", err)
	}
	if result.Maintenance, err = repository.InsertChunks(ctx, ds.Maintenance, s.chunkSize, s.store.BulkInsertMaintenance); err != nil {
		return result, s.fail(ctx, ownerID, result, "insert maintenance", err)
	}

	s.logger.Info("demo data seeded",
		"owner_id", ownerID,
		"financials", result.Financials,
		"sales", result.Sales,
		"fuel", result.Fuel,
		"maintenance", result.Maintenance,
	)

	if s.refresher != nil {
		s.refresher.Refresh(ctx, ownerID)
	}
	return result, nil
}

// Reseed clears every dataset of ownerID and seeds it again.
func (s *Seeder) Reseed(ctx context.Context, ownerID uuid.UUID, now time.Time) error {
	err := s.reseed(ctx, ownerID, now)
	// deletes may have landed even when the seed did not
	if err != nil && s.refresher != nil {
		s.refresher.Refresh(ctx, ownerID)
	}
	return err
}

func (s *Seeder) reseed(ctx context.Context, ownerID uuid.UUID, now time.Time) error {
	for _, kind := range records.AllKinds {
		if err := s.store.DeleteAll(ctx, ownerID, kind); err != nil {
			return records.WrapStoreError("delete "+string(kind), err)
		}
	}
	_, err := s.Seed(ctx, ownerID, now)
	return err
}

func (s *Seeder) fail(ctx context.Context, ownerID uuid.UUID, result *SeedResult, op string, err error) error {
	s.logger.Error("demo seed failed", "owner_id", ownerID, "op", op, "written", result.Total(), slog.Any("error", err))
	if s.refresher != nil && result.Total() > 0 {
		s.refresher.Refresh(ctx, ownerID)
	}
	return records.WrapStoreError(op, err)
}
