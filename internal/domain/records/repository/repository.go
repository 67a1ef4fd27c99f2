// Package repository provides owner-scoped persistence for business records.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

// RecordStore defines data access operations for the dashboard datasets.
// Every call is scoped to a single owner.
type RecordStore interface {
	// Listing
	ListFinancials(ctx context.Context, ownerID uuid.UUID) ([]records.FinancialRecord, error)
	ListSales(ctx context.Context, ownerID uuid.UUID) ([]records.SalesRecord, error)
	ListFuel(ctx context.Context, ownerID uuid.UUID) ([]records.FuelRecord, error)
	ListMaintenance(ctx context.Context, ownerID uuid.UUID) ([]records.MaintenanceRecord, error)

	// Single inserts (manual entry)
	InsertFinancial(ctx context.Context, rec *records.FinancialRecord) error
	InsertSale(ctx context.Context, rec *records.SalesRecord) error
	InsertFuel(ctx context.Context, rec *records.FuelRecord) error
	InsertMaintenance(ctx context.Context, rec *records.MaintenanceRecord) error

	// Bulk inserts skip records whose id already exists and return how many were written
	BulkInsertFinancials(ctx context.Context, recs []records.FinancialRecord) (int, error)
	BulkInsertSales(ctx context.Context, recs []records.SalesRecord) (int, error)
	BulkInsertFuel(ctx context.Context, recs []records.FuelRecord) (int, error)
	BulkInsertMaintenance(ctx context.Context, recs []records.MaintenanceRecord) (int, error)

	DeleteAll(ctx context.Context, ownerID uuid.UUID, kind records.Kind) error

	// Vehicles
	GetOrCreateVehicle(ctx context.Context, ownerID uuid.UUID, vehicleID string) (*records.Vehicle, error)
	ListVehicles(ctx context.Context, ownerID uuid.UUID) ([]records.Vehicle, error)

	// Profile. GetProfile returns nil, nil when the owner has not saved one.
	GetProfile(ctx context.Context, ownerID uuid.UUID) (*records.CompanyProfile, error)
	UpsertProfile(ctx context.Context, profile *records.CompanyProfile) error
}

// DBTX is the subset of pgxpool.Pool used by the Postgres store
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LoadDataset fetches all four collections for an owner
func LoadDataset(ctx context.Context, store RecordStore, ownerID uuid.UUID) (*records.Dataset, error) {
	fin, err := store.ListFinancials(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sales, err := store.ListSales(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	fuel, err := store.ListFuel(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	maint, err := store.ListMaintenance(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &records.Dataset{
		Financials:  fin,
		Sales:       sales,
		Fuel:        fuel,
		Maintenance: maint,
	}, nil
}

// InsertChunks writes recs in sequential chunks of size, stopping at the first
// failed chunk. The count covers every chunk written before the failure.
func InsertChunks[T any](ctx context.Context, recs []T, size int, insert func(context.Context, []T) (int, error)) (int, error) {
	if size <= 0 {
		size = len(recs)
	}
	inserted := 0
	for start := 0; start < len(recs); start += size {
		end := min(start+size, len(recs))
		n, err := insert(ctx, recs[start:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}
