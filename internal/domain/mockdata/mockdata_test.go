package mockdata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/internal/domain/records/repository"
)

var seedNow = time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)

// ============================================================================
// Generator
// ============================================================================

func TestGenerate_Counts(t *testing.T) {
	ds := NewGeneratorWithSeed(42).Generate(uuid.New(), seedNow)

	assert.Len(t, ds.Financials, FinancialCount)
	assert.Len(t, ds.Sales, SalesCount)
	assert.Len(t, ds.Fuel, FuelCount)
	assert.Len(t, ds.Maintenance, MaintenanceCount)
}

func TestGenerate_IsReproducibleWithSeed(t *testing.T) {
	owner := uuid.New()

	a := NewGeneratorWithSeed(7).Generate(owner, seedNow)
	b := NewGeneratorWithSeed(7).Generate(owner, seedNow)

	assert.Equal(t, a, b)
}

func TestGenerate_RecordInvariants(t *testing.T) {
	owner := uuid.New()
	ds := NewGeneratorWithSeed(1).Generate(owner, seedNow)

	earliest := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2024, time.May, 28, 0, 0, 0, 0, time.UTC)
	inWindow := func(t *testing.T, d time.Time) {
		t.Helper()
		assert.False(t, d.Before(earliest), "date %s before window", d)
		assert.False(t, d.After(latest), "date %s after window", d)
		assert.LessOrEqual(t, d.Day(), 28)
	}

	t.Run("financials", func(t *testing.T) {
		for _, r := range ds.Financials {
			inWindow(t, r.Date)
			assert.Equal(t, owner, r.OwnerID)
			assert.Equal(t, records.DefaultPeriodType, r.PeriodType)
			switch r.Type {
			case records.TypeRevenue:
				assert.Equal(t, "Service Revenue", r.Category)
				assert.GreaterOrEqual(t, r.Amount, 500.0)
				assert.Less(t, r.Amount, 15500.0)
			case records.TypeExpense:
				assert.Contains(t, ExpenseCategories, r.Category)
				assert.GreaterOrEqual(t, r.Amount, 500.0)
				assert.Less(t, r.Amount, 5500.0)
			default:
				t.Fatalf("unexpected type %q", r.Type)
			}
		}
	})

	t.Run("sales", func(t *testing.T) {
		for _, r := range ds.Sales {
			inWindow(t, r.Date)
			assert.Contains(t, SalesReps, r.SalesRep)
			assert.Contains(t, Customers, r.Customer)
			assert.Contains(t, Services, r.Service)
			assert.GreaterOrEqual(t, r.ContractValue, 1000.0)
			assert.Less(t, r.ContractValue, 21000.0)
			assert.GreaterOrEqual(t, r.Cost, r.ContractValue*0.2-1)
			assert.LessOrEqual(t, r.Cost, r.ContractValue*0.6+1)
		}
	})

	t.Run("fleet", func(t *testing.T) {
		for _, r := range ds.Fuel {
			inWindow(t, r.Date)
			assert.Contains(t, VehicleIDs, r.VehicleID)
			assert.InDelta(t, 124.5, r.Cost, 74.5)
			assert.InDelta(t, 49.5, r.Liters, 29.5)
			assert.InDelta(t, 34999.5, r.Odometer, 24999.5)
		}
		for _, r := range ds.Maintenance {
			inWindow(t, r.Date)
			assert.Contains(t, VehicleIDs, r.VehicleID)
			assert.Contains(t, MaintenanceTypes, r.Type)
			assert.InDelta(t, 499.5, r.Cost, 399.5)
			assert.GreaterOrEqual(t, r.DowntimeDays, 0)
			assert.LessOrEqual(t, r.DowntimeDays, 4)
		}
	})
}

func TestGenerate_SharesDatesByIndex(t *testing.T) {
	ds := NewGeneratorWithSeed(3).Generate(uuid.New(), seedNow)

	for i := range ds.Maintenance {
		assert.Equal(t, ds.Financials[i].Date, ds.Sales[i].Date)
		assert.Equal(t, ds.Financials[i].Date, ds.Fuel[i].Date)
		assert.Equal(t, ds.Financials[i].Date, ds.Maintenance[i].Date)
	}
}

func TestGenerate_UniqueIDs(t *testing.T) {
	ds := NewGeneratorWithSeed(9).Generate(uuid.New(), seedNow)

	seen := make(map[uuid.UUID]struct{}, ds.Len())
	add := func(id uuid.UUID) {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	for _, r := range ds.Financials {
		add(r.ID)
	}
	for _, r := range ds.Sales {
		add(r.ID)
	}
	for _, r := range ds.Fuel {
		add(r.ID)
	}
	for _, r := range ds.Maintenance {
		add(r.ID)
	}
	assert.Len(t, seen, 370)
}

// ============================================================================
// Seeder
// ============================================================================

type failingStore struct {
	*repository.MemoryRecordStore
	calls      []string
	err        error
	vehicleErr error
}

func (s *failingStore) GetOrCreateVehicle(ctx context.Context, ownerID uuid.UUID, vehicleID string) (*records.Vehicle, error) {
	s.calls = append(s.calls, "vehicle:"+vehicleID)
	if s.vehicleErr != nil {
		return nil, s.vehicleErr
	}
	return s.MemoryRecordStore.GetOrCreateVehicle(ctx, ownerID, vehicleID)
}

func (s *failingStore) BulkInsertFinancials(ctx context.Context, recs []records.FinancialRecord) (int, error) {
	s.calls = append(s.calls, "financials")
	return s.MemoryRecordStore.BulkInsertFinancials(ctx, recs)
}

func (s *failingStore) BulkInsertSales(ctx context.Context, recs []records.SalesRecord) (int, error) {
	s.calls = append(s.calls, "sales")
	if s.err != nil {
		return 0, s.err
	}
	return s.MemoryRecordStore.BulkInsertSales(ctx, recs)
}

type refreshSpy struct {
	owners []uuid.UUID
}

func (r *refreshSpy) Refresh(_ context.Context, ownerID uuid.UUID) {
	r.owners = append(r.owners, ownerID)
}

func newTestSeeder(store repository.RecordStore) (*Seeder, *refreshSpy) {
	spy := &refreshSpy{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSeeder(store, NewGeneratorWithSeed(11), logger).WithRefresher(spy), spy
}

func TestSeeder_Seed(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRecordStore()
	seeder, spy := newTestSeeder(store)
	owner := uuid.New()

	result, err := seeder.Seed(ctx, owner, seedNow)

	require.NoError(t, err)
	assert.Equal(t, &SeedResult{Financials: 150, Sales: 100, Fuel: 80, Maintenance: 40, Vehicles: 4}, result)
	assert.Equal(t, 370, result.Total())
	assert.Equal(t, []uuid.UUID{owner}, spy.owners)

	ds, err := repository.LoadDataset(ctx, store, owner)
	require.NoError(t, err)
	assert.Equal(t, 370, ds.Len())

	vehicles, err := store.ListVehicles(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, vehicles, len(VehicleIDs))
}

func TestSeeder_EnsuresVehiclesFirstAndChunks(t *testing.T) {
	store := &failingStore{MemoryRecordStore: repository.NewMemoryRecordStore()}
	seeder, _ := newTestSeeder(store)

	_, err := seeder.Seed(context.Background(), uuid.New(), seedNow)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(store.calls), 4)
	assert.Equal(t, []string{"vehicle:VAN-001", "vehicle:TRK-002", "vehicle:CAR-003", "vehicle:VAN-004"}, store.calls[:4])

	// 150 financials in chunks of 50, 100 sales in chunks of 50
	assert.Equal(t, 3, countOf(store.calls, "financials"))
	assert.Equal(t, 2, countOf(store.calls, "sales"))
}

func TestSeeder_StoreFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	store := &failingStore{MemoryRecordStore: repository.NewMemoryRecordStore(), err: boom}
	seeder, spy := newTestSeeder(store)
	owner := uuid.New()

	result, err := seeder.Seed(ctx, owner, seedNow)

	require.Error(t, err)
	var se *records.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert sales", se.Op)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 150, result.Financials)
	assert.Zero(t, result.Sales)
	assert.Zero(t, result.Fuel)
	assert.Equal(t, 1, countOf(store.calls, "sales"), "no retry after a failed chunk")

	// financials were written, so the dashboard is refreshed anyway
	assert.Equal(t, []uuid.UUID{owner}, spy.owners)
}

func countOf(calls []string, name string) int {
	n := 0
	for c := range slices.Values(calls) {
		if c == name {
			n++
		}
	}
	return n
}

func TestSeeder_ReseedReplacesData(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRecordStore()
	seeder, _ := newTestSeeder(store)
	owner := uuid.New()

	_, err := seeder.Seed(ctx, owner, seedNow)
	require.NoError(t, err)
	require.NoError(t, seeder.Reseed(ctx, owner, seedNow.AddDate(0, 1, 0)))

	ds, err := repository.LoadDataset(ctx, store, owner)
	require.NoError(t, err)
	assert.Equal(t, 370, ds.Len())
}

func TestSeeder_ReseedFailureAfterDeleteRefreshes(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryRecordStore: repository.NewMemoryRecordStore()}
	seeder, spy := newTestSeeder(store)
	owner := uuid.New()

	_, err := seeder.Seed(ctx, owner, seedNow)
	require.NoError(t, err)
	spy.owners = nil
	store.vehicleErr = errors.New("connection reset")

	err = seeder.Reseed(ctx, owner, seedNow)

	var se *records.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "ensure vehicle", se.Op)
	assert.Equal(t, []uuid.UUID{owner}, spy.owners)

	ds, err := repository.LoadDataset(ctx, store, owner)
	require.NoError(t, err)
	assert.Zero(t, ds.Len())
}
