package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/bizpulse/internal/domain/import/parser"
	"github.com/FACorreiaa/bizpulse/internal/domain/import/validator"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/internal/domain/records/repository"
)

// ============================================================================
// Test doubles
// ============================================================================

// recordingStore wraps the memory store, logging write calls and failing the
// bulk call numbered failOn (1-based, 0 never fails).
type recordingStore struct {
	*repository.MemoryRecordStore
	mu        sync.Mutex
	calls     []string
	bulkCalls int
	failOn    int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryRecordStore: repository.NewMemoryRecordStore()}
}

func (s *recordingStore) record(call string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if !strings.HasPrefix(call, "bulk") {
		return nil
	}
	s.bulkCalls++
	if s.failOn != 0 && s.bulkCalls == s.failOn {
		return errors.New("connection reset by peer")
	}
	return nil
}

func (s *recordingStore) BulkInsertFinancials(ctx context.Context, recs []records.FinancialRecord) (int, error) {
	if err := s.record(fmt.Sprintf("bulk:financials:%d", len(recs))); err != nil {
		return 0, err
	}
	return s.MemoryRecordStore.BulkInsertFinancials(ctx, recs)
}

func (s *recordingStore) BulkInsertFuel(ctx context.Context, recs []records.FuelRecord) (int, error) {
	if err := s.record(fmt.Sprintf("bulk:fuel:%d", len(recs))); err != nil {
		return 0, err
	}
	return s.MemoryRecordStore.BulkInsertFuel(ctx, recs)
}

func (s *recordingStore) GetOrCreateVehicle(ctx context.Context, ownerID uuid.UUID, vehicleID string) (*records.Vehicle, error) {
	_ = s.record("vehicle:" + vehicleID)
	return s.MemoryRecordStore.GetOrCreateVehicle(ctx, ownerID, vehicleID)
}

// blockingStore holds bulk inserts until release is closed
type blockingStore struct {
	*repository.MemoryRecordStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) BulkInsertFinancials(ctx context.Context, recs []records.FinancialRecord) (int, error) {
	s.entered <- struct{}{}
	<-s.release
	return s.MemoryRecordStore.BulkInsertFinancials(ctx, recs)
}

type refreshSpy struct {
	mu     sync.Mutex
	owners []uuid.UUID
}

func (r *refreshSpy) Refresh(ctx context.Context, ownerID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners = append(r.owners, ownerID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func financialCSV(n int) []byte {
	var b strings.Builder
	b.WriteString("Date,Type,Category,Amount,SubCategory,CostCenter,Description\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "2024-01-%02d,Revenue,Service Revenue,%d,,,\n", i%28+1, 100+i)
	}
	return []byte(b.String())
}

// ============================================================================
// SelectFile
// ============================================================================

func TestImportService_SelectFile(t *testing.T) {
	ownerID := uuid.New()

	t.Run("valid file is pending commit with a bounded preview", func(t *testing.T) {
		svc := NewImportService(repository.NewMemoryRecordStore(), testLogger())

		view, err := svc.SelectFile(context.Background(), ownerID, records.KindFinancials, "fin.csv", financialCSV(30))

		require.NoError(t, err)
		assert.Equal(t, StatePendingCommit, view.State)
		assert.True(t, view.Valid)
		assert.Equal(t, 30, view.TotalRows)
		assert.Len(t, view.Preview, importPreviewSize)
		assert.Equal(t, 2, view.Preview[0].Line)
		assert.Empty(t, view.Errors)
	})

	t.Run("validation findings make the batch invalid", func(t *testing.T) {
		svc := NewImportService(repository.NewMemoryRecordStore(), testLogger())
		data := []byte("Date,Type,Category,Amount\n2024-01-15,Revenue,Service Revenue,12500\n2024-01-16,Expense,Rent,\n")

		view, err := svc.SelectFile(context.Background(), ownerID, records.KindFinancials, "fin.csv", data)

		require.NoError(t, err)
		assert.Equal(t, StateInvalid, view.State)
		assert.False(t, view.Valid)
		assert.Equal(t, []validator.ValidationError{
			{Row: 3, Column: validator.ColAmount, Message: validator.MsgInvalidNumber},
		}, view.Errors)

		_, err = svc.Commit(context.Background(), ownerID, records.KindFinancials)
		assert.ErrorIs(t, err, ErrNotCommittable)
	})

	t.Run("unreadable file leaves the batch idle", func(t *testing.T) {
		svc := NewImportService(repository.NewMemoryRecordStore(), testLogger())
		_, err := svc.SelectFile(context.Background(), ownerID, records.KindSales, "sales.csv", financialCSV(3))
		require.NoError(t, err)

		_, err = svc.SelectFile(context.Background(), ownerID, records.KindSales, "sales.csv", []byte("Date,SalesRep\n"))

		var pe *parser.ParseError
		require.ErrorAs(t, err, &pe)
		assert.ErrorIs(t, err, parser.ErrEmptyFile)
		assert.Equal(t, StateIdle, svc.Batch(ownerID, records.KindSales).State)
	})

	t.Run("unknown kind", func(t *testing.T) {
		svc := NewImportService(repository.NewMemoryRecordStore(), testLogger())
		_, err := svc.SelectFile(context.Background(), ownerID, records.Kind("payroll"), "x.csv", financialCSV(1))
		assert.ErrorIs(t, err, records.ErrUnknownKind)
	})
}

// ============================================================================
// Commit
// ============================================================================

func TestImportService_Commit(t *testing.T) {
	t.Run("writes every row in chunks and refreshes", func(t *testing.T) {
		ctx := context.Background()
		ownerID := uuid.New()
		store := newRecordingStore()
		spy := &refreshSpy{}
		svc := NewImportService(store, testLogger()).WithRefresher(spy)

		_, err := svc.SelectFile(ctx, ownerID, records.KindFinancials, "fin.csv", financialCSV(120))
		require.NoError(t, err)

		result, err := svc.Commit(ctx, ownerID, records.KindFinancials)

		require.NoError(t, err)
		assert.Equal(t, &CommitResult{Kind: records.KindFinancials, Total: 120, Inserted: 120}, result)
		assert.Equal(t, []string{"bulk:financials:50", "bulk:financials:50", "bulk:financials:20"}, store.calls)
		assert.Equal(t, []uuid.UUID{ownerID}, spy.owners)

		view := svc.Batch(ownerID, records.KindFinancials)
		assert.Equal(t, StateCommitted, view.State)
		assert.Equal(t, result, view.Result)

		stored, err := store.ListFinancials(ctx, ownerID)
		require.NoError(t, err)
		require.Len(t, stored, 120)
		assert.Equal(t, records.DefaultPeriodType, stored[0].PeriodType)
		assert.Equal(t, 100.0, stored[0].Amount)

		_, err = svc.Commit(ctx, ownerID, records.KindFinancials)
		assert.ErrorIs(t, err, ErrNotCommittable, "a committed batch cannot be committed again")
	})

	t.Run("failed chunk reports progress and retry skips stored records", func(t *testing.T) {
		ctx := context.Background()
		ownerID := uuid.New()
		store := newRecordingStore()
		store.failOn = 2
		spy := &refreshSpy{}
		svc := NewImportService(store, testLogger()).WithRefresher(spy)

		_, err := svc.SelectFile(ctx, ownerID, records.KindFinancials, "fin.csv", financialCSV(120))
		require.NoError(t, err)

		_, err = svc.Commit(ctx, ownerID, records.KindFinancials)

		var ce *CommitError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 50, ce.Inserted)
		assert.Equal(t, records.KindFinancials, ce.Kind)
		assert.Len(t, store.calls, 2, "remaining chunks are aborted")
		assert.Empty(t, spy.owners)
		assert.Equal(t, StatePendingCommit, svc.Batch(ownerID, records.KindFinancials).State)

		store.failOn = 0
		result, err := svc.Commit(ctx, ownerID, records.KindFinancials)

		require.NoError(t, err)
		assert.Equal(t, 70, result.Inserted)
		assert.Equal(t, 50, result.Skipped)

		stored, err := store.ListFinancials(ctx, ownerID)
		require.NoError(t, err)
		assert.Len(t, stored, 120)
	})

	t.Run("idle batch is not committable", func(t *testing.T) {
		svc := NewImportService(repository.NewMemoryRecordStore(), testLogger())
		_, err := svc.Commit(context.Background(), uuid.New(), records.KindSales)
		assert.ErrorIs(t, err, ErrNotCommittable)
	})
}

func TestImportService_Commit_EnsuresVehiclesFirst(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := newRecordingStore()
	svc := NewImportService(store, testLogger())
	data := []byte(`Date,VehicleID,Liters,FuelCost,Odometer
2024-01-10,VAN-001,abc,135,52000
2024-01-11,TRK-002,40,120,
2024-01-12,VAN-001,40,120,52300`)

	_, err := svc.SelectFile(ctx, ownerID, records.KindFuel, "fuel.csv", data)
	require.NoError(t, err)

	result, err := svc.Commit(ctx, ownerID, records.KindFuel)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Vehicles)
	assert.Equal(t, []string{"vehicle:VAN-001", "vehicle:TRK-002", "bulk:fuel:3"}, store.calls)

	stored, err := store.ListFuel(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Zero(t, stored[0].Liters, "unparseable numbers become 0")
	assert.Zero(t, stored[1].Odometer)
	assert.Equal(t, 135.0, stored[0].Cost)
}

func TestImportService_Commit_AppliesDefaults(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := repository.NewMemoryRecordStore()
	svc := NewImportService(store, testLogger())

	_, err := svc.SelectFile(ctx, ownerID, records.KindSales, "sales.csv", []byte(`Date,SalesRep,Customer,Service,ContractValue,Cost
2024-01-20,Alice Smith,TechCorp,,18000,`))
	require.NoError(t, err)
	_, err = svc.Commit(ctx, ownerID, records.KindSales)
	require.NoError(t, err)

	_, err = svc.SelectFile(ctx, ownerID, records.KindMaintenance, "maint.csv", []byte(`Date,VehicleID,Type,MaintenanceCost,DowntimeDays,Notes
2024-01-08,TRK-002,Bodywork,450,,`))
	require.NoError(t, err)
	_, err = svc.Commit(ctx, ownerID, records.KindMaintenance)
	require.NoError(t, err)

	sales, err := store.ListSales(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, records.DefaultService, sales[0].Service)
	assert.Zero(t, sales[0].Cost)
	assert.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), sales[0].Date)

	maint, err := store.ListMaintenance(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, maint, 1)
	assert.Equal(t, records.MaintenanceOther, maint[0].Type)
	assert.Zero(t, maint[0].DowntimeDays)

	vehicles, err := store.ListVehicles(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "TRK-002", vehicles[0].VehicleID)
}

func TestImportService_CommitInProgress(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := &blockingStore{
		MemoryRecordStore: repository.NewMemoryRecordStore(),
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	svc := NewImportService(store, testLogger())

	_, err := svc.SelectFile(ctx, ownerID, records.KindFinancials, "fin.csv", financialCSV(5))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Commit(ctx, ownerID, records.KindFinancials)
		done <- err
	}()
	<-store.entered

	assert.Equal(t, StateCommitting, svc.Batch(ownerID, records.KindFinancials).State)

	_, err = svc.Commit(ctx, ownerID, records.KindFinancials)
	assert.ErrorIs(t, err, ErrCommitInProgress)
	_, err = svc.SelectFile(ctx, ownerID, records.KindFinancials, "other.csv", financialCSV(2))
	assert.ErrorIs(t, err, ErrCommitInProgress)
	assert.ErrorIs(t, svc.Reset(ownerID, records.KindFinancials), ErrCommitInProgress)

	_, err = svc.SelectFile(ctx, ownerID, records.KindSales, "sales.csv", []byte("Date,SalesRep,Customer,ContractValue\n2024-01-01,A,B,1\n"))
	assert.NoError(t, err, "other kinds are not blocked")

	close(store.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateCommitted, svc.Batch(ownerID, records.KindFinancials).State)
}

// ============================================================================
// Reset and purge
// ============================================================================

func TestImportService_Reset(t *testing.T) {
	ownerID := uuid.New()
	svc := NewImportService(repository.NewMemoryRecordStore(), testLogger())
	_, err := svc.SelectFile(context.Background(), ownerID, records.KindFinancials, "fin.csv", financialCSV(3))
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ownerID, records.KindFinancials))

	view := svc.Batch(ownerID, records.KindFinancials)
	assert.Equal(t, StateIdle, view.State)
	assert.Zero(t, view.TotalRows)
	assert.NotNil(t, view.Errors)
}

func TestImportService_PurgeStale(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	clock := now
	svc := NewImportService(repository.NewMemoryRecordStore(), testLogger()).
		WithClock(func() time.Time { return clock })
	alice, bob := uuid.New(), uuid.New()

	_, err := svc.SelectFile(context.Background(), alice, records.KindFinancials, "fin.csv", financialCSV(3))
	require.NoError(t, err)

	clock = now.Add(2 * time.Hour)
	_, err = svc.SelectFile(context.Background(), bob, records.KindFinancials, "fin.csv", financialCSV(3))
	require.NoError(t, err)

	purged := svc.PurgeStale(now.Add(time.Hour))

	assert.Equal(t, 1, purged)
	assert.Equal(t, StateIdle, svc.Batch(alice, records.KindFinancials).State)
	assert.Equal(t, StatePendingCommit, svc.Batch(bob, records.KindFinancials).State)
}

func TestRecordID_IsStable(t *testing.T) {
	ownerID := uuid.New()
	fp := fingerprint([]byte("a,b\n1,2\n"))

	assert.Equal(t, recordID(ownerID, records.KindSales, fp, 2), recordID(ownerID, records.KindSales, fp, 2))
	assert.NotEqual(t, recordID(ownerID, records.KindSales, fp, 2), recordID(ownerID, records.KindSales, fp, 3))
	assert.NotEqual(t, recordID(ownerID, records.KindSales, fp, 2), recordID(uuid.New(), records.KindSales, fp, 2))
}

// ============================================================================
// Numeric bounds and kind aliases
// ============================================================================

func TestImportService_RejectsNonFiniteAmounts(t *testing.T) {
	for _, amount := range []string{"1e400", "-1e400"} {
		t.Run(amount, func(t *testing.T) {
			ctx := context.Background()
			ownerID := uuid.New()
			store := repository.NewMemoryRecordStore()
			svc := NewImportService(store, testLogger())

			view, err := svc.SelectFile(ctx, ownerID, records.KindFinancials, "fin.csv",
				[]byte("Date,Type,Category,Amount\n2024-01-15,Revenue,Sales,"+amount+"\n"))

			require.NoError(t, err)
			assert.False(t, view.Valid)
			assert.Equal(t, []validator.ValidationError{
				{Row: 2, Column: validator.ColAmount, Message: validator.MsgInvalidNumber},
			}, view.Errors)

			_, err = svc.Commit(ctx, ownerID, records.KindFinancials)
			assert.ErrorIs(t, err, ErrNotCommittable)

			stored, err := store.ListFinancials(ctx, ownerID)
			require.NoError(t, err)
			assert.Empty(t, stored)
		})
	}
}

func TestImportService_Commit_CoercesOutOfRangeNumbers(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := repository.NewMemoryRecordStore()
	svc := NewImportService(store, testLogger())

	_, err := svc.SelectFile(ctx, ownerID, records.KindSales, "sales.csv", []byte(`Date,SalesRep,Customer,Service,ContractValue,Cost
2024-01-20,Alice Smith,TechCorp,Consulting,18000,1e400`))
	require.NoError(t, err)
	_, err = svc.Commit(ctx, ownerID, records.KindSales)
	require.NoError(t, err)

	_, err = svc.SelectFile(ctx, ownerID, records.KindMaintenance, "maint.csv", []byte(`Date,VehicleID,Type,MaintenanceCost,DowntimeDays,Notes
2024-01-08,TRK-002,Repair,450,99999999999,
2024-01-09,TRK-002,Repair,450,-2,`))
	require.NoError(t, err)
	_, err = svc.Commit(ctx, ownerID, records.KindMaintenance)
	require.NoError(t, err)

	sales, err := store.ListSales(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Zero(t, sales[0].Cost)

	maint, err := store.ListMaintenance(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, maint, 2)
	assert.Equal(t, math.MaxInt32, maint[0].DowntimeDays)
	assert.Zero(t, maint[1].DowntimeDays)
}

func TestImportService_NormalizesKindAlias(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := repository.NewMemoryRecordStore()
	svc := NewImportService(store, testLogger())
	data := []byte("Date,VehicleID,Liters,FuelCost,Odometer\n2024-01-10,VAN-001,45,135,52000\n")

	view, err := svc.SelectFile(ctx, ownerID, records.Kind("fleet"), "fuel.csv", data)
	require.NoError(t, err)
	assert.Equal(t, records.KindFuel, view.Kind)
	assert.True(t, view.Valid)
	assert.Equal(t, StatePendingCommit, svc.Batch(ownerID, records.Kind("fleet")).State)

	result, err := svc.Commit(ctx, ownerID, records.Kind("fleet"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, StateCommitted, svc.Batch(ownerID, records.KindFuel).State)

	require.NoError(t, svc.Reset(ownerID, records.Kind("Fleet")))
	assert.Equal(t, StateIdle, svc.Batch(ownerID, records.KindFuel).State)

	assert.ErrorIs(t, svc.Reset(ownerID, records.Kind("payroll")), records.ErrUnknownKind)
}
