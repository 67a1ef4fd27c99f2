// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/bizpulse/internal/domain/import/parser"
	"github.com/FACorreiaa/bizpulse/internal/domain/import/validator"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/internal/domain/records/repository"
)

const (
	importChunkSize   = 50
	importPreviewSize = 20
)

// Refresher is notified after records were written for an owner
type Refresher interface {
	Refresh(ctx context.Context, ownerID uuid.UUID)
}

type batchKey struct {
	ownerID uuid.UUID
	kind    records.Kind
}

type machine struct {
	mu      sync.Mutex
	batch   Batch
	removed bool
}

// ImportService runs one import state machine per owner and kind
type ImportService struct {
	store       repository.RecordStore
	refresher   Refresher // Optional: nil when nothing caches records
	logger      *slog.Logger
	tracer      trace.Tracer
	chunkSize   int
	previewSize int
	now         func() time.Time

	mu       sync.Mutex
	machines map[batchKey]*machine
}

// NewImportService creates a new import service
func NewImportService(store repository.RecordStore, logger *slog.Logger) *ImportService {
	return &ImportService{
		store:       store,
		logger:      logger,
		tracer:      otel.Tracer("github.com/FACorreiaa/bizpulse/internal/domain/import/service"),
		chunkSize:   importChunkSize,
		previewSize: importPreviewSize,
		now:         time.Now,
		machines:    make(map[batchKey]*machine),
	}
}

// WithRefresher sets the collaborator refreshed after a successful commit
func (s *ImportService) WithRefresher(r Refresher) *ImportService {
	s.refresher = r
	return s
}

// WithChunkSize overrides how many records are written per store call
func (s *ImportService) WithChunkSize(n int) *ImportService {
	if n > 0 {
		s.chunkSize = n
	}
	return s
}

// WithPreviewSize overrides how many rows a batch view previews
func (s *ImportService) WithPreviewSize(n int) *ImportService {
	if n > 0 {
		s.previewSize = n
	}
	return s
}

// WithClock replaces time.Now, for tests
func (s *ImportService) WithClock(now func() time.Time) *ImportService {
	s.now = now
	return s
}

// lock returns the machine for key with its mutex held
func (s *ImportService) lock(ownerID uuid.UUID, kind records.Kind) *machine {
	key := batchKey{ownerID: ownerID, kind: kind}
	for {
		s.mu.Lock()
		m, ok := s.machines[key]
		if !ok {
			m = &machine{}
			m.batch.reset(kind, s.now())
			s.machines[key] = m
		}
		s.mu.Unlock()

		m.mu.Lock()
		if !m.removed {
			return m
		}
		// purged between lookup and lock
		m.mu.Unlock()
	}
}

// SelectFile replaces the owner's batch for kind with the parsed and
// validated contents of a file. Validation findings are part of the returned
// view; the error is only set when the file could not be read at all.
func (s *ImportService) SelectFile(ctx context.Context, ownerID uuid.UUID, kind records.Kind, fileName string, data []byte) (*BatchView, error) {
	kind, err := records.ParseKind(string(kind))
	if err != nil {
		return nil, err
	}

	m := s.lock(ownerID, kind)
	defer m.mu.Unlock()

	if m.batch.State == StateCommitting {
		return nil, ErrCommitInProgress
	}
	now := s.now()
	m.batch.reset(kind, now)

	doc, err := parser.ReadFile(fileName, data)
	if err != nil {
		s.logger.Info("import file rejected", "owner_id", ownerID, "kind", kind, "file", fileName, "error", err)
		return nil, err
	}

	errs, err := validator.Validate(kind, doc.Rows)
	if err != nil {
		return nil, err
	}

	b := &m.batch
	b.FileName = fileName
	b.Fingerprint = fingerprint(data)
	b.Headers = doc.Headers
	b.Rows = doc.Rows
	b.State = StateParsed
	b.Errors = errs
	b.Suggestions = validator.SuggestHeaders(kind, doc.Headers)
	if len(errs) > 0 {
		b.State = StateInvalid
		validationErrorsTotal.WithLabelValues(string(kind)).Add(float64(len(errs)))
	} else {
		b.State = StatePendingCommit
	}

	s.logger.Info("import file selected",
		"owner_id", ownerID,
		"kind", kind,
		"file", fileName,
		"rows", len(doc.Rows),
		"errors", len(errs),
		"state", b.State,
	)

	view := b.view(s.previewSize)
	return &view, nil
}

// Batch returns a snapshot of the owner's batch for kind
func (s *ImportService) Batch(ownerID uuid.UUID, kind records.Kind) BatchView {
	if parsed, err := records.ParseKind(string(kind)); err == nil {
		kind = parsed
	}
	s.mu.Lock()
	m, ok := s.machines[batchKey{ownerID: ownerID, kind: kind}]
	s.mu.Unlock()
	if !ok {
		b := Batch{Kind: kind, State: StateIdle}
		return b.view(s.previewSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batch.view(s.previewSize)
}

// Reset discards the owner's batch for kind
func (s *ImportService) Reset(ownerID uuid.UUID, kind records.Kind) error {
	kind, err := records.ParseKind(string(kind))
	if err != nil {
		return err
	}
	m := s.lock(ownerID, kind)
	defer m.mu.Unlock()

	if m.batch.State == StateCommitting {
		return ErrCommitInProgress
	}
	m.batch.reset(kind, s.now())
	return nil
}

// Commit converts every row of a valid pending batch and writes it to the
// store in chunks. Once started the commit runs to completion or to its first
// failed chunk regardless of ctx cancellation.
func (s *ImportService) Commit(ctx context.Context, ownerID uuid.UUID, kind records.Kind) (*CommitResult, error) {
	kind, err := records.ParseKind(string(kind))
	if err != nil {
		return nil, err
	}
	m := s.lock(ownerID, kind)
	switch m.batch.State {
	case StatePendingCommit:
	case StateCommitting:
		m.mu.Unlock()
		return nil, ErrCommitInProgress
	default:
		m.mu.Unlock()
		return nil, ErrNotCommittable
	}
	m.batch.State = StateCommitting
	m.batch.UpdatedAt = s.now()
	batch := m.batch
	m.mu.Unlock()

	ctx, span := s.tracer.Start(context.WithoutCancel(ctx), "ImportService.Commit",
		trace.WithAttributes(
			attribute.String("import.kind", string(kind)),
			attribute.Int("import.rows", len(batch.Rows)),
		))
	defer span.End()

	start := time.Now()
	result, err := s.commit(ctx, ownerID, &batch)

	m.mu.Lock()
	m.batch.UpdatedAt = s.now()
	if err != nil {
		m.batch.State = StatePendingCommit
	} else {
		m.batch.State = StateCommitted
		m.batch.Result = result
	}
	m.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		commitsTotal.WithLabelValues(string(kind), "failed").Inc()

		var ce *CommitError
		if errors.As(err, &ce) {
			rowsTotal.WithLabelValues(string(kind)).Add(float64(ce.Inserted))
		}
		s.logger.Error("import commit failed",
			"owner_id", ownerID,
			"kind", kind,
			slog.Any("error", err),
		)
		return nil, err
	}

	commitsTotal.WithLabelValues(string(kind), "committed").Inc()
	rowsTotal.WithLabelValues(string(kind)).Add(float64(result.Inserted))
	span.SetAttributes(attribute.Int("import.inserted", result.Inserted))

	s.logger.Info("import committed",
		"owner_id", ownerID,
		"kind", kind,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"duration", time.Since(start),
	)

	if s.refresher != nil {
		s.refresher.Refresh(ctx, ownerID)
	}
	return result, nil
}

func (s *ImportService) commit(ctx context.Context, ownerID uuid.UUID, b *Batch) (*CommitResult, error) {
	result := &CommitResult{Kind: b.Kind, Total: len(b.Rows)}
	fp := b.Fingerprint

	var inserted int
	var err error
	switch b.Kind {
	case records.KindFinancials:
		recs := convertRows(b.Rows, func(r parser.Row) records.FinancialRecord { return toFinancial(ownerID, fp, r) })
		inserted, err = repository.InsertChunks(ctx, recs, s.chunkSize, s.store.BulkInsertFinancials)
	case records.KindSales:
		recs := convertRows(b.Rows, func(r parser.Row) records.SalesRecord { return toSale(ownerID, fp, r) })
		inserted, err = repository.InsertChunks(ctx, recs, s.chunkSize, s.store.BulkInsertSales)
	case records.KindFuel:
		recs := convertRows(b.Rows, func(r parser.Row) records.FuelRecord { return toFuel(ownerID, fp, r) })
		ds := records.Dataset{Fuel: recs}
		if result.Vehicles, err = s.ensureVehicles(ctx, ownerID, ds.VehicleIDs()); err != nil {
			return nil, &CommitError{Kind: b.Kind, Err: err}
		}
		inserted, err = repository.InsertChunks(ctx, recs, s.chunkSize, s.store.BulkInsertFuel)
	case records.KindMaintenance:
		recs := convertRows(b.Rows, func(r parser.Row) records.MaintenanceRecord { return toMaintenance(ownerID, fp, r) })
		ds := records.Dataset{Maintenance: recs}
		if result.Vehicles, err = s.ensureVehicles(ctx, ownerID, ds.VehicleIDs()); err != nil {
			return nil, &CommitError{Kind: b.Kind, Err: err}
		}
		inserted, err = repository.InsertChunks(ctx, recs, s.chunkSize, s.store.BulkInsertMaintenance)
	default:
		return nil, fmt.Errorf("%w: %q", records.ErrUnknownKind, b.Kind)
	}
	if err != nil {
		return nil, &CommitError{Kind: b.Kind, Inserted: inserted, Err: err}
	}

	result.Inserted = inserted
	result.Skipped = result.Total - inserted
	return result, nil
}

// ensureVehicles creates the referenced vehicles in first-seen order
func (s *ImportService) ensureVehicles(ctx context.Context, ownerID uuid.UUID, vehicleIDs []string) (int, error) {
	for _, id := range vehicleIDs {
		if _, err := s.store.GetOrCreateVehicle(ctx, ownerID, id); err != nil {
			return 0, fmt.Errorf("failed to ensure vehicle %s: %w", id, err)
		}
	}
	return len(vehicleIDs), nil
}

// PurgeStale drops idle, finished or abandoned batches last touched before
// cutoff. Batches that are committing are kept. It returns how many were dropped.
func (s *ImportService) PurgeStale(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for key, m := range s.machines {
		if !m.mu.TryLock() {
			continue
		}
		if m.batch.State != StateCommitting && m.batch.UpdatedAt.Before(cutoff) {
			m.removed = true
			delete(s.machines, key)
			purged++
		}
		m.mu.Unlock()
	}
	if purged > 0 {
		s.logger.Debug("purged stale import batches", "count", purged)
	}
	return purged
}
