package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

// PostgresRecordStore implements RecordStore using PostgreSQL
type PostgresRecordStore struct {
	db DBTX
}

// NewPostgresRecordStore creates a new PostgreSQL record store
func NewPostgresRecordStore(db DBTX) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

var kindTables = map[records.Kind]string{
	records.KindFinancials:  "financial_records",
	records.KindSales:       "sales_records",
	records.KindFuel:        "fuel_records",
	records.KindMaintenance: "maintenance_records",
}

// ============================================================================
// Financial records
// ============================================================================

// ListFinancials returns all financial records of an owner ordered by date
func (r *PostgresRecordStore) ListFinancials(ctx context.Context, ownerID uuid.UUID) ([]records.FinancialRecord, error) {
	query := `
		SELECT id, owner_id, date, type, category, amount, sub_category, cost_center, description, period_type
		FROM financial_records
		WHERE owner_id = $1
		ORDER BY date, created_at`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list financial records: %w", err)
	}
	defer rows.Close()

	var out []records.FinancialRecord
	for rows.Next() {
		var rec records.FinancialRecord
		if err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.Date, &rec.Type, &rec.Category, &rec.Amount,
			&rec.SubCategory, &rec.CostCenter, &rec.Description, &rec.PeriodType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan financial record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InsertFinancial inserts a single financial record
func (r *PostgresRecordStore) InsertFinancial(ctx context.Context, rec *records.FinancialRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `
		INSERT INTO financial_records (id, owner_id, date, type, category, amount, sub_category, cost_center, description, period_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.OwnerID, rec.Date, rec.Type, rec.Category, rec.Amount,
		rec.SubCategory, rec.CostCenter, rec.Description, rec.PeriodType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert financial record: %w", err)
	}
	return nil
}

// BulkInsertFinancials inserts financial records in one statement, skipping existing ids
func (r *PostgresRecordStore) BulkInsertFinancials(ctx context.Context, recs []records.FinancialRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO financial_records (id, owner_id, date, type, category, amount, sub_category, cost_center, description, period_type)
		SELECT * FROM unnest($1::uuid[], $2::uuid[], $3::date[], $4::text[], $5::text[], $6::float8[], $7::text[], $8::text[], $9::text[], $10::text[])
		ON CONFLICT (id) DO NOTHING`

	n := len(recs)
	ids, owners, dates := make([]uuid.UUID, n), make([]uuid.UUID, n), make([]time.Time, n)
	types, cats, subs := make([]string, n), make([]string, n), make([]string, n)
	centers, descs, periods := make([]string, n), make([]string, n), make([]string, n)
	amounts := make([]float64, n)
	for i, rec := range recs {
		ids[i], owners[i], dates[i] = rec.ID, rec.OwnerID, rec.Date
		types[i], cats[i], amounts[i] = rec.Type, rec.Category, rec.Amount
		subs[i], centers[i], descs[i], periods[i] = rec.SubCategory, rec.CostCenter, rec.Description, rec.PeriodType
	}

	tag, err := r.db.Exec(ctx, query, ids, owners, dates, types, cats, amounts, subs, centers, descs, periods)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert financial records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ============================================================================
// Sales records
// ============================================================================

// ListSales returns all sales records of an owner ordered by date
func (r *PostgresRecordStore) ListSales(ctx context.Context, ownerID uuid.UUID) ([]records.SalesRecord, error) {
	query := `
		SELECT id, owner_id, date, sales_rep, customer, service, contract_value, cost
		FROM sales_records
		WHERE owner_id = $1
		ORDER BY date, created_at`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales records: %w", err)
	}
	defer rows.Close()

	var out []records.SalesRecord
	for rows.Next() {
		var rec records.SalesRecord
		if err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.Date, &rec.SalesRep, &rec.Customer, &rec.Service,
			&rec.ContractValue, &rec.Cost,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sales record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InsertSale inserts a single sales record
func (r *PostgresRecordStore) InsertSale(ctx context.Context, rec *records.SalesRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `
		INSERT INTO sales_records (id, owner_id, date, sales_rep, customer, service, contract_value, cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.OwnerID, rec.Date, rec.SalesRep, rec.Customer, rec.Service, rec.ContractValue, rec.Cost,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sales record: %w", err)
	}
	return nil
}

// BulkInsertSales inserts sales records in one statement, skipping existing ids
func (r *PostgresRecordStore) BulkInsertSales(ctx context.Context, recs []records.SalesRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO sales_records (id, owner_id, date, sales_rep, customer, service, contract_value, cost)
		SELECT * FROM unnest($1::uuid[], $2::uuid[], $3::date[], $4::text[], $5::text[], $6::text[], $7::float8[], $8::float8[])
		ON CONFLICT (id) DO NOTHING`

	n := len(recs)
	ids, owners, dates := make([]uuid.UUID, n), make([]uuid.UUID, n), make([]time.Time, n)
	reps, customers, services := make([]string, n), make([]string, n), make([]string, n)
	values, costs := make([]float64, n), make([]float64, n)
	for i, rec := range recs {
		ids[i], owners[i], dates[i] = rec.ID, rec.OwnerID, rec.Date
		reps[i], customers[i], services[i] = rec.SalesRep, rec.Customer, rec.Service
		values[i], costs[i] = rec.ContractValue, rec.Cost
	}

	tag, err := r.db.Exec(ctx, query, ids, owners, dates, reps, customers, services, values, costs)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert sales records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ============================================================================
// Fuel records
// ============================================================================

// ListFuel returns all fuel records of an owner ordered by date
func (r *PostgresRecordStore) ListFuel(ctx context.Context, ownerID uuid.UUID) ([]records.FuelRecord, error) {
	query := `
		SELECT id, owner_id, date, vehicle_id, cost, liters, odometer
		FROM fuel_records
		WHERE owner_id = $1
		ORDER BY date, created_at`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fuel records: %w", err)
	}
	defer rows.Close()

	var out []records.FuelRecord
	for rows.Next() {
		var rec records.FuelRecord
		if err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.Date, &rec.VehicleID, &rec.Cost, &rec.Liters, &rec.Odometer,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fuel record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InsertFuel inserts a single fuel record
func (r *PostgresRecordStore) InsertFuel(ctx context.Context, rec *records.FuelRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `
		INSERT INTO fuel_records (id, owner_id, date, vehicle_id, cost, liters, odometer)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.OwnerID, rec.Date, rec.VehicleID, rec.Cost, rec.Liters, rec.Odometer,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fuel record: %w", err)
	}
	return nil
}

// BulkInsertFuel inserts fuel records in one statement, skipping existing ids
func (r *PostgresRecordStore) BulkInsertFuel(ctx context.Context, recs []records.FuelRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO fuel_records (id, owner_id, date, vehicle_id, cost, liters, odometer)
		SELECT * FROM unnest($1::uuid[], $2::uuid[], $3::date[], $4::text[], $5::float8[], $6::float8[], $7::float8[])
		ON CONFLICT (id) DO NOTHING`

	n := len(recs)
	ids, owners, dates := make([]uuid.UUID, n), make([]uuid.UUID, n), make([]time.Time, n)
	vehicles := make([]string, n)
	costs, liters, odos := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, rec := range recs {
		ids[i], owners[i], dates[i], vehicles[i] = rec.ID, rec.OwnerID, rec.Date, rec.VehicleID
		costs[i], liters[i], odos[i] = rec.Cost, rec.Liters, rec.Odometer
	}

	tag, err := r.db.Exec(ctx, query, ids, owners, dates, vehicles, costs, liters, odos)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert fuel records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ============================================================================
// Maintenance records
// ============================================================================

// ListMaintenance returns all maintenance records of an owner ordered by date
func (r *PostgresRecordStore) ListMaintenance(ctx context.Context, ownerID uuid.UUID) ([]records.MaintenanceRecord, error) {
	query := `
		SELECT id, owner_id, date, vehicle_id, type, cost, downtime_days, notes
		FROM maintenance_records
		WHERE owner_id = $1
		ORDER BY date, created_at`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance records: %w", err)
	}
	defer rows.Close()

	var out []records.MaintenanceRecord
	for rows.Next() {
		var rec records.MaintenanceRecord
		if err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.Date, &rec.VehicleID, &rec.Type, &rec.Cost, &rec.DowntimeDays, &rec.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan maintenance record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InsertMaintenance inserts a single maintenance record
func (r *PostgresRecordStore) InsertMaintenance(ctx context.Context, rec *records.MaintenanceRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `
		INSERT INTO maintenance_records (id, owner_id, date, vehicle_id, type, cost, downtime_days, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.OwnerID, rec.Date, rec.VehicleID, rec.Type, rec.Cost, rec.DowntimeDays, rec.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert maintenance record: %w", err)
	}
	return nil
}

// BulkInsertMaintenance inserts maintenance records in one statement, skipping existing ids
func (r *PostgresRecordStore) BulkInsertMaintenance(ctx context.Context, recs []records.MaintenanceRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO maintenance_records (id, owner_id, date, vehicle_id, type, cost, downtime_days, notes)
		SELECT * FROM unnest($1::uuid[], $2::uuid[], $3::date[], $4::text[], $5::text[], $6::float8[], $7::int4[], $8::text[])
		ON CONFLICT (id) DO NOTHING`

	n := len(recs)
	ids, owners, dates := make([]uuid.UUID, n), make([]uuid.UUID, n), make([]time.Time, n)
	vehicles, types, notes := make([]string, n), make([]string, n), make([]string, n)
	costs := make([]float64, n)
	downtime := make([]int32, n)
	for i, rec := range recs {
		ids[i], owners[i], dates[i] = rec.ID, rec.OwnerID, rec.Date
		vehicles[i], types[i], notes[i] = rec.VehicleID, rec.Type, rec.Notes
		costs[i], downtime[i] = rec.Cost, int32(rec.DowntimeDays)
	}

	tag, err := r.db.Exec(ctx, query, ids, owners, dates, vehicles, types, costs, downtime, notes)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert maintenance records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteAll removes every record of one kind for an owner
func (r *PostgresRecordStore) DeleteAll(ctx context.Context, ownerID uuid.UUID, kind records.Kind) error {
	table, ok := kindTables[kind]
	if !ok {
		return fmt.Errorf("%w: %q", records.ErrUnknownKind, kind)
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1`, table)
	if _, err := r.db.Exec(ctx, query, ownerID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return nil
}

// ============================================================================
// Vehicles
// ============================================================================

// GetOrCreateVehicle returns the vehicle, inserting it first when it does not exist
func (r *PostgresRecordStore) GetOrCreateVehicle(ctx context.Context, ownerID uuid.UUID, vehicleID string) (*records.Vehicle, error) {
	insert := `
		INSERT INTO vehicles (owner_id, vehicle_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, vehicle_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, insert, ownerID, vehicleID, records.DefaultVehicleStatus); err != nil {
		return nil, fmt.Errorf("failed to create vehicle %s: %w", vehicleID, err)
	}

	query := `
		SELECT owner_id, vehicle_id, plate, type, branch, status, created_at
		FROM vehicles
		WHERE owner_id = $1 AND vehicle_id = $2`

	v := &records.Vehicle{}
	err := r.db.QueryRow(ctx, query, ownerID, vehicleID).Scan(
		&v.OwnerID, &v.VehicleID, &v.Plate, &v.Type, &v.Branch, &v.Status, &v.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle %s: %w", vehicleID, err)
	}
	return v, nil
}

// ListVehicles returns every vehicle of an owner
func (r *PostgresRecordStore) ListVehicles(ctx context.Context, ownerID uuid.UUID) ([]records.Vehicle, error) {
	query := `
		SELECT owner_id, vehicle_id, plate, type, branch, status, created_at
		FROM vehicles
		WHERE owner_id = $1
		ORDER BY vehicle_id`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	var out []records.Vehicle
	for rows.Next() {
		var v records.Vehicle
		if err := rows.Scan(&v.OwnerID, &v.VehicleID, &v.Plate, &v.Type, &v.Branch, &v.Status, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ============================================================================
// Company profile
// ============================================================================

// GetProfile returns the owner's profile or nil when none was saved
func (r *PostgresRecordStore) GetProfile(ctx context.Context, ownerID uuid.UUID) (*records.CompanyProfile, error) {
	query := `
		SELECT owner_id, name, currency, updated_at
		FROM company_profiles
		WHERE owner_id = $1`

	p := &records.CompanyProfile{}
	err := r.db.QueryRow(ctx, query, ownerID).Scan(&p.OwnerID, &p.Name, &p.Currency, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpsertProfile creates or updates the owner's profile
func (r *PostgresRecordStore) UpsertProfile(ctx context.Context, profile *records.CompanyProfile) error {
	query := `
		INSERT INTO company_profiles (owner_id, name, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET
			name = EXCLUDED.name,
			currency = EXCLUDED.currency,
			updated_at = now()
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query, profile.OwnerID, profile.Name, profile.Currency).Scan(&profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
