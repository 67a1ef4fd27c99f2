package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/bizpulse/internal/domain/import/parser"
	"github.com/FACorreiaa/bizpulse/internal/domain/import/validator"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

// recordNamespace seeds the name-based ids of imported records
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://bizpulse.app/import/records"))

// fingerprint identifies an uploaded file by content
func fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// recordID is stable for a given owner, kind, file and line, so a retried
// commit produces the same ids and the store skips what it already has.
func recordID(ownerID uuid.UUID, kind records.Kind, fileFingerprint string, line int) uuid.UUID {
	name := fmt.Sprintf("%s/%s/%s/%d", ownerID, kind, fileFingerprint, line)
	return uuid.NewSHA1(recordNamespace, []byte(name))
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func toFinancial(ownerID uuid.UUID, fp string, row parser.Row) records.FinancialRecord {
	r := validator.FinancialFromRow(row)
	date, _ := validator.ParseDate(r.Date)
	return records.FinancialRecord{
		ID:          recordID(ownerID, records.KindFinancials, fp, r.Line),
		OwnerID:     ownerID,
		Date:        date,
		Type:        strings.TrimSpace(r.Type),
		Category:    orDefault(r.Category, records.DefaultCategory),
		Amount:      validator.NumberOrZero(r.Amount),
		SubCategory: strings.TrimSpace(r.SubCategory),
		CostCenter:  strings.TrimSpace(r.CostCenter),
		Description: strings.TrimSpace(r.Description),
		PeriodType:  records.DefaultPeriodType,
	}
}

func toSale(ownerID uuid.UUID, fp string, row parser.Row) records.SalesRecord {
	r := validator.SalesFromRow(row)
	date, _ := validator.ParseDate(r.Date)
	return records.SalesRecord{
		ID:            recordID(ownerID, records.KindSales, fp, r.Line),
		OwnerID:       ownerID,
		Date:          date,
		SalesRep:      orDefault(r.SalesRep, records.DefaultParty),
		Customer:      orDefault(r.Customer, records.DefaultParty),
		Service:       orDefault(r.Service, records.DefaultService),
		ContractValue: validator.NumberOrZero(r.ContractValue),
		Cost:          validator.NumberOrZero(r.Cost),
	}
}

func toFuel(ownerID uuid.UUID, fp string, row parser.Row) records.FuelRecord {
	r := validator.FuelFromRow(row)
	date, _ := validator.ParseDate(r.Date)
	return records.FuelRecord{
		ID:        recordID(ownerID, records.KindFuel, fp, r.Line),
		OwnerID:   ownerID,
		Date:      date,
		VehicleID: strings.TrimSpace(r.VehicleID),
		Cost:      validator.NumberOrZero(r.FuelCost),
		Liters:    validator.NumberOrZero(r.Liters),
		Odometer:  validator.NumberOrZero(r.Odometer),
	}
}

func toMaintenance(ownerID uuid.UUID, fp string, row parser.Row) records.MaintenanceRecord {
	r := validator.MaintenanceFromRow(row)
	date, _ := validator.ParseDate(r.Date)
	return records.MaintenanceRecord{
		ID:           recordID(ownerID, records.KindMaintenance, fp, r.Line),
		OwnerID:      ownerID,
		Date:         date,
		VehicleID:    strings.TrimSpace(r.VehicleID),
		Type:         records.NormalizeMaintenanceType(r.Type),
		Cost:         validator.NumberOrZero(r.MaintenanceCost),
		DowntimeDays: validator.IntOrZero(r.DowntimeDays),
		Notes:        strings.TrimSpace(r.Notes),
	}
}

func convertRows[T any](rows []parser.Row, convert func(parser.Row) T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, convert(row))
	}
	return out
}
