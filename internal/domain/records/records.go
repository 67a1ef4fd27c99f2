// Package records defines the canonical business records shared by the import
// pipeline, the mock data generator and the dashboard aggregations.
package records

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies one of the four datasets
type Kind string

const (
	KindFinancials  Kind = "financials"
	KindSales       Kind = "sales"
	KindFuel        Kind = "fuel"
	KindMaintenance Kind = "maintenance"
)

// AllKinds lists every dataset kind in display order
var AllKinds = []Kind{KindFinancials, KindSales, KindFuel, KindMaintenance}

// ErrUnknownKind is returned when a dataset kind cannot be resolved
var ErrUnknownKind = errors.New("unknown dataset kind")

// ParseKind resolves a kind from a path segment or form value.
// "fleet" is accepted as an alias for fuel.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "financials", "financial":
		return KindFinancials, nil
	case "sales":
		return KindSales, nil
	case "fuel", "fleet":
		return KindFuel, nil
	case "maintenance":
		return KindMaintenance, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Financial record types
const (
	TypeRevenue = "Revenue"
	TypeExpense = "Expense"
)

// Maintenance record types
const (
	MaintenanceRoutine = "Routine"
	MaintenanceRepair  = "Repair"
	MaintenanceTires   = "Tires"
	MaintenanceOther   = "Other"
)

// Defaults applied when optional values are missing
const (
	DefaultCategory        = "General"
	DefaultService         = "General"
	DefaultParty           = "Unknown"
	DefaultPeriodType      = "Month"
	DefaultVehicleID       = "UNKNOWN"
	DefaultVehicleStatus   = "Active"
	DefaultCompanyName     = "My Company"
	DefaultCompanyCurrency = "SAR"
	SalariesCategory       = "Salaries"
)

// NormalizeMaintenanceType maps free text onto the known maintenance types
func NormalizeMaintenanceType(s string) string {
	switch strings.TrimSpace(s) {
	case MaintenanceRoutine, MaintenanceRepair, MaintenanceTires, MaintenanceOther:
		return strings.TrimSpace(s)
	}
	return MaintenanceOther
}

// FinancialRecord is a revenue or expense line
type FinancialRecord struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	SubCategory string    `json:"sub_category"`
	CostCenter  string    `json:"cost_center"`
	Description string    `json:"description"`
	PeriodType  string    `json:"period_type"`
}

func (r FinancialRecord) RecordDate() time.Time { return r.Date }

// IsRevenue reports whether the record counts towards revenue
func (r FinancialRecord) IsRevenue() bool { return r.Type == TypeRevenue }

// SalesRecord is a closed deal
type SalesRecord struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Date          time.Time `json:"date"`
	SalesRep      string    `json:"sales_rep"`
	Customer      string    `json:"customer"`
	Service       string    `json:"service"`
	ContractValue float64   `json:"contract_value"`
	Cost          float64   `json:"cost"`
}

func (r SalesRecord) RecordDate() time.Time { return r.Date }

// Profit is contract value minus cost
func (r SalesRecord) Profit() float64 { return r.ContractValue - r.Cost }

// MarginPercent is profit over contract value, 0 when there is no contract value
func (r SalesRecord) MarginPercent() float64 {
	if r.ContractValue <= 0 {
		return 0
	}
	return r.Profit() / r.ContractValue * 100
}

// FuelRecord is a refuelling event for a vehicle
type FuelRecord struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Date      time.Time `json:"date"`
	VehicleID string    `json:"vehicle_id"`
	Cost      float64   `json:"cost"`
	Liters    float64   `json:"liters"`
	Odometer  float64   `json:"odometer"`
}

func (r FuelRecord) RecordDate() time.Time { return r.Date }

// MaintenanceRecord is a service event for a vehicle
type MaintenanceRecord struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Date         time.Time `json:"date"`
	VehicleID    string    `json:"vehicle_id"`
	Type         string    `json:"type"`
	Cost         float64   `json:"cost"`
	DowntimeDays int       `json:"downtime_days"`
	Notes        string    `json:"notes"`
}

func (r MaintenanceRecord) RecordDate() time.Time { return r.Date }

// Vehicle is created lazily the first time a fleet row references it
type Vehicle struct {
	OwnerID   uuid.UUID `json:"owner_id"`
	VehicleID string    `json:"vehicle_id"`
	Plate     string    `json:"plate"`
	Type      string    `json:"type"`
	Branch    string    `json:"branch"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CompanyProfile holds the owner's display name and reporting currency
type CompanyProfile struct {
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultProfile is used until the owner saves one
func DefaultProfile(ownerID uuid.UUID) *CompanyProfile {
	return &CompanyProfile{
		OwnerID:  ownerID,
		Name:     DefaultCompanyName,
		Currency: DefaultCompanyCurrency,
	}
}

// Dataset bundles the four collections of one owner
type Dataset struct {
	Financials  []FinancialRecord
	Sales       []SalesRecord
	Fuel        []FuelRecord
	Maintenance []MaintenanceRecord
}

// Len returns the number of records across all kinds
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Financials) + len(d.Sales) + len(d.Fuel) + len(d.Maintenance)
}

// VehicleIDs returns the distinct vehicle ids referenced by fleet records in first-seen order
func (d *Dataset) VehicleIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, r := range d.Fuel {
		add(r.VehicleID)
	}
	for _, r := range d.Maintenance {
		add(r.VehicleID)
	}
	return ids
}
