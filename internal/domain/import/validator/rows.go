package validator

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/bizpulse/internal/domain/import/parser"
)

// Column names recognised in import files
const (
	ColDate            = "Date"
	ColType            = "Type"
	ColCategory        = "Category"
	ColAmount          = "Amount"
	ColSubCategory     = "SubCategory"
	ColCostCenter      = "CostCenter"
	ColDescription     = "Description"
	ColSalesRep        = "SalesRep"
	ColCustomer        = "Customer"
	ColService         = "Service"
	ColContractValue   = "ContractValue"
	ColCost            = "Cost"
	ColVehicleID       = "VehicleID"
	ColLiters          = "Liters"
	ColFuelCost        = "FuelCost"
	ColOdometer        = "Odometer"
	ColMaintenanceCost = "MaintenanceCost"
	ColDowntimeDays    = "DowntimeDays"
	ColNotes           = "Notes"
)

// FinancialRow is the financials view of a mapped row
type FinancialRow struct {
	Line        int
	Date        string
	Type        string
	Category    string
	Amount      string
	SubCategory string
	CostCenter  string
	Description string
}

// FinancialFromRow reads the financials columns of a row
func FinancialFromRow(r parser.Row) FinancialRow {
	return FinancialRow{
		Line:        r.Line,
		Date:        r.Get(ColDate),
		Type:        r.Get(ColType),
		Category:    r.Get(ColCategory),
		Amount:      r.Get(ColAmount),
		SubCategory: r.Get(ColSubCategory),
		CostCenter:  r.Get(ColCostCenter),
		Description: r.Get(ColDescription),
	}
}

// SalesRow is the sales view of a mapped row
type SalesRow struct {
	Line          int
	Date          string
	SalesRep      string
	Customer      string
	Service       string
	ContractValue string
	Cost          string
}

// SalesFromRow reads the sales columns of a row
func SalesFromRow(r parser.Row) SalesRow {
	return SalesRow{
		Line:          r.Line,
		Date:          r.Get(ColDate),
		SalesRep:      r.Get(ColSalesRep),
		Customer:      r.Get(ColCustomer),
		Service:       r.Get(ColService),
		ContractValue: r.Get(ColContractValue),
		Cost:          r.Get(ColCost),
	}
}

// FuelRow is the fuel view of a mapped row
type FuelRow struct {
	Line      int
	Date      string
	VehicleID string
	Liters    string
	FuelCost  string
	Odometer  string
}

// FuelFromRow reads the fuel columns of a row
func FuelFromRow(r parser.Row) FuelRow {
	return FuelRow{
		Line:      r.Line,
		Date:      r.Get(ColDate),
		VehicleID: r.Get(ColVehicleID),
		Liters:    r.Get(ColLiters),
		FuelCost:  r.Get(ColFuelCost),
		Odometer:  r.Get(ColOdometer),
	}
}

// MaintenanceRow is the maintenance view of a mapped row
type MaintenanceRow struct {
	Line            int
	Date            string
	VehicleID       string
	Type            string
	MaintenanceCost string
	DowntimeDays    string
	Notes           string
}

// MaintenanceFromRow reads the maintenance columns of a row
func MaintenanceFromRow(r parser.Row) MaintenanceRow {
	return MaintenanceRow{
		Line:            r.Line,
		Date:            r.Get(ColDate),
		VehicleID:       r.Get(ColVehicleID),
		Type:            r.Get(ColType),
		MaintenanceCost: r.Get(ColMaintenanceCost),
		DowntimeDays:    r.Get(ColDowntimeDays),
		Notes:           r.Get(ColNotes),
	}
}

var dateFormats = []string{
	"2006-01-02",          // ISO 8601
	"2006/01/02",          // YYYY/MM/DD
	"01/02/2006",          // MM/DD/YYYY
	time.RFC3339,          // ISO 8601 with time
	"2006-01-02 15:04:05", // ISO with space
	"Jan 2 2006",
	"January 2, 2006",
}

// ParseDate parses the calendar date formats accepted in import files
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// IsNumber reports whether s is a plain decimal number.
// Thousands separators are not accepted.
func IsNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, ok := finite(s)
	return ok
}

// finite parses s and rejects values outside the float64 range
func finite(s string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// NumberOrZero parses s as a decimal number, returning 0 when it does not
// parse or does not fit a float64
func NumberOrZero(s string) float64 {
	f, _ := finite(s)
	return f
}

// IntOrZero parses the leading integer of s, returning 0 when there is none.
// The result is clamped to [0, math.MaxInt32].
func IntOrZero(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	switch {
	case errors.Is(err, strconv.ErrRange) && n > 0, n > math.MaxInt32:
		return math.MaxInt32
	case err != nil, n < 0:
		return 0
	}
	return int(n)
}
