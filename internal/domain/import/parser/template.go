package parser

import (
	"fmt"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

// FinancialTemplateRow documents the financials import columns
type FinancialTemplateRow struct {
	Date        string `csv:"Date"`
	Type        string `csv:"Type"`
	Category    string `csv:"Category"`
	Amount      string `csv:"Amount"`
	SubCategory string `csv:"SubCategory"`
	CostCenter  string `csv:"CostCenter"`
	Description string `csv:"Description"`
}

// SalesTemplateRow documents the sales import columns
type SalesTemplateRow struct {
	Date          string `csv:"Date"`
	SalesRep      string `csv:"SalesRep"`
	Customer      string `csv:"Customer"`
	Service       string `csv:"Service"`
	ContractValue string `csv:"ContractValue"`
	Cost          string `csv:"Cost"`
}

// FuelTemplateRow documents the fuel import columns
type FuelTemplateRow struct {
	Date      string `csv:"Date"`
	VehicleID string `csv:"VehicleID"`
	Liters    string `csv:"Liters"`
	FuelCost  string `csv:"FuelCost"`
	Odometer  string `csv:"Odometer"`
}

// MaintenanceTemplateRow documents the maintenance import columns
type MaintenanceTemplateRow struct {
	Date            string `csv:"Date"`
	VehicleID       string `csv:"VehicleID"`
	Type            string `csv:"Type"`
	MaintenanceCost string `csv:"MaintenanceCost"`
	DowntimeDays    string `csv:"DowntimeDays"`
	Notes           string `csv:"Notes"`
}

func templateRows(kind records.Kind) (any, error) {
	switch kind {
	case records.KindFinancials:
		return &[]FinancialTemplateRow{{
			Date: "2024-01-15", Type: "Revenue", Category: "Service Revenue", Amount: "12500",
			SubCategory: "Pest Control", CostCenter: "HQ", Description: "Monthly service",
		}}, nil
	case records.KindSales:
		return &[]SalesTemplateRow{{
			Date: "2024-01-20", SalesRep: "Alice Smith", Customer: "TechCorp", Service: "Consulting",
			ContractValue: "18000", Cost: "7200",
		}}, nil
	case records.KindFuel:
		return &[]FuelTemplateRow{{
			Date: "2024-01-10", VehicleID: "VAN-001", Liters: "45", FuelCost: "135", Odometer: "52000",
		}}, nil
	case records.KindMaintenance:
		return &[]MaintenanceTemplateRow{{
			Date: "2024-01-08", VehicleID: "TRK-002", Type: "Routine", MaintenanceCost: "450",
			DowntimeDays: "1", Notes: "Oil change",
		}}, nil
	}
	return nil, fmt.Errorf("%w: %q", records.ErrUnknownKind, kind)
}

// Template returns the two-line CSV template for a kind: the header row and
// one example row.
func Template(kind records.Kind) (string, []byte, error) {
	rows, err := templateRows(kind)
	if err != nil {
		return "", nil, err
	}
	data, err := gocsv.MarshalBytes(rows)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal %s template: %w", kind, err)
	}
	return fmt.Sprintf("%s_template.csv", kind), data, nil
}

// TemplateHeaders returns the column names of a kind's template
func TemplateHeaders(kind records.Kind) []string {
	_, data, err := Template(kind)
	if err != nil {
		return nil
	}
	return Tokenize(string(data))[0]
}
