// Package mockdata generates a demonstration dataset that satisfies the same
// record invariants as imported data.
package mockdata

import (
	"math"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

// Record counts per generated dataset
const (
	FinancialCount   = 150
	SalesCount       = 100
	FuelCount        = 80
	MaintenanceCount = 40
)

// Value pools
var (
	SalesReps         = []string{"Alice Smith", "Bob Jones", "Charlie Davis", "Diana Prince"}
	Customers         = []string{"TechCorp", "MegaBuild", "City Hospital", "EduCenter", "RetailGroup"}
	Services          = []string{"Consulting", "Installation", "Maintenance", "Support"}
	VehicleIDs        = []string{"VAN-001", "TRK-002", "CAR-003", "VAN-004"}
	ExpenseCategories = []string{"Salaries", "Rent", "Software", "Marketing", "Utilities", "Office Supplies"}
	MaintenanceTypes  = []string{
		records.MaintenanceRoutine,
		records.MaintenanceRepair,
		records.MaintenanceTires,
		records.MaintenanceOther,
	}
)

const revenueCategory = "Service Revenue"

// Generator draws random records from the fixed pools. It is safe for
// concurrent use.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// NewGenerator creates a generator with a random seed
func NewGenerator() *Generator {
	return &Generator{faker: gofakeit.New(0)}
}

// NewGeneratorWithSeed creates a generator with a specific seed for reproducibility
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Generate builds a dataset for ownerID spread over the twelve months ending
// with now's month. Record i of every kind shares the same date.
func (g *Generator) Generate(ownerID uuid.UUID, now time.Time) *records.Dataset {
	g.mu.Lock()
	defer g.mu.Unlock()

	ds := &records.Dataset{
		Financials:  make([]records.FinancialRecord, 0, FinancialCount),
		Sales:       make([]records.SalesRecord, 0, SalesCount),
		Fuel:        make([]records.FuelRecord, 0, FuelCount),
		Maintenance: make([]records.MaintenanceRecord, 0, MaintenanceCount),
	}

	for i := 0; i < FinancialCount; i++ {
		date := g.date(now)

		ds.Financials = append(ds.Financials, g.financial(ownerID, date))
		if i < SalesCount {
			ds.Sales = append(ds.Sales, g.sale(ownerID, date))
		}
		if i < FuelCount {
			ds.Fuel = append(ds.Fuel, g.fuel(ownerID, date))
		}
		if i < MaintenanceCount {
			ds.Maintenance = append(ds.Maintenance, g.maintenance(ownerID, date))
		}
	}
	return ds
}

// date picks a day between the 1st and the 28th of one of the last twelve months
func (g *Generator) date(now time.Time) time.Time {
	back := g.faker.Number(0, 11)
	day := g.faker.Number(1, 28)
	return time.Date(now.Year(), now.Month()-time.Month(back), day, 0, 0, 0, 0, time.UTC)
}

func (g *Generator) id() uuid.UUID {
	id, err := uuid.NewRandomFromReader(g.faker.Rand)
	if err != nil {
		return uuid.New()
	}
	return id
}

func (g *Generator) financial(ownerID uuid.UUID, date time.Time) records.FinancialRecord {
	rec := records.FinancialRecord{
		ID:         g.id(),
		OwnerID:    ownerID,
		Date:       date,
		PeriodType: records.DefaultPeriodType,
	}
	// roughly 60% revenue
	if g.faker.Float64Range(0, 1) > 0.4 {
		rec.Type = records.TypeRevenue
		rec.Category = revenueCategory
		rec.Amount = float64(g.faker.Number(500, 15499))
	} else {
		rec.Type = records.TypeExpense
		rec.Category = g.faker.RandomString(ExpenseCategories)
		rec.Amount = float64(g.faker.Number(500, 5499))
	}
	return rec
}

func (g *Generator) sale(ownerID uuid.UUID, date time.Time) records.SalesRecord {
	cv := float64(g.faker.Number(1000, 20999))
	return records.SalesRecord{
		ID:            g.id(),
		OwnerID:       ownerID,
		Date:          date,
		SalesRep:      g.faker.RandomString(SalesReps),
		Customer:      g.faker.RandomString(Customers),
		Service:       g.faker.RandomString(Services),
		ContractValue: cv,
		Cost:          math.Round(cv * g.faker.Float64Range(0.2, 0.6)),
	}
}

func (g *Generator) fuel(ownerID uuid.UUID, date time.Time) records.FuelRecord {
	return records.FuelRecord{
		ID:        g.id(),
		OwnerID:   ownerID,
		Date:      date,
		VehicleID: g.faker.RandomString(VehicleIDs),
		Cost:      float64(g.faker.Number(50, 199)),
		Liters:    float64(g.faker.Number(20, 79)),
		Odometer:  float64(g.faker.Number(10000, 59999)),
	}
}

func (g *Generator) maintenance(ownerID uuid.UUID, date time.Time) records.MaintenanceRecord {
	return records.MaintenanceRecord{
		ID:           g.id(),
		OwnerID:      ownerID,
		Date:         date,
		VehicleID:    g.faker.RandomString(VehicleIDs),
		Type:         g.faker.RandomString(MaintenanceTypes),
		Cost:         float64(g.faker.Number(100, 899)),
		DowntimeDays: g.faker.Number(0, 4),
	}
}
