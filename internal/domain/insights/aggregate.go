package insights

import (
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

const (
	// TopN is the length of the ranked tables
	TopN = 10
	// RecentSalesLimit is the number of rows in the latest deals table
	RecentSalesLimit = 15
	// RecentMaintenanceLimit is the number of rows in the latest maintenance table
	RecentMaintenanceLimit = 10
	// NoRep is shown as the best rep when there are no sales
	NoRep = "—"

	monthKeyLayout = "2006-01"
)

var hundred = decimal.NewFromInt(100)

// dec converts a stored amount; non-finite values count as 0
func dec(f float64) decimal.Decimal {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// percent returns part/total*100, 0 when total is 0
func percent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}

// groups accumulates values per key and remembers first-appearance order
type groups[A any] struct {
	order []*A
	index map[string]*A
	init  func(key string) *A
}

func newGroups[A any](init func(key string) *A) *groups[A] {
	return &groups[A]{index: make(map[string]*A), init: init}
}

func (g *groups[A]) at(key string) *A {
	a, ok := g.index[key]
	if !ok {
		a = g.init(key)
		g.index[key] = a
		g.order = append(g.order, a)
	}
	return a
}

// sortedDesc stably orders the groups by value, largest first
func (g *groups[A]) sortedDesc(value func(*A) decimal.Decimal) []*A {
	out := slices.Clone(g.order)
	slices.SortStableFunc(out, func(a, b *A) int {
		return value(b).Cmp(value(a))
	})
	return out
}

// ============================================================================
// Financials
// ============================================================================

// MonthlyPoint is one month of the financial trend
type MonthlyPoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Expense float64 `json:"expense"`
	Profit  float64 `json:"profit"`
}

type monthAcc struct {
	month            string
	revenue, expense decimal.Decimal
}

// MonthlySeries sums revenue and expense per YYYY-MM, ascending by month.
// Every record that is not Revenue counts as expense.
func MonthlySeries(fin []records.FinancialRecord) []MonthlyPoint {
	g := newGroups(func(k string) *monthAcc { return &monthAcc{month: k} })
	for _, r := range fin {
		a := g.at(r.Date.Format(monthKeyLayout))
		if r.IsRevenue() {
			a.revenue = a.revenue.Add(dec(r.Amount))
		} else {
			a.expense = a.expense.Add(dec(r.Amount))
		}
	}

	out := make([]MonthlyPoint, 0, len(g.order))
	for _, a := range g.order {
		out = append(out, MonthlyPoint{
			Month:   a.month,
			Revenue: a.revenue.InexactFloat64(),
			Expense: a.expense.InexactFloat64(),
			Profit:  a.revenue.Sub(a.expense).InexactFloat64(),
		})
	}
	slices.SortStableFunc(out, func(a, b MonthlyPoint) int {
		switch {
		case a.Month < b.Month:
			return -1
		case a.Month > b.Month:
			return 1
		}
		return 0
	})
	return out
}

// CategoryTotal is the summed amount of one category
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type categoryAcc struct {
	category string
	amount   decimal.Decimal
}

func categoryGroups(fin []records.FinancialRecord, revenue bool) (*groups[categoryAcc], decimal.Decimal) {
	g := newGroups(func(k string) *categoryAcc { return &categoryAcc{category: k} })
	total := decimal.Zero
	for _, r := range fin {
		if r.IsRevenue() != revenue {
			continue
		}
		a := g.at(r.Category)
		a.amount = a.amount.Add(dec(r.Amount))
		total = total.Add(dec(r.Amount))
	}
	return g, total
}

// CategoryBreakdown sums revenue (or expense) amounts per category, largest first
func CategoryBreakdown(fin []records.FinancialRecord, recordType string) []CategoryTotal {
	g, _ := categoryGroups(fin, recordType == records.TypeRevenue)
	sorted := g.sortedDesc(func(a *categoryAcc) decimal.Decimal { return a.amount })

	out := make([]CategoryTotal, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, CategoryTotal{Category: a.category, Amount: a.amount.InexactFloat64()})
	}
	return out
}

// RankedCategory is an expense category in the top-N table
type RankedCategory struct {
	Category     string  `json:"category"`
	Amount       float64 `json:"amount"`
	Contribution float64 `json:"contribution"`
}

// TopExpenseCategories ranks expense categories by total and keeps the first n.
// Contribution is measured against all expenses, not just the top n.
func TopExpenseCategories(fin []records.FinancialRecord, n int) []RankedCategory {
	g, total := categoryGroups(fin, false)
	sorted := truncate(g.sortedDesc(func(a *categoryAcc) decimal.Decimal { return a.amount }), n)

	out := make([]RankedCategory, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, RankedCategory{
			Category:     a.category,
			Amount:       a.amount.InexactFloat64(),
			Contribution: percent(a.amount, total).Round(1).InexactFloat64(),
		})
	}
	return out
}

// ============================================================================
// Sales
// ============================================================================

// RankedCustomer is a customer in the top-N table
type RankedCustomer struct {
	Customer     string  `json:"customer"`
	Revenue      float64 `json:"revenue"`
	Cost         float64 `json:"cost"`
	Profit       float64 `json:"profit"`
	Deals        int     `json:"deals"`
	Margin       float64 `json:"margin"`
	Contribution float64 `json:"contribution"`
}

type dealAcc struct {
	name                string
	sales, cost, profit decimal.Decimal
	deals               int
}

func (a *dealAcc) add(r records.SalesRecord) {
	a.sales = a.sales.Add(dec(r.ContractValue))
	a.cost = a.cost.Add(dec(r.Cost))
	a.profit = a.profit.Add(dec(r.Profit()))
	a.deals++
}

func dealGroups(sales []records.SalesRecord, key func(records.SalesRecord) string) (*groups[dealAcc], decimal.Decimal) {
	g := newGroups(func(k string) *dealAcc { return &dealAcc{name: k} })
	total := decimal.Zero
	for _, r := range sales {
		g.at(key(r)).add(r)
		total = total.Add(dec(r.ContractValue))
	}
	return g, total
}

// TopCustomers ranks customers by contract value and keeps the first n
func TopCustomers(sales []records.SalesRecord, n int) []RankedCustomer {
	g, total := dealGroups(sales, func(r records.SalesRecord) string { return r.Customer })
	sorted := truncate(g.sortedDesc(func(a *dealAcc) decimal.Decimal { return a.sales }), n)

	out := make([]RankedCustomer, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, RankedCustomer{
			Customer:     a.name,
			Revenue:      a.sales.InexactFloat64(),
			Cost:         a.cost.InexactFloat64(),
			Profit:       a.profit.InexactFloat64(),
			Deals:        a.deals,
			Margin:       percent(a.profit, a.sales).InexactFloat64(),
			Contribution: percent(a.sales, total).Round(1).InexactFloat64(),
		})
	}
	return out
}

// RepTotal is one sales rep's performance
type RepTotal struct {
	Rep    string  `json:"rep"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
	Deals  int     `json:"deals"`
}

// SalesByRep sums contract value, profit and deals per rep, best seller first
func SalesByRep(sales []records.SalesRecord) []RepTotal {
	g, _ := dealGroups(sales, func(r records.SalesRecord) string { return r.SalesRep })
	sorted := g.sortedDesc(func(a *dealAcc) decimal.Decimal { return a.sales })

	out := make([]RepTotal, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, RepTotal{
			Rep:    a.name,
			Sales:  a.sales.InexactFloat64(),
			Profit: a.profit.InexactFloat64(),
			Deals:  a.deals,
		})
	}
	return out
}

// BestRep returns the top seller of a SalesByRep result, or NoRep
func BestRep(reps []RepTotal) string {
	if len(reps) == 0 {
		return NoRep
	}
	return reps[0].Rep
}

// RecentSales returns the n latest deals, newest first
func RecentSales(sales []records.SalesRecord, n int) []records.SalesRecord {
	return latest(sales, n)
}

// ============================================================================
// Fleet
// ============================================================================

// VehicleCost is one vehicle's running cost
type VehicleCost struct {
	VehicleID    string  `json:"vehicle_id"`
	Fuel         float64 `json:"fuel"`
	Maintenance  float64 `json:"maintenance"`
	Total        float64 `json:"total"`
	Liters       float64 `json:"liters"`
	DowntimeDays int     `json:"downtime_days"`
	MaxOdometer  float64 `json:"max_odometer"`
	MinOdometer  float64 `json:"min_odometer"`
}

type vehicleAcc struct {
	id             string
	fuel, maint    decimal.Decimal
	liters         decimal.Decimal
	downtime       int
	maxOdo, minOdo float64
	hasOdo         bool
}

func (a *vehicleAcc) total() decimal.Decimal {
	return a.fuel.Add(a.maint)
}

// FleetByVehicle sums fuel and maintenance cost per vehicle, most expensive
// first. Odometer bounds only consider non-zero readings.
func FleetByVehicle(fuel []records.FuelRecord, maint []records.MaintenanceRecord) []VehicleCost {
	g := vehicleGroups(fuel, maint)
	sorted := g.sortedDesc((*vehicleAcc).total)

	out := make([]VehicleCost, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, VehicleCost{
			VehicleID:    a.id,
			Fuel:         a.fuel.InexactFloat64(),
			Maintenance:  a.maint.InexactFloat64(),
			Total:        a.total().InexactFloat64(),
			Liters:       a.liters.InexactFloat64(),
			DowntimeDays: a.downtime,
			MaxOdometer:  a.maxOdo,
			MinOdometer:  a.minOdo,
		})
	}
	return out
}

func vehicleGroups(fuel []records.FuelRecord, maint []records.MaintenanceRecord) *groups[vehicleAcc] {
	g := newGroups(func(k string) *vehicleAcc { return &vehicleAcc{id: k} })
	for _, r := range fuel {
		a := g.at(r.VehicleID)
		a.fuel = a.fuel.Add(dec(r.Cost))
		a.liters = a.liters.Add(dec(r.Liters))
		if r.Odometer != 0 {
			if !a.hasOdo || r.Odometer > a.maxOdo {
				a.maxOdo = r.Odometer
			}
			if !a.hasOdo || r.Odometer < a.minOdo {
				a.minOdo = r.Odometer
			}
			a.hasOdo = true
		}
	}
	for _, r := range maint {
		a := g.at(r.VehicleID)
		a.maint = a.maint.Add(dec(r.Cost))
		a.downtime += r.DowntimeDays
	}
	return g
}

// FleetMonthPoint is one month of fleet spend
type FleetMonthPoint struct {
	Month       string  `json:"month"`
	Fuel        float64 `json:"fuel"`
	Maintenance float64 `json:"maintenance"`
}

// FleetMonthlyTrend sums fuel and maintenance cost per YYYY-MM, ascending
func FleetMonthlyTrend(fuel []records.FuelRecord, maint []records.MaintenanceRecord) []FleetMonthPoint {
	type acc struct {
		month       string
		fuel, maint decimal.Decimal
	}
	g := newGroups(func(k string) *acc { return &acc{month: k} })
	for _, r := range fuel {
		a := g.at(r.Date.Format(monthKeyLayout))
		a.fuel = a.fuel.Add(dec(r.Cost))
	}
	for _, r := range maint {
		a := g.at(r.Date.Format(monthKeyLayout))
		a.maint = a.maint.Add(dec(r.Cost))
	}

	out := make([]FleetMonthPoint, 0, len(g.order))
	for _, a := range g.order {
		out = append(out, FleetMonthPoint{
			Month:       a.month,
			Fuel:        a.fuel.InexactFloat64(),
			Maintenance: a.maint.InexactFloat64(),
		})
	}
	slices.SortStableFunc(out, func(a, b FleetMonthPoint) int {
		switch {
		case a.Month < b.Month:
			return -1
		case a.Month > b.Month:
			return 1
		}
		return 0
	})
	return out
}

// CostSlice is one slice of a pie chart
type CostSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FleetCostSplit splits fleet spend into fuel and maintenance, dropping empty slices
func FleetCostSplit(fuel []records.FuelRecord, maint []records.MaintenanceRecord) []CostSlice {
	var fuelTotal, maintTotal decimal.Decimal
	for _, r := range fuel {
		fuelTotal = fuelTotal.Add(dec(r.Cost))
	}
	for _, r := range maint {
		maintTotal = maintTotal.Add(dec(r.Cost))
	}

	out := make([]CostSlice, 0, 2)
	if fuelTotal.IsPositive() {
		out = append(out, CostSlice{Name: "Fuel", Value: fuelTotal.InexactFloat64()})
	}
	if maintTotal.IsPositive() {
		out = append(out, CostSlice{Name: "Maintenance", Value: maintTotal.InexactFloat64()})
	}
	return out
}

// RecentMaintenance returns the n latest maintenance events, newest first
func RecentMaintenance(maint []records.MaintenanceRecord, n int) []records.MaintenanceRecord {
	return latest(maint, n)
}

// ============================================================================
// KPIs
// ============================================================================

// KPIs are the headline numbers across all dashboards
type KPIs struct {
	TotalRevenue       float64 `json:"total_revenue"`
	TotalExpense       float64 `json:"total_expense"`
	NetProfit          float64 `json:"net_profit"`
	ProfitMargin       float64 `json:"profit_margin"`
	TotalSales         float64 `json:"total_sales"`
	DealCount          int     `json:"deal_count"`
	AverageDealSize    float64 `json:"average_deal_size"`
	TotalFuel          float64 `json:"total_fuel"`
	TotalMaintenance   float64 `json:"total_maintenance"`
	TotalOperatingCost float64 `json:"total_operating_cost"`
	VehicleCount       int     `json:"vehicle_count"`
	AvgCostPerVehicle  float64 `json:"avg_cost_per_vehicle"`
}

// ComputeKPIs derives the headline numbers. Every ratio is 0 when its
// denominator is 0.
func ComputeKPIs(fin []records.FinancialRecord, sales []records.SalesRecord, fuel []records.FuelRecord, maint []records.MaintenanceRecord) KPIs {
	var revenue, expense, salesTotal, fuelTotal, maintTotal decimal.Decimal
	for _, r := range fin {
		if r.IsRevenue() {
			revenue = revenue.Add(dec(r.Amount))
		} else {
			expense = expense.Add(dec(r.Amount))
		}
	}
	for _, r := range sales {
		salesTotal = salesTotal.Add(dec(r.ContractValue))
	}
	for _, r := range fuel {
		fuelTotal = fuelTotal.Add(dec(r.Cost))
	}
	for _, r := range maint {
		maintTotal = maintTotal.Add(dec(r.Cost))
	}

	profit := revenue.Sub(expense)
	operating := fuelTotal.Add(maintTotal)
	vehicles := len(vehicleGroups(fuel, maint).order)

	k := KPIs{
		TotalRevenue:       revenue.InexactFloat64(),
		TotalExpense:       expense.InexactFloat64(),
		NetProfit:          profit.InexactFloat64(),
		ProfitMargin:       percent(profit, revenue).InexactFloat64(),
		TotalSales:         salesTotal.InexactFloat64(),
		DealCount:          len(sales),
		TotalFuel:          fuelTotal.InexactFloat64(),
		TotalMaintenance:   maintTotal.InexactFloat64(),
		TotalOperatingCost: operating.InexactFloat64(),
		VehicleCount:       vehicles,
	}
	if len(sales) > 0 {
		k.AverageDealSize = salesTotal.Div(decimal.NewFromInt(int64(len(sales)))).InexactFloat64()
	}
	if vehicles > 0 {
		k.AvgCostPerVehicle = operating.Div(decimal.NewFromInt(int64(vehicles))).InexactFloat64()
	}
	return k
}

// PLRow is a line of the profit and loss statement
type PLRow struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	IsPercent bool    `json:"is_percent,omitempty"`
}

// ProfitAndLoss lays out the KPI totals as statement rows
func ProfitAndLoss(k KPIs) []PLRow {
	return []PLRow{
		{Label: "Total Revenue", Value: k.TotalRevenue},
		{Label: "Total Expenses", Value: k.TotalExpense},
		{Label: "Net Profit", Value: k.NetProfit},
		{Label: "Profit Margin", Value: k.ProfitMargin, IsPercent: true},
	}
}

// ============================================================================
// helpers
// ============================================================================

func truncate[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// latest returns up to n records sorted newest first without touching recs
func latest[T Dated](recs []T, n int) []T {
	out := append(make([]T, 0, len(recs)), recs...)
	slices.SortStableFunc(out, func(a, b T) int {
		return b.RecordDate().Compare(a.RecordDate())
	})
	return truncate(out, n)
}
