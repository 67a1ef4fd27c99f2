// Package insights filters and aggregates an owner's records into the
// dashboard views.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
	"github.com/FACorreiaa/bizpulse/internal/domain/records/repository"
	"github.com/FACorreiaa/bizpulse/pkg/money"
)

const (
	ckSnapshot = "snapshot_owner_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// Snapshot is everything the dashboards need for one owner
type Snapshot struct {
	Dataset  records.Dataset
	Profile  records.CompanyProfile
	LoadedAt time.Time
}

// Service serves the dashboard views from a cached per-owner snapshot
type Service struct {
	store  repository.RecordStore
	cache  *cache.Cache
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time

	// generations counts refreshes per owner; a load only caches its snapshot
	// when no refresh happened while it ran
	mu          sync.Mutex
	generations map[uuid.UUID]uint64
}

// NewService creates a new insights service. A nil cache gets the default expiration.
func NewService(store repository.RecordStore, c *cache.Cache, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	}
	return &Service{
		store:       store,
		cache:       c,
		logger:      logger,
		tracer:      otel.Tracer("github.com/FACorreiaa/bizpulse/internal/domain/insights"),
		now:         time.Now,
		generations: make(map[uuid.UUID]uint64),
	}
}

// WithClock replaces time.Now, for tests
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now returns the service clock's current time
func (s *Service) Now() time.Time {
	return s.now()
}

// Snapshot returns the owner's cached records and profile, loading them on a miss
func (s *Service) Snapshot(ctx context.Context, ownerID uuid.UUID) (*Snapshot, error) {
	key := fmt.Sprintf(ckSnapshot, ownerID)
	if cached, found := s.cache.Get(key); found {
		return cached.(*Snapshot), nil
	}

	ctx, span := s.tracer.Start(ctx, "insights.Snapshot")
	defer span.End()

	s.mu.Lock()
	gen := s.generations[ownerID]
	s.mu.Unlock()

	ds, err := repository.LoadDataset(ctx, s.store, ownerID)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to load dataset", "owner_id", ownerID, slog.Any("error", err))
		return nil, records.WrapStoreError("load dataset", err)
	}
	profile, err := s.store.GetProfile(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to load profile", "owner_id", ownerID, slog.Any("error", err))
		return nil, records.WrapStoreError("get profile", err)
	}
	if profile == nil {
		profile = records.DefaultProfile(ownerID)
	}

	snap := &Snapshot{Dataset: *ds, Profile: *profile, LoadedAt: s.now()}
	span.SetAttributes(attribute.Int("insights.records", ds.Len()))
	s.mu.Lock()
	current := s.generations[ownerID] == gen
	if current {
		s.cache.Set(key, snap, cache.DefaultExpiration)
	}
	s.mu.Unlock()
	s.logger.Debug("dashboard snapshot loaded", "owner_id", ownerID, "records", ds.Len(), "cached", current)
	return snap, nil
}

// Refresh drops the owner's snapshot so the next view re-fetches every collection
func (s *Service) Refresh(_ context.Context, ownerID uuid.UUID) {
	s.mu.Lock()
	s.generations[ownerID]++
	s.cache.Delete(fmt.Sprintf(ckSnapshot, ownerID))
	s.mu.Unlock()
	s.logger.Debug("dashboard snapshot invalidated", "owner_id", ownerID)
}

// filtered is a snapshot narrowed to one period
type filtered struct {
	fin   []records.FinancialRecord
	sales []records.SalesRecord
	fuel  []records.FuelRecord
	maint []records.MaintenanceRecord
	money money.Formatter
}

func (s *Service) filter(ctx context.Context, ownerID uuid.UUID, period Period, now time.Time) (*filtered, error) {
	snap, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ds := snap.Dataset
	return &filtered{
		fin:   FilterByPeriod(ds.Financials, period, now),
		sales: FilterByPeriod(ds.Sales, period, now),
		fuel:  FilterByPeriod(ds.Fuel, period, now),
		maint: FilterByPeriod(ds.Maintenance, period, now),
		money: money.NewFormatter(snap.Profile.Currency),
	}, nil
}

// ViewHeader is shared by every dashboard view
type ViewHeader struct {
	Period   Period    `json:"period"`
	Currency string    `json:"currency"`
	AsOf     time.Time `json:"as_of"`
}

// OverviewView is the landing dashboard
type OverviewView struct {
	ViewHeader
	KPIs          KPIs              `json:"kpis"`
	Display       map[string]string `json:"display"`
	Monthly       []MonthlyPoint    `json:"monthly"`
	ExpenseSplit  []CategoryTotal   `json:"expense_split"`
	RevenueSplit  []CategoryTotal   `json:"revenue_split"`
	ProfitAndLoss []PLRow           `json:"profit_and_loss"`
}

// Overview combines the headline KPIs with the financial trend
func (s *Service) Overview(ctx context.Context, ownerID uuid.UUID, period Period, now time.Time) (*OverviewView, error) {
	f, err := s.filter(ctx, ownerID, period, now)
	if err != nil {
		return nil, err
	}
	k := ComputeKPIs(f.fin, f.sales, f.fuel, f.maint)
	return &OverviewView{
		ViewHeader:    header(period, f, now),
		KPIs:          k,
		Display:       displayKPIs(f.money, k),
		Monthly:       MonthlySeries(f.fin),
		ExpenseSplit:  CategoryBreakdown(f.fin, records.TypeExpense),
		RevenueSplit:  CategoryBreakdown(f.fin, records.TypeRevenue),
		ProfitAndLoss: ProfitAndLoss(k),
	}, nil
}

// FinancialView ranks customers and expense categories
type FinancialView struct {
	ViewHeader
	TotalRevenue  float64           `json:"total_revenue"`
	TotalExpense  float64           `json:"total_expense"`
	Display       map[string]string `json:"display"`
	TopCustomers  []RankedCustomer  `json:"top_customers"`
	TopExpenses   []RankedCategory  `json:"top_expenses"`
	Monthly       []MonthlyPoint    `json:"monthly"`
	ProfitAndLoss []PLRow           `json:"profit_and_loss"`
}

// Financial is the top-10 view. Customer revenue comes from sales contracts.
func (s *Service) Financial(ctx context.Context, ownerID uuid.UUID, period Period, now time.Time) (*FinancialView, error) {
	f, err := s.filter(ctx, ownerID, period, now)
	if err != nil {
		return nil, err
	}
	k := ComputeKPIs(f.fin, f.sales, nil, nil)
	return &FinancialView{
		ViewHeader:   header(period, f, now),
		TotalRevenue: k.TotalSales,
		TotalExpense: k.TotalExpense,
		Display: map[string]string{
			"total_revenue": f.money.Display(k.TotalSales),
			"total_expense": f.money.Display(k.TotalExpense),
		},
		TopCustomers:  TopCustomers(f.sales, TopN),
		TopExpenses:   TopExpenseCategories(f.fin, TopN),
		Monthly:       MonthlySeries(f.fin),
		ProfitAndLoss: ProfitAndLoss(k),
	}, nil
}

// SalesView is the sales team dashboard
type SalesView struct {
	ViewHeader
	TotalSales      float64               `json:"total_sales"`
	DealCount       int                   `json:"deal_count"`
	AverageDealSize float64               `json:"average_deal_size"`
	BestRep         string                `json:"best_rep"`
	Display         map[string]string     `json:"display"`
	Reps            []RepTotal            `json:"reps"`
	RecentDeals     []records.SalesRecord `json:"recent_deals"`
}

// Sales aggregates deals per rep and lists the latest ones
func (s *Service) Sales(ctx context.Context, ownerID uuid.UUID, period Period, now time.Time) (*SalesView, error) {
	f, err := s.filter(ctx, ownerID, period, now)
	if err != nil {
		return nil, err
	}
	k := ComputeKPIs(nil, f.sales, nil, nil)
	reps := SalesByRep(f.sales)
	return &SalesView{
		ViewHeader:      header(period, f, now),
		TotalSales:      k.TotalSales,
		DealCount:       k.DealCount,
		AverageDealSize: k.AverageDealSize,
		BestRep:         BestRep(reps),
		Display: map[string]string{
			"total_sales":       f.money.Display(k.TotalSales),
			"average_deal_size": f.money.Display(k.AverageDealSize),
		},
		Reps:        reps,
		RecentDeals: RecentSales(f.sales, RecentSalesLimit),
	}, nil
}

// FleetView is the fleet operations dashboard
type FleetView struct {
	ViewHeader
	TotalFuel         float64                     `json:"total_fuel"`
	TotalMaintenance  float64                     `json:"total_maintenance"`
	TotalCost         float64                     `json:"total_cost"`
	AvgCostPerVehicle float64                     `json:"avg_cost_per_vehicle"`
	Display           map[string]string           `json:"display"`
	Vehicles          []VehicleCost               `json:"vehicles"`
	TopVehicles       []VehicleCost               `json:"top_vehicles"`
	Trend             []FleetMonthPoint           `json:"trend"`
	CostSplit         []CostSlice                 `json:"cost_split"`
	RecentMaintenance []records.MaintenanceRecord `json:"recent_maintenance"`
}

// Fleet aggregates fuel and maintenance spend per vehicle and month
func (s *Service) Fleet(ctx context.Context, ownerID uuid.UUID, period Period, now time.Time) (*FleetView, error) {
	f, err := s.filter(ctx, ownerID, period, now)
	if err != nil {
		return nil, err
	}
	k := ComputeKPIs(nil, nil, f.fuel, f.maint)
	vehicles := FleetByVehicle(f.fuel, f.maint)
	return &FleetView{
		ViewHeader:        header(period, f, now),
		TotalFuel:         k.TotalFuel,
		TotalMaintenance:  k.TotalMaintenance,
		TotalCost:         k.TotalOperatingCost,
		AvgCostPerVehicle: k.AvgCostPerVehicle,
		Display: map[string]string{
			"total_fuel":           f.money.Display(k.TotalFuel),
			"total_maintenance":    f.money.Display(k.TotalMaintenance),
			"total_cost":           f.money.Display(k.TotalOperatingCost),
			"avg_cost_per_vehicle": f.money.Display(k.AvgCostPerVehicle),
		},
		Vehicles:          vehicles,
		TopVehicles:       truncate(vehicles, TopN),
		Trend:             FleetMonthlyTrend(f.fuel, f.maint),
		CostSplit:         FleetCostSplit(f.fuel, f.maint),
		RecentMaintenance: RecentMaintenance(f.maint, RecentMaintenanceLimit),
	}, nil
}

func header(period Period, f *filtered, now time.Time) ViewHeader {
	if period == "" {
		period = PeriodAll
	}
	return ViewHeader{Period: period, Currency: f.money.Currency(), AsOf: now}
}

func displayKPIs(f money.Formatter, k KPIs) map[string]string {
	return map[string]string{
		"total_revenue":        f.Display(k.TotalRevenue),
		"total_expense":        f.Display(k.TotalExpense),
		"net_profit":           f.Display(k.NetProfit),
		"profit_margin":        fmt.Sprintf("%.1f%%", k.ProfitMargin),
		"total_sales":          f.Display(k.TotalSales),
		"average_deal_size":    f.Display(k.AverageDealSize),
		"total_operating_cost": f.Display(k.TotalOperatingCost),
	}
}
