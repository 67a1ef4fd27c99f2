package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func financialsOn(dates ...string) []records.FinancialRecord {
	out := make([]records.FinancialRecord, 0, len(dates))
	for _, d := range dates {
		out = append(out, records.FinancialRecord{Date: day(d), Type: records.TypeRevenue, Category: d, Amount: 1})
	}
	return out
}

func dates(recs []records.FinancialRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Date.Format(time.DateOnly))
	}
	return out
}

func TestFilterByPeriod(t *testing.T) {
	now := day("2024-05-15")
	recs := financialsOn("2024-04-01", "2024-02-28", "2024-05-31", "2023-05-10", "2024-06-30", "2024-12-01")

	tests := []struct {
		period Period
		want   []string
	}{
		{PeriodAll, []string{"2024-04-01", "2024-02-28", "2024-05-31", "2023-05-10", "2024-06-30", "2024-12-01"}},
		{PeriodYear, []string{"2024-04-01", "2024-02-28", "2024-05-31", "2024-06-30", "2024-12-01"}},
		{PeriodQuarter, []string{"2024-04-01", "2024-05-31", "2024-06-30"}},
		{PeriodMonth, []string{"2024-05-31"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			assert.Equal(t, tt.want, dates(FilterByPeriod(recs, tt.period, now)))
		})
	}
}

func TestFilterByPeriod_QuarterBoundary(t *testing.T) {
	now := day("2024-05-15")

	got := FilterByPeriod(financialsOn("2024-04-01", "2024-02-28"), PeriodQuarter, now)

	assert.Equal(t, []string{"2024-04-01"}, dates(got))
}

func TestFilterByPeriod_DoesNotMutateInput(t *testing.T) {
	recs := financialsOn("2024-01-01", "2023-01-01", "2024-03-01")
	before := dates(recs)

	_ = FilterByPeriod(recs, PeriodYear, day("2024-02-01"))

	assert.Equal(t, before, dates(recs))
}

func TestFilterByPeriod_EmptyInput(t *testing.T) {
	got := FilterByPeriod([]records.SalesRecord{}, PeriodMonth, day("2024-02-01"))

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodAll, false},
		{"all", PeriodAll, false},
		{"year", PeriodYear, false},
		{"This Year", PeriodYear, false},
		{"QUARTER", PeriodQuarter, false},
		{"this_month", PeriodMonth, false},
		{"week", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
