package validator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/bizpulse/internal/domain/import/parser"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

func mustParse(t *testing.T, text string) *parser.Document {
	t.Helper()
	doc, err := parser.Parse(text)
	require.NoError(t, err)
	return doc
}

func TestValidate_Financials(t *testing.T) {
	t.Run("valid file has no errors", func(t *testing.T) {
		doc := mustParse(t, `Date,Type,Category,Amount
2024-01-15,Revenue,Service Revenue,12500
2024-01-16,Expense,Rent,3000.50`)

		errs, err := Validate(records.KindFinancials, doc.Rows)

		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("missing amount reports one error on its file line", func(t *testing.T) {
		doc := mustParse(t, `Date,Type,Category,Amount
2024-01-15,Revenue,Service Revenue,12500
2024-01-16,Expense,Rent,
2024-01-17,Expense,Rent,200`)

		errs, err := Validate(records.KindFinancials, doc.Rows)

		require.NoError(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, ValidationError{Row: 3, Column: ColAmount, Message: MsgInvalidNumber}, errs[0])
	})

	t.Run("accumulates every finding in row order", func(t *testing.T) {
		doc := mustParse(t, `Date,Type,Category,Amount
not-a-date,Income,,abc
2024-01-16,Expense,Rent,12`)

		errs, err := Validate(records.KindFinancials, doc.Rows)

		require.NoError(t, err)
		assert.Equal(t, []ValidationError{
			{Row: 2, Column: ColDate, Message: MsgInvalidDate},
			{Row: 2, Column: ColType, Message: MsgInvalidType},
			{Row: 2, Column: ColCategory, Message: MsgCategoryRequired},
			{Row: 2, Column: ColAmount, Message: MsgInvalidNumber},
		}, errs)
	})

	t.Run("amounts must be finite and non-negative", func(t *testing.T) {
		doc := mustParse(t, `Date,Type,Category,Amount
2024-01-15,Revenue,Service Revenue,1e400
2024-01-16,Expense,Rent,-1e400
2024-01-17,Expense,Rent,-25
2024-01-18,Expense,Rent,0`)

		errs, err := Validate(records.KindFinancials, doc.Rows)

		require.NoError(t, err)
		assert.Equal(t, []ValidationError{
			{Row: 2, Column: ColAmount, Message: MsgInvalidNumber},
			{Row: 3, Column: ColAmount, Message: MsgInvalidNumber},
			{Row: 4, Column: ColAmount, Message: MsgNegativeAmount},
		}, errs)
	})

	t.Run("overflowing contract value is rejected", func(t *testing.T) {
		doc := mustParse(t, `Date,SalesRep,Customer,Service,ContractValue,Cost
2024-01-20,Alice Smith,TechCorp,Consulting,1e400,0`)

		errs, err := Validate(records.KindSales, doc.Rows)

		require.NoError(t, err)
		assert.Equal(t, []ValidationError{{Row: 2, Column: ColContractValue, Message: MsgInvalidNumber}}, errs)
	})

	t.Run("thousands separator is rejected", func(t *testing.T) {
		doc := mustParse(t, `Date,Type,Category,Amount
2024-01-15,Revenue,Service Revenue,"12,000"`)

		errs, err := Validate(records.KindFinancials, doc.Rows)

		require.NoError(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, ColAmount, errs[0].Column)
	})
}

func TestValidate_Sales(t *testing.T) {
	doc := mustParse(t, `Date,SalesRep,Customer,Service,ContractValue,Cost
2024-01-20,,TechCorp,Consulting,18000,7200
2024-01-21,Bob Jones,,Support,x,1`)

	errs, err := Validate(records.KindSales, doc.Rows)

	require.NoError(t, err)
	assert.Equal(t, []ValidationError{
		{Row: 2, Column: ColSalesRep, Message: MsgSalesRepRequired},
		{Row: 3, Column: ColCustomer, Message: MsgCustomerRequired},
		{Row: 3, Column: ColContractValue, Message: MsgInvalidNumber},
	}, errs)
}

func TestValidate_Fuel_EmptyVehicle(t *testing.T) {
	doc := mustParse(t, `Date,VehicleID,Liters,FuelCost,Odometer
2024-01-10,VAN-001,45,135,52000
2024-01-11,,40,120,52300`)

	errs, err := Validate(records.KindFuel, doc.Rows)

	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].Row)
	assert.Equal(t, ColVehicleID, errs[0].Column)
	assert.Equal(t, MsgVehicleRequired, errs[0].Message)
}

func TestValidate_Maintenance(t *testing.T) {
	doc := mustParse(t, `Date,VehicleID,Type,MaintenanceCost,DowntimeDays,Notes
2024-01-08,TRK-002,Whatever,450,1,Oil change
2024-13-01,TRK-002,Repair,,2,`)

	errs, err := Validate(records.KindMaintenance, doc.Rows)

	require.NoError(t, err)
	assert.Equal(t, []ValidationError{
		{Row: 3, Column: ColDate, Message: MsgInvalidDate},
		{Row: 3, Column: ColMaintenanceCost, Message: MsgInvalidNumber},
	}, errs, "unknown maintenance types are normalised later, not rejected")
}

func TestValidate_UnknownKind(t *testing.T) {
	_, err := Validate(records.Kind("payroll"), nil)
	assert.ErrorIs(t, err, records.ErrUnknownKind)
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Row: 4, Column: ColAmount, Message: MsgInvalidNumber}
	assert.Equal(t, "row 4, column Amount: Must be a valid number", err.Error())
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2024-01-15", true},
		{"2024/01/15", true},
		{"01/15/2024", true},
		{"2024-01-15T10:30:00Z", true},
		{"2024-01-15 10:30:00", true},
		{"Jan 15 2024", true},
		{" 2024-01-15 ", true},
		{"", false},
		{"tomorrow", false},
		{"2024-02-30", false},
		{"15/01/2024", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Zero(t, d.Hour())
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	assert.True(t, IsNumber("12500"))
	assert.True(t, IsNumber("-4.50"))
	assert.True(t, IsNumber(" 7 "))
	assert.False(t, IsNumber(""))
	assert.False(t, IsNumber("12,000"))
	assert.False(t, IsNumber("12abc"))

	assert.Equal(t, 135.5, NumberOrZero("135.5"))
	assert.Zero(t, NumberOrZero("n/a"))
	assert.False(t, IsNumber("1e400"))
	assert.False(t, IsNumber("-1e400"))
	assert.True(t, IsNumber("1e300"))
	assert.Zero(t, NumberOrZero("1e400"))
	assert.Zero(t, NumberOrZero("-1e400"))

	assert.Equal(t, 2, IntOrZero("2"))
	assert.Equal(t, 1, IntOrZero("1.5"))
	assert.Equal(t, 3, IntOrZero("3 days"))
	assert.Zero(t, IntOrZero(""))
	assert.Zero(t, IntOrZero("-"))
	assert.Zero(t, IntOrZero("-3"))
	assert.Equal(t, math.MaxInt32, IntOrZero("4294967296"))
	assert.Equal(t, math.MaxInt32, IntOrZero("99999999999999999999999"))
	assert.Zero(t, IntOrZero("-99999999999999999999999"))
}

func TestSuggestHeaders(t *testing.T) {
	t.Run("pairs misspelled columns with the template", func(t *testing.T) {
		got := SuggestHeaders(records.KindFuel, []string{"Date", "Vehicle Id", "Liters", "Fuel Cost"})

		assert.Equal(t, []HeaderSuggestion{
			{Expected: ColVehicleID, Found: "Vehicle Id", Required: true},
			{Expected: ColFuelCost, Found: "Fuel Cost", Required: true},
			{Expected: ColOdometer, Required: false},
		}, got)
	})

	t.Run("complete header needs nothing", func(t *testing.T) {
		assert.Empty(t, SuggestHeaders(records.KindSales, parser.TemplateHeaders(records.KindSales)))
	})
}
