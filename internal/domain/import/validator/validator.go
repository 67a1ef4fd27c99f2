// Package validator checks mapped import rows against the per-kind schemas.
// Findings are accumulated; validation never stops at the first problem.
package validator

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/bizpulse/internal/domain/import/parser"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

// User-facing validation messages
const (
	MsgInvalidDate      = "Invalid or missing date"
	MsgInvalidType      = "Must be Revenue or Expense"
	MsgCategoryRequired = "Category is required"
	MsgInvalidNumber    = "Must be a valid number"
	MsgNegativeAmount   = "Amount cannot be negative"
	MsgSalesRepRequired = "Sales rep name required"
	MsgCustomerRequired = "Customer name required"
	MsgVehicleRequired  = "Vehicle ID required"
)

// ValidationError addresses one problem by file line and column
type ValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// Validate runs the kind's rule set over every row. The result is empty when
// the dataset is valid. The error is only set for an unknown kind.
func Validate(kind records.Kind, rows []parser.Row) ([]ValidationError, error) {
	var check func(parser.Row) []ValidationError
	switch kind {
	case records.KindFinancials:
		check = func(r parser.Row) []ValidationError { return validateFinancial(FinancialFromRow(r)) }
	case records.KindSales:
		check = func(r parser.Row) []ValidationError { return validateSales(SalesFromRow(r)) }
	case records.KindFuel:
		check = func(r parser.Row) []ValidationError { return validateFuel(FuelFromRow(r)) }
	case records.KindMaintenance:
		check = func(r parser.Row) []ValidationError { return validateMaintenance(MaintenanceFromRow(r)) }
	default:
		return nil, fmt.Errorf("%w: %q", records.ErrUnknownKind, kind)
	}

	errs := make([]ValidationError, 0)
	for _, row := range rows {
		errs = append(errs, check(row)...)
	}
	return errs, nil
}

type collector struct {
	line int
	errs []ValidationError
}

func (c *collector) require(ok bool, column, message string) {
	if !ok {
		c.errs = append(c.errs, ValidationError{Row: c.line, Column: column, Message: message})
	}
}

func validateFinancial(r FinancialRow) []ValidationError {
	c := collector{line: r.Line}
	_, okDate := ParseDate(r.Date)
	c.require(okDate, ColDate, MsgInvalidDate)
	c.require(r.Type == records.TypeRevenue || r.Type == records.TypeExpense, ColType, MsgInvalidType)
	c.require(notBlank(r.Category), ColCategory, MsgCategoryRequired)
	if IsNumber(r.Amount) {
		c.require(NumberOrZero(r.Amount) >= 0, ColAmount, MsgNegativeAmount)
	} else {
		c.require(false, ColAmount, MsgInvalidNumber)
	}
	return c.errs
}

func validateSales(r SalesRow) []ValidationError {
	c := collector{line: r.Line}
	_, okDate := ParseDate(r.Date)
	c.require(okDate, ColDate, MsgInvalidDate)
	c.require(notBlank(r.SalesRep), ColSalesRep, MsgSalesRepRequired)
	c.require(notBlank(r.Customer), ColCustomer, MsgCustomerRequired)
	c.require(IsNumber(r.ContractValue), ColContractValue, MsgInvalidNumber)
	return c.errs
}

func validateFuel(r FuelRow) []ValidationError {
	c := collector{line: r.Line}
	_, okDate := ParseDate(r.Date)
	c.require(okDate, ColDate, MsgInvalidDate)
	c.require(notBlank(r.VehicleID), ColVehicleID, MsgVehicleRequired)
	c.require(IsNumber(r.FuelCost), ColFuelCost, MsgInvalidNumber)
	return c.errs
}

func validateMaintenance(r MaintenanceRow) []ValidationError {
	c := collector{line: r.Line}
	_, okDate := ParseDate(r.Date)
	c.require(okDate, ColDate, MsgInvalidDate)
	c.require(notBlank(r.VehicleID), ColVehicleID, MsgVehicleRequired)
	c.require(IsNumber(r.MaintenanceCost), ColMaintenanceCost, MsgInvalidNumber)
	return c.errs
}

// RequiredColumns lists the columns a kind's rule set reads
func RequiredColumns(kind records.Kind) []string {
	switch kind {
	case records.KindFinancials:
		return []string{ColDate, ColType, ColCategory, ColAmount}
	case records.KindSales:
		return []string{ColDate, ColSalesRep, ColCustomer, ColContractValue}
	case records.KindFuel:
		return []string{ColDate, ColVehicleID, ColFuelCost}
	case records.KindMaintenance:
		return []string{ColDate, ColVehicleID, ColMaintenanceCost}
	}
	return nil
}

func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
