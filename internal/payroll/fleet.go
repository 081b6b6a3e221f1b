package payroll

import (
	"github.com/shopspring/decimal"

	"staffledger/backend/internal/domain"
)

// BuildFleetSummary reduces per-staff calculations into fleet-wide totals.
func BuildFleetSummary(calcs []domain.StaffCalculation) domain.FleetSummary {
	summary := domain.FleetSummary{
		TotalMonthlySalary: decimal.Zero,
		TotalCarryover:     decimal.Zero,
		TotalExtraPayments: decimal.Zero,
		StaffCount:         len(calcs),
	}
	for _, calc := range calcs {
		summary.TotalMonthlySalary = summary.TotalMonthlySalary.Add(calc.MonthlySalary)
		summary.TotalCarryover = summary.TotalCarryover.Add(calc.Carryover)
		summary.TotalExtraPayments = summary.TotalExtraPayments.Add(calc.ExtraPayments)
	}
	return summary
}
