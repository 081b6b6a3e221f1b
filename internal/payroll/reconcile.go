package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"staffledger/backend/internal/domain"
)

// Reconcile folds a staff member's completed months into two running totals:
// carryover (entitlement still owed to the staff member) and extra payments
// (amounts disbursed beyond the entitlement). A deficit month and a surplus
// month never offset one another; both totals only grow. This keeps each
// figure auditable on its own.
//
// The current, still-open month is not reconciled as a completed month.
// Instead, availableThisMonth reports how much of the carryover-adjusted
// entitlement remains, and any overdraw past that budget is booked as an
// extra payment immediately.
//
// Transactions dated before the entitlement's effective date fall in months
// that are never iterated, so they accrue no carryover; if one lands in the
// current month it still counts toward currentMonthTotal. The upstream data
// has always behaved this way and downstream reports depend on it.
//
// Reconcile is pure: identical inputs, including now, yield identical output.
// It never fails; malformed dates are handled in GroupByMonth and a missing
// effective date collapses the completed-month range to empty.
func Reconcile(ent domain.SalaryEntitlement, txs []domain.SalaryTransaction, now time.Time) domain.StaffCalculation {
	salary := ent.MonthlySalary
	if salary.IsNegative() {
		// Rejected at the admin boundary already; clamp rather than let a
		// bad record invert the deficit/surplus rule.
		salary = decimal.Zero
	}

	effective := ent.EffectiveDate
	if effective.IsZero() {
		// Unknown start date accrues no historical carryover.
		effective = now
	}

	groups, currentMonthTotal := GroupByMonth(txs, now)

	carryover := decimal.Zero
	extraPayments := decimal.Zero
	for _, month := range MonthsBetween(effective, now) {
		monthTotal := groups[MonthKeyOf(month)]
		switch monthTotal.Cmp(salary) {
		case -1:
			carryover = carryover.Add(salary.Sub(monthTotal))
		case 1:
			extraPayments = extraPayments.Add(monthTotal.Sub(salary))
		}
	}

	budget := salary.Add(carryover)
	if currentMonthTotal.GreaterThan(budget) {
		extraPayments = extraPayments.Add(currentMonthTotal.Sub(budget))
	}

	return domain.StaffCalculation{
		StaffID:            ent.StaffID,
		MonthlySalary:      salary,
		Carryover:          carryover,
		ExtraPayments:      extraPayments,
		CurrentMonthTotal:  currentMonthTotal,
		AvailableThisMonth: budget.Sub(currentMonthTotal),
	}
}
