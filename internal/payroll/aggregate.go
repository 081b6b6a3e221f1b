package payroll

import (
	"log"
	"time"

	"github.com/shopspring/decimal"

	"staffledger/backend/internal/domain"
)

// GroupByMonth folds a transaction stream into signed per-month sums plus the
// sum restricted to now's month. Ordering of the input does not matter.
// Transactions without a usable date contribute nothing; they are a
// data-quality concern, not a failure.
func GroupByMonth(txs []domain.SalaryTransaction, now time.Time) (map[MonthKey]decimal.Decimal, decimal.Decimal) {
	groups := make(map[MonthKey]decimal.Decimal, len(txs))
	currentMonthTotal := decimal.Zero
	nowKey := MonthKeyOf(now)

	for _, tx := range txs {
		if tx.Date.IsZero() {
			log.Printf("[payroll] WARN: transaction %s for staff %s has no date, excluded from aggregation", tx.ID, tx.StaffID)
			continue
		}
		key := MonthKeyOf(tx.Date)
		groups[key] = groups[key].Add(tx.Amount)
		if key == nowKey {
			currentMonthTotal = currentMonthTotal.Add(tx.Amount)
		}
	}

	return groups, currentMonthTotal
}
