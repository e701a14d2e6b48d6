package folio

import (
	"math"

	"github.com/etnz/folio/date"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// ptr is a helper for test to set optional amounts.
func ptr(m Money) *Money { return &m }

// near reports whether a and b are within 1e-6.
func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// testLedger builds transactions for a single broker and security unless
// told otherwise. Ids are assigned in insertion order.
type testLedger struct {
	txs      []Transaction
	broker   int64
	security int64
}

func newTestLedger() *testLedger { return &testLedger{broker: 1, security: 1} }

// on switches the broker and security of the next transactions.
func (l *testLedger) on(broker, security int64) *testLedger {
	l.broker, l.security = broker, security
	return l
}

func (l *testLedger) add(tx Transaction) int64 {
	tx.ID = int64(len(l.txs) + 1)
	tx.Broker, tx.Security = l.broker, l.security
	if tx.Currency == "" {
		tx.Currency = "EUR"
	}
	l.txs = append(l.txs, tx)
	return tx.ID
}

// buy records a purchase of shares for a total (negative) value.
func (l *testLedger) buy(day string, shares, total float64) int64 {
	return l.add(Transaction{Date: mustDay(day), Type: TypeBuy, Shares: Q(shares), TotalValue: ptr(EUR(total))})
}

// sell records a sale of shares for a total (positive) value.
func (l *testLedger) sell(day string, shares, total float64) int64 {
	return l.add(Transaction{Date: mustDay(day), Type: TypeSell, Shares: Q(shares), TotalValue: ptr(EUR(total))})
}

// dividend records a dividend paid on a declared number of shares (0 for none).
func (l *testLedger) dividend(day string, shares, total float64) int64 {
	return l.add(Transaction{Date: mustDay(day), Type: TypeDividend, Shares: Q(shares), TotalValue: ptr(EUR(total))})
}

// get returns a pointer to the transaction id, to tweak it.
func (l *testLedger) get(id int64) *Transaction { return &l.txs[id-1] }

// markUsed applies the flags a realized gain pass asks for.
func (l *testLedger) markUsed(ids []int64) {
	for _, id := range ids {
		l.get(id).UsedInRealizedGain = true
	}
}

// mustDay parses a date, the empty string is the zero date.
func mustDay(s string) date.Date {
	if s == "" {
		return date.Date{}
	}
	return date.MustParse(s)
}

// numberMatches assigns ids to new matches, following the existing ones.
func numberMatches(existing, fresh []Match) []Match {
	for i := range fresh {
		fresh[i].ID = int64(len(existing) + i + 1)
	}
	return append(existing, fresh...)
}
