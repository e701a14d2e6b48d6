package folio

import (
	"fmt"
	"strings"

	"github.com/etnz/folio/date"
)

// TransactionType is a typed string for identifying ledger rows.
type TransactionType string

// Transaction types found in the ledger.
const (
	TypeBuy          TransactionType = "buy"
	TypeSell         TransactionType = "sell"
	TypeDividend     TransactionType = "dividend"
	TypeInterest     TransactionType = "interest"
	TypeDistribution TransactionType = "distribution"
)

// ParseTransactionType normalizes s into a known TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeBuy, TypeSell, TypeDividend, TypeInterest, TypeDistribution:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// IsInflow reports whether the type brings cash into the portfolio.
func (t TransactionType) IsInflow() bool {
	switch t {
	case TypeSell, TypeDividend, TypeInterest, TypeDistribution:
		return true
	}
	return false
}

// IsOutflow reports whether the type takes cash out of the portfolio.
func (t TransactionType) IsOutflow() bool { return t == TypeBuy }

// Source identifies the staging row a transaction was ingested from.
// Table and Row are unique together.
type Source struct {
	Table string
	Row   int64
}

// Group is the (broker, security) pair every analytic works within.
type Group struct {
	Broker   int64
	Security int64
}

func (g Group) String() string { return fmt.Sprintf("broker %d/security %d", g.Broker, g.Security) }

// Transaction is a normalized ledger row.
//
// Financial fields are read-only for analytics: only UsedInRealizedGain,
// Allocated and ErrorMessage are ever written back.
type Transaction struct {
	ID       int64
	Broker   int64
	Security int64
	Date     date.Date // zero when the broker export had none
	Type     TransactionType
	Shares   Quantity // signed or not depending on the broker, use Magnitude.

	Price      *Money
	TotalValue *Money // negative for outflows
	Fees       *Money
	NetAmount  *Money // TotalValue adjusted for fees
	Currency   string

	Source Source

	UsedInRealizedGain bool
	Allocated          bool
	ErrorMessage       string
}

// Group returns the (broker, security) pair of the transaction.
func (t Transaction) Group() Group { return Group{Broker: t.Broker, Security: t.Security} }

// Magnitude returns the share count as a non negative quantity.
func (t Transaction) Magnitude() Quantity { return t.Shares.Abs() }

// Amount returns the best available monetary value of the transaction.
//
// With preferNet the net amount wins, otherwise the total value is tried
// first. Price times shares is the last resort. Amount is signed the way the
// ledger recorded it, and zero when nothing is known.
func (t Transaction) Amount(preferNet bool) Money {
	if preferNet && t.NetAmount != nil {
		return *t.NetAmount
	}
	if t.TotalValue != nil {
		return *t.TotalValue
	}
	if !preferNet && t.NetAmount != nil {
		return *t.NetAmount
	}
	if t.Price != nil && !t.Shares.IsZero() {
		return t.Price.Mul(t.Shares)
	}
	return M(0, t.Currency)
}

// PerShare returns |Amount(true)| divided by the share magnitude.
// It is the cost of one share for a buy, the proceeds of one share for a sell.
func (t Transaction) PerShare() Money {
	shares := t.Magnitude()
	if shares.IsZero() {
		return M(0, t.Currency)
	}
	return t.Amount(true).Abs().Div(shares)
}

// TradePrice returns the unit price of a buy or sell: |total value| / shares,
// else |net amount| / shares, else the recorded price. ok is false when no
// positive price can be derived.
func (t Transaction) TradePrice() (price Money, ok bool) {
	shares := t.Magnitude()
	if !shares.Positive() {
		return Money{}, false
	}
	for _, m := range []*Money{t.TotalValue, t.NetAmount} {
		if m == nil {
			continue
		}
		if p := m.Abs().Div(shares); p.Decimal().GreaterThan(tolerance) {
			return p, true
		}
	}
	if t.Price != nil && t.Price.Decimal().GreaterThan(tolerance) {
		return *t.Price, true
	}
	return Money{}, false
}

// ValuationPrice returns the unit price used to value what is still held:
// |Amount(true)| / shares, else the recorded price. Unlike TradePrice the net
// amount wins over the total value.
func (t Transaction) ValuationPrice() (price Money, ok bool) {
	if !t.Magnitude().Positive() {
		return Money{}, false
	}
	if p := t.PerShare(); p.Decimal().GreaterThan(tolerance) {
		return p, true
	}
	if t.Price != nil && t.Price.Decimal().GreaterThan(tolerance) {
		return *t.Price, true
	}
	return Money{}, false
}

// Fee returns the magnitude of the recorded fees.
func (t Transaction) Fee() Money {
	if t.Fees == nil {
		return M(0, t.Currency)
	}
	return t.Fees.Abs()
}

// valid reports whether the row can be used for matching: it has a date and
// a positive share count.
func (t Transaction) valid() bool {
	return !t.Date.IsZero() && t.Magnitude().IsPositive()
}

// Ledger is an in-memory snapshot of transactions indexed by id.
type Ledger struct {
	transactions []Transaction
	byID         map[int64]int
}

// NewLedger creates a Ledger from a transaction snapshot.
func NewLedger(txs ...Transaction) *Ledger {
	l := &Ledger{
		transactions: txs,
		byID:         make(map[int64]int, len(txs)),
	}
	for i, tx := range txs {
		l.byID[tx.ID] = i
	}
	return l
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id int64) (Transaction, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Transaction{}, false
	}
	return l.transactions[i], true
}
