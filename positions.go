package folio

import (
	"cmp"
	"slices"
	"strings"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Position is the net holding of one security across all brokers.
type Position struct {
	Security  int64
	Name      string
	Shares    Quantity  // bought - sold
	LastPrice *Money    // unit price of the latest trade, nil when unknown
	LastDate  date.Date // date of the latest trade

	// latest stored market quote, when any.
	MarketPrice *Money
	MarketDate  date.Date
}

// Priced reports whether the position can be valued.
func (p Position) Priced() bool { return p.LastPrice != nil }

// Value returns Shares times LastPrice, zero when not priced.
func (p Position) Value() Money {
	if p.LastPrice == nil {
		return Money{}
	}
	return p.LastPrice.Mul(p.Shares)
}

// OpenPositions returns every security whose bought shares exceed its sold
// shares, sorted by name ignoring case.
//
// The price is the unit price of the latest buy or sell, by date then id.
func OpenPositions(txs []Transaction, names map[int64]string) []Position {
	return openPositions(txs, names, Transaction.TradePrice)
}

func openPositions(txs []Transaction, names map[int64]string, price func(Transaction) (Money, bool)) []Position {
	type state struct {
		shares Quantity
		last   Transaction
		seen   bool
	}
	perSecurity := make(map[int64]*state)
	var order []int64
	for _, tx := range txs {
		if tx.Type != TypeBuy && tx.Type != TypeSell {
			continue
		}
		s, ok := perSecurity[tx.Security]
		if !ok {
			s = &state{}
			perSecurity[tx.Security] = s
			order = append(order, tx.Security)
		}
		if tx.Type == TypeBuy {
			s.shares = s.shares.Add(tx.Magnitude())
		} else {
			s.shares = s.shares.Sub(tx.Magnitude())
		}
		if !s.seen || compareTransaction(s.last, tx) < 0 {
			s.last, s.seen = tx, true
		}
	}

	var positions []Position
	for _, id := range order {
		s := perSecurity[id]
		if !s.shares.Positive() {
			continue
		}
		p := Position{
			Security: id,
			Name:     securityName(names, id),
			Shares:   s.shares,
			LastDate: s.last.Date,
		}
		if last, ok := price(s.last); ok {
			p.LastPrice = &last
		}
		positions = append(positions, p)
	}
	slices.SortStableFunc(positions, func(a, b Position) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.Security, b.Security),
		)
	})
	return positions
}

// PositionSummary totals a set of open positions.
type PositionSummary struct {
	Positions []Position
	Total     decimal.Decimal // sum of the priced values, currencies are not converted
	Priced    int
}

// Summarize totals the value of positions.
func Summarize(positions []Position) PositionSummary {
	s := PositionSummary{Positions: positions}
	for _, p := range positions {
		if !p.Priced() {
			continue
		}
		s.Priced++
		s.Total = s.Total.Add(p.Value().Decimal())
	}
	return s
}

// DateRange returns the range covering every dated transaction.
func DateRange(txs []Transaction) date.Range {
	var r date.Range
	for _, tx := range txs {
		r = r.Extend(tx.Date)
	}
	return r
}
