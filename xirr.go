package folio

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// CashFlow is a dated amount, negative when money goes into a position and
// positive when it comes back. Label says where it comes from.
type CashFlow struct {
	Date   date.Date
	Amount decimal.Decimal
	Label  string
}

// SortCashFlows sorts flows by date then amount.
func SortCashFlows(flows []CashFlow) {
	slices.SortStableFunc(flows, func(a, b CashFlow) int {
		return cmp.Or(a.Date.Compare(b.Date), a.Amount.Cmp(b.Amount))
	})
}

// NetCashFlows sums flows per date. The result is sorted by date.
func NetCashFlows(flows []CashFlow) []CashFlow {
	perDay := make(map[date.Date]decimal.Decimal)
	var days []date.Date
	for _, f := range flows {
		if f.Date.IsZero() {
			continue
		}
		sum, ok := perDay[f.Date]
		if !ok {
			days = append(days, f.Date)
		}
		perDay[f.Date] = sum.Add(f.Amount)
	}
	slices.SortFunc(days, date.Date.Compare)
	net := make([]CashFlow, 0, len(days))
	for _, d := range days {
		net = append(net, CashFlow{Date: d, Amount: perDay[d]})
	}
	return net
}

// scanRates are tried in order when doubling the upper bound did not bracket
// a root.
var scanRates = []float64{
	-0.9999, -0.99, -0.95, -0.9, -0.8, -0.7, -0.6, -0.5, -0.4, -0.3, -0.2, -0.1,
	-0.05, -0.02, -0.01, 0, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5,
	1, 2, 5, 10, 20, 50, 100, 200, 500, 1_000, 2_000, 5_000, 10_000, 100_000, 1_000_000,
}

const (
	xirrEpsilon    = 1e-7
	xirrIterations = 200
)

// XIRR returns the annualized rate r such that the flows, discounted at r
// from the earliest date, sum to zero. Years are counted as days/365.25.
//
// Flows of the same day are netted first. ok is false when fewer than two
// dates remain, when there is no sign change, or when no root could be
// bracketed. That is an undefined rate, not an error.
func XIRR(flows []CashFlow) (rate float64, ok bool) {
	net := NetCashFlows(flows)
	if len(net) < 2 {
		return 0, false
	}
	var positive, negative bool
	for _, f := range net {
		positive = positive || f.Amount.IsPositive()
		negative = negative || f.Amount.IsNegative()
	}
	if !positive || !negative {
		return 0, false
	}

	type timed struct{ years, amount float64 }
	start := net[0].Date
	series := make([]timed, len(net))
	for i, f := range net {
		series[i] = timed{years: f.Date.YearsSince(start), amount: f.Amount.InexactFloat64()}
	}
	npv := func(rate float64) float64 {
		factor := 1 + rate
		if factor <= 0 {
			if math.Signbit(factor) {
				return math.Inf(-1)
			}
			return math.Inf(1)
		}
		total := 0.0
		for _, f := range series {
			total += f.amount / math.Pow(factor, f.years)
		}
		return total
	}

	low, high := -0.9999, 0.1
	npvLow, npvHigh := npv(low), npv(high)
	for attempts := 0; npvLow*npvHigh > 0 && attempts < 60 && high < 1e6; attempts++ {
		high *= 2
		npvHigh = npv(high)
	}
	if math.IsInf(npvLow, 0) || math.IsNaN(npvLow) || math.IsInf(npvHigh, 0) || math.IsNaN(npvHigh) {
		return 0, false
	}

	if npvLow*npvHigh > 0 {
		bracketed := false
		var prevRate, prevValue float64
		havePrev := false
		for _, r := range scanRates {
			v := npv(r)
			if math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			if math.Abs(v) < xirrEpsilon {
				return r, true
			}
			if havePrev && prevValue*v < 0 {
				low, npvLow, high = prevRate, prevValue, r
				bracketed = true
				break
			}
			prevRate, prevValue, havePrev = r, v, true
		}
		if !bracketed {
			return 0, false
		}
	}

	for range xirrIterations {
		mid := (low + high) / 2
		npvMid := npv(mid)
		if math.IsInf(npvMid, 0) || math.IsNaN(npvMid) {
			return 0, false
		}
		if math.Abs(npvMid) < xirrEpsilon {
			return mid, true
		}
		if npvLow*npvMid < 0 {
			high = mid
		} else {
			low, npvLow = mid, npvMid
		}
	}
	return (low + high) / 2, true
}

// signedFlow forces the sign of a ledger amount from the transaction type.
func signedFlow(amount decimal.Decimal, t TransactionType) decimal.Decimal {
	switch {
	case t.IsOutflow():
		return amount.Abs().Neg()
	case t.IsInflow():
		return amount.Abs()
	default:
		return amount
	}
}

func securityName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Security %d", id)
}

// PortfolioCashFlows returns the cash flows of every position, open or closed.
//
// Buys are outflows; sells, dividends, interests and distributions are
// inflows. Each security still holding shares adds one flow valuing them at
// the ValuationPrice of their latest trade, on the latest flow date or today,
// whichever comes last.
func PortfolioCashFlows(txs []Transaction, names map[int64]string, today date.Date) []CashFlow {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, compareTransaction)

	var flows []CashFlow
	var latest date.Date
	for _, tx := range sorted {
		if tx.Date.IsZero() {
			continue
		}
		amount := signedFlow(tx.Amount(true).Decimal(), tx.Type)
		if amount.IsZero() {
			continue
		}
		label := securityName(names, tx.Security)
		if tx.Type != TypeBuy && tx.Type != TypeSell {
			label = fmt.Sprintf("%s (%s)", label, tx.Type)
		}
		flows = append(flows, CashFlow{Date: tx.Date, Amount: amount, Label: label})
		latest = date.Max(latest, tx.Date)
	}

	var valuations []CashFlow
	for _, p := range openPositions(txs, names, Transaction.ValuationPrice) {
		if !p.Priced() {
			continue
		}
		value := p.Value().Decimal()
		if value.Abs().LessThanOrEqual(tolerance) {
			continue
		}
		valuations = append(valuations, CashFlow{Amount: value, Label: p.Name + " (open position)"})
	}
	if len(valuations) == 0 {
		return flows
	}
	on := date.Max(today, latest)
	for _, v := range valuations {
		v.Date = on
		flows = append(flows, v)
	}
	return flows
}

// ClosedCashFlows returns the cash flows of sold shares only.
//
// Every match is a cost outflow on its buy date and a proceeds inflow on its
// sell date. Dividend allocations of buys that appear in at least one match
// are inflows on their payment date, whatever the holding window.
func ClosedCashFlows(txs []Transaction, matches []Match, allocations []DividendAllocation, names map[int64]string) []CashFlow {
	ledger := NewLedger(txs...)

	type dated struct {
		Match
		Buy, Sell date.Date
	}
	var rows []dated
	for _, m := range matches {
		buy, _ := ledger.Get(m.BuyID)
		sell, _ := ledger.Get(m.SellID)
		if buy.Date.IsZero() || sell.Date.IsZero() {
			continue
		}
		rows = append(rows, dated{Match: m, Buy: buy.Date, Sell: sell.Date})
	}
	slices.SortStableFunc(rows, func(a, b dated) int {
		return cmp.Or(a.Buy.Compare(b.Buy), cmp.Compare(a.ID, b.ID))
	})

	var flows []CashFlow
	bought := make(map[int64]bool)
	for _, r := range rows {
		name := securityName(names, r.Security)
		if cost := r.Cost.Decimal(); cost.Abs().GreaterThan(tolerance) {
			flows = append(flows, CashFlow{Date: r.Buy, Amount: cost.Abs().Neg(), Label: name + " (buy allocation)"})
		}
		if proceeds := r.Proceeds.Decimal(); proceeds.Abs().GreaterThan(tolerance) {
			flows = append(flows, CashFlow{Date: r.Sell, Amount: proceeds, Label: name + " (sell allocation)"})
		}
		bought[r.BuyID] = true
	}

	for _, a := range allocations {
		if !bought[a.BuyID] {
			continue
		}
		div, ok := ledger.Get(a.DividendID)
		if !ok || div.Date.IsZero() {
			continue
		}
		amount := a.Amount.Decimal()
		if amount.Abs().LessThanOrEqual(tolerance) {
			continue
		}
		flows = append(flows, CashFlow{Date: div.Date, Amount: amount, Label: securityName(names, a.Security) + " (dividend allocation)"})
	}
	return flows
}
