package folio

import (
	"cmp"
	"math"
	"slices"

	"github.com/etnz/folio/date"
)

// RealizedGain aggregates the matches of fully sold shares bought on one day
// and sold on another, for one broker and security.
//
// Amounts carry no currency: trades and dividends of one security may be
// recorded in different currencies and are summed as plain numbers.
type RealizedGain struct {
	ID            int64
	Broker        int64
	Security      int64
	BuyDate       date.Date
	SellDate      date.Date
	Shares        Quantity
	Invested      Money // allocated cost
	PL            Money // allocated proceeds - allocated cost
	Dividends     Money
	DividendCount int
	CAGR          Percent
}

// Group returns the (broker, security) pair of the position.
func (g RealizedGain) Group() Group { return Group{Broker: g.Broker, Security: g.Security} }

// Final returns the value the invested amount turned into.
func (g RealizedGain) Final() Money { return g.Invested.Add(g.PL).Add(g.Dividends) }

// Years returns the holding period in years, never negative.
func (g RealizedGain) Years() float64 { return math.Max(g.SellDate.YearsSince(g.BuyDate), 0) }

// GainsResult is the outcome of one aggregation pass.
type GainsResult struct {
	Positions []RealizedGain
	// Used lists, in ascending order, the ids of transactions consumed by this
	// pass: the sells, the attributed dividends and the fully sold buys.
	Used []int64
}

// CAGR returns the compound annual growth rate, in percent, of invested
// turning into final over years.
//
// It is 0 when nothing was invested or no time elapsed. A final value at or
// below zero is a total loss or worse and yields -100*(1-|final|/invested)
// instead of a root.
func CAGR(invested, final, years float64) Percent {
	if invested <= 0 || years <= 0 {
		return 0
	}
	if final <= 0 {
		return Percent(-100 * (1 - math.Abs(final)/invested))
	}
	return Percent((math.Pow(final/invested, 1/years) - 1) * 100)
}

// plain drops the currency of m.
func plain(m Money) Money { return M(m.Decimal(), "") }

type positionKey struct {
	Group
	Buy, Sell date.Date
}

// RealizeGains turns the matches of fully matched sells into realized gain
// positions.
//
// Only sells not yet used in a realized gain, and whose matched shares cover
// their own share count, are considered. Their matches are summed per
// (broker, security, buy date, sell date).
//
// Dividends not yet used are split across the positions held on their
// payment date (buy date <= payment <= sell date) pro rata by shares, using
// the declared share count when present. The remainder goes to the last
// eligible position.
//
// Used lists what must be flagged so that the next pass skips it.
func RealizeGains(txs []Transaction, matches []Match) GainsResult {
	ledger := NewLedger(txs...)

	perSell := make(map[int64]Quantity)
	for _, m := range matches {
		perSell[m.SellID] = perSell[m.SellID].Add(m.Shares.Abs())
	}
	sells := make(map[int64]bool)
	for _, tx := range txs {
		if tx.Type != TypeSell || tx.UsedInRealizedGain || !tx.Magnitude().IsPositive() {
			continue
		}
		if !perSell[tx.ID].Add(Q(Tolerance)).LessThan(tx.Magnitude()) {
			sells[tx.ID] = true
		}
	}

	var res GainsResult
	if len(sells) == 0 {
		return res
	}

	type dated struct {
		Match
		Buy, Sell date.Date
	}
	var consumed []dated
	for _, m := range matches {
		if !sells[m.SellID] {
			continue
		}
		buy, _ := ledger.Get(m.BuyID)
		sell, _ := ledger.Get(m.SellID)
		consumed = append(consumed, dated{Match: m, Buy: buy.Date, Sell: sell.Date})
	}
	slices.SortStableFunc(consumed, func(a, b dated) int {
		return cmp.Or(
			compareGroup(a.Group(), b.Group()),
			a.Sell.Compare(b.Sell),
			a.Buy.Compare(b.Buy),
			cmp.Compare(a.ID, b.ID),
		)
	})

	index := make(map[positionKey]int)
	var positions []RealizedGain
	for _, m := range consumed {
		shares := m.Shares.Abs()
		if m.Buy.IsZero() || m.Sell.IsZero() || !shares.IsPositive() {
			continue
		}
		key := positionKey{Group: m.Group(), Buy: m.Buy, Sell: m.Sell}
		i, ok := index[key]
		if !ok {
			i = len(positions)
			index[key] = i
			positions = append(positions, RealizedGain{
				Broker:   m.Broker,
				Security: m.Security,
				BuyDate:  m.Buy,
				SellDate: m.Sell,
			})
		}
		p := &positions[i]
		p.Shares = p.Shares.Add(shares)
		p.Invested = p.Invested.Add(plain(m.Cost))
		p.PL = p.PL.Add(plain(m.Proceeds).Sub(plain(m.Cost)))
	}

	// positions of each group, by buy date then sell date.
	byGroup := make(map[Group][]int)
	for i, p := range positions {
		byGroup[p.Group()] = append(byGroup[p.Group()], i)
	}
	for g := range byGroup {
		slices.SortStableFunc(byGroup[g], func(a, b int) int {
			return cmp.Or(positions[a].BuyDate.Compare(positions[b].BuyDate), positions[a].SellDate.Compare(positions[b].SellDate))
		})
	}

	var dividends []Transaction
	for _, tx := range txs {
		if tx.Type != TypeDividend || tx.UsedInRealizedGain || tx.Date.IsZero() {
			continue
		}
		if _, ok := byGroup[tx.Group()]; ok {
			dividends = append(dividends, tx)
		}
	}
	slices.SortStableFunc(dividends, compareTransaction)

	used := make(map[int64]bool)
	for _, div := range dividends {
		amount := plain(div.Amount(false))
		if amount.IsZero() {
			continue
		}
		var eligible []int
		for _, i := range byGroup[div.Group()] {
			p := positions[i]
			if !div.Date.Before(p.BuyDate) && !div.Date.After(p.SellDate) {
				eligible = append(eligible, i)
			}
		}
		if len(eligible) == 0 {
			continue
		}
		holdings := make([]Quantity, len(eligible))
		for k, i := range eligible {
			holdings[k] = positions[i].Shares
		}
		split, remainder, ok := prorate(amount, div.Magnitude(), holdings)
		if !ok {
			continue
		}
		for k, i := range eligible {
			if !split[k].Shares.Positive() {
				continue
			}
			positions[i].Dividends = positions[i].Dividends.Add(split[k].Amount)
			positions[i].DividendCount++
		}
		if !remainder.IsZero() {
			last := &positions[eligible[len(eligible)-1]]
			last.Dividends = last.Dividends.Add(remainder)
		}
		used[div.ID] = true
	}

	for _, p := range positions {
		if !p.Shares.IsPositive() {
			continue
		}
		p.CAGR = CAGR(p.Invested.AsFloat(), p.Final().AsFloat(), p.Years())
		res.Positions = append(res.Positions, p)
	}

	for id := range sells {
		used[id] = true
	}
	for id := range soldOut(txs, matches, sells) {
		used[id] = true
	}
	for id := range used {
		res.Used = append(res.Used, id)
	}
	slices.Sort(res.Used)
	return res
}

// soldOut returns the unused buys whose shares are entirely matched to sells
// that are either already used or part of sells.
func soldOut(txs []Transaction, matches []Match, sells map[int64]bool) map[int64]bool {
	ledger := NewLedger(txs...)
	perBuy := make(map[int64]Quantity)
	for _, m := range matches {
		sell, ok := ledger.Get(m.SellID)
		if !sells[m.SellID] && !(ok && sell.UsedInRealizedGain) {
			continue
		}
		perBuy[m.BuyID] = perBuy[m.BuyID].Add(m.Shares.Abs())
	}

	out := make(map[int64]bool)
	for id, shares := range perBuy {
		buy, ok := ledger.Get(id)
		if !ok || buy.Type != TypeBuy || buy.UsedInRealizedGain || !buy.Magnitude().IsPositive() {
			continue
		}
		if !shares.Add(Q(Tolerance)).LessThan(buy.Magnitude()) {
			out[id] = true
		}
	}
	return out
}
