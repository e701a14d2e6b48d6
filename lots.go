package folio

import (
	"cmp"
	"fmt"
	"slices"
)

// Match links a portion of a buy transaction to a portion of a sell
// transaction of the same broker and security.
type Match struct {
	ID       int64
	Broker   int64
	Security int64
	BuyID    int64
	SellID   int64
	Shares   Quantity
	Cost     Money // buy side: cost per share * Shares
	Proceeds Money // sell side: proceeds per share * Shares
	Fees     Money // sell fees pro-rated by Shares
	Method   string
}

// Group returns the (broker, security) pair of the match.
func (m Match) Group() Group { return Group{Broker: m.Broker, Security: m.Security} }

// MatchResult is the outcome of one matching pass.
type MatchResult struct {
	Matches             []Match  // new matches, never overlapping existing ones
	UnmatchedSellShares Quantity // sell shares no buy lot could cover
	Groups              int      // number of (broker, security) groups scanned
	Skipped             []int64  // ids of buy and sell rows with no date or no shares
}

// lot is a buy transaction's remaining unmatched shares.
type lot struct {
	BuyID     int64
	Remaining Quantity
	Cost      Money // cost of one share
}

// lots is a FIFO queue of buy lots. Exhausted lots are dropped by moving the
// head cursor forward, the backing slice is never mutated while iterating.
type lots struct {
	arena []lot
	head  int
}

func (l *lots) push(x lot)  { l.arena = append(l.arena, x) }
func (l *lots) empty() bool { return l.head >= len(l.arena) }
func (l *lots) front() *lot { return &l.arena[l.head] }
func (l *lots) pop()        { l.head++ }

// matched sums the shares of existing matches per transaction id.
func matched(existing []Match) (perBuy, perSell map[int64]Quantity) {
	perBuy = make(map[int64]Quantity)
	perSell = make(map[int64]Quantity)
	for _, m := range existing {
		s := m.Shares.Abs()
		perBuy[m.BuyID] = perBuy[m.BuyID].Add(s)
		perSell[m.SellID] = perSell[m.SellID].Add(s)
	}
	return perBuy, perSell
}

// groupTrades splits buy and sell transactions per (broker, security) and sorts
// each group by date then id. The returned keys are sorted too.
func groupTrades(txs []Transaction) (keys []Group, trades map[Group][]Transaction) {
	trades = make(map[Group][]Transaction)
	for _, tx := range txs {
		if tx.Type != TypeBuy && tx.Type != TypeSell {
			continue
		}
		g := tx.Group()
		if _, ok := trades[g]; !ok {
			keys = append(keys, g)
		}
		trades[g] = append(trades[g], tx)
	}
	slices.SortFunc(keys, compareGroup)
	for _, g := range keys {
		slices.SortStableFunc(trades[g], compareTransaction)
	}
	return keys, trades
}

func compareGroup(a, b Group) int {
	return cmp.Or(cmp.Compare(a.Broker, b.Broker), cmp.Compare(a.Security, b.Security))
}

// compareTransaction orders transactions by date then id.
func compareTransaction(a, b Transaction) int {
	return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.ID, b.ID))
}

// MatchLots allocates sell transactions to buy transactions, group by group.
//
// Only the unmatched remainder of each transaction is considered: shares
// already covered by existing matches are subtracted first, so calling
// MatchLots again with its own output appended to existing yields no new
// match.
//
// Buys and sells are processed in (date, id) order within a group. Buys form
// a queue of lots that every sell drains from the head. Sell shares left once
// the queue is empty are reported in UnmatchedSellShares and never recorded.
//
// Only FIFO is supported, any other method returns ErrUnsupportedMethod.
func MatchLots(txs []Transaction, existing []Match, method CostBasisMethod) (MatchResult, error) {
	var res MatchResult
	if method != FIFO {
		return res, fmt.Errorf("cannot match lots with %q: %w", method, ErrUnsupportedMethod)
	}

	perBuy, perSell := matched(existing)
	keys, trades := groupTrades(txs)
	for _, g := range keys {
		res.Groups++
		var queue lots
		// every buy of the group is queued before the sells are walked.
		for _, tx := range trades[g] {
			if tx.Type != TypeBuy {
				continue
			}
			if !tx.valid() {
				res.Skipped = append(res.Skipped, tx.ID)
				continue
			}
			remaining := tx.Magnitude().Sub(perBuy[tx.ID])
			if !remaining.Positive() {
				continue
			}
			queue.push(lot{BuyID: tx.ID, Remaining: remaining, Cost: tx.PerShare()})
		}

		for _, sell := range trades[g] {
			if sell.Type != TypeSell {
				continue
			}
			if !sell.valid() {
				res.Skipped = append(res.Skipped, sell.ID)
				continue
			}
			total := sell.Magnitude()
			toMatch := total.Sub(perSell[sell.ID])
			if !toMatch.Positive() {
				continue
			}
			proceeds := sell.PerShare()
			fee := sell.Fee().Div(total)

			for toMatch.Positive() && !queue.empty() {
				head := queue.front()
				qty := MinQ(toMatch, head.Remaining)
				res.Matches = append(res.Matches, Match{
					Broker:   g.Broker,
					Security: g.Security,
					BuyID:    head.BuyID,
					SellID:   sell.ID,
					Shares:   qty,
					Cost:     head.Cost.Mul(qty),
					Proceeds: proceeds.Mul(qty),
					Fees:     fee.Mul(qty),
					Method:   method.Tag(),
				})
				head.Remaining = head.Remaining.Sub(qty)
				toMatch = toMatch.Sub(qty)
				if !head.Remaining.Positive() {
					queue.pop()
				}
			}
			if toMatch.Positive() {
				res.UnmatchedSellShares = res.UnmatchedSellShares.Add(toMatch)
			}
		}
	}
	return res, nil
}
