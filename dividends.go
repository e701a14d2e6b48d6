package folio

import (
	"cmp"
	"errors"
	"slices"
	"sort"

	"github.com/etnz/folio/date"
)

// Reasons a dividend cannot be allocated. Their messages are persisted on the
// dividend row.
var (
	ErrZeroDividend      = errors.New("dividend amount is zero")
	ErrNoEligibleHolding = errors.New("no eligible holdings on dividend date")
	ErrNoShareCount      = errors.New("no share count available for allocation")
	ErrUndistributed     = errors.New("could not distribute dividend across holdings")
	ErrMissingDate       = errors.New("missing transaction date on dividend")
)

// DividendAllocation is the part of a dividend earned by one buy transaction.
type DividendAllocation struct {
	ID         int64
	Broker     int64
	Security   int64
	DividendID int64
	BuyID      int64
	Shares     Quantity
	Amount     Money
}

// HoldingSegment is a block of shares from one buy, held from BuyDate until
// SellDate. A zero SellDate means the shares are still held.
type HoldingSegment struct {
	BuyID    int64
	BuyDate  date.Date
	SellDate date.Date
	Shares   Quantity
}

// Open reports whether the segment has not been sold.
func (s HoldingSegment) Open() bool { return s.SellDate.IsZero() }

// heldOn reports whether the segment still held shares on day.
func (s HoldingSegment) heldOn(day date.Date) bool { return s.Open() || !s.SellDate.Before(day) }

// earns reports whether the segment is entitled to a dividend paid on day,
// given the date of the previous dividend of the same security.
func (s HoldingSegment) earns(day, previous date.Date) bool {
	if !s.BuyDate.Before(day) {
		return false
	}
	return s.heldOn(day) || s.SellDate.After(previous)
}

// compareSegment orders segments by buy date, then sell date with open
// segments last, then buy id.
func compareSegment(a, b HoldingSegment) int {
	if c := a.BuyDate.Compare(b.BuyDate); c != 0 {
		return c
	}
	switch {
	case a.Open() && !b.Open():
		return 1
	case !a.Open() && b.Open():
		return -1
	}
	return cmp.Or(a.SellDate.Compare(b.SellDate), cmp.Compare(a.BuyID, b.BuyID))
}

// Holdings returns the holding segments of every (broker, security) group.
//
// Each match becomes a closed segment from its buy date to its sell date.
// Shares of a buy not covered by matches become one open segment. Segments
// are sorted by buy date then sell date, open ones last.
func Holdings(txs []Transaction, matches []Match) map[Group][]HoldingSegment {
	ledger := NewLedger(txs...)
	segments := make(map[Group][]HoldingSegment)
	covered := make(map[int64]Quantity)

	for _, m := range matches {
		shares := m.Shares.Abs()
		if !shares.Positive() {
			continue
		}
		buy, okb := ledger.Get(m.BuyID)
		sell, oks := ledger.Get(m.SellID)
		if !okb || !oks || buy.Date.IsZero() || sell.Date.IsZero() {
			continue
		}
		segments[m.Group()] = append(segments[m.Group()], HoldingSegment{
			BuyID:    m.BuyID,
			BuyDate:  buy.Date,
			SellDate: sell.Date,
			Shares:   shares,
		})
		covered[m.BuyID] = covered[m.BuyID].Add(shares)
	}

	for _, tx := range txs {
		if tx.Type != TypeBuy || !tx.valid() {
			continue
		}
		remaining := tx.Magnitude().Sub(covered[tx.ID])
		if !remaining.Positive() {
			continue
		}
		segments[tx.Group()] = append(segments[tx.Group()], HoldingSegment{
			BuyID:   tx.ID,
			BuyDate: tx.Date,
			Shares:  remaining,
		})
	}

	for g := range segments {
		slices.SortStableFunc(segments[g], compareSegment)
	}
	return segments
}

// portion is the part of an amount assigned to one holding.
type portion struct {
	Shares Quantity
	Amount Money
}

// prorate splits amount over holdings, in order, pro rata by shares.
//
// With a positive declared share count the payout per share is amount/declared
// and the walk stops once declared shares are exhausted. Otherwise every
// holding takes its full share count. remainder is what the rounding (or
// declared shares that no holding could cover) left undistributed. ok is false
// when no positive share total exists.
func prorate(amount Money, declared Quantity, holdings []Quantity) (split []portion, remainder Money, ok bool) {
	total := declared
	if !declared.Positive() {
		total = Quantity{}
		for _, h := range holdings {
			total = total.Add(h)
		}
	}
	if !total.Positive() {
		return nil, Money{}, false
	}

	split = make([]portion, len(holdings))
	left := total
	distributed := M(0, amount.Currency())
	for i, h := range holdings {
		if !left.Positive() {
			break
		}
		use := MinQ(h, left)
		if !use.Positive() {
			continue
		}
		value := amount.Mul(use).Div(total)
		split[i] = portion{Shares: use, Amount: value}
		left = left.Sub(use)
		distributed = distributed.Add(value)
	}
	return split, amount.Sub(distributed), true
}

// DividendOutcome is the result of allocating one dividend. Err is nil on
// success and one of the Err* reasons otherwise.
type DividendOutcome struct {
	DividendID  int64
	Allocations []DividendAllocation
	Err         error
}

// DividendResult holds one outcome per processed dividend, in processing order.
type DividendResult struct {
	Outcomes []DividendOutcome
}

// Allocations returns every allocation of the successful outcomes.
func (r DividendResult) Allocations() []DividendAllocation {
	var all []DividendAllocation
	for _, o := range r.Outcomes {
		all = append(all, o.Allocations...)
	}
	return all
}

// Failed returns the number of dividends that could not be allocated.
func (r DividendResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// previousDividends indexes the sorted dividend dates of each group.
type previousDividends map[Group][]date.Date

func newPreviousDividends(txs []Transaction) previousDividends {
	p := make(previousDividends)
	for _, tx := range txs {
		if tx.Type == TypeDividend && !tx.Date.IsZero() {
			p[tx.Group()] = append(p[tx.Group()], tx.Date)
		}
	}
	for g := range p {
		slices.SortFunc(p[g], date.Date.Compare)
	}
	return p
}

// before returns the latest dividend date of g strictly before day, or day
// itself when there is none.
func (p previousDividends) before(g Group, day date.Date) date.Date {
	dates := p[g]
	i := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(day) })
	if i == 0 {
		return day
	}
	return dates[i-1]
}

// AllocateDividends distributes every dividend not yet allocated across the
// buy transactions that earned it.
//
// A holding segment earns a dividend when it was bought strictly before the
// payment date and was either still held on that date, or sold after the
// previous dividend of the same security. Without a previous dividend only
// segments held on the payment date earn it.
//
// The declared share count of the dividend drives the split when positive,
// otherwise the eligible shares are used. Segments of the same buy collapse
// into one allocation, and the rounding remainder goes to the last one so that
// allocations always sum to the dividend amount.
//
// A dividend that cannot be allocated gets an outcome with a non nil Err, the
// others are not affected.
func AllocateDividends(txs []Transaction, matches []Match) DividendResult {
	segments := Holdings(txs, matches)
	previous := newPreviousDividends(txs)

	var dividends []Transaction
	for _, tx := range txs {
		if tx.Type == TypeDividend && !tx.Allocated {
			dividends = append(dividends, tx)
		}
	}
	slices.SortStableFunc(dividends, func(a, b Transaction) int {
		return cmp.Or(compareGroup(a.Group(), b.Group()), compareTransaction(a, b))
	})

	var res DividendResult
	for _, div := range dividends {
		allocations, err := allocateDividend(div, segments[div.Group()], previous)
		res.Outcomes = append(res.Outcomes, DividendOutcome{
			DividendID:  div.ID,
			Allocations: allocations,
			Err:         err,
		})
	}
	return res
}

func allocateDividend(div Transaction, segments []HoldingSegment, previous previousDividends) ([]DividendAllocation, error) {
	if div.Date.IsZero() {
		return nil, ErrMissingDate
	}
	amount := div.Amount(false)
	if amount.Negligible() {
		return nil, ErrZeroDividend
	}

	prev := previous.before(div.Group(), div.Date)
	var eligible []HoldingSegment
	for _, s := range segments {
		if s.earns(div.Date, prev) {
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleHolding
	}

	holdings := make([]Quantity, len(eligible))
	for i, s := range eligible {
		holdings[i] = s.Shares
	}
	split, remainder, ok := prorate(amount, div.Magnitude(), holdings)
	if !ok {
		return nil, ErrNoShareCount
	}

	var allocations []DividendAllocation
	bucket := make(map[int64]int) // buy id -> index in allocations
	for i, p := range split {
		if !p.Shares.Positive() {
			continue
		}
		buyID := eligible[i].BuyID
		j, found := bucket[buyID]
		if !found {
			j = len(allocations)
			bucket[buyID] = j
			allocations = append(allocations, DividendAllocation{
				Broker:     div.Broker,
				Security:   div.Security,
				DividendID: div.ID,
				BuyID:      buyID,
				Amount:     M(0, amount.Currency()),
			})
		}
		allocations[j].Shares = allocations[j].Shares.Add(p.Shares)
		allocations[j].Amount = allocations[j].Amount.Add(p.Amount)
	}
	if len(allocations) == 0 {
		return nil, ErrUndistributed
	}
	last := &allocations[len(allocations)-1]
	last.Amount = last.Amount.Add(remainder)
	return allocations, nil
}
