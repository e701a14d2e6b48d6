package batch

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/store"
)

// XIRROptions selects the cash flows of PortfolioXIRR.
type XIRROptions struct {
	ClosedOnly bool      // only the shares already sold, with their dividends
	AssetType  string    // "" or "all" for every security
	Today      date.Date // valuation date of open positions, today when zero
}

// XIRRResult is the money weighted return of a set of cash flows.
type XIRRResult struct {
	Rate  float64 // annualized, 0.1 is 10%
	OK    bool    // false when the rate is undefined
	Flows []folio.CashFlow
}

// PortfolioXIRR computes the XIRR of the portfolio. Flows are returned sorted
// by date then amount.
func (r *Runner) PortfolioXIRR(ctx context.Context, opts XIRROptions) (XIRRResult, error) {
	txs, err := r.store.Transactions(ctx, store.Filter{AssetType: opts.AssetType})
	if err != nil {
		return XIRRResult{}, err
	}
	names, err := r.store.SecurityNames(ctx)
	if err != nil {
		return XIRRResult{}, err
	}

	var flows []folio.CashFlow
	if opts.ClosedOnly {
		matches, err := r.store.Matches(ctx)
		if err != nil {
			return XIRRResult{}, err
		}
		allocations, err := r.store.DividendAllocations(ctx)
		if err != nil {
			return XIRRResult{}, err
		}
		// transactions outside the asset type are absent from txs, and so
		// are the matches and allocations referring to them.
		flows = folio.ClosedCashFlows(txs, matches, allocations, names)
	} else {
		today := opts.Today
		if today.IsZero() {
			today = r.today()
		}
		flows = folio.PortfolioCashFlows(txs, names, today)
	}

	rate, ok := folio.XIRR(flows)
	folio.SortCashFlows(flows)
	if !ok {
		r.log.WithField("flows", len(flows)).Debug("xirr undefined")
	}
	return XIRRResult{Rate: rate, OK: ok, Flows: flows}, nil
}

// OpenPositions returns the securities still held, with the latest stored
// market price when there is one.
func (r *Runner) OpenPositions(ctx context.Context, assetType string) (folio.PositionSummary, error) {
	txs, err := r.store.Transactions(ctx, store.Filter{
		Types:     []folio.TransactionType{folio.TypeBuy, folio.TypeSell},
		AssetType: assetType,
	})
	if err != nil {
		return folio.PositionSummary{}, err
	}
	names, err := r.store.SecurityNames(ctx)
	if err != nil {
		return folio.PositionSummary{}, err
	}
	quotes, err := r.store.LatestMarketPrices(ctx)
	if err != nil {
		return folio.PositionSummary{}, err
	}

	positions := folio.OpenPositions(txs, names)
	for i := range positions {
		q, ok := quotes[positions[i].Security]
		if !ok {
			continue
		}
		price := q.Price
		positions[i].MarketPrice = &price
		positions[i].MarketDate = q.Date
	}
	return folio.Summarize(positions), nil
}

// Gain is a realized gain with its security name.
type Gain struct {
	folio.RealizedGain
	Name string
}

// RealizedGains returns every stored realized gain, by sell date then name.
func (r *Runner) RealizedGains(ctx context.Context) ([]Gain, error) {
	gains, err := r.store.RealizedGains(ctx)
	if err != nil {
		return nil, err
	}
	names, err := r.store.SecurityNames(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]Gain, len(gains))
	for i, g := range gains {
		name := names[g.Security]
		if name == "" {
			name = fmt.Sprintf("Security %d", g.Security)
		}
		rows[i] = Gain{RealizedGain: g, Name: name}
	}
	slices.SortStableFunc(rows, func(a, b Gain) int {
		if c := a.SellDate.Compare(b.SellDate); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return rows, nil
}

// DateRange returns the dates of the first and last transactions.
func (r *Runner) DateRange(ctx context.Context, assetType string) (date.Range, error) {
	txs, err := r.store.Transactions(ctx, store.Filter{AssetType: assetType})
	if err != nil {
		return date.Range{}, err
	}
	return folio.DateRange(txs), nil
}

// AssetTypes returns the asset types in use.
func (r *Runner) AssetTypes(ctx context.Context) ([]string, error) {
	return r.store.AssetTypes(ctx)
}
