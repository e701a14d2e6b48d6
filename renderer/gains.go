package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/batch"
)

// GainsMarkdown renders the realized gain positions.
func GainsMarkdown(gains []batch.Gain) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Realized Gains\n\n")
	if len(gains) == 0 {
		fmt.Fprint(&b, "No realized gains.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Security | Bought | Sold | Shares | Invested | P/L | Dividends | CAGR |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|---:|---:|")
	var invested, pl, dividends folio.Money
	for _, g := range gains {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			cell(g.Name),
			g.BuyDate,
			g.SellDate,
			g.Shares,
			g.Invested,
			g.PL.SignedString(),
			g.Dividends.SignedString(),
			g.CAGR.SignedString(),
		)
		invested = invested.Add(g.Invested)
		pl = pl.Add(g.PL)
		dividends = dividends.Add(g.Dividends)
	}
	fmt.Fprintf(&b, "| **%s** | | | | **%s** | **%s** | **%s** | |\n",
		"Total",
		invested,
		pl.SignedString(),
		dividends.SignedString(),
	)
	return b.String()
}
