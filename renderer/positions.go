package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/folio"
)

// PositionsMarkdown renders the open positions of a summary.
func PositionsMarkdown(s folio.PositionSummary, assetType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Open Positions (%s)\n\n", assetTitle(assetType))
	if len(s.Positions) == 0 {
		fmt.Fprint(&b, "No open positions.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Security | Shares | Last Price | Last Trade | Value | Market Price |")
	fmt.Fprintln(&b, "|:---|---:|---:|:---|---:|---:|")
	for _, p := range s.Positions {
		lastPrice, value := "n/a", "n/a"
		if p.Priced() {
			lastPrice = p.LastPrice.String()
			value = p.Value().String()
		}
		market := ""
		if p.MarketPrice != nil {
			market = fmt.Sprintf("%s (%s)", p.MarketPrice, p.MarketDate)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			cell(p.Name),
			p.Shares,
			lastPrice,
			p.LastDate,
			value,
			market,
		)
	}
	fmt.Fprintf(&b, "| **%s** | | | | **%s** | |\n", "Total", s.Total.StringFixed(2))

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "\n%d of %d positions priced.\n", s.Priced, len(s.Positions))
		return s.Priced < len(s.Positions)
	})
	return b.String()
}
