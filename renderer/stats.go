package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/folio/batch"
	"github.com/etnz/folio/date"
)

// MatchMarkdown renders the statistics of a lot matching run.
func MatchMarkdown(s batch.MatchStats) string {
	var b strings.Builder
	fmt.Fprint(&b, "## Lot Matching\n\n")
	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Groups | %d |\n", s.Groups)
	fmt.Fprintf(&b, "| Matches created | %d |\n", s.Created)
	if s.Deleted > 0 {
		fmt.Fprintf(&b, "| Matches deleted | %d |\n", s.Deleted)
	}
	if s.Skipped > 0 {
		fmt.Fprintf(&b, "| Rows skipped | %d |\n", s.Skipped)
	}
	if s.UnmatchedSellShares.Positive() {
		fmt.Fprintf(&b, "| Unmatched sell shares | %s |\n", s.UnmatchedSellShares)
	}
	return b.String()
}

// DividendsMarkdown renders the statistics of a dividend allocation run.
func DividendsMarkdown(s batch.DividendStats) string {
	var b strings.Builder
	fmt.Fprint(&b, "## Dividend Allocation\n\n")
	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Dividends processed | %d |\n", s.Processed)
	fmt.Fprintf(&b, "| Allocated | %d |\n", s.Allocated)
	fmt.Fprintf(&b, "| Failed | %d |\n", s.Failed)
	fmt.Fprintf(&b, "| Allocation rows | %d |\n", s.Rows)
	return b.String()
}

// GainStatsMarkdown renders the statistics of a realized gain run.
func GainStatsMarkdown(s batch.GainStats) string {
	var b strings.Builder
	fmt.Fprint(&b, "## Realized Gains\n\n")
	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Positions created | %d |\n", s.Positions)
	fmt.Fprintf(&b, "| Transactions marked used | %d |\n", s.Marked)
	return b.String()
}

// RunMarkdown renders the statistics of a full run.
func RunMarkdown(s batch.RunStats) string {
	return "# Batch Run\n\n" +
		MatchMarkdown(s.Match) + "\n" +
		DividendsMarkdown(s.Dividends) + "\n" +
		GainStatsMarkdown(s.Gains)
}

// InfoMarkdown renders the date range of the ledger and its asset types.
func InfoMarkdown(r date.Range, assetTypes []string) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Ledger\n\n")
	if r.IsZero() {
		fmt.Fprint(&b, "No dated transactions.\n")
	} else {
		fmt.Fprintf(&b, "Transactions from %s to %s (%d days).\n", r.From, r.To, r.Days())
	}
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "\n## Asset Types\n\n")
		for _, t := range assetTypes {
			fmt.Fprintf(w, "- %s\n", t)
		}
		return len(assetTypes) > 0
	})
	return b.String()
}
