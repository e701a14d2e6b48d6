package renderer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/batch"
)

// XIRRMarkdown renders the result of a portfolio XIRR.
func XIRRMarkdown(res batch.XIRRResult, opts batch.XIRROptions) string {
	var b strings.Builder
	scope := "All Positions"
	if opts.ClosedOnly {
		scope = "Closed Positions"
	}
	fmt.Fprintf(&b, "# XIRR of %s (%s)\n\n", scope, assetTitle(opts.AssetType))

	rate := "undefined"
	if res.OK {
		rate = folio.Percent(res.Rate * 100).String()
	}
	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| XIRR | %s |\n", rate)
	fmt.Fprintf(&b, "| Cash flows | %d |\n", len(res.Flows))

	ConditionalBlock(&b, func(w io.Writer) bool {
		var in, out float64
		for _, f := range res.Flows {
			v := f.Amount.InexactFloat64()
			if v > 0 {
				in += v
			} else {
				out -= v
			}
		}
		fmt.Fprintf(w, "| Invested | %.2f |\n", out)
		fmt.Fprintf(w, "| Returned | %.2f |\n", in)
		return len(res.Flows) > 0
	})
	return b.String()
}

// WriteCashFlowsCSV writes flows as a date,amount,details CSV with a header.
// Amounts have two decimals.
func WriteCashFlowsCSV(w io.Writer, flows []folio.CashFlow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "amount", "details"}); err != nil {
		return err
	}
	for _, f := range flows {
		record := []string{f.Date.String(), f.Amount.StringFixed(2), f.Label}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
