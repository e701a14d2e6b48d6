package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/folio/batch"
)

// TransactionsMarkdown renders ledger rows as a table, one row per
// transaction.
func TransactionsMarkdown(rows []batch.Row) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Transactions\n\n")
	if len(rows) == 0 {
		fmt.Fprint(&b, "No transactions.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Id | Date | Type | Security | Shares | Amount | Fees | Status |")
	fmt.Fprintln(&b, "|---:|:---|:---|:---|---:|---:|---:|:---|")
	for _, r := range rows {
		amount, fees := "", ""
		if a := r.Amount(false); !a.IsZero() {
			amount = a.SignedString()
		}
		if f := r.Fee(); !f.IsZero() {
			fees = f.String()
		}
		shares := ""
		if !r.Shares.IsZero() {
			shares = r.Shares.String()
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s |\n",
			r.ID, r.Date, r.Type, cell(r.Name), shares, amount, fees, cell(status(r)))
	}
	return b.String()
}

func status(r batch.Row) string {
	var flags []string
	if r.UsedInRealizedGain {
		flags = append(flags, "realized")
	}
	if r.Allocated {
		flags = append(flags, "allocated")
	}
	if r.ErrorMessage != "" {
		flags = append(flags, r.ErrorMessage)
	}
	return strings.Join(flags, ", ")
}
