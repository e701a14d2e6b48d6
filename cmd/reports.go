package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio/batch"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// xirrCmd holds the flags for the 'xirr' subcommand.
type xirrCmd struct {
	closedOnly bool
	assetType  string
	date       string
	debugCSV   string
}

func (*xirrCmd) Name() string     { return "xirr" }
func (*xirrCmd) Synopsis() string { return "compute the money weighted return of the portfolio" }
func (*xirrCmd) Usage() string {
	return `fol xirr [-closed-only] [-asset-type <type>] [-d <date>] [-debug-csv <file>]

  Computes the XIRR of every position, open positions being valued at their
  latest trade price, or of the shares already sold with -closed-only.
`
}

func (c *xirrCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.closedOnly, "closed-only", false, "Only use the cash flows of sold shares and their dividends")
	f.StringVar(&c.assetType, "asset-type", "", "Asset type to report on, 'all' for every security. Defaults to FOLIO_ASSET_TYPE")
	f.StringVar(&c.date, "d", "", "Valuation date of open positions. Defaults to today")
	f.StringVar(&c.debugCSV, "debug-csv", "", "Write the cash flows to this CSV file")
}

func (c *xirrCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var on date.Date
	if c.date != "" {
		var err error
		if on, err = date.Parse(c.date); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		opts := batch.XIRROptions{
			ClosedOnly: c.closedOnly,
			AssetType:  a.assetType(c.assetType),
			Today:      on,
		}
		res, err := a.runner.PortfolioXIRR(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing XIRR: %v\n", err)
			return subcommands.ExitFailure
		}
		if c.debugCSV != "" {
			if err := writeCSV(c.debugCSV, res); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing cash flows to %q: %v\n", c.debugCSV, err)
				return subcommands.ExitFailure
			}
		}
		printMarkdown(renderer.XIRRMarkdown(res, opts))
		return subcommands.ExitSuccess
	})
}

func writeCSV(path string, res batch.XIRRResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := renderer.WriteCashFlowsCSV(f, res.Flows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// positionsCmd holds the flags for the 'positions' subcommand.
type positionsCmd struct {
	assetType string
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "list the securities still held" }
func (*positionsCmd) Usage() string {
	return `fol positions [-asset-type <type>]

  Lists every security whose bought shares exceed its sold shares, valued at
  the latest trade price, with the latest market price when known.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.assetType, "asset-type", "", "Asset type to report on, 'all' for every security. Defaults to FOLIO_ASSET_TYPE")
}

func (c *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		assetType := a.assetType(c.assetType)
		summary, err := a.runner.OpenPositions(ctx, assetType)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing positions: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.PositionsMarkdown(summary, assetType))
		return subcommands.ExitSuccess
	})
}

type realizedCmd struct{}

func (*realizedCmd) Name() string     { return "realized" }
func (*realizedCmd) Synopsis() string { return "list the realized gain positions" }
func (*realizedCmd) Usage() string {
	return `fol realized

  Lists the realized gains stored by 'fol gains', by sell date.
`
}

func (*realizedCmd) SetFlags(f *flag.FlagSet) {}

func (*realizedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		gains, err := a.runner.RealizedGains(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing realized gains: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.GainsMarkdown(gains))
		return subcommands.ExitSuccess
	})
}

// infoCmd holds the flags for the 'info' subcommand.
type infoCmd struct {
	assetType string
}

func (*infoCmd) Name() string     { return "info" }
func (*infoCmd) Synopsis() string { return "show the ledger date range and asset types" }
func (*infoCmd) Usage() string {
	return `fol info [-asset-type <type>]

  Shows the dates of the first and last transactions and the asset types in use.
`
}

func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.assetType, "asset-type", "", "Asset type to report on, 'all' for every security. Defaults to FOLIO_ASSET_TYPE")
}

func (c *infoCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		r, err := a.runner.DateRange(ctx, a.assetType(c.assetType))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading ledger dates: %v\n", err)
			return subcommands.ExitFailure
		}
		types, err := a.runner.AssetTypes(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading asset types: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.InfoMarkdown(r, types))
		return subcommands.ExitSuccess
	})
}
