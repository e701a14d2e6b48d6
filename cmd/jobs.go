package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio/batch"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// matchCmd holds the flags for the 'match' subcommand.
type matchCmd struct {
	clear      bool
	onlyUnused bool
}

func (*matchCmd) Name() string     { return "match" }
func (*matchCmd) Synopsis() string { return "allocate sell transactions to buy lots" }
func (*matchCmd) Usage() string {
	return `fol match [-clear] [-only-unused]

  Matches the unmatched shares of every sell to the oldest unmatched buy
  shares of the same broker and security, and stores the matches.
`
}

func (c *matchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.clear, "clear", false, "Delete every existing match before matching")
	f.BoolVar(&c.onlyUnused, "only-unused", false, "Ignore transactions already used in a realized gain")
}

func (c *matchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		method, err := a.method()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing cost basis method: %v\n", err)
			return subcommands.ExitUsageError
		}
		stats, err := a.runner.Match(ctx, batch.MatchOptions{
			ClearExisting: c.clear,
			OnlyUnused:    c.onlyUnused,
			Method:        method,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error matching lots: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.MatchMarkdown(stats))
		return subcommands.ExitSuccess
	})
}

type allocateCmd struct{}

func (*allocateCmd) Name() string     { return "allocate" }
func (*allocateCmd) Synopsis() string { return "allocate dividends to the buy lots that earned them" }
func (*allocateCmd) Usage() string {
	return `fol allocate

  Splits every dividend not yet allocated across the buy transactions held
  when it was paid. Dividends that cannot be allocated keep an error message
  and are retried on the next run.
`
}

func (*allocateCmd) SetFlags(f *flag.FlagSet) {}

func (*allocateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		stats, err := a.runner.AllocateDividends(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error allocating dividends: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.DividendsMarkdown(stats))
		return subcommands.ExitSuccess
	})
}

type gainsCmd struct{}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "aggregate fully sold shares into realized gains" }
func (*gainsCmd) Usage() string {
	return `fol gains

  Aggregates the matches of fully matched sells per buy and sell date,
  attributes the unused dividends, computes the CAGR, and flags the
  transactions consumed so that the next run skips them.
`
}

func (*gainsCmd) SetFlags(f *flag.FlagSet) {}

func (*gainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		stats, err := a.runner.RealizeGains(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error realizing gains: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.GainStatsMarkdown(stats))
		return subcommands.ExitSuccess
	})
}

// runCmd holds the flags for the 'run' subcommand.
type runCmd struct {
	clear      bool
	onlyUnused bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run match, allocate and gains in order" }
func (*runCmd) Usage() string {
	return `fol run [-clear] [-only-unused]

  Runs every batch job. Each job commits on its own, the run stops at the
  first failing job.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.clear, "clear", false, "Delete every existing match before matching")
	f.BoolVar(&c.onlyUnused, "only-unused", false, "Ignore transactions already used in a realized gain")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		method, err := a.method()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing cost basis method: %v\n", err)
			return subcommands.ExitUsageError
		}
		stats, err := a.runner.Run(ctx, batch.MatchOptions{
			ClearExisting: c.clear,
			OnlyUnused:    c.onlyUnused,
			Method:        method,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running batch: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.RunMarkdown(stats))
		return subcommands.ExitSuccess
	})
}
