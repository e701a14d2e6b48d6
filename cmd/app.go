// Package cmd implements the subcommands of the fol batch tool.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/folio"
	"github.com/etnz/folio/batch"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/logger"
	"github.com/etnz/folio/store"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&matchCmd{}, "jobs")
	c.Register(&allocateCmd{}, "jobs")
	c.Register(&gainsCmd{}, "jobs")
	c.Register(&runCmd{}, "jobs")

	c.Register(&xirrCmd{}, "reports")
	c.Register(&positionsCmd{}, "reports")
	c.Register(&realizedCmd{}, "reports")
	c.Register(&infoCmd{}, "reports")
	c.Register(&txCmd{}, "reports")

	c.Register(&recordCmd{typ: folio.TypeBuy}, "ledger")
	c.Register(&recordCmd{typ: folio.TypeSell}, "ledger")
	c.Register(&recordCmd{typ: folio.TypeDividend}, "ledger")
	c.Register(&recordCmd{typ: folio.TypeInterest}, "ledger")
	c.Register(&priceCmd{}, "ledger")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var envFile = flag.String("env-file", ".env", "Path to an optional file of FOLIO_* environment variables")
var plain = flag.Bool("plain", false, "Print raw markdown instead of rendering it for the terminal")

// app is what every subcommand needs.
type app struct {
	cfg    *config.Config
	store  *store.Store
	runner *batch.Runner
}

// open loads the configuration, sets up the logger and opens the database.
func open(ctx context.Context) (*app, error) {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return nil, err
	}
	logger.InitLogger(cfg.LogLevel)
	logger.L.WithField("db", cfg.Masked()).Debug("opening database")

	s, err := store.Open(ctx, cfg.DatabaseURL, cfg.Env)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, store: s, runner: batch.New(s, logger.L)}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.L.WithError(err).Warn("closing database")
	}
}

// method returns the configured cost basis method.
func (a *app) method() (folio.CostBasisMethod, error) {
	return folio.ParseCostBasisMethod(a.cfg.CostBasis)
}

// assetType returns flagValue, or the configured asset type when empty.
func (a *app) assetType(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return a.cfg.AssetType
}

// withApp opens the app, runs fn and closes the app.
func withApp(ctx context.Context, fn func(*app) subcommands.ExitStatus) subcommands.ExitStatus {
	a, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening portfolio database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	return fn(a)
}

// printMarkdown renders md for the terminal on stdout.
func printMarkdown(md string) {
	if *plain {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
