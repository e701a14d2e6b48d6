package cmd

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/store"
	"github.com/google/subcommands"
)

func TestRegister(t *testing.T) {
	c := subcommands.NewCommander(flag.NewFlagSet("fol", flag.ContinueOnError), "fol")
	Register(c)

	var names []string
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		names = append(names, cmd.Name())
	})
	slices.Sort(names)
	want := []string{"allocate", "buy", "dividend", "gains", "info", "interest", "match", "positions",
		"price", "realized", "run", "sell", "tx", "xirr"}
	if !slices.Equal(names, want) {
		t.Errorf("registered %v, want %v", names, want)
	}
}

// seed creates a SQLite ledger with one round trip and points the
// configuration at it.
func seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "folio.db")
	s, err := store.Open(ctx, path, "test")
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer s.Close()

	sec := store.Security{Name: "ACME"}
	if err := s.CreateSecurity(ctx, &sec); err != nil {
		t.Fatalf("CreateSecurity() error = %v", err)
	}
	money := func(v float64) *folio.Money {
		m := folio.M(v, "EUR")
		return &m
	}
	_, err = s.CreateTransactions(ctx,
		folio.Transaction{Broker: 1, Security: sec.ID, Date: date.New(2023, 1, 1), Type: folio.TypeBuy,
			Shares: folio.Q(10), TotalValue: money(-100), Currency: "EUR", Source: folio.Source{Table: "t", Row: 1}},
		folio.Transaction{Broker: 1, Security: sec.ID, Date: date.New(2024, 1, 1), Type: folio.TypeSell,
			Shares: folio.Q(10), TotalValue: money(110), Currency: "EUR", Source: folio.Source{Table: "t", Row: 2}},
	)
	if err != nil {
		t.Fatalf("CreateTransactions() error = %v", err)
	}

	t.Setenv("FOLIO_DATABASE_URL", path)
	t.Setenv("FOLIO_LOG_LEVEL", "error")
	*envFile = filepath.Join(t.TempDir(), "missing.env")
	*plain = true
	t.Cleanup(func() { *plain = false })
}

func TestExecute(t *testing.T) {
	seed(t)
	ctx := context.Background()
	csvPath := filepath.Join(t.TempDir(), "flows.csv")

	tests := []struct {
		cmd  subcommands.Command
		args []string
	}{
		{&runCmd{}, nil},
		{&realizedCmd{}, nil},
		{&positionsCmd{}, []string{"-asset-type", "all"}},
		{&infoCmd{}, nil},
		{&xirrCmd{}, []string{"-closed-only", "-debug-csv", csvPath}},
	}
	for _, test := range tests {
		t.Run(test.cmd.Name(), func(t *testing.T) {
			f := flag.NewFlagSet(test.cmd.Name(), flag.ContinueOnError)
			test.cmd.SetFlags(f)
			if err := f.Parse(test.args); err != nil {
				t.Fatalf("Parse(%v) error = %v", test.args, err)
			}
			if got := test.cmd.Execute(ctx, f); got != subcommands.ExitSuccess {
				t.Errorf("Execute() = %v, want success", got)
			}
		})
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("reading cash flows: %v", err)
	}
	want := "date,amount,details\n" +
		"2023-01-01,-100.00,ACME (buy allocation)\n" +
		"2024-01-01,110.00,ACME (sell allocation)\n"
	if got := string(data); got != want {
		t.Errorf("cash flows =\n%s\nwant\n%s", got, want)
	}
}

func TestExecute_BadDate(t *testing.T) {
	c := &xirrCmd{}
	f := flag.NewFlagSet("xirr", flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse([]string{"-d", "not a date"}); err != nil {
		t.Fatal(err)
	}
	if got := c.Execute(context.Background(), f); got != subcommands.ExitUsageError {
		t.Errorf("Execute() = %v, want usage error", got)
	}
	if !strings.Contains(c.Usage(), "fol xirr") {
		t.Errorf("Usage() = %q", c.Usage())
	}
}

func TestLedgerCommands(t *testing.T) {
	seed(t)
	ctx := context.Background()

	tests := []struct {
		cmd  subcommands.Command
		args []string
		want subcommands.ExitStatus
	}{
		{&recordCmd{typ: folio.TypeBuy}, []string{"-b", "Bank", "-s", "World", "-asset-type", "etf", "-d", "2024-02-01", "-q", "4", "-p", "25", "-f", "1"}, subcommands.ExitSuccess},
		{&recordCmd{typ: folio.TypeDividend}, []string{"-b", "Bank", "-s", "World", "-d", "2024-05-01", "-a", "2"}, subcommands.ExitSuccess},
		{&recordCmd{typ: folio.TypeSell}, []string{"-b", "Bank", "-s", "World", "-q", "4"}, subcommands.ExitUsageError},
		{&recordCmd{typ: folio.TypeBuy}, []string{"-s", "World", "-q", "1", "-p", "1"}, subcommands.ExitUsageError},
		{&priceCmd{}, []string{"-s", "World", "-d", "2024-06-01", "-p", "27.5"}, subcommands.ExitSuccess},
		{&priceCmd{}, []string{"-s", "World"}, subcommands.ExitUsageError},
		{&txCmd{}, []string{"-s", "world", "-from", "2024-01-01", "-tail", "1"}, subcommands.ExitSuccess},
		{&txCmd{}, []string{"-type", "swap"}, subcommands.ExitUsageError},
	}
	for _, test := range tests {
		t.Run(test.cmd.Name(), func(t *testing.T) {
			f := flag.NewFlagSet(test.cmd.Name(), flag.ContinueOnError)
			test.cmd.SetFlags(f)
			if err := f.Parse(test.args); err != nil {
				t.Fatalf("Parse(%v) error = %v", test.args, err)
			}
			if got := test.cmd.Execute(ctx, f); got != test.want {
				t.Errorf("Execute(%v) = %v, want %v", test.args, got, test.want)
			}
		})
	}

	s, err := store.Open(ctx, os.Getenv("FOLIO_DATABASE_URL"), "test")
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer s.Close()
	txs, err := s.Transactions(ctx, store.Filter{AssetType: "etf"})
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d etf transactions, want 2", len(txs))
	}
	buy := txs[0]
	if buy.Type != folio.TypeBuy || !buy.TotalValue.Equal(folio.M(-100, "EUR")) || !buy.NetAmount.Equal(folio.M(-101, "EUR")) {
		t.Errorf("recorded buy = %+v", buy)
	}
	quotes, err := s.LatestMarketPrices(ctx)
	if err != nil {
		t.Fatalf("LatestMarketPrices() error = %v", err)
	}
	if q := quotes[buy.Security]; !q.Price.Equal(folio.M(27.5, "EUR")) {
		t.Errorf("market price = %v, want 27.5", q.Price)
	}
}
