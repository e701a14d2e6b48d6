package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/batch"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// recordCmd records one buy, sell, dividend or interest in the ledger.
type recordCmd struct {
	typ folio.TransactionType

	date      string
	broker    string
	security  string
	assetType string
	quantity  float64
	price     float64
	amount    float64
	fees      float64
	currency  string
}

func (c *recordCmd) Name() string { return string(c.typ) }
func (c *recordCmd) Synopsis() string {
	switch c.typ {
	case folio.TypeBuy:
		return "record a purchase of shares"
	case folio.TypeSell:
		return "record a sale of shares"
	default:
		return fmt.Sprintf("record a %s payment for a security", c.typ)
	}
}
func (c *recordCmd) Usage() string {
	if c.typ == folio.TypeBuy || c.typ == folio.TypeSell {
		return fmt.Sprintf(`fol %s -b <broker> -s <security> -q <quantity> -p <price> [-d <date>] [-f <fees>] [-c <currency>]

  Records a %s in the ledger. The broker and the security are created when
  they are new.
`, c.typ, c.typ)
	}
	return fmt.Sprintf(`fol %s -b <broker> -s <security> -a <amount> [-q <shares>] [-d <date>] [-f <fees>] [-c <currency>]

  Records a %s in the ledger. -q is the number of shares the payment was
  for, when the broker tells.
`, c.typ, c.typ)
}

func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.broker, "b", "", "Broker name")
	f.StringVar(&c.security, "s", "", "Security name")
	f.StringVar(&c.assetType, "asset-type", "", "Asset type of a new security. Defaults to stock")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.Float64Var(&c.amount, "a", 0, "Total amount, instead of quantity times price")
	f.Float64Var(&c.fees, "f", 0, "Fees paid")
	f.StringVar(&c.currency, "c", "EUR", "Currency of the amounts")
}

// entry builds the ledger entry from the flags. Outflows are negative.
func (c *recordCmd) entry() (batch.Entry, error) {
	day, err := date.Parse(c.date)
	if err != nil {
		return batch.Entry{}, err
	}
	total := c.amount
	if total == 0 {
		total = c.quantity * c.price
	}
	if total <= 0 || c.fees < 0 {
		return batch.Entry{}, fmt.Errorf("amounts must be positive")
	}
	if c.typ == folio.TypeBuy {
		total = -total
	}
	tx := folio.Transaction{
		Date:       day,
		Type:       c.typ,
		Shares:     folio.Q(c.quantity),
		TotalValue: ptr(folio.M(total, c.currency)),
		NetAmount:  ptr(folio.M(total-c.fees, c.currency)),
		Currency:   c.currency,
	}
	if c.price > 0 {
		tx.Price = ptr(folio.M(c.price, c.currency))
	}
	if c.fees > 0 {
		tx.Fees = ptr(folio.M(c.fees, c.currency))
	}
	return batch.Entry{Broker: c.broker, Security: c.security, AssetType: c.assetType, Transaction: tx}, nil
}

func (c *recordCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.broker == "" || c.security == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	e, err := c.entry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in %s: %v\n", c.typ, err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		id, err := a.runner.Record(ctx, e)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error recording %s: %v\n", c.typ, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Recorded %s of %s as transaction %d\n", c.typ, c.security, id)
		return subcommands.ExitSuccess
	})
}

func ptr(m folio.Money) *folio.Money { return &m }

// priceCmd stores a market price.
type priceCmd struct {
	date     string
	security string
	price    float64
	currency string
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "record the market price of a security" }
func (*priceCmd) Usage() string {
	return `fol price -s <security> -p <price> [-d <date>] [-c <currency>]

  Records the market price of a security on a day, replacing any price
  already known for that day. Open positions show the latest one.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Price date (YYYY-MM-DD)")
	f.StringVar(&c.security, "s", "", "Security name")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.StringVar(&c.currency, "c", "EUR", "Currency of the price")
}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.security == "" || c.price <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		if err := a.runner.SetPrice(ctx, c.security, day, folio.M(c.price, c.currency)); err != nil {
			fmt.Fprintf(os.Stderr, "Error recording price: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}

// txCmd lists the ledger.
type txCmd struct {
	security  string
	assetType string
	typ       string
	from      string
	to        string
	head      int
	tail      int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions of the ledger" }
func (*txCmd) Usage() string {
	return `fol tx [-s <security>] [-type <type>] [-from <date>] [-to <date>] [-head <n>] [-tail <n>]

  Lists the ledger transactions by date, with their analysis flags.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.security, "s", "", "Only list this security")
	f.StringVar(&c.assetType, "asset-type", "", "Asset type to list, 'all' for every security. Defaults to FOLIO_ASSET_TYPE")
	f.StringVar(&c.typ, "type", "", "Only list this transaction type")
	f.StringVar(&c.from, "from", "", "First date to list (YYYY-MM-DD)")
	f.StringVar(&c.to, "to", "", "Last date to list (YYYY-MM-DD)")
	f.IntVar(&c.head, "head", 0, "Only list the first n transactions")
	f.IntVar(&c.tail, "tail", 0, "Only list the last n transactions")
}

func (c *txCmd) options() (batch.LedgerOptions, error) {
	opts := batch.LedgerOptions{Security: c.security}
	var err error
	if c.typ != "" {
		if opts.Type, err = folio.ParseTransactionType(c.typ); err != nil {
			return opts, err
		}
	}
	if c.from != "" {
		if opts.From, err = date.Parse(c.from); err != nil {
			return opts, err
		}
	}
	if c.to != "" {
		if opts.To, err = date.Parse(c.to); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	opts, err := c.options()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		opts.AssetType = a.assetType(c.assetType)
		rows, err := a.runner.Ledger(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing transactions: %v\n", err)
			return subcommands.ExitFailure
		}
		if c.head > 0 && len(rows) > c.head {
			rows = rows[:c.head]
		}
		if c.tail > 0 && len(rows) > c.tail {
			rows = rows[len(rows)-c.tail:]
		}
		printMarkdown(renderer.TransactionsMarkdown(rows))
		return subcommands.ExitSuccess
	})
}
