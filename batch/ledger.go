package batch

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/store"
	"github.com/sirupsen/logrus"
)

// Entry is a transaction recorded by hand, its broker and security given by
// name.
type Entry struct {
	Broker    string
	Security  string
	AssetType string // used only when the security is new
	folio.Transaction
}

func (e Entry) validate() error {
	switch {
	case strings.TrimSpace(e.Broker) == "":
		return fmt.Errorf("missing broker")
	case strings.TrimSpace(e.Security) == "":
		return fmt.Errorf("missing security")
	case e.Date.IsZero():
		return fmt.Errorf("missing date")
	case e.TotalValue == nil && e.NetAmount == nil:
		return fmt.Errorf("missing amount")
	}
	if (e.Type == folio.TypeBuy || e.Type == folio.TypeSell) && !e.Shares.Positive() {
		return fmt.Errorf("a %s needs a positive number of shares", e.Type)
	}
	return nil
}

// Record adds the entry to the ledger, creating its broker and security as
// needed, and returns the new transaction id.
func (r *Runner) Record(ctx context.Context, e Entry) (int64, error) {
	if err := e.validate(); err != nil {
		return 0, fmt.Errorf("invalid %s: %w", e.Type, err)
	}
	var id int64
	err := r.store.Do(ctx, func(tx *store.Store) error {
		broker, err := tx.CreateBroker(ctx, e.Broker)
		if err != nil {
			return err
		}
		sec, err := tx.EnsureSecurity(ctx, e.Security, e.AssetType)
		if err != nil {
			return err
		}
		t := e.Transaction
		t.Broker, t.Security = broker.ID, sec.ID
		ids, err := tx.CreateTransactions(ctx, t)
		if err != nil {
			return err
		}
		if ids[0] == 0 {
			return fmt.Errorf("source %s:%d is already recorded", t.Source.Table, t.Source.Row)
		}
		id = ids[0]
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.log.WithFields(logrus.Fields{
		"id":       id,
		"type":     e.Type,
		"security": e.Security,
		"date":     e.Date,
	}).Info("transaction recorded")
	return id, nil
}

// SetPrice stores the market price of the named security on a day.
func (r *Runner) SetPrice(ctx context.Context, security string, on date.Date, price folio.Money) error {
	return r.store.Do(ctx, func(tx *store.Store) error {
		sec, err := tx.EnsureSecurity(ctx, security, "")
		if err != nil {
			return err
		}
		return tx.SetMarketPrice(ctx, sec.ID, on, price)
	})
}

// LedgerOptions selects the transactions listed by Ledger.
type LedgerOptions struct {
	AssetType string
	Type      folio.TransactionType // every type when empty
	From, To  date.Date             // inclusive bounds, open when zero
	Security  string                // case insensitive, every security when empty
}

// Row is a ledger transaction with its security name.
type Row struct {
	folio.Transaction
	Name string
}

// Ledger returns the transactions matching opts, by date then id.
func (r *Runner) Ledger(ctx context.Context, opts LedgerOptions) ([]Row, error) {
	f := store.Filter{AssetType: opts.AssetType}
	if opts.Type != "" {
		f.Types = []folio.TransactionType{opts.Type}
	}
	txs, err := r.store.Transactions(ctx, f)
	if err != nil {
		return nil, err
	}
	names, err := r.store.SecurityNames(ctx)
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, t := range txs {
		if !opts.From.IsZero() && t.Date.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && t.Date.After(opts.To) {
			continue
		}
		name := names[t.Security]
		if opts.Security != "" && !strings.EqualFold(name, opts.Security) {
			continue
		}
		rows = append(rows, Row{Transaction: t, Name: name})
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return rows, nil
}
