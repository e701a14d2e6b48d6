// Package batch runs the analytics of the folio package against the store.
//
// Each job loads a snapshot of the ledger, computes its results in memory,
// then writes them together with the ledger flags they imply in a single
// database transaction. Running a job twice in a row writes nothing the
// second time.
package batch

import (
	"context"
	"fmt"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/logger"
	"github.com/etnz/folio/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Runner runs the batch jobs against a store.
type Runner struct {
	store *store.Store
	log   logrus.FieldLogger
	today func() date.Date
}

// New creates a Runner logging to log, or to logger.L when log is nil.
func New(s *store.Store, log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logger.L
	}
	return &Runner{store: s, log: log, today: date.Today}
}

// MatchOptions tunes the lot matching job.
type MatchOptions struct {
	ClearExisting bool // delete every match before matching again
	OnlyUnused    bool // ignore transactions already used in a realized gain

	// Method is the cost basis method. Only folio.FIFO can match lots.
	Method folio.CostBasisMethod
}

// MatchStats summarizes a matching run.
type MatchStats struct {
	RunID               uuid.UUID
	Groups              int
	Created             int
	Deleted             int64
	UnmatchedSellShares folio.Quantity
	Skipped             int
}

// Match allocates the unmatched sell shares to buy lots and stores the new
// matches.
func (r *Runner) Match(ctx context.Context, opts MatchOptions) (MatchStats, error) {
	stats := MatchStats{RunID: uuid.New()}
	log := r.log.WithField("run", stats.RunID)
	err := r.store.Do(ctx, func(tx *store.Store) error {
		if opts.ClearExisting {
			n, err := tx.DeleteMatches(ctx)
			if err != nil {
				return err
			}
			stats.Deleted = n
		}
		txs, err := tx.Transactions(ctx, store.Filter{
			Types:      []folio.TransactionType{folio.TypeBuy, folio.TypeSell},
			OnlyUnused: opts.OnlyUnused,
		})
		if err != nil {
			return err
		}
		existing, err := tx.Matches(ctx)
		if err != nil {
			return err
		}
		res, err := folio.MatchLots(txs, existing, opts.Method)
		if err != nil {
			return err
		}
		for _, id := range res.Skipped {
			log.WithField("transaction", id).Warn("skipping trade without date or shares")
		}
		if err := tx.CreateMatches(ctx, stats.RunID, res.Matches); err != nil {
			return err
		}
		stats.Groups = res.Groups
		stats.Created = len(res.Matches)
		stats.UnmatchedSellShares = res.UnmatchedSellShares
		stats.Skipped = len(res.Skipped)
		return nil
	})
	if err != nil {
		return MatchStats{}, fmt.Errorf("lot matching failed: %w", err)
	}
	if stats.UnmatchedSellShares.Positive() {
		log.WithField("shares", stats.UnmatchedSellShares.String()).Warn("sell shares without matching buy")
	}
	log.WithFields(logrus.Fields{
		"groups":  stats.Groups,
		"created": stats.Created,
		"deleted": stats.Deleted,
		"skipped": stats.Skipped,
	}).Info("lots matched")
	return stats, nil
}

// DividendStats summarizes a dividend allocation run.
type DividendStats struct {
	RunID     uuid.UUID
	Processed int
	Allocated int
	Failed    int
	Rows      int // allocation rows written
}

// AllocateDividends splits every dividend not yet allocated across the buys
// that earned it. Dividends that cannot be allocated keep allocated=false and
// get the reason as their error message.
func (r *Runner) AllocateDividends(ctx context.Context) (DividendStats, error) {
	stats := DividendStats{RunID: uuid.New()}
	log := r.log.WithField("run", stats.RunID)
	err := r.store.Do(ctx, func(tx *store.Store) error {
		txs, err := tx.Transactions(ctx, store.Filter{
			Types: []folio.TransactionType{folio.TypeBuy, folio.TypeSell, folio.TypeDividend},
		})
		if err != nil {
			return err
		}
		matches, err := tx.Matches(ctx)
		if err != nil {
			return err
		}
		res := folio.AllocateDividends(txs, matches)

		var allocated []int64
		for _, o := range res.Outcomes {
			if o.Err != nil {
				log.WithField("dividend", o.DividendID).WithError(o.Err).Warn("dividend not allocated")
				if err := tx.MarkAllocationError(ctx, o.DividendID, o.Err); err != nil {
					return err
				}
				continue
			}
			allocated = append(allocated, o.DividendID)
		}
		allocations := res.Allocations()
		if err := tx.ReplaceDividendAllocations(ctx, stats.RunID, allocations); err != nil {
			return err
		}
		if err := tx.MarkAllocated(ctx, allocated); err != nil {
			return err
		}
		stats.Processed = len(res.Outcomes)
		stats.Allocated = len(allocated)
		stats.Failed = res.Failed()
		stats.Rows = len(allocations)
		return nil
	})
	if err != nil {
		return DividendStats{}, fmt.Errorf("dividend allocation failed: %w", err)
	}
	log.WithFields(logrus.Fields{
		"processed": stats.Processed,
		"allocated": stats.Allocated,
		"failed":    stats.Failed,
		"rows":      stats.Rows,
	}).Info("dividends allocated")
	return stats, nil
}

// GainStats summarizes a realized gain run.
type GainStats struct {
	RunID     uuid.UUID
	Positions int
	Marked    int64 // transactions flagged as used
}

// RealizeGains aggregates the matches of fully sold shares into realized
// gain positions and flags the transactions they consumed.
func (r *Runner) RealizeGains(ctx context.Context) (GainStats, error) {
	stats := GainStats{RunID: uuid.New()}
	err := r.store.Do(ctx, func(tx *store.Store) error {
		txs, err := tx.Transactions(ctx, store.Filter{
			Types: []folio.TransactionType{folio.TypeBuy, folio.TypeSell, folio.TypeDividend},
		})
		if err != nil {
			return err
		}
		matches, err := tx.Matches(ctx)
		if err != nil {
			return err
		}
		res := folio.RealizeGains(txs, matches)
		if err := tx.CreateRealizedGains(ctx, stats.RunID, res.Positions); err != nil {
			return err
		}
		n, err := tx.MarkUsed(ctx, res.Used)
		if err != nil {
			return err
		}
		stats.Positions = len(res.Positions)
		stats.Marked = n
		return nil
	})
	if err != nil {
		return GainStats{}, fmt.Errorf("realized gain aggregation failed: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"run":       stats.RunID,
		"positions": stats.Positions,
		"marked":    stats.Marked,
	}).Info("gains realized")
	return stats, nil
}

// RunStats gathers the statistics of a full run.
type RunStats struct {
	Match     MatchStats
	Dividends DividendStats
	Gains     GainStats
}

// Run matches lots, allocates dividends, then realizes gains. It stops at the
// first failing job; the jobs already done stay committed.
func (r *Runner) Run(ctx context.Context, opts MatchOptions) (RunStats, error) {
	var stats RunStats
	var err error
	if stats.Match, err = r.Match(ctx, opts); err != nil {
		return stats, err
	}
	if stats.Dividends, err = r.AllocateDividends(ctx); err != nil {
		return stats, err
	}
	if stats.Gains, err = r.RealizeGains(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}
