package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/etnz/folio"
	"github.com/google/uuid"
)

// Matches returns every persisted match, ordered by id. The cost carries the
// currency of the buy transaction, proceeds and fees the one of the sell.
func (s *Store) Matches(ctx context.Context) ([]folio.Match, error) {
	var rows []struct {
		Match        `gorm:"embedded"`
		BuyCurrency  string
		SellCurrency string
	}
	err := s.db.WithContext(ctx).
		Table("transaction_matches").
		Select("transaction_matches.*, buys.currency AS buy_currency, sells.currency AS sell_currency").
		Joins("LEFT JOIN transactions AS buys ON buys.id = transaction_matches.buy_transaction_id").
		Joins("LEFT JOIN transactions AS sells ON sells.id = transaction_matches.sell_transaction_id").
		Order("transaction_matches.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	matches := make([]folio.Match, len(rows))
	for i, r := range rows {
		matches[i] = r.Match.toFolio(r.BuyCurrency, r.SellCurrency)
	}
	return matches, nil
}

// CreateMatches persists the matches of one run.
func (s *Store) CreateMatches(ctx context.Context, runID uuid.UUID, matches []folio.Match) error {
	if len(matches) == 0 {
		return nil
	}
	rows := make([]Match, len(matches))
	for i, m := range matches {
		rows[i] = fromMatch(m)
		rows[i].RunID = runID
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&rows, updateChunk).Error; err != nil {
		return fmt.Errorf("failed to create matches: %w", err)
	}
	return nil
}

// DeleteMatches removes every persisted match and returns how many there were.
func (s *Store) DeleteMatches(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&Match{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete matches: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DividendAllocations returns every persisted allocation, ordered by id.
func (s *Store) DividendAllocations(ctx context.Context) ([]folio.DividendAllocation, error) {
	var rows []struct {
		DividendAllocation `gorm:"embedded"`
		Currency           string
	}
	err := s.db.WithContext(ctx).
		Table("dividend_allocations").
		Select("dividend_allocations.*, transactions.currency AS currency").
		Joins("LEFT JOIN transactions ON transactions.id = dividend_allocations.dividend_transaction_id").
		Order("dividend_allocations.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load dividend allocations: %w", err)
	}
	allocations := make([]folio.DividendAllocation, len(rows))
	for i, r := range rows {
		allocations[i] = r.DividendAllocation.toFolio(r.Currency)
	}
	return allocations, nil
}

// ReplaceDividendAllocations deletes the allocations of the dividends found in
// allocations, then inserts allocations.
func (s *Store) ReplaceDividendAllocations(ctx context.Context, runID uuid.UUID, allocations []folio.DividendAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	var dividends []int64
	rows := make([]DividendAllocation, len(allocations))
	for i, a := range allocations {
		rows[i] = fromDividendAllocation(a)
		rows[i].RunID = runID
		dividends = append(dividends, a.DividendID)
	}
	slices.Sort(dividends)
	dividends = slices.Compact(dividends)

	db := s.db.WithContext(ctx)
	for chunk := range slices.Chunk(dividends, updateChunk) {
		if err := db.Where("dividend_transaction_id IN ?", chunk).Delete(&DividendAllocation{}).Error; err != nil {
			return fmt.Errorf("failed to delete dividend allocations: %w", err)
		}
	}
	if err := db.CreateInBatches(&rows, updateChunk).Error; err != nil {
		return fmt.Errorf("failed to create dividend allocations: %w", err)
	}
	return nil
}

// RealizedGains returns every realized position, ordered by sell date then
// buy date.
func (s *Store) RealizedGains(ctx context.Context) ([]folio.RealizedGain, error) {
	var rows []RealizedGain
	err := s.db.WithContext(ctx).
		Order("sell_date, buy_date, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load realized gains: %w", err)
	}
	gains := make([]folio.RealizedGain, len(rows))
	for i, r := range rows {
		gains[i] = r.toFolio()
	}
	return gains, nil
}

// CreateRealizedGains persists the positions of one run.
func (s *Store) CreateRealizedGains(ctx context.Context, runID uuid.UUID, gains []folio.RealizedGain) error {
	if len(gains) == 0 {
		return nil
	}
	rows := make([]RealizedGain, len(gains))
	for i, g := range gains {
		rows[i] = fromRealizedGain(g)
		rows[i].RunID = runID
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&rows, updateChunk).Error; err != nil {
		return fmt.Errorf("failed to create realized gains: %w", err)
	}
	return nil
}
