package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/folio"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// updateChunk bounds the size of IN lists in bulk updates.
const updateChunk = 500

// Filter restricts the transactions returned by Transactions.
type Filter struct {
	Types      []folio.TransactionType // empty means all types
	OnlyUnused bool                    // skip rows already used in a realized gain
	AssetType  string                  // "" or "all" means every asset type
}

func (f Filter) scope(db *gorm.DB) *gorm.DB {
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		db = db.Where("transactions.transaction_type IN ?", types)
	}
	if f.OnlyUnused {
		db = db.Where("transactions.used_in_realized_gain = ?", false)
	}
	if at := strings.ToLower(strings.TrimSpace(f.AssetType)); at != "" && at != "all" {
		db = db.Joins("JOIN securities ON securities.id = transactions.security_id").
			Where(assetTypeColumn+" = ?", at).
			Select("transactions.*")
	}
	return db
}

// Transactions returns the ledger rows matching f, ordered by broker,
// security, date and id.
func (s *Store) Transactions(ctx context.Context, f Filter) ([]folio.Transaction, error) {
	var rows []Transaction
	err := s.db.WithContext(ctx).
		Scopes(f.scope).
		Order("transactions.broker_id, transactions.security_id, transactions.transaction_date, transactions.id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	txs := make([]folio.Transaction, len(rows))
	for i, r := range rows {
		txs[i] = r.toFolio()
	}
	return txs, nil
}

// Transaction returns the ledger row with the given id.
func (s *Store) Transaction(ctx context.Context, id int64) (folio.Transaction, error) {
	var row Transaction
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return folio.Transaction{}, mapError(err)
	}
	return row.toFolio(), nil
}

// CreateTransactions inserts ledger rows. Rows whose source already exists are
// left untouched and get a zero id. The ids are returned in order.
func (s *Store) CreateTransactions(ctx context.Context, txs ...folio.Transaction) ([]int64, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	rows := make([]Transaction, len(txs))
	for i, tx := range txs {
		rows[i] = fromTransaction(tx)
	}
	db := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_table"}, {Name: "source_row_id"}},
		DoNothing: true,
	}).Session(&gorm.Session{})
	ids := make([]int64, len(rows))
	// one statement per row: a skipped row must not shift the returned ids.
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			return nil, fmt.Errorf("failed to create transaction %d: %w", i, err)
		}
		ids[i] = rows[i].ID
	}
	return ids, nil
}

// MarkUsed flags transactions as consumed by a realized gain.
func (s *Store) MarkUsed(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	for chunk := range slices.Chunk(ids, updateChunk) {
		res := s.db.WithContext(ctx).Model(&Transaction{}).
			Where("id IN ?", chunk).
			Update("used_in_realized_gain", true)
		if res.Error != nil {
			return n, fmt.Errorf("failed to mark transactions used: %w", res.Error)
		}
		n += res.RowsAffected
	}
	return n, nil
}

// MarkAllocated flags dividends as allocated and clears their error message.
func (s *Store) MarkAllocated(ctx context.Context, ids []int64) error {
	for chunk := range slices.Chunk(ids, updateChunk) {
		err := s.db.WithContext(ctx).Model(&Transaction{}).
			Where("id IN ?", chunk).
			Updates(map[string]any{"allocated": true, "error_message": nil}).Error
		if err != nil {
			return fmt.Errorf("failed to mark dividends allocated: %w", err)
		}
	}
	return nil
}

// MarkAllocationError records why a dividend could not be allocated. The
// message is truncated to the column size.
func (s *Store) MarkAllocationError(ctx context.Context, id int64, reason error) error {
	msg := truncate(reason.Error(), maxErrorMessage)
	err := s.db.WithContext(ctx).Model(&Transaction{}).
		Where("id = ?", id).
		Updates(map[string]any{"allocated": false, "error_message": msg}).Error
	if err != nil {
		return fmt.Errorf("failed to record error on dividend %d: %w", id, err)
	}
	return nil
}
