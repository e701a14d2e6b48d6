package store

import (
	"time"

	"github.com/etnz/folio/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Broker is a bank or trading platform holding securities.
type Broker struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Broker) TableName() string { return "brokers" }

// Security is a traded instrument.
type Security struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	Name      string  `gorm:"type:varchar(255);not null;index"`
	WKN       *string `gorm:"column:wkn;type:varchar(16)"`
	ISIN      *string `gorm:"column:isin;type:varchar(12);index"`
	Symbol    *string `gorm:"type:varchar(32)"`
	AssetType *string `gorm:"type:varchar(32);index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Security) TableName() string { return "securities" }

// Transaction is a normalized ledger row.
type Transaction struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	BrokerID        int64     `gorm:"not null;index:idx_transactions_group,priority:1"`
	SecurityID      int64     `gorm:"not null;index:idx_transactions_group,priority:2"`
	TransactionDate date.Date `gorm:"type:date;index"`
	TransactionType string    `gorm:"type:varchar(16);not null;index"`

	Shares        *decimal.Decimal `gorm:"type:numeric(30,10)"`
	PricePerShare *decimal.Decimal `gorm:"type:numeric(30,10)"`
	TotalValue    *decimal.Decimal `gorm:"type:numeric(30,10)"`
	Fees          *decimal.Decimal `gorm:"type:numeric(30,10)"`
	NetAmount     *decimal.Decimal `gorm:"type:numeric(30,10)"`
	Currency      string           `gorm:"type:varchar(3)"`

	SourceTable *string `gorm:"type:varchar(64);uniqueIndex:idx_transactions_source"`
	SourceRowID *int64  `gorm:"uniqueIndex:idx_transactions_source"`

	UsedInRealizedGain bool    `gorm:"not null;default:false;index"`
	Allocated          bool    `gorm:"not null;default:false"`
	ErrorMessage       *string `gorm:"type:varchar(500)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Transaction) TableName() string { return "transactions" }

// Match is a persisted buy/sell allocation.
type Match struct {
	ID                int64           `gorm:"primaryKey;autoIncrement"`
	RunID             uuid.UUID       `gorm:"type:varchar(36);index"`
	BrokerID          int64           `gorm:"not null;index"`
	SecurityID        int64           `gorm:"not null;index"`
	BuyTransactionID  int64           `gorm:"not null;index"`
	SellTransactionID int64           `gorm:"not null;index"`
	Shares            decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	AllocatedCost     decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	AllocatedProceeds decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	AllocatedFees     decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	CostBasisMethod   string          `gorm:"type:varchar(16);not null;default:'FIFO'"`
	CreatedAt         time.Time       `gorm:"autoCreateTime"`
}

func (Match) TableName() string { return "transaction_matches" }

// DividendAllocation is the part of a dividend earned by one buy.
type DividendAllocation struct {
	ID                    int64           `gorm:"primaryKey;autoIncrement"`
	RunID                 uuid.UUID       `gorm:"type:varchar(36);index"`
	BrokerID              int64           `gorm:"not null"`
	SecurityID            int64           `gorm:"not null;index"`
	DividendTransactionID int64           `gorm:"not null;uniqueIndex:idx_dividend_allocations_pair"`
	BuyTransactionID      int64           `gorm:"not null;uniqueIndex:idx_dividend_allocations_pair;index"`
	Shares                decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	AllocatedAmount       decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	CreatedAt             time.Time       `gorm:"autoCreateTime"`
}

func (DividendAllocation) TableName() string { return "dividend_allocations" }

// RealizedGain is an aggregated realized position.
type RealizedGain struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	RunID          uuid.UUID       `gorm:"type:varchar(36);index"`
	BrokerID       int64           `gorm:"not null;index"`
	SecurityID     int64           `gorm:"not null;index"`
	BuyDate        date.Date       `gorm:"type:date;not null"`
	SellDate       date.Date       `gorm:"type:date;not null"`
	Shares         decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	InvestedValue  decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	PL             decimal.Decimal `gorm:"column:p_l;type:numeric(30,10);not null"`
	TotalDividend  decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	DividendCount  int             `gorm:"not null;default:0"`
	CAGRPercentage float64         `gorm:"column:cagr_percentage"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (RealizedGain) TableName() string { return "realized_gains" }

// MarketPrice is the closing price of a security on a day.
type MarketPrice struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	SecurityID int64           `gorm:"not null;uniqueIndex:idx_market_prices_day"`
	PriceDate  date.Date       `gorm:"type:date;not null;uniqueIndex:idx_market_prices_day"`
	Price      decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Currency   string          `gorm:"type:varchar(3)"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (MarketPrice) TableName() string { return "market_prices" }

// models lists every table, in creation order.
var models = []any{
	&Broker{},
	&Security{},
	&Transaction{},
	&Match{},
	&DividendAllocation{},
	&RealizedGain{},
	&MarketPrice{},
}
