package store

import (
	"github.com/etnz/folio"
	"github.com/shopspring/decimal"
)

func money(d *decimal.Decimal, currency string) *folio.Money {
	if d == nil {
		return nil
	}
	m := folio.M(*d, currency)
	return &m
}

func decimalOf(m *folio.Money) *decimal.Decimal {
	if m == nil {
		return nil
	}
	d := m.Decimal()
	return &d
}

// toFolio converts a ledger row.
func (t Transaction) toFolio() folio.Transaction {
	tx := folio.Transaction{
		ID:         t.ID,
		Broker:     t.BrokerID,
		Security:   t.SecurityID,
		Date:       t.TransactionDate,
		Type:       folio.TransactionType(t.TransactionType),
		Price:      money(t.PricePerShare, t.Currency),
		TotalValue: money(t.TotalValue, t.Currency),
		Fees:       money(t.Fees, t.Currency),
		NetAmount:  money(t.NetAmount, t.Currency),
		Currency:   t.Currency,

		UsedInRealizedGain: t.UsedInRealizedGain,
		Allocated:          t.Allocated,
	}
	if t.Shares != nil {
		tx.Shares = folio.Q(*t.Shares)
	}
	if t.ErrorMessage != nil {
		tx.ErrorMessage = *t.ErrorMessage
	}
	if t.SourceTable != nil && t.SourceRowID != nil {
		tx.Source = folio.Source{Table: *t.SourceTable, Row: *t.SourceRowID}
	}
	return tx
}

// fromTransaction converts a folio transaction into a row.
func fromTransaction(tx folio.Transaction) Transaction {
	row := Transaction{
		ID:                 tx.ID,
		BrokerID:           tx.Broker,
		SecurityID:         tx.Security,
		TransactionDate:    tx.Date,
		TransactionType:    string(tx.Type),
		PricePerShare:      decimalOf(tx.Price),
		TotalValue:         decimalOf(tx.TotalValue),
		Fees:               decimalOf(tx.Fees),
		NetAmount:          decimalOf(tx.NetAmount),
		Currency:           tx.Currency,
		UsedInRealizedGain: tx.UsedInRealizedGain,
		Allocated:          tx.Allocated,
	}
	if !tx.Shares.IsZero() {
		shares := tx.Shares.Decimal()
		row.Shares = &shares
	}
	if tx.Source.Table != "" {
		table, id := tx.Source.Table, tx.Source.Row
		row.SourceTable, row.SourceRowID = &table, &id
	}
	if tx.ErrorMessage != "" {
		msg := truncate(tx.ErrorMessage, maxErrorMessage)
		row.ErrorMessage = &msg
	}
	return row
}

func (m Match) toFolio(buyCurrency, sellCurrency string) folio.Match {
	return folio.Match{
		ID:       m.ID,
		Broker:   m.BrokerID,
		Security: m.SecurityID,
		BuyID:    m.BuyTransactionID,
		SellID:   m.SellTransactionID,
		Shares:   folio.Q(m.Shares),
		Cost:     folio.M(m.AllocatedCost, buyCurrency),
		Proceeds: folio.M(m.AllocatedProceeds, sellCurrency),
		Fees:     folio.M(m.AllocatedFees, sellCurrency),
		Method:   m.CostBasisMethod,
	}
}

func fromMatch(m folio.Match) Match {
	return Match{
		BrokerID:          m.Broker,
		SecurityID:        m.Security,
		BuyTransactionID:  m.BuyID,
		SellTransactionID: m.SellID,
		Shares:            m.Shares.Decimal(),
		AllocatedCost:     m.Cost.Decimal(),
		AllocatedProceeds: m.Proceeds.Decimal(),
		AllocatedFees:     m.Fees.Decimal(),
		CostBasisMethod:   m.Method,
	}
}

func (a DividendAllocation) toFolio(currency string) folio.DividendAllocation {
	return folio.DividendAllocation{
		ID:         a.ID,
		Broker:     a.BrokerID,
		Security:   a.SecurityID,
		DividendID: a.DividendTransactionID,
		BuyID:      a.BuyTransactionID,
		Shares:     folio.Q(a.Shares),
		Amount:     folio.M(a.AllocatedAmount, currency),
	}
}

func fromDividendAllocation(a folio.DividendAllocation) DividendAllocation {
	return DividendAllocation{
		BrokerID:              a.Broker,
		SecurityID:            a.Security,
		DividendTransactionID: a.DividendID,
		BuyTransactionID:      a.BuyID,
		Shares:                a.Shares.Decimal(),
		AllocatedAmount:       a.Amount.Decimal(),
	}
}

func (g RealizedGain) toFolio() folio.RealizedGain {
	return folio.RealizedGain{
		ID:            g.ID,
		Broker:        g.BrokerID,
		Security:      g.SecurityID,
		BuyDate:       g.BuyDate,
		SellDate:      g.SellDate,
		Shares:        folio.Q(g.Shares),
		Invested:      folio.M(g.InvestedValue, ""),
		PL:            folio.M(g.PL, ""),
		Dividends:     folio.M(g.TotalDividend, ""),
		DividendCount: g.DividendCount,
		CAGR:          folio.Percent(g.CAGRPercentage),
	}
}

func fromRealizedGain(g folio.RealizedGain) RealizedGain {
	return RealizedGain{
		BrokerID:       g.Broker,
		SecurityID:     g.Security,
		BuyDate:        g.BuyDate,
		SellDate:       g.SellDate,
		Shares:         g.Shares.Decimal(),
		InvestedValue:  g.Invested.Decimal(),
		PL:             g.PL.Decimal(),
		TotalDividend:  g.Dividends.Decimal(),
		DividendCount:  g.DividendCount,
		CAGRPercentage: float64(g.CAGR),
	}
}

const maxErrorMessage = 500

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
