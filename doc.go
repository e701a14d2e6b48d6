// Package folio derives analytics from a normalized, multi-broker
// transaction ledger.
//
// Every function of this package works on an in-memory snapshot and has no
// side effect; persistence and flag updates are the job of the store and
// batch packages.
//
// The core functionalities include:
//   - Lot matching: sells are allocated to the buys they consume, oldest
//     first (MatchLots). Matching is incremental: only the unmatched
//     remainder of each transaction is considered.
//   - Dividend allocation: each dividend is split across the buy lots that
//     were held when it was paid (AllocateDividends).
//   - Realized gains: matches of fully sold shares are summed per buy and
//     sell date, with their dividends and a CAGR (RealizeGains).
//   - Money weighted return: XIRR over the cash flows of all positions
//     (PortfolioCashFlows) or of sold shares only (ClosedCashFlows).
//
// Shares and amounts are fixed point decimals (Quantity, Money), rates are
// float64. Anything within Tolerance of zero is zero.
//
// This package serves as the foundational logic for the `fol` command-line
// tool.
package folio
