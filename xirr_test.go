package folio

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func flow(day string, amount float64) CashFlow {
	return CashFlow{Date: mustDay(day), Amount: decimal.NewFromFloat(amount)}
}

func TestXIRR(t *testing.T) {
	tests := []struct {
		name  string
		flows []CashFlow
		want  float64
	}{
		{
			// 365 days are 365/365.25 years.
			name:  "ten percent over a year",
			flows: []CashFlow{flow("2023-01-01", -1000), flow("2024-01-01", 1100)},
			want:  math.Pow(1.1, 365.25/365) - 1,
		},
		{
			name:  "half lost",
			flows: []CashFlow{flow("2023-01-01", -1000), flow("2024-01-01", 500)},
			want:  math.Pow(0.5, 365.25/365) - 1,
		},
		{
			name:  "break even",
			flows: []CashFlow{flow("2023-01-01", -1000), flow("2023-07-01", 1000)},
			want:  0,
		},
		{
			name: "doubling in two years with an intermediate payment",
			flows: []CashFlow{
				flow("2020-01-01", -1000),
				flow("2021-01-01", 0),
				flow("2022-01-01", 4000),
			},
			want: math.Pow(4, 365.25/731) - 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := XIRR(tt.flows)
			if !ok {
				t.Fatalf("XIRR() undefined")
			}
			if !near(got, tt.want) {
				t.Errorf("XIRR() = %v want %v", got, tt.want)
			}
		})
	}
}

func TestXIRR_RoughlyTenPercent(t *testing.T) {
	got, ok := XIRR([]CashFlow{flow("2023-01-01", -1000), flow("2024-01-01", 1100)})
	if !ok || math.Abs(got-0.10) > 1e-3 {
		t.Errorf("XIRR() = %v, %v want about 0.10", got, ok)
	}
}

func TestXIRR_Undefined(t *testing.T) {
	tests := []struct {
		name  string
		flows []CashFlow
	}{
		{name: "empty"},
		{name: "single flow", flows: []CashFlow{flow("2023-01-01", -1000)}},
		{name: "no inflow", flows: []CashFlow{flow("2023-01-01", -1000), flow("2024-01-01", -100)}},
		{name: "no outflow", flows: []CashFlow{flow("2023-01-01", 1000), flow("2024-01-01", 100)}},
		{name: "same day", flows: []CashFlow{flow("2023-01-01", -1000), flow("2023-01-01", 1000)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := XIRR(tt.flows); ok {
				t.Errorf("XIRR() = %v want undefined", got)
			}
		})
	}
}

func TestNetCashFlows(t *testing.T) {
	net := NetCashFlows([]CashFlow{
		flow("2024-02-01", 10),
		flow("2024-01-01", -100),
		flow("2024-02-01", 5),
	})
	if len(net) != 2 {
		t.Fatalf("NetCashFlows() got %d flows want 2", len(net))
	}
	if net[0].Date != mustDay("2024-01-01") || !net[1].Amount.Equal(decimal.NewFromInt(15)) {
		t.Errorf("NetCashFlows() = %+v", net)
	}
}

// TestPortfolioCashFlows_NoOp buys and values at the same price: nothing is earned.
func TestPortfolioCashFlows_NoOp(t *testing.T) {
	l := newTestLedger()
	l.buy("2024-01-01", 10, -1000)

	flows := PortfolioCashFlows(l.txs, nil, mustDay("2024-06-01"))
	if len(flows) != 2 {
		t.Fatalf("PortfolioCashFlows() got %d flows want 2: %+v", len(flows), flows)
	}
	got, ok := XIRR(flows)
	if !ok {
		t.Fatalf("XIRR() undefined")
	}
	if math.Abs(got) > 1e-6 {
		t.Errorf("XIRR() = %v want 0", got)
	}
}

func TestPortfolioCashFlows(t *testing.T) {
	l := newTestLedger()
	l.buy("2024-01-01", 10, 1000) // sign is forced
	l.dividend("2024-03-01", 10, -20)
	l.sell("2024-04-01", 4, 480)
	l.on(1, 2).buy("2024-02-01", 5, -50)
	l.sell("2024-02-15", 5, 60) // closed, not valued
	names := map[int64]string{1: "ACME"}

	flows := PortfolioCashFlows(l.txs, names, mustDay("2024-03-15"))
	want := []CashFlow{
		{Date: mustDay("2024-01-01"), Amount: decimal.NewFromInt(-1000), Label: "ACME"},
		{Date: mustDay("2024-02-01"), Amount: decimal.NewFromInt(-50), Label: "Security 2"},
		{Date: mustDay("2024-02-15"), Amount: decimal.NewFromInt(60), Label: "Security 2"},
		{Date: mustDay("2024-03-01"), Amount: decimal.NewFromInt(20), Label: "ACME (dividend)"},
		{Date: mustDay("2024-04-01"), Amount: decimal.NewFromInt(480), Label: "ACME"},
		// 6 shares left at the last trade price of 120, on the latest flow date.
		{Date: mustDay("2024-04-01"), Amount: decimal.NewFromInt(720), Label: "ACME (open position)"},
	}
	if len(flows) != len(want) {
		t.Fatalf("PortfolioCashFlows() got %d flows want %d: %+v", len(flows), len(want), flows)
	}
	for i, w := range want {
		f := flows[i]
		if f.Date != w.Date || !f.Amount.Equal(w.Amount) || f.Label != w.Label {
			t.Errorf("flow[%d] = %v %v %q want %v %v %q", i, f.Date, f.Amount, f.Label, w.Date, w.Amount, w.Label)
		}
	}
}

func TestClosedCashFlows(t *testing.T) {
	l := newTestLedger()
	b1 := l.buy("2024-01-01", 10, -100)
	b2 := l.buy("2024-02-01", 10, -100)
	s := l.sell("2024-06-01", 10, 150)
	d := l.dividend("2024-03-01", 20, 4)
	matches := []Match{{ID: 1, Broker: 1, Security: 1, BuyID: b1, SellID: s, Shares: Q(10), Cost: EUR(100), Proceeds: EUR(150)}}
	allocations := []DividendAllocation{
		{DividendID: d, BuyID: b1, Security: 1, Shares: Q(10), Amount: EUR(2)},
		{DividendID: d, BuyID: b2, Security: 1, Shares: Q(10), Amount: EUR(2)}, // b2 is never sold
	}

	flows := ClosedCashFlows(l.txs, matches, allocations, map[int64]string{1: "ACME"})
	SortCashFlows(flows)
	want := []CashFlow{
		{Date: mustDay("2024-01-01"), Amount: decimal.NewFromInt(-100), Label: "ACME (buy allocation)"},
		{Date: mustDay("2024-03-01"), Amount: decimal.NewFromInt(2), Label: "ACME (dividend allocation)"},
		{Date: mustDay("2024-06-01"), Amount: decimal.NewFromInt(150), Label: "ACME (sell allocation)"},
	}
	if len(flows) != len(want) {
		t.Fatalf("ClosedCashFlows() got %d flows want %d: %+v", len(flows), len(want), flows)
	}
	for i, w := range want {
		f := flows[i]
		if f.Date != w.Date || !f.Amount.Equal(w.Amount) || f.Label != w.Label {
			t.Errorf("flow[%d] = %v %v %q want %v %v %q", i, f.Date, f.Amount, f.Label, w.Date, w.Amount, w.Label)
		}
	}
	if rate, ok := XIRR(flows); !ok || rate <= 0 {
		t.Errorf("XIRR() = %v, %v want a positive rate", rate, ok)
	}
}

func TestSortCashFlows(t *testing.T) {
	flows := []CashFlow{flow("2024-02-01", 5), flow("2024-01-01", 10), flow("2024-02-01", -5)}
	SortCashFlows(flows)
	want := []float64{10, -5, 5}
	for i, w := range want {
		if flows[i].Amount.InexactFloat64() != w {
			t.Errorf("flow[%d] = %v want %v", i, flows[i].Amount, w)
		}
	}
}

// TestPortfolioCashFlows_ValuesAtNetPrice values open shares at the net unit
// price of the last trade, while open positions report the total one.
func TestPortfolioCashFlows_ValuesAtNetPrice(t *testing.T) {
	l := newTestLedger()
	id := l.buy("2024-01-01", 10, -1000)
	l.get(id).NetAmount = ptr(EUR(-1010))

	flows := PortfolioCashFlows(l.txs, map[int64]string{1: "ACME"}, mustDay("2024-06-01"))
	if len(flows) != 2 {
		t.Fatalf("PortfolioCashFlows() got %d flows want 2: %+v", len(flows), flows)
	}
	if got := flows[1]; got.Label != "ACME (open position)" || !got.Amount.Equal(decimal.NewFromInt(1010)) {
		t.Errorf("valuation = %v %q want 1010", got.Amount, got.Label)
	}

	positions := OpenPositions(l.txs, nil)
	if len(positions) != 1 || !positions[0].LastPrice.Equal(EUR(100)) {
		t.Errorf("OpenPositions() = %+v want a last price of 100", positions)
	}
}
