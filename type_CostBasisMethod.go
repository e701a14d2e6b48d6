package folio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedMethod is returned when lots are matched with a method other than FIFO.
var ErrUnsupportedMethod = errors.New("unsupported cost basis method")

// CostBasisMethod defines the method for calculating cost basis.
type CostBasisMethod int

const (
	// AverageCost calculates the cost basis by averaging the cost of all shares.
	// It is recognized but lots cannot be matched with it.
	AverageCost CostBasisMethod = iota
	// FIFO (First-In, First-Out) calculates the cost basis by assuming the first shares purchased are the first ones sold.
	FIFO
)

func (m CostBasisMethod) String() string {
	switch m {
	case AverageCost:
		return "average"
	case FIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// Tag is the label persisted on each match.
func (m CostBasisMethod) Tag() string { return strings.ToUpper(m.String()) }

// ParseCostBasisMethod parses a string into a CostBasisMethod.
func ParseCostBasisMethod(s string) (CostBasisMethod, error) {
	switch strings.ToLower(s) {
	case "average":
		return AverageCost, nil
	case "fifo", "":
		return FIFO, nil
	default:
		return 0, fmt.Errorf("unknown cost basis method: %q", s)
	}
}
