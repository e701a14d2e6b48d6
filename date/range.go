package date

// Range represents a range of dates.
type Range struct{ From, To Date }

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return (!date.Before(r.From) && !date.After(r.To)) }

// IsZero reports whether the range has no boundary set.
func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// Extend returns the smallest range containing both r and on.
// Extending the zero Range returns the single day range [on, on].
func (r Range) Extend(on Date) Range {
	if on.IsZero() {
		return r
	}
	if r.IsZero() {
		return Range{From: on, To: on}
	}
	return Range{From: Min(r.From, on), To: Max(r.To, on)}
}

// Days returns the number of days covered, boundaries included.
func (r Range) Days() int {
	if r.IsZero() {
		return 0
	}
	return r.To.DaysSince(r.From) + 1
}

// String formats the range as "from..to".
func (r Range) String() string { return r.From.String() + ".." + r.To.String() }
