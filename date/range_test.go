package date

import "testing"

func TestRange_Contains(t *testing.T) {
	r := Range{From: New(2024, 1, 1), To: New(2024, 1, 31)}
	tests := []struct {
		day  Date
		want bool
	}{
		{New(2023, 12, 31), false},
		{New(2024, 1, 1), true},
		{New(2024, 1, 15), true},
		{New(2024, 1, 31), true},
		{New(2024, 2, 1), false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.day); got != tt.want {
			t.Errorf("%v.Contains(%v) = %v want %v", r, tt.day, got, tt.want)
		}
	}
}

func TestRange_Extend(t *testing.T) {
	var r Range
	if r.Days() != 0 {
		t.Errorf("Range{}.Days() = %d want 0", r.Days())
	}
	r = r.Extend(New(2024, 3, 10))
	r = r.Extend(Date{})
	r = r.Extend(New(2024, 3, 1))
	r = r.Extend(New(2024, 3, 5))

	want := Range{From: New(2024, 3, 1), To: New(2024, 3, 10)}
	if r != want {
		t.Errorf("Extend() = %v want %v", r, want)
	}
	if r.Days() != 10 {
		t.Errorf("Days() = %d want 10", r.Days())
	}
}
