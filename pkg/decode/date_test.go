package decode

import (
	"testing"
	"time"
)

// packASCII packs a string into an integer big-endian, the inverse of how the
// gauge register is read back out.
func packASCII(s string) int64 {
	var v int64
	for i := 0; i < len(s); i++ {
		v = v<<8 | int64(s[i])
	}
	return v
}

func TestManufactureDate(t *testing.T) {
	tests := []struct {
		name      string
		packed    string
		now       time.Time
		wantYear  int
		wantMonth int
		wantDay   int
		wantLot   string
	}{
		{
			name:      "2000s decade",
			packed:    "61505",
			now:       time.Date(2008, 6, 1, 0, 0, 0, 0, time.UTC),
			wantYear:  2005,
			wantMonth: 6,
			wantDay:   15,
		},
		{
			name:      "2010s decade",
			packed:    "30915",
			now:       time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC),
			wantYear:  2015,
			wantMonth: 3,
			wantDay:   9,
		},
		{
			name:      "2020s decade",
			packed:    "92823",
			now:       time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			wantYear:  2023,
			wantMonth: 9,
			wantDay:   28,
		},
		{
			name:      "trailing lot code",
			packed:    "1012300A",
			now:       time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			wantYear:  2023,
			wantMonth: 1,
			wantDay:   1,
			wantLot:   "00A",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ManufactureDate(packASCII(tt.packed), tt.now)
			if !ok {
				t.Fatal("expected decode to succeed")
			}
			if got.Year != tt.wantYear || got.Month != tt.wantMonth || got.Day != tt.wantDay {
				t.Errorf("date = %d-%d-%d, want %d-%d-%d",
					got.Year, got.Month, got.Day, tt.wantYear, tt.wantMonth, tt.wantDay)
			}
			if got.Lot != tt.wantLot {
				t.Errorf("Lot = %q, want %q", got.Lot, tt.wantLot)
			}
		})
	}
}

func TestManufactureDateRejects(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		raw  int64
	}{
		{name: "zero", raw: 0},
		{name: "negative", raw: -1},
		{name: "too short", raw: packASCII("123")},
		{name: "non-digit month", raw: packASCII("X1523")},
		{name: "february 30th", raw: packASCII("23023")},
		{name: "day zero", raw: packASCII("10023")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ManufactureDate(tt.raw, now); ok {
				t.Error("expected decode to fail")
			}
		})
	}
}

func TestAgeDays(t *testing.T) {
	d, ok := ManufactureDate(packASCII("10123"), time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	got := AgeDays(d, time.Date(2023, 1, 11, 12, 0, 0, 0, time.UTC))
	if got != 10 {
		t.Errorf("AgeDays = %d, want 10", got)
	}
	if AgeDays(d, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)) != 0 {
		t.Error("age before manufacture should clamp to 0")
	}
}
