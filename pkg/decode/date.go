package decode

import (
	"strconv"
	"time"

	"github.com/powerinfo/powerinfo/pkg/types"
)

// ManufactureDate decodes the gauge's manufacture-date register. The value is
// an ASCII string packed into an integer, one hex byte pair per character, in
// the vendor's M-DD-YY[-lot] layout (single-digit month, two-digit day and
// year, optional trailing lot code).
//
// The two-digit year is disambiguated by trying the 2000s, 2010s, and 2020s
// decades in order and keeping the first that lands within ten years of now.
// If no decade does, or the digits do not form a real calendar date, the
// register is rejected as undecodable.
func ManufactureDate(raw int64, now time.Time) (types.ManufactureDate, bool) {
	if raw <= 0 {
		return types.ManufactureDate{}, false
	}

	s := asciiFromInt(uint64(raw))
	if len(s) < 5 {
		return types.ManufactureDate{}, false
	}

	month, err1 := strconv.Atoi(s[0:1])
	day, err2 := strconv.Atoi(s[1:3])
	yy, err3 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil || err3 != nil {
		return types.ManufactureDate{}, false
	}
	lot := ""
	if len(s) > 5 {
		lot = s[5:]
	}

	year := 0
	for _, base := range []int{2000, 2010, 2020} {
		if base+yy >= now.Year()-10 {
			year = base + yy
			break
		}
	}
	if year == 0 {
		return types.ManufactureDate{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return types.ManufactureDate{}, false
	}
	// Reject digit combinations that normalize into a different date
	// (February 30th and the like).
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return types.ManufactureDate{}, false
	}

	return types.ManufactureDate{Year: year, Month: month, Day: day, Lot: lot}, true
}

// AgeDays returns how many whole days have passed since the manufacture date.
func AgeDays(d types.ManufactureDate, now time.Time) int {
	made := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	age := int(now.UTC().Sub(made).Hours() / 24)
	if age < 0 {
		return 0
	}
	return age
}

// asciiFromInt unpacks the integer's big-endian bytes as printable ASCII.
// Non-printable bytes are dropped, matching how the vendor pads the register.
func asciiFromInt(v uint64) string {
	var raw []byte
	for v > 0 {
		raw = append([]byte{byte(v & 0xFF)}, raw...)
		v >>= 8
	}
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b >= 0x20 && b < 0x7F {
			out = append(out, b)
		}
	}
	return string(out)
}
