// Package marketday provides wall-clock and calendar helpers pinned to the
// KRX trading timezone (Asia/Seoul). Every date the brokerage API exchanges
// is a YYYYMMDD string in that zone, and every trade timestamp is HHMMSS,
// so the rest of the code never touches time.Time directly.
package marketday

import "time"

const (
	dateLayout = "20060102"
	timeLayout = "150405"
)

var seoul *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		// KST has no DST; a fixed offset is equivalent.
		loc = time.FixedZone("KST", 9*60*60)
	}
	seoul = loc
}

// Location returns the KRX trading timezone.
func Location() *time.Location { return seoul }

// Today returns the current session date as YYYYMMDD.
func Today() string { return time.Now().In(seoul).Format(dateLayout) }

// Yesterday returns the calendar day before today as YYYYMMDD.
func Yesterday() string { return DaysAgo(1) }

// DaysAgo returns the calendar date n days before today as YYYYMMDD.
func DaysAgo(n int) string {
	return time.Now().In(seoul).AddDate(0, 0, -n).Format(dateLayout)
}

// Now returns the current wall time as HHMMSS.
func Now() string { return time.Now().In(seoul).Format(timeLayout) }

// FormatDate renders t as a session date in the trading timezone.
func FormatDate(t time.Time) string { return t.In(seoul).Format(dateLayout) }
