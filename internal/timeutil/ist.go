package timeutil

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30). Due dates and the
// monthly collection window are interpreted in institute-local time.
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		IST = time.FixedZone("IST", 5*60*60+30*60) // UTC+5:30
	}
}

// Now returns the current time in IST.
func Now() time.Time {
	return time.Now().In(IST)
}

// ToIST converts any time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// StartOfDay returns the start of day (00:00:00) in IST for the given time.
func StartOfDay(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// MonthWindow returns the half-open interval [start, end) of the calendar
// month containing t, in IST. Used for monthly collection aggregates.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	ist := t.In(IST)
	start := time.Date(ist.Year(), ist.Month(), 1, 0, 0, 0, 0, IST)
	return start, start.AddDate(0, 1, 0)
}

// SameMonth reports whether a and b fall in the same IST calendar month.
func SameMonth(a, b time.Time) bool {
	ai, bi := a.In(IST), b.In(IST)
	return ai.Year() == bi.Year() && ai.Month() == bi.Month()
}

// Common layouts for IST formatting
const (
	DateLayout    = "2006-01-02"
	DisplayLayout = "02 Jan 2006, 03:04 PM"
)
