package calendarexport

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/jakechorley/timegrid/pkg/core/interval"
)

const productID = "-//timegrid//usual availability//EN"

// Entry is one learned availability window to publish
type Entry struct {
	ID       string
	Interval interval.Interval
}

// Build creates a calendar with one VEVENT per entry.
// Times are written as floating local times because stored patterns carry no zone.
func Build(name string, entries []Entry, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)

	for _, e := range entries {
		event := cal.AddEvent(e.ID + "@timegrid")
		event.SetDtStampTime(stamp.UTC())
		event.SetSummary("Usually available")
		event.SetProperty(ical.ComponentPropertyDtStart, floating(e.Interval, e.Interval.Start))
		event.SetProperty(ical.ComponentPropertyDtEnd, floating(e.Interval, e.Interval.End))
		event.SetDescription(e.Interval.String())
	}

	return cal
}

// Export serializes the calendar built from entries
func Export(name string, entries []Entry, stamp time.Time) []byte {
	return []byte(Build(name, entries, stamp).Serialize())
}

// floating formats a minute offset on the interval's date as an iCalendar local date-time.
// The end of day (1440) rolls to 00:00 on the following date.
func floating(iv interval.Interval, minutes int) string {
	date := iv.Date
	if minutes >= interval.MinutesPerDay {
		date = date.AddDays(1)
		minutes -= interval.MinutesPerDay
	}
	return fmt.Sprintf("%04d%02d%02dT%02d%02d00", date.Year, int(date.Month), date.Day, minutes/60, minutes%60)
}
