package labelparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Recognition records whether a label matched one of the known formats
type Recognition int

const (
	Unrecognized Recognition = iota
	Recognized
)

func (r Recognition) String() string {
	if r == Recognized {
		return "recognized"
	}
	return "unrecognized"
}

// ParsedDate is the result of parsing a date label.
// Date is only meaningful when Recognition == Recognized.
type ParsedDate struct {
	Date        civil.Date
	Recognition Recognition
}

// Recognized reports whether the label was parsed into a date
func (p ParsedDate) Recognized() bool {
	return p.Recognition == Recognized
}

// ParsedTime is the result of parsing a time label.
// End is only meaningful when HasEnd is true.
type ParsedTime struct {
	Start       civil.Time
	End         civil.Time
	HasEnd      bool
	Location    string
	Recognition Recognition
}

// Recognized reports whether the label was parsed into a time
func (p ParsedTime) Recognized() bool {
	return p.Recognition == Recognized
}

var (
	monthDayPattern     = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})$`)
	yearMonthDayPattern = regexp.MustCompile(`^(\d{4})[/\-](\d{1,2})[/\-](\d{1,2})$`)
	compactDatePattern  = regexp.MustCompile(`^(\d{2})(\d{2})$`)

	timeLocationPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})~(.+)$`)
	timeRangePattern    = regexp.MustCompile(`^(\d{1,2}):(\d{2})[-~](\d{1,2}):(\d{2})$`)
	singleTimePattern   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// ParseDateLabel parses a date label, assuming the current year for formats without one
func ParseDateLabel(label string) ParsedDate {
	return ParseDateLabelInYear(label, time.Now().Year())
}

// ParseDateLabelInYear parses a date label using year for formats that omit it.
// Formats are tried in order: MM/DD (also MM-DD, MM.DD), YYYY/MM/DD (also YYYY-MM-DD), MMDD.
// Day values up to 31 are accepted for every month and roll over into the next month.
func ParseDateLabelInYear(label string, year int) ParsedDate {
	label = strings.TrimSpace(label)

	if m := monthDayPattern.FindStringSubmatch(label); m != nil {
		if d, ok := buildDate(year, atoi(m[1]), atoi(m[2])); ok {
			return ParsedDate{Date: d, Recognition: Recognized}
		}
	}

	if m := yearMonthDayPattern.FindStringSubmatch(label); m != nil {
		if d, ok := buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return ParsedDate{Date: d, Recognition: Recognized}
		}
	}

	if m := compactDatePattern.FindStringSubmatch(label); m != nil {
		if d, ok := buildDate(year, atoi(m[1]), atoi(m[2])); ok {
			return ParsedDate{Date: d, Recognition: Recognized}
		}
	}

	return ParsedDate{Recognition: Unrecognized}
}

// ParseTimeLabel parses a time label.
// Formats are tried in order: HH:MM~location, HH:MM-HH:MM (or HH:MM~HH:MM), HH:MM.
func ParseTimeLabel(label string) ParsedTime {
	label = strings.TrimSpace(label)

	// A "~" followed by a clock is a range, so only treat the tail as a location otherwise
	if m := timeLocationPattern.FindStringSubmatch(label); m != nil && !timeRangePattern.MatchString(label) {
		if start, ok := buildClock(atoi(m[1]), atoi(m[2])); ok {
			return ParsedTime{Start: start, Location: m[3], Recognition: Recognized}
		}
	}

	if m := timeRangePattern.FindStringSubmatch(label); m != nil {
		start, startOK := buildClock(atoi(m[1]), atoi(m[2]))
		end, endOK := buildClock(atoi(m[3]), atoi(m[4]))
		if startOK && endOK {
			return ParsedTime{Start: start, End: end, HasEnd: true, Recognition: Recognized}
		}
	}

	if m := singleTimePattern.FindStringSubmatch(label); m != nil {
		if start, ok := buildClock(atoi(m[1]), atoi(m[2])); ok {
			return ParsedTime{Start: start, Recognition: Recognized}
		}
	}

	return ParsedTime{Recognition: Unrecognized}
}

// FormatClock renders a time of day as "HH:MM"
func FormatClock(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func buildDate(year, month, day int) (civil.Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return civil.Date{}, false
	}
	// time.Date normalises out-of-range days (Feb 30 -> Mar 1/2); UTC keeps it free of DST shifts
	return civil.DateOf(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)), true
}

func buildClock(hour, minute int) (civil.Time, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return civil.Time{}, false
	}
	return civil.Time{Hour: hour, Minute: minute}, true
}

// atoi is only called on regexp digit groups
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
