package histdata

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Period identifies one month of the dataset. The zero value is invalid.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod accepts "MM/YYYY" (the dataset's native format) as well as
// "YYYY-MM" and "YYYY-MM-DD" (the day is ignored; the dataset is monthly).
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if m := slashPeriodRe.FindStringSubmatch(s); m != nil {
		return newPeriod(m[2], m[1])
	}
	if m := isoPeriodRe.FindStringSubmatch(s); m != nil {
		return newPeriod(m[1], m[2])
	}
	return Period{}, fmt.Errorf("unrecognized period %q (want MM/YYYY or YYYY-MM)", s)
}

var (
	slashPeriodRe = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	isoPeriodRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})(?:-\d{1,2})?$`)
)

func newPeriod(year, month string) (Period, error) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	if m < 1 || m > 12 {
		return Period{}, fmt.Errorf("month %d out of range", m)
	}
	return Period{Year: y, Month: time.Month(m)}, nil
}

// String renders the period in the dataset's MM/YYYY format.
func (p Period) String() string {
	return fmt.Sprintf("%02d/%04d", int(p.Month), p.Year)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool { return p.Year == 0 }

// MarshalJSON renders the period as its MM/YYYY string form, matching the
// bundled dataset and the wire format the chart consumer expects.
func (p Period) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON parses a period from its string form.
func (p *Period) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// index is the month count since year 0, used for ordering and arithmetic.
func (p Period) index() int { return p.Year*12 + int(p.Month) - 1 }

// Before reports whether p is strictly earlier than q.
func (p Period) Before(q Period) bool { return p.index() < q.index() }

// AddMonths returns the period n months after p (n may be negative).
func (p Period) AddMonths(n int) Period {
	i := p.index() + n
	return Period{Year: i / 12, Month: time.Month(i%12 + 1)}
}

// MonthsUntil returns the number of months from p to q.
func (p Period) MonthsUntil(q Period) int { return q.index() - p.index() }

// relativeRe matches phrases like "last 10 weeks", "past year", "last 6 months".
var relativeRe = regexp.MustCompile(`(?i)\b(?:last|past)\s+(\d+)?\s*(week|month|year)s?\b`)

// ParseRelativePeriod resolves a natural-language span such as "last 6 months"
// into a concrete [start, end] pair anchored to the given period, which is the
// latest period present in the dataset rather than wall-clock time (the
// dataset has a fixed upper bound). The returned start is always strictly
// before the anchor and the end is always the anchor itself.
//
// The dataset is monthly, so weeks are folded into months: ceil(weeks/4),
// with a minimum of one month.
func ParseRelativePeriod(phrase string, anchor Period) (start, end Period, err error) {
	m := relativeRe.FindStringSubmatch(phrase)
	if m == nil {
		return Period{}, Period{}, fmt.Errorf("unrecognized relative period %q (want e.g. \"last 6 months\")", phrase)
	}
	n := 1
	if m[1] != "" {
		n, _ = strconv.Atoi(m[1])
	}
	if n <= 0 {
		return Period{}, Period{}, fmt.Errorf("relative period count must be positive, got %d", n)
	}

	var months int
	switch strings.ToLower(m[2]) {
	case "week":
		months = (n + 3) / 4
		if months < 1 {
			months = 1
		}
	case "month":
		months = n
	case "year":
		months = n * 12
	}
	return anchor.AddMonths(-months), anchor, nil
}
