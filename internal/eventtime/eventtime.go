// Package eventtime parses the ISO 8601 strings stored on events and
// formats them the way notifications display them.
package eventtime

import (
	"fmt"
	"strings"
	"time"

	// Europe/Oslo must resolve without a system zone database.
	_ "time/tzdata"
)

// DefaultLocation is the household's time zone name.
const DefaultLocation = "Europe/Oslo"

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

const dateLayout = "2006-01-02"

// Parse interprets an event timestamp.
//
// Timestamps with a zone designator are parsed as given. Zone-less
// date-times are read in loc, and bare dates are midnight UTC.
func Parse(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// IsDate reports whether value is a bare YYYY-MM-DD date.
func IsDate(value string) bool {
	_, err := time.Parse(dateLayout, strings.TrimSpace(value))
	return err == nil
}

var norwegianMonths = [12]string{
	"jan.", "feb.", "mar.", "apr.", "mai", "jun.",
	"jul.", "aug.", "sep.", "okt.", "nov.", "des.",
}

// FormatNorwegian renders t as a Norwegian medium date with short time,
// for example "19. okt. 2026, 14:30".
func FormatNorwegian(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d. %s %d, %02d:%02d",
		t.Day(), norwegianMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// FormatValue parses value and formats it with FormatNorwegian, falling
// back to the raw string when it does not parse.
func FormatValue(value string, loc *time.Location) string {
	t, ok := Parse(value, loc)
	if !ok {
		return value
	}
	return FormatNorwegian(t, loc)
}

// LoadLocation resolves a zone name, defaulting to DefaultLocation.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return loc, nil
}
