//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import "time"

// DateTimeKind is the time-zone association of a date/time value.
type DateTimeKind int

const (
	// DateTimeUnspecified carries no zone information at all.
	DateTimeUnspecified DateTimeKind = iota
	// DateTimeLocal is a wall-clock time in a known, non-UTC offset.
	DateTimeLocal
	// DateTimeUTC is an instant expressed in UTC.
	DateTimeUTC
)

func (k DateTimeKind) String() string {
	switch k {
	case DateTimeUnspecified:
		return "unspecified"
	case DateTimeLocal:
		return "local"
	case DateTimeUTC:
		return "utc"
	default:
		return "unknown"
	}
}

// DateTime is a time value tagged with its zone association.
// Drivers return it for column types that have no zone (e.g. TIMESTAMP WITHOUT TIME ZONE)
// when they can tell the difference; plain time.Time values are classified by KindOf.
type DateTime struct {
	Time time.Time
	Kind DateTimeKind
}

// Unspecified tags t as having no zone association.
func Unspecified(t time.Time) DateTime {
	return DateTime{Time: t, Kind: DateTimeUnspecified}
}

// KindOf classifies a plain time.Time: UTC location means DateTimeUTC, anything else DateTimeLocal.
func KindOf(t time.Time) DateTimeKind {
	if t.Location() == time.UTC {
		return DateTimeUTC
	}
	return DateTimeLocal
}
