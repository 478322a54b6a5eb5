// Package timezone resolves IANA zone identifiers and renders UTC instants
// in a user's chosen zone. Instants are always stored in UTC; zones apply
// to display only.
package timezone

import (
	"time"
	// Fall back to the embedded tz database when the host has no zoneinfo
	_ "time/tzdata"

	"go.uber.org/zap"
)

// DisplayFormat is the user-facing date-time layout (24-hour clock).
const DisplayFormat = "02.01.2006 at 15:04"

// DateFormat is the date-only variant used in list lines.
const DateFormat = "02.01.2006"

// Zone pairs an IANA identifier with a friendly menu label.
type Zone struct {
	Name  string
	Label string
}

// popular is the fixed, ordered catalog offered in selection menus.
var popular = []Zone{
	{"UTC", "UTC (Universal Time)"},
	{"Europe/Moscow", "Moscow (UTC+3)"},
	{"Europe/Kiev", "Kyiv (UTC+2/UTC+3)"},
	{"Europe/Minsk", "Minsk (UTC+3)"},
	{"Asia/Almaty", "Almaty (UTC+6)"},
	{"Asia/Tashkent", "Tashkent (UTC+5)"},
	{"Asia/Yekaterinburg", "Yekaterinburg (UTC+5)"},
	{"Asia/Novosibirsk", "Novosibirsk (UTC+7)"},
	{"Asia/Krasnoyarsk", "Krasnoyarsk (UTC+7)"},
	{"Asia/Irkutsk", "Irkutsk (UTC+8)"},
	{"Asia/Vladivostok", "Vladivostok (UTC+10)"},
	{"Europe/London", "London (UTC+0/UTC+1)"},
	{"Europe/Berlin", "Berlin (UTC+1/UTC+2)"},
	{"Europe/Paris", "Paris (UTC+1/UTC+2)"},
	{"America/New_York", "New York (UTC-5/UTC-4)"},
	{"America/Los_Angeles", "Los Angeles (UTC-8/UTC-7)"},
	{"Asia/Tokyo", "Tokyo (UTC+9)"},
	{"Asia/Shanghai", "Shanghai (UTC+8)"},
	{"Australia/Sydney", "Sydney (UTC+10/UTC+11)"},
}

var labels = func() map[string]string {
	m := make(map[string]string, len(popular))
	for _, z := range popular {
		m[z.Name] = z.Label
	}
	return m
}()

// Popular returns the ordered catalog of well-known zones for menus.
func Popular() []Zone {
	out := make([]Zone, len(popular))
	copy(out, popular)
	return out
}

// IsValid reports whether tz names a recognized IANA zone.
func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// Resolver converts and formats instants for display. A nil logger is
// allowed; anomalies are then dropped silently.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a resolver that logs fallback events to logger.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Render converts a UTC instant into tz and formats it as DisplayFormat.
// An unrecognized zone falls back to UTC formatting rather than failing.
func (r *Resolver) Render(instant time.Time, tz string) string {
	return r.format(instant, tz, DisplayFormat)
}

// RenderDate is like Render but produces the date-only form.
func (r *Resolver) RenderDate(instant time.Time, tz string) string {
	return r.format(instant, tz, DateFormat)
}

// NowIn formats the current instant in tz.
func (r *Resolver) NowIn(tz string) string {
	return r.Render(time.Now().UTC(), tz)
}

func (r *Resolver) format(instant time.Time, tz, layout string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("unknown_timezone_falling_back_to_utc",
				zap.String("timezone", tz),
				zap.Error(err),
			)
		}
		return instant.UTC().Format(layout)
	}
	return instant.In(loc).Format(layout)
}

// Describe maps a zone identifier to its friendly catalog label. Unknown
// identifiers are echoed back verbatim.
func Describe(tz string) string {
	if label, ok := labels[tz]; ok {
		return label
	}
	return tz
}
