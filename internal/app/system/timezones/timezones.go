// Package timezones resolves the display zone used for registration dates.
package timezones

import (
	"fmt"
	"strings"
	"sync"
	"time"

	// Embedded zone database so Asia/Kuwait resolves in minimal images.
	_ "time/tzdata"
)

// Default is the zone dates are shown in when none is configured.
const Default = "Asia/Kuwait"

var (
	mu      sync.RWMutex
	display = time.UTC
)

// Resolve loads the named IANA zone. An empty name means Default.
func Resolve(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = Default
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

// Valid reports whether name resolves.
func Valid(name string) bool {
	_, err := Resolve(name)
	return err == nil
}

// SetDisplay sets the zone used by Display. Call once at startup.
func SetDisplay(loc *time.Location) {
	if loc == nil {
		return
	}
	mu.Lock()
	display = loc
	mu.Unlock()
}

// Display returns the configured display zone (UTC until SetDisplay).
func Display() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return display
}

// FormatDate renders t as YYYY-MM-DD in the display zone, or "N/A" for
// a missing time.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.In(Display()).Format("2006-01-02")
}
