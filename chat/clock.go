package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidClock is returned for positions that are not HH:MM:SS.
var ErrInvalidClock = errors.New("invalid clock")

// ParseClock converts an "HH:MM:SS" VOD position into seconds.
// Hours are not capped so positions past 24h are accepted.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w %q: want HH:MM:SS", ErrInvalidClock, s)
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w %q: bad field %q", ErrInvalidClock, s, p)
		}
		vals[i] = n
	}
	if vals[1] > 59 || vals[2] > 59 {
		return 0, fmt.Errorf("%w %q: minutes and seconds must be < 60", ErrInvalidClock, s)
	}
	return vals[0]*3600 + vals[1]*60 + vals[2], nil
}

// ParseWindow builds a validated window from two clock strings.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	w := Window{StartSeconds: float64(s), EndSeconds: float64(e)}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// FormatClock renders seconds as h:mm:ss (fractions are dropped).
func FormatClock(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Truncate(time.Second)
	neg := d < 0
	if neg {
		d = -d
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	sec := int(d % time.Minute / time.Second)
	out := fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	if neg {
		return "-" + out
	}
	return out
}
