package daytime

import "time"

// TimeLayout is the wire format of a daytime payload, before the trailing
// line-end marker.
const TimeLayout = "2006-01-02 15:04:05"

// lineEnd terminates every time message on the wire.
const lineEnd = "\r\n"

// Clock abstracts the wall clock so sessions can be tested against a fixed
// or failing time source.
type Clock interface {
	Now() (time.Time, error)
}

type systemClock struct{}

func (systemClock) Now() (time.Time, error) { return time.Now(), nil }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }

// formatDaytime renders t in loc as a wire payload including the line-end
// marker.
func formatDaytime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimeLayout) + lineEnd
}
