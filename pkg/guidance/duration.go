package guidance

import (
	"fmt"
	"math"
)

// Duration is a travel time in seconds, rendered as whole minutes plus truncated remainder seconds.
type Duration struct {
	seconds float64
}

func NewDuration(seconds float64) Duration {
	return Duration{seconds: seconds}
}

func (d Duration) Seconds() float64 {
	return d.seconds
}

func (d Duration) Minutes() int {
	return int(math.Floor(d.seconds / 60))
}

// RemainderSeconds is floor(seconds mod 60), never rounded up.
func (d Duration) RemainderSeconds() int {
	return int(math.Floor(math.Mod(d.seconds, 60)))
}

func (d Duration) String() string {
	return fmt.Sprintf("%d min %d sec", d.Minutes(), d.RemainderSeconds())
}

func KmhToMps(kmh float64) float64 {
	return kmh * 1000 / 3600
}
