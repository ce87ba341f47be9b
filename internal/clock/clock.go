package clock

import "time"

// Clock allows deterministic time and delay behavior in tests. The settlement
// retry loop sleeps through it instead of calling time.Sleep directly.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

func (RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
