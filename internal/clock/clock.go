// Package clock provides cancellable scheduled tasks so timer-driven state
// can own, and cancel, the callbacks it starts.
package clock

import "time"

// Task is a scheduled callback that can be cancelled before it runs.
type Task interface {
	// Stop cancels the task. It reports false if the task already ran or
	// was already stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Task
}

type realScheduler struct{}

// Real returns a Scheduler backed by the runtime timers.
func Real() Scheduler {
	return realScheduler{}
}

func (realScheduler) Now() time.Time {
	return time.Now()
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}
