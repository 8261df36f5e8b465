package metrics

import "time"

// Trigger labels why a build ran.
type Trigger string

const (
	TriggerInitial   Trigger = "initial"
	TriggerChange    Trigger = "change"
	TriggerInterrupt Trigger = "interrupt"
	TriggerDrain     Trigger = "drain"
)

// Recorder defines observability hooks for watch sessions. All methods must be
// safe for concurrent use since every session runs in its own goroutine.
type Recorder interface {
	ObserveStepDuration(toolchain, step string, d time.Duration)
	ObserveBuildDuration(toolchain string, d time.Duration)
	IncBuild(toolchain string, trigger Trigger)
	IncChangeDetected(toolchain string)
	IncReadRetry()
	AddActiveSessions(delta int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration)        {}
func (NoopRecorder) IncBuild(string, Trigger)                          {}
func (NoopRecorder) IncChangeDetected(string)                          {}
func (NoopRecorder) IncReadRetry()                                     {}
func (NoopRecorder) AddActiveSessions(int)                             {}
