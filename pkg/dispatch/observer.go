package dispatch

import "time"

// Outcome classifies a finished dispatch.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeFault       Outcome = "fault"
	OutcomeUploadError Outcome = "upload_error"
)

// Observer receives dispatch events for metrics collection.
type Observer interface {
	// OnSuspend is called when a context is suspended.
	OnSuspend(variant Variant)

	// OnResume is called when a suspended context resumes, possibly after
	// the module timeout.
	OnResume(variant Variant)

	// OnDispatch is called once per dispatch with its outcome and the time
	// spent before resumption was scheduled.
	OnDispatch(variant Variant, outcome Outcome, duration time.Duration)
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) OnSuspend(Variant)                          {}
func (NoopObserver) OnResume(Variant)                           {}
func (NoopObserver) OnDispatch(Variant, Outcome, time.Duration) {}
