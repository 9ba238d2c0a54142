package reactive

import "time"

// Observer receives runtime events, for metrics and tracing.
// Methods are called on the runtime's goroutine and must not block.
type Observer interface {
	// FlushCompleted is called after a flush ran effects.
	FlushCompleted(ran int, elapsed time.Duration)

	// EffectFailed is called when an effect body panicked.
	EffectFailed(name string, err error)

	// CleanupFailed is called when an effect cleanup or owner hook panicked.
	CleanupFailed(name string, err error)

	// BudgetExceeded is called when a flush deferred effects past its cap.
	BudgetExceeded(deferred int)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) FlushCompleted(int, time.Duration) {}
func (NopObserver) EffectFailed(string, error)        {}
func (NopObserver) CleanupFailed(string, error)       {}
func (NopObserver) BudgetExceeded(int)                {}

type multiObserver []Observer

// Observers fans events out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) FlushCompleted(ran int, elapsed time.Duration) {
	for _, o := range m {
		o.FlushCompleted(ran, elapsed)
	}
}

func (m multiObserver) EffectFailed(name string, err error) {
	for _, o := range m {
		o.EffectFailed(name, err)
	}
}

func (m multiObserver) CleanupFailed(name string, err error) {
	for _, o := range m {
		o.CleanupFailed(name, err)
	}
}

func (m multiObserver) BudgetExceeded(deferred int) {
	for _, o := range m {
		o.BudgetExceeded(deferred)
	}
}
