package autofill

import (
	"context"
	"time"
)

// DefaultSignalInterval is how often the page counters are read.
const DefaultSignalInterval = 500 * time.Millisecond

// Watcher feeds a Coordinator with its triggers: the initial load, store
// changes, and the page's focus and mutation signals.
type Watcher struct {
	Coordinator *Coordinator
	Store       Store
	Clock       Scheduler
	Log         Logger

	// Signals reads the page counters; nil disables focus and mutation triggers.
	Signals        func() (PageSignals, error)
	SignalInterval time.Duration

	last    PageSignals
	primed  bool
	timer   Timer
	stopped bool
}

// Run blocks until ctx is done, then closes the coordinator.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Log == nil {
		w.Log = NopLogger{}
	}
	changes := w.Store.Subscribe(ctx)

	w.Clock.Post(func() {
		w.Coordinator.CheckPending(TriggerLoad)
		if w.Signals != nil {
			w.scheduleSignals()
		}
	})

	for {
		select {
		case <-ctx.Done():
			w.Clock.Post(w.stop)
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				// store closed; keep the page alive until ctx ends
				changes = nil
				continue
			}
			w.Clock.Post(func() {
				if !w.stopped {
					w.Coordinator.HandleChange(change)
				}
			})
		}
	}
}

func (w *Watcher) stop() {
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.Coordinator.Close()
}

func (w *Watcher) scheduleSignals() {
	interval := w.SignalInterval
	if interval <= 0 {
		interval = DefaultSignalInterval
	}
	w.timer = w.Clock.AfterFunc(interval, func() {
		if w.stopped {
			return
		}
		w.pollSignals()
		w.scheduleSignals()
	})
}

// pollSignals turns counter movement into triggers. Counters going
// backwards mean the page navigated, which counts as a fresh load.
func (w *Watcher) pollSignals() {
	signals, err := w.Signals()
	if err != nil {
		w.Log.Printf("%v: read page signals: %v", w.Coordinator.Profile.Provider, err)
		return
	}
	last := w.last
	w.last = signals
	if !w.primed {
		w.primed = true
		return
	}

	switch {
	case signals.Focus < last.Focus || signals.Mutations < last.Mutations || (last.URL != "" && signals.URL != last.URL):
		w.Coordinator.CheckPending(TriggerLoad)
	case signals.Focus > last.Focus:
		w.Coordinator.CheckPending(TriggerFocus)
	case w.Coordinator.Profile.ObserveMutations && signals.Mutations > last.Mutations && !w.Coordinator.Processing():
		w.Coordinator.CheckPending(TriggerMutation)
	}
}
