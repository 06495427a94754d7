package autofill

import (
	"context"
	"fmt"
	"time"
)

// State is the phase of the automation session of a page.
type State int

const (
	StateIdle State = iota
	StateAwaitingHydration
	StatePollingForInput
	StateFilling
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingHydration:
		return "awaiting-hydration"
	case StatePollingForInput:
		return "polling-for-input"
	case StateFilling:
		return "filling"
	case StateDispatching:
		return "dispatching"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Trigger names what started a session.
type Trigger string

const (
	TriggerLoad     Trigger = "load"
	TriggerChange   Trigger = "change"
	TriggerFocus    Trigger = "focus"
	TriggerMutation Trigger = "mutation"
)

// Outcome is how a session ended.
type Outcome string

const (
	OutcomeFilled        Outcome = "filled"
	OutcomeEmptyPayload  Outcome = "empty-payload"
	OutcomeInputNotFound Outcome = "input-not-found"
	OutcomeInjectFailed  Outcome = "inject-failed"
	OutcomeClosed        Outcome = "closed"
)

// SessionReport describes a finished session.
type SessionReport struct {
	Provider     Provider
	Trigger      Trigger
	Outcome      Outcome
	FillAttempts int
	Attached     string // attachment filename, if any
	Committed    bool   // the pending record was removed
	Err          error  // last error seen, if any
}

// session is the state of one fill attempt sequence.
type session struct {
	upload   PendingUpload
	trigger  Trigger
	attempts int
	attached string
	lastErr  error

	committed  bool // the record of this session was removed
	superseded bool // a different record replaced it meanwhile
}

// Coordinator drives one page: it turns pending uploads into a filled and
// submitted composer. All methods must run on the coordinator's Scheduler.
type Coordinator struct {
	Profile ProviderProfile
	doc     Document
	store   Store
	clock   Scheduler
	log     Logger
	ctx     context.Context

	// OnSession and OnSend receive terminal reports; both optional.
	OnSession func(SessionReport)
	OnSend    func(SendReport)

	state      State
	processing bool
	current    *session
	timer      Timer
	dispatches []*SendDispatch
	closed     bool
}

// NewCoordinator creates the coordinator of a page. ctx bounds store access
// for the life of the page.
func NewCoordinator(ctx context.Context, profile ProviderProfile, doc Document, store Store, clock Scheduler, log Logger) *Coordinator {
	if log == nil {
		log = NopLogger{}
	}
	return &Coordinator{
		Profile: profile,
		doc:     doc,
		store:   store,
		clock:   clock,
		log:     log,
		ctx:     ctx,
	}
}

// State returns the current phase.
func (c *Coordinator) State() State {
	return c.state
}

// Processing reports whether a session holds the in-flight flag.
func (c *Coordinator) Processing() bool {
	return c.processing
}

// CheckPending reads the store and starts a session for a matching record.
func (c *Coordinator) CheckPending(trigger Trigger) bool {
	if c.closed {
		return false
	}
	upload, err := LoadPendingUpload(c.ctx, c.store)
	if err != nil {
		c.log.Printf("%v: read pending upload: %v", c.Profile.Provider, err)
		return false
	}
	if upload == nil {
		return false
	}
	return c.Start(*upload, trigger)
}

// HandleChange reacts to a store change notification.
func (c *Coordinator) HandleChange(change Change) bool {
	if change.Key != PendingUploadKey || change.Value == nil {
		return false
	}
	upload, err := DecodePendingUpload(change.Value)
	if err != nil {
		c.log.Printf("%v: %v", c.Profile.Provider, err)
		return false
	}
	return c.Start(*upload, TriggerChange)
}

// Start begins a session for upload. It returns false when the upload is for
// another provider or a session is already in flight.
func (c *Coordinator) Start(upload PendingUpload, trigger Trigger) bool {
	if c.closed || upload.Provider != c.Profile.Provider {
		return false
	}
	if c.processing {
		c.log.Printf("%v: %v trigger dropped, session in %v", c.Profile.Provider, trigger, c.state)
		return false
	}
	c.processing = true
	c.current = &session{upload: upload, trigger: trigger}
	c.state = StateAwaitingHydration
	c.log.Printf("%v: pending upload found (%v), waiting %v for hydration", c.Profile.Provider, trigger, c.Profile.Timings.InitialDelay)
	c.schedule(c.Profile.Timings.InitialDelay, c.poll)
	return true
}

func (c *Coordinator) schedule(d time.Duration, f func()) {
	s := c.current
	c.timer = c.clock.AfterFunc(d, func() {
		if c.closed || c.current != s {
			return
		}
		f()
	})
}

func (c *Coordinator) poll() {
	s := c.current
	c.state = StatePollingForInput
	s.attempts++

	input, err := FindPromptInput(c.doc, c.Profile)
	if err != nil {
		s.lastErr = err
		c.log.Printf("%v: find prompt input #%d: %v", c.Profile.Provider, s.attempts, err)
	}
	if input == nil {
		c.retryOrGiveUp(OutcomeInputNotFound)
		return
	}
	c.fill(input)
}

// retryOrGiveUp schedules another poll while the budget lasts.
func (c *Coordinator) retryOrGiveUp(outcome Outcome) {
	s := c.current
	if s.attempts < c.Profile.Timings.MaxPolls {
		c.schedule(c.Profile.Timings.PollInterval, c.poll)
		return
	}
	c.log.Printf("%v: giving up after %d attempt(s)", c.Profile.Provider, s.attempts)
	// A stale record would restart this failing session on every later focus.
	c.removeIfUnchanged(s.upload)
	c.finish(outcome)
}

func (c *Coordinator) fill(input Element) {
	s := c.current
	c.state = StateFilling

	payload, fileInput, err := c.payload(s.upload)
	if err != nil {
		s.lastErr = err
		c.log.Printf("%v: locate file input: %v", c.Profile.Provider, err)
	}

	if payload.Empty() {
		c.removeIfUnchanged(s.upload)
		c.finish(OutcomeEmptyPayload)
		return
	}

	if payload.File != nil && s.attached == "" {
		if err := AttachFile(fileInput, *payload.File); err != nil {
			s.lastErr = err
			c.log.Printf("%v: %v", c.Profile.Provider, err)
			c.retryOrGiveUp(OutcomeInjectFailed)
			return
		}
		s.attached = payload.File.Name
	}

	if payload.Visible != "" {
		if err := SetValue(input, payload.Visible, InjectOptions{Keyup: c.Profile.KeyupAfterInput}); err != nil {
			s.lastErr = err
			c.log.Printf("%v: set value: %v", c.Profile.Provider, err)
			c.retryOrGiveUp(OutcomeInjectFailed)
			return
		}
		if c.Profile.VerifyFill {
			text, err := input.Text()
			if err != nil || text == "" {
				if err != nil {
					s.lastErr = err
				}
				if s.attempts < c.Profile.Timings.MaxPolls {
					c.log.Printf("%v: composer still empty after fill #%d", c.Profile.Provider, s.attempts)
					c.schedule(c.Profile.Timings.VerifyInterval, c.poll)
					return
				}
			}
		}
	}

	c.removeIfUnchanged(s.upload)
	c.state = StateDispatching
	c.log.Printf("%v: prompt filled, sending in %v", c.Profile.Provider, c.Profile.Timings.SendDelay)
	c.schedule(c.Profile.Timings.SendDelay, func() {
		c.dispatch(input)
		c.finish(OutcomeFilled)
	})
}

// payload resolves the content of the session against the page.
func (c *Coordinator) payload(upload PendingUpload) (Payload, Element, error) {
	if !c.Profile.AttachText || upload.Text == "" {
		return upload.ComposePayload(c.Profile.AttachText, false), nil, nil
	}
	if c.current.attached != "" {
		// the file went in on an earlier attempt
		return Payload{Visible: upload.Prompt}, nil, nil
	}
	inputs, err := c.doc.QueryAll(`input[type="file"]`)
	if err != nil || len(inputs) == 0 {
		return upload.ComposePayload(true, false), nil, err
	}
	return upload.ComposePayload(true, true), inputs[0], nil
}

func (c *Coordinator) dispatch(input Element) {
	d := DispatchSend(c.doc, c.Profile, c.clock, c.log, input, c.OnSend)
	kept := c.dispatches[:0]
	for _, other := range c.dispatches {
		if !other.Done() {
			kept = append(kept, other)
		}
	}
	c.dispatches = append(kept, d)
}

// removeIfUnchanged deletes the pending record when it is still the one
// this session started with. A record written meanwhile is left for the
// next session and marks the current one superseded.
func (c *Coordinator) removeIfUnchanged(upload PendingUpload) {
	s := c.current
	stored, err := LoadPendingUpload(c.ctx, c.store)
	if err != nil {
		s.lastErr = err
		c.log.Printf("%v: read pending upload: %v", c.Profile.Provider, err)
		return
	}
	if stored == nil {
		return
	}
	if *stored != upload {
		s.superseded = true
		c.log.Printf("%v: a newer upload arrived during the session, keeping it", c.Profile.Provider)
		return
	}
	if err := ClearPendingUpload(c.ctx, c.store); err != nil {
		s.lastErr = err
		c.log.Printf("%v: clear pending upload: %v", c.Profile.Provider, err)
		return
	}
	s.committed = true
}

func (c *Coordinator) finish(outcome Outcome) {
	s := c.current
	report := SessionReport{
		Provider:     c.Profile.Provider,
		Trigger:      s.trigger,
		Outcome:      outcome,
		FillAttempts: s.attempts,
		Attached:     s.attached,
		Committed:    s.committed,
		Err:          s.lastErr,
	}
	c.current = nil
	c.timer = nil
	c.processing = false
	c.state = StateIdle
	c.log.Printf("%v: session %v after %d attempt(s)", c.Profile.Provider, outcome, s.attempts)
	if c.OnSession != nil {
		c.OnSession(report)
	}
	// The trigger of the newer record was dropped while this session ran.
	// After a failed lookup it waits for the next trigger instead.
	if s.superseded && (outcome == OutcomeFilled || outcome == OutcomeEmptyPayload) {
		c.CheckPending(TriggerChange)
	}
}

// Close tears the page down: pending timers and send loops stop and no
// further DOM access happens.
func (c *Coordinator) Close() {
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.current != nil {
		c.finish(OutcomeClosed)
	}
	c.closed = true
	for _, d := range c.dispatches {
		d.Stop()
	}
	c.dispatches = nil
}
