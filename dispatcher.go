package autofill

import "time"

// SendOutcome is how a send dispatch ended.
type SendOutcome string

const (
	SendClicked   SendOutcome = "clicked"
	SendExhausted SendOutcome = "exhausted"
	SendStopped   SendOutcome = "stopped"
)

// SendReport describes a finished send dispatch.
type SendReport struct {
	Provider     Provider
	Outcome      SendOutcome
	Attempts     int
	EnterPresses int
	LastErr      error
}

// SendDispatch is a running send retry loop.
type SendDispatch struct {
	doc     Document
	profile ProviderProfile
	clock   Scheduler
	log     Logger
	input   Element
	done    func(SendReport)

	timer    Timer
	report   SendReport
	finished bool
}

// DispatchSend clicks the send control next to input, retrying on the
// profile's send interval, and presses Enter on input every EnterEvery
// unsuccessful ticks. With SendImmediately the first tick runs before
// DispatchSend returns. It never blocks; done (optional) receives the result.
func DispatchSend(doc Document, profile ProviderProfile, clock Scheduler, log Logger, input Element, done func(SendReport)) *SendDispatch {
	dispatch := &SendDispatch{
		doc:     doc,
		profile: profile,
		clock:   clock,
		log:     log,
		input:   input,
		done:    done,
		report:  SendReport{Provider: profile.Provider},
	}
	if profile.SendImmediately {
		dispatch.tick()
	} else {
		dispatch.schedule()
	}
	return dispatch
}

func (dispatch *SendDispatch) schedule() {
	interval := dispatch.profile.Timings.SendInterval
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}
	dispatch.timer = dispatch.clock.AfterFunc(interval, dispatch.tick)
}

func (dispatch *SendDispatch) tick() {
	if dispatch.finished {
		return
	}
	dispatch.report.Attempts++
	attempt := dispatch.report.Attempts

	button, err := FindSendButton(dispatch.doc, dispatch.profile, dispatch.input)
	if err != nil {
		dispatch.report.LastErr = err
		dispatch.log.Printf("%v: send lookup #%d: %v", dispatch.profile.Provider, attempt, err)
	}
	if button != nil {
		if err := button.Click(); err != nil {
			dispatch.report.LastErr = err
			dispatch.log.Printf("%v: click #%d: %v", dispatch.profile.Provider, attempt, err)
		} else {
			dispatch.finish(SendClicked)
			return
		}
	} else if every := dispatch.profile.EnterEvery; every > 0 && attempt%every == 0 && dispatch.input != nil {
		if err := PressEnter(dispatch.input); err != nil {
			dispatch.report.LastErr = err
			dispatch.log.Printf("%v: enter #%d: %v", dispatch.profile.Provider, attempt, err)
		} else {
			dispatch.report.EnterPresses++
		}
	}

	if attempt >= dispatch.profile.Timings.MaxSends {
		dispatch.finish(SendExhausted)
		return
	}
	dispatch.schedule()
}

// Stop abandons the loop. It must run on the scheduler.
func (dispatch *SendDispatch) Stop() {
	if dispatch.finished {
		return
	}
	if dispatch.timer != nil {
		dispatch.timer.Stop()
	}
	dispatch.finish(SendStopped)
}

// Done reports whether the loop has ended.
func (dispatch *SendDispatch) Done() bool {
	return dispatch.finished
}

func (dispatch *SendDispatch) finish(outcome SendOutcome) {
	dispatch.finished = true
	dispatch.report.Outcome = outcome
	dispatch.log.Printf("%v: send %v after %d attempt(s)", dispatch.profile.Provider, outcome, dispatch.report.Attempts)
	if dispatch.done != nil {
		dispatch.done(dispatch.report)
	}
}
