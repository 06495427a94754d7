package main

import (
	"context"
	"fmt"

	"github.com/koizuka/autofill"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// tab is a Chrome tab showing a provider.
type tab struct {
	ctx     context.Context
	cancel  context.CancelFunc
	session *autofill.Session
	profile autofill.ProviderProfile
	doc     *autofill.ChromeDocument
}

// pageResult carries one terminal report out of the tab's scheduler.
type pageResult struct {
	session *autofill.SessionReport
	send    *autofill.SendReport
}

func newSession() (*autofill.Session, error) {
	session := autofill.NewSession(cfg.Session.Name, newLogger("chrome"))
	if cfg.Session.Dir != "" {
		session.FilePrefix = cfg.Session.Dir + "/"
	}
	if cfg.Session.Cookies {
		if err := session.LoadCookie(); err != nil {
			return nil, fmt.Errorf("failed to load cookies: %w", err)
		}
	}
	return session, nil
}

// openTab starts Chrome and navigates to the provider with the saved cookies.
func openTab(session *autofill.Session, profile autofill.ProviderProfile, headless bool) (*tab, error) {
	ctx, cancel, err := session.NewChromeOpt(autofill.NewChromeOptions{
		Headless:    headless,
		Timeout:     cfg.Chrome.Timeout,
		UserDataDir: cfg.Chrome.UserDataDir,
		ExecPath:    cfg.Chrome.ExecPath,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}
	if cfg.Session.Cookies {
		if err := session.ImportCookies(ctx, profile.URL); err != nil {
			log.Warn().Err(err).Msg("cookie import failed")
		}
	}
	doc, err := session.OpenProvider(ctx, profile)
	if err != nil {
		cancel()
		return nil, err
	}
	if cfg.OriginCheck() {
		if err := autofill.CheckOrigin(ctx, profile); err != nil {
			cancel()
			return nil, fmt.Errorf("%w (sign in with the browser profile in %v, or set checkOrigin: false)", err, cfg.Chrome.UserDataDir)
		}
	}
	return &tab{ctx: ctx, cancel: cancel, session: session, profile: profile, doc: doc}, nil
}

// run drives the tab until ctx is done. Reports go to results without
// blocking the page.
func (t *tab) run(ctx context.Context, store autofill.Store, results chan<- pageResult) error {
	loop := autofill.NewEventLoop()
	logger := newLogger(string(t.profile.Provider))
	// the trace of a failed session is shown without --verbose
	trace := &autofill.BufferedLogger{}
	coordinator := autofill.NewCoordinator(ctx, t.profile, t.doc, store, loop, trace)
	coordinator.OnSession = func(report autofill.SessionReport) {
		if report.Outcome == autofill.OutcomeFilled {
			trace.Flush(logger)
		} else {
			trace.Flush(logger.at(zerolog.WarnLevel))
		}
		if report.Outcome == autofill.OutcomeInputNotFound && cfg.Session.Snapshots {
			if filename, err := t.session.SavePageSnapshot(t.doc, t.profile, report.Outcome); err != nil {
				log.Warn().Err(err).Msg("failed to save page snapshot")
			} else {
				log.Info().Str("file", filename).Msg("page saved for autofill probe")
			}
		}
		select {
		case results <- pageResult{session: &report}:
		default:
		}
	}
	coordinator.OnSend = func(report autofill.SendReport) {
		select {
		case results <- pageResult{send: &report}:
		default:
		}
	}

	watcher := &autofill.Watcher{
		Coordinator:    coordinator,
		Store:          store,
		Clock:          loop,
		Log:            trace,
		Signals:        t.doc.Signals,
		SignalInterval: cfg.Chrome.SignalInterval,
	}
	return watcher.Run(ctx)
}

// close saves the cookies of the provider and shuts the browser down.
func (t *tab) close() {
	if cfg.Session.Cookies {
		if err := t.session.ExportCookies(t.ctx, t.profile.URL); err != nil {
			log.Warn().Err(err).Msg("cookie export failed")
		} else if err := t.session.SaveCookie(); err != nil {
			log.Warn().Err(err).Msg("failed to save cookies")
		}
	}
	t.cancel()
}

func logSession(report autofill.SessionReport) {
	event := log.Info()
	if report.Outcome != autofill.OutcomeFilled {
		event = log.Warn()
	}
	if report.Err != nil {
		event = event.Err(report.Err)
	}
	event.Str("provider", string(report.Provider)).
		Str("trigger", string(report.Trigger)).
		Int("attempts", report.FillAttempts).
		Str("attached", report.Attached).
		Bool("committed", report.Committed).
		Msgf("session %v", report.Outcome)
}

func logSend(report autofill.SendReport) {
	event := log.Info()
	if report.Outcome != autofill.SendClicked {
		event = log.Warn()
	}
	if report.LastErr != nil {
		event = event.Err(report.LastErr)
	}
	event.Str("provider", string(report.Provider)).
		Int("attempts", report.Attempts).
		Int("enter", report.EnterPresses).
		Msgf("send %v", report.Outcome)
}
