package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// QRScanDevice is the scanner half of the kiosk. Satisfied by
// *capture.QRScanner.
type QRScanDevice interface {
	Open(ctx context.Context, onDecoded func(string), onError func(error)) error
	Close()
}

// CheckInRunner runs one attempt. Satisfied by *Orchestrator.
type CheckInRunner interface {
	CheckIn(ctx context.Context, decodedText, accessToken string) (CheckInResult, error)
}

const defaultRescanDelay = 3 * time.Second

// Agent is the kiosk loop: scan a QR code, run the check-in workflow,
// record the outcome, scan again. Every failure is terminal for its attempt
// and reported through the agent state; only an expired session stops the
// loop, since the kiosk cannot act without a token.
type Agent struct {
	scanner     QRScanDevice
	checkin     CheckInRunner
	sessions    *SessionManager
	state       *AgentState
	rescanDelay time.Duration
}

func NewAgent(scanner QRScanDevice, checkin CheckInRunner, sessions *SessionManager, state *AgentState, rescanDelay time.Duration) *Agent {
	if rescanDelay <= 0 {
		rescanDelay = defaultRescanDelay
	}
	return &Agent{
		scanner:     scanner,
		checkin:     checkin,
		sessions:    sessions,
		state:       state,
		rescanDelay: rescanDelay,
	}
}

// Run drives the scan/check-in loop until ctx is cancelled or the session
// expires.
func (a *Agent) Run(ctx context.Context) error {
	slog.Info("Agent loop started", "rescan_delay", a.rescanDelay)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		token, err := a.sessions.AccessToken(ctx)
		if err != nil {
			if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionNotFound) {
				slog.Error("No usable session, stopping agent", "error", err)
				return err
			}
			slog.Warn("Failed to load session, retrying", "error", err)
			if !a.pause(ctx) {
				return ctx.Err()
			}
			continue
		}

		text, err := a.scanOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("QR scan failed", "error", err)
			a.state.RecordFailure(fmt.Errorf("QR scan failed: %w", err))
			if !a.pause(ctx) {
				return ctx.Err()
			}
			continue
		}

		result, err := a.checkin.CheckIn(ctx, text, token)
		if err != nil {
			slog.Warn("Check-in attempt failed", "error", err)
			a.state.RecordFailure(err)
		} else {
			a.state.RecordSuccess(result)
		}

		if !a.pause(ctx) {
			return ctx.Err()
		}
	}
}

// scanOnce opens the scanner, waits for a single decode or error, and
// guarantees the scanner is closed before returning.
func (a *Agent) scanOnce(ctx context.Context) (string, error) {
	type scanResult struct {
		text string
		err  error
	}
	results := make(chan scanResult, 1)

	err := a.scanner.Open(ctx,
		func(text string) { results <- scanResult{text: text} },
		func(err error) { results <- scanResult{err: err} },
	)
	if err != nil {
		return "", err
	}
	defer a.scanner.Close()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-results:
		return r.text, r.err
	}
}

// pause waits out the rescan delay; false means ctx ended first.
func (a *Agent) pause(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(a.rescanDelay):
		return true
	}
}
