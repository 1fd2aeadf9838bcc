package loop

import "errors"

var (
	// ErrAlreadyStarted is returned by Start when an activation is in progress.
	ErrAlreadyStarted = errors.New("loop: already started")

	// ErrFinalized is returned by Start after the host has been finalized.
	ErrFinalized = errors.New("loop: host finalized")

	// ErrActive is returned by Finalize while an activation is in progress.
	ErrActive = errors.New("loop: activation in progress")

	// ErrStopBeforeStartup is returned by stop requests made before startup
	// completed. Start and stop pair up strictly in that order.
	ErrStopBeforeStartup = errors.New("loop: cannot stop before startup is complete")

	// ErrRegisterAfterStart is returned by Register once the supervisor started.
	ErrRegisterAfterStart = errors.New("loop: cannot register after supervisor start")
)
