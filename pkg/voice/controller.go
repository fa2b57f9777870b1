// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/supportwidget/pkg/model"
)

// =============================================================================
// STATES & ERRORS
// =============================================================================

// State is the controller's recording state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
)

// PermissionError is returned when the capture device denies access to
// the microphone.
type PermissionError struct {
	Message string
	Err     error // underlying cause, may be nil
}

// Error implements the error interface.
func (e *PermissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("microphone permission denied: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("microphone permission denied: %s", e.Message)
}

// Unwrap returns the underlying cause.
func (e *PermissionError) Unwrap() error {
	return e.Err
}

// Is matches any *PermissionError.
func (e *PermissionError) Is(target error) bool {
	_, ok := target.(*PermissionError)
	return ok
}

// ErrPermissionDenied is a sentinel for errors.Is checks.
var ErrPermissionDenied = &PermissionError{Message: "access denied"}

// =============================================================================
// CAPTURE DEVICE
// =============================================================================

// CaptureDevice grants access to a recording source. The host supplies
// the implementation; tests inject fakes.
type CaptureDevice interface {
	// Acquire opens a capture session. A denial returns a
	// *PermissionError.
	Acquire(ctx context.Context) (CaptureSession, error)
}

// CaptureSession is one open recording.
type CaptureSession interface {
	// Drain returns the audio captured so far.
	Drain() []byte

	// Release frees the device. Called exactly once per session.
	Release() error
}

// MessageSink receives the finalized audio message.
type MessageSink interface {
	Append(msg *model.Message)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives a single voice recording at a time.
type Controller struct {
	mu      sync.Mutex
	state   State
	session CaptureSession
	elapsed int
	stop    chan struct{}

	// startSeq identifies the current recording attempt. Stop/Discard
	// issued while Acquire is still pending bump it, so the acquisition
	// releases the device and goes nowhere once it returns.
	startSeq uint64

	device CaptureDevice
	store  MessageSink
	log    *zap.Logger

	// onTick observes the elapsed counter once per second while
	// recording. Runs outside the controller lock.
	onTick func(seconds int)
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	// Device provides capture sessions. Required.
	Device CaptureDevice

	// Store receives the finalized audio message. Required.
	Store MessageSink

	// OnTick, when set, is called once per elapsed second.
	OnTick func(seconds int)

	// Logger. Default: no-op.
	Logger *zap.Logger
}

// NewController creates an idle voice controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		state:  StateIdle,
		device: opts.Device,
		store:  opts.Store,
		log:    opts.Logger,
		onTick: opts.OnTick,
	}
}

// State returns the current recording state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed returns the recorded duration in whole seconds.
func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start acquires the capture device and begins recording. Calling
// Start while a recording is in progress is a no-op: the microphone is
// never double-acquired.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateRecording {
		c.mu.Unlock()
		c.log.Debug("start ignored, already recording")
		return nil
	}
	// Claim the recording slot before acquiring so a concurrent Start
	// cannot race a second acquisition.
	c.state = StateRecording
	c.elapsed = 0
	c.startSeq++
	seq := c.startSeq
	c.mu.Unlock()

	session, err := c.device.Acquire(ctx)
	if err != nil {
		c.mu.Lock()
		if c.startSeq == seq {
			c.state = StateIdle
		}
		c.mu.Unlock()
		c.log.Warn("capture device acquisition failed", zap.Error(err))
		return err
	}

	c.mu.Lock()
	if c.startSeq != seq || c.state != StateRecording {
		// Abandoned (Stop/Discard/Teardown) while the device prompt was
		// pending: release immediately, no recording happens.
		c.mu.Unlock()
		if rerr := session.Release(); rerr != nil {
			c.log.Warn("capture session release failed", zap.Error(rerr))
		}
		c.log.Debug("recording abandoned during device acquisition")
		return nil
	}
	c.session = session
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	go c.tickLoop(stop)
	return nil
}

// tickLoop increments the elapsed counter once per second until the
// recording exits.
func (c *Controller) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			if c.state != StateRecording {
				c.mu.Unlock()
				return
			}
			c.elapsed++
			seconds := c.elapsed
			onTick := c.onTick
			c.mu.Unlock()

			if onTick != nil {
				onTick(seconds)
			}
		case <-stop:
			return
		}
	}
}

// Stop finalizes the recording: the captured audio is packaged into an
// attachment and exactly one customer audio message is appended to the
// store. Stopping while idle is a no-op and returns nil.
func (c *Controller) Stop() (*model.Message, error) {
	session, seconds, ok := c.exit()
	if !ok {
		return nil, nil
	}

	data := session.Drain()
	if err := session.Release(); err != nil {
		c.log.Warn("capture session release failed", zap.Error(err))
	}

	clip := model.NewAttachment(
		fmt.Sprintf("voice-%s.webm", time.Now().Format("20060102-150405")),
		"audio/webm",
		int64(len(data)),
		"",
	)
	clip.SetProgress(100)

	msg := model.NewAudioMessage(clip, seconds)
	c.store.Append(msg)

	c.log.Debug("voice message finalized",
		zap.String("message_id", msg.ID),
		zap.Int("seconds", seconds),
		zap.Int("bytes", len(data)))
	return msg, nil
}

// Discard abandons the recording. The device is released and no
// message is created. Discarding while idle is a no-op.
func (c *Controller) Discard() {
	session, _, ok := c.exit()
	if !ok {
		return
	}
	if err := session.Release(); err != nil {
		c.log.Warn("capture session release failed", zap.Error(err))
	}
	c.log.Debug("recording discarded")
}

// Teardown discards any in-flight recording. Safe to call repeatedly;
// the widget calls it on close.
func (c *Controller) Teardown() {
	c.Discard()
}

// exit performs the shared leave-recording transition: stops the
// ticker, detaches the session, and returns it for release. The
// session is handed out exactly once, so the device is released
// exactly once no matter which exit path runs.
func (c *Controller) exit() (CaptureSession, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRecording {
		return nil, 0, false
	}
	if c.session == nil {
		// Acquire is still pending: invalidate the attempt so Start
		// releases the device the moment it lands.
		c.startSeq++
		c.state = StateIdle
		return nil, 0, false
	}

	close(c.stop)
	c.stop = nil

	session := c.session
	seconds := c.elapsed
	c.session = nil
	c.elapsed = 0
	c.state = StateIdle
	return session, seconds, true
}
