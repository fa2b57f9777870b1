// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/supportwidget/pkg/model"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeSession struct {
	data     []byte
	releases atomic.Int32
}

func (s *fakeSession) Drain() []byte { return s.data }

func (s *fakeSession) Release() error {
	s.releases.Add(1)
	return nil
}

type fakeDevice struct {
	mu       sync.Mutex
	sessions []*fakeSession
	denied   bool
	acquires int
}

func (d *fakeDevice) Acquire(ctx context.Context) (CaptureSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquires++
	if d.denied {
		return nil, &PermissionError{Message: "user dismissed the prompt"}
	}
	s := &fakeSession{data: []byte("opus frames")}
	d.sessions = append(d.sessions, s)
	return s, nil
}

func (d *fakeDevice) acquireCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acquires
}

type recordingStore struct {
	mu       sync.Mutex
	messages []*model.Message
}

func (r *recordingStore) Append(msg *model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingStore) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestStart_TransitionsToRecording(t *testing.T) {
	dev := &fakeDevice{}
	c := NewController(ControllerOptions{Device: dev, Store: &recordingStore{}})

	require.NoError(t, c.Start(context.Background()))
	defer c.Discard()

	assert.Equal(t, StateRecording, c.State())
	assert.Equal(t, 1, dev.acquireCount())
}

func TestStart_WhileRecordingIsNoOp(t *testing.T) {
	dev := &fakeDevice{}
	c := NewController(ControllerOptions{Device: dev, Store: &recordingStore{}})

	require.NoError(t, c.Start(context.Background()))
	defer c.Discard()

	// Second press must not touch the device again.
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 1, dev.acquireCount(), "microphone must never be double-acquired")
}

func TestStart_PermissionDenied(t *testing.T) {
	dev := &fakeDevice{denied: true}
	c := NewController(ControllerOptions{Device: dev, Store: &recordingStore{}})

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.Equal(t, StateIdle, c.State(), "denied start must return to idle")

	// Denial is recoverable: the next attempt acquires again.
	dev.denied = false
	require.NoError(t, c.Start(context.Background()))
	c.Discard()
}

// =============================================================================
// STOP & DISCARD
// =============================================================================

func TestStop_FinalizesSingleAudioMessage(t *testing.T) {
	dev := &fakeDevice{}
	store := &recordingStore{}
	c := NewController(ControllerOptions{Device: dev, Store: store})

	require.NoError(t, c.Start(context.Background()))
	msg, err := c.Stop()
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, model.KindAudio, msg.Kind)
	assert.Equal(t, model.OriginCustomer, msg.Origin)
	assert.Equal(t, model.StatusSent, msg.DeliveryStatus)
	require.NotNil(t, msg.Audio)
	assert.Equal(t, "audio/webm", msg.Audio.MimeType)
	assert.Equal(t, int64(len("opus frames")), msg.Audio.SizeBytes)

	assert.Equal(t, 1, store.count())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, int32(1), dev.sessions[0].releases.Load(), "device released exactly once")
}

func TestStop_WhileIdleIsNoOp(t *testing.T) {
	c := NewController(ControllerOptions{Device: &fakeDevice{}, Store: &recordingStore{}})

	msg, err := c.Stop()
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestDiscard_ReleasesWithoutMessage(t *testing.T) {
	dev := &fakeDevice{}
	store := &recordingStore{}
	c := NewController(ControllerOptions{Device: dev, Store: store})

	require.NoError(t, c.Start(context.Background()))
	c.Discard()

	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, store.count(), "discarded recording must never create a message")
	assert.Equal(t, int32(1), dev.sessions[0].releases.Load())

	// Discarding again is a no-op, not a double release.
	c.Discard()
	assert.Equal(t, int32(1), dev.sessions[0].releases.Load())
}

func TestTeardown_DiscardsInFlightRecording(t *testing.T) {
	dev := &fakeDevice{}
	store := &recordingStore{}
	c := NewController(ControllerOptions{Device: dev, Store: store})

	require.NoError(t, c.Start(context.Background()))
	c.Teardown()

	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, store.count())
	assert.Equal(t, int32(1), dev.sessions[0].releases.Load())
}

// gatedDevice blocks Acquire until released, like a browser permission
// prompt waiting on the user.
type gatedDevice struct {
	release chan struct{}
	session fakeSession
}

func (d *gatedDevice) Acquire(ctx context.Context) (CaptureSession, error) {
	select {
	case <-d.release:
		return &d.session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestDiscard_DuringPendingAcquire(t *testing.T) {
	dev := &gatedDevice{release: make(chan struct{})}
	store := &recordingStore{}
	c := NewController(ControllerOptions{Device: dev, Store: store})

	started := make(chan error, 1)
	go func() { started <- c.Start(context.Background()) }()

	waitFor(t, func() bool { return c.State() == StateRecording })
	c.Discard()
	assert.Equal(t, StateIdle, c.State())

	// The prompt resolves after the user already gave up: the device
	// must be released immediately and no recording may proceed.
	close(dev.release)
	require.NoError(t, <-started)

	waitFor(t, func() bool { return dev.session.releases.Load() == 1 })
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, store.count())
}

func TestStop_DuringPendingAcquire(t *testing.T) {
	dev := &gatedDevice{release: make(chan struct{})}
	store := &recordingStore{}
	c := NewController(ControllerOptions{Device: dev, Store: store})

	started := make(chan error, 1)
	go func() { started <- c.Start(context.Background()) }()
	waitFor(t, func() bool { return c.State() == StateRecording })

	msg, err := c.Stop()
	require.NoError(t, err)
	assert.Nil(t, msg, "stop before the device is live has nothing to finalize")

	close(dev.release)
	require.NoError(t, <-started)

	waitFor(t, func() bool { return dev.session.releases.Load() == 1 })
	assert.Zero(t, store.count())

	// The controller stays usable for a fresh recording.
	dev2 := &fakeDevice{}
	c2 := NewController(ControllerOptions{Device: dev2, Store: store})
	require.NoError(t, c2.Start(context.Background()))
	c2.Discard()
}

// =============================================================================
// TICKER
// =============================================================================

func TestElapsed_AdvancesWhileRecording(t *testing.T) {
	dev := &fakeDevice{}
	var ticks atomic.Int32
	c := NewController(ControllerOptions{
		Device: dev,
		Store:  &recordingStore{},
		OnTick: func(int) { ticks.Add(1) },
	})

	require.NoError(t, c.Start(context.Background()))

	deadline := time.Now().Add(3 * time.Second)
	for c.Elapsed() < 1 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	require.GreaterOrEqual(t, c.Elapsed(), 1, "elapsed did not advance")
	require.GreaterOrEqual(t, ticks.Load(), int32(1))

	msg, err := c.Stop()
	require.NoError(t, err)
	assert.Zero(t, c.Elapsed(), "elapsed resets when the recording exits")
	assert.GreaterOrEqual(t, msg.AudioSeconds, 1)

	// Ticker is stopped on exit: the counter must not advance further.
	after := ticks.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "ticker leaked past Stop")
}
