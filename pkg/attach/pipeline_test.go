// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/supportwidget/pkg/model"
	"github.com/jeranaias/supportwidget/pkg/transport"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// scriptedSink is an UploadSink driven by the test: it reports the
// scripted progress ticks, then waits for release before returning.
type scriptedSink struct {
	ticks   []int
	release chan struct{}
	err     error
}

func newScriptedSink(ticks ...int) *scriptedSink {
	return &scriptedSink{ticks: ticks, release: make(chan struct{})}
}

func (s *scriptedSink) Upload(ctx context.Context, blob []byte, meta transport.BlobMeta, progress func(int)) (string, error) {
	for _, pct := range s.ticks {
		progress(pct)
	}
	select {
	case <-s.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	return "https://cdn.example.com/" + meta.Name, nil
}

// recordingStore collects appended messages.
type recordingStore struct {
	mu       sync.Mutex
	messages []*model.Message
}

func (r *recordingStore) Append(msg *model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingStore) all() []*model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func pngFile(size int64) FileInfo {
	return FileInfo{Name: "shot.png", MimeType: "image/png", SizeBytes: size, Data: []byte("x")}
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
// VALIDATION
// =============================================================================

func TestSelect_RejectsOversizedFile(t *testing.T) {
	p := NewPipeline(Options{
		Sink:              newScriptedSink(),
		Store:             &recordingStore{},
		MaxAttachmentSize: 10 << 20,
	})

	_, err := p.Select(context.Background(), pngFile(15<<20))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSizeExceeded), "want SizeExceeded, got %v", err)
}

func TestSelect_RejectsDisallowedType(t *testing.T) {
	store := &recordingStore{}
	p := NewPipeline(Options{Sink: newScriptedSink(), Store: store})

	_, err := p.Select(context.Background(), FileInfo{
		Name: "app.exe", MimeType: "application/x-msdownload", SizeBytes: 100,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeRejected))

	// No partial state on rejection.
	assert.Empty(t, store.all())
}

// =============================================================================
// PROGRESS & COMPLETION
// =============================================================================

func TestUpload_MonotonicProgressAndSingleMessage(t *testing.T) {
	sink := newScriptedSink(10, 50, 30, 80) // 30 is a regression the pipeline must clamp
	store := &recordingStore{}
	p := NewPipeline(Options{Sink: sink, Store: store})

	var events []ProgressEvent
	var mu sync.Mutex
	p.Subscribe(func(ev ProgressEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	id, err := p.Select(context.Background(), pngFile(1024))
	require.NoError(t, err)

	waitFor(t, func() bool { return p.Progress(id) == 80 })
	close(sink.release)
	waitFor(t, func() bool { return len(store.all()) == 1 })

	msg := store.all()[0]
	assert.Equal(t, model.KindAttachment, msg.Kind)
	assert.Equal(t, model.OriginCustomer, msg.Origin)
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, 100, msg.Attachment.UploadProgress)
	assert.Equal(t, "https://cdn.example.com/shot.png", msg.Attachment.RemoteURL)

	mu.Lock()
	defer mu.Unlock()
	last := 0
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.Progress, last, "progress must never decrease")
		last = ev.Progress
	}
	assert.True(t, events[len(events)-1].Done)
}

func TestUpload_CompletionOrderAgainstTypedMessages(t *testing.T) {
	sink := newScriptedSink(50)
	store := &recordingStore{}
	p := NewPipeline(Options{Sink: sink, Store: store})

	_, err := p.Select(context.Background(), pngFile(1024))
	require.NoError(t, err)

	// A text message typed while the upload is still in flight lands first.
	store.Append(model.NewTextMessage(model.OriginCustomer, "typed during upload"))

	close(sink.release)
	waitFor(t, func() bool { return len(store.all()) == 2 })

	all := store.all()
	assert.Equal(t, model.KindText, all[0].Kind)
	assert.Equal(t, model.KindAttachment, all[1].Kind)
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestCancel_NoOrphanMessage(t *testing.T) {
	sink := newScriptedSink(25)
	store := &recordingStore{}
	p := NewPipeline(Options{Sink: sink, Store: store})

	var mu sync.Mutex
	var afterCancel int
	cancelled := false
	p.Subscribe(func(ev ProgressEvent) {
		mu.Lock()
		if cancelled {
			afterCancel++
		}
		mu.Unlock()
	})

	id, err := p.Select(context.Background(), pngFile(1024))
	require.NoError(t, err)
	waitFor(t, func() bool { return p.Progress(id) == 25 })

	mu.Lock()
	cancelled = true
	mu.Unlock()
	p.Cancel(id)

	// Let the upload goroutine observe cancellation and exit.
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, store.all(), "cancelled upload must never create a message")
	mu.Lock()
	assert.Zero(t, afterCancel, "no progress events after cancellation")
	mu.Unlock()
	assert.Equal(t, -1, p.Progress(id))
}

func TestUpload_FailureCreatesNoMessage(t *testing.T) {
	sink := newScriptedSink(40)
	sink.err = transport.NewNetworkError("upload", nil)
	store := &recordingStore{}
	p := NewPipeline(Options{Sink: sink, Store: store})

	errs := make(chan error, 1)
	p.Subscribe(func(ev ProgressEvent) {
		if ev.Err != nil {
			errs <- ev.Err
		}
	})

	_, err := p.Select(context.Background(), pngFile(1024))
	require.NoError(t, err)
	close(sink.release)

	select {
	case err := <-errs:
		assert.True(t, transport.IsCategory(err, transport.CategoryNetwork))
	case <-time.After(2 * time.Second):
		t.Fatal("no error event")
	}
	assert.Empty(t, store.all())
}

func TestCompletionObserver_FiresOncePerUpload(t *testing.T) {
	sink := newScriptedSink()
	store := &recordingStore{}
	p := NewPipeline(Options{Sink: sink, Store: store})

	var count int
	var mu sync.Mutex
	p.SetCompletionObserver(func(msg *model.Message) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	_, err := p.Select(context.Background(), pngFile(1024))
	require.NoError(t, err)
	close(sink.release)
	waitFor(t, func() bool { return len(store.all()) == 1 })

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}
