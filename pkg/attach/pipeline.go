// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/supportwidget/pkg/model"
	"github.com/jeranaias/supportwidget/pkg/transport"
)

// DefaultMaxAttachmentSize bounds accepted files (10 MiB).
const DefaultMaxAttachmentSize = 10 << 20

// DefaultAllowedMimeTypes is the default MIME allow-list.
var DefaultAllowedMimeTypes = []string{
	"image/png", "image/jpeg", "image/gif", "image/webp",
	"application/pdf", "text/plain",
	"audio/webm", "audio/ogg", "audio/mpeg",
}

// =============================================================================
// PIPELINE TYPES
// =============================================================================

// FileInfo describes a file the user selected in the host page.
type FileInfo struct {
	Name      string
	MimeType  string
	SizeBytes int64

	// SourceURL is the local preview location.
	SourceURL string

	// Data is the file content handed to the upload sink.
	Data []byte
}

// ProgressEvent is emitted on every progress change of a pending upload.
type ProgressEvent struct {
	AttachmentID string
	Progress     int
	Done         bool
	Err          error
}

// MessageSink receives the synthesized message for a completed upload.
// The session's message store satisfies this.
type MessageSink interface {
	Append(msg *model.Message)
}

// upload tracks one in-flight attachment.
type upload struct {
	att       *model.Attachment
	cancel    context.CancelFunc
	cancelled bool
	failed    bool
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline validates and uploads attachments, linking each completed
// one into the message log as a single customer message.
type Pipeline struct {
	mu      sync.Mutex
	uploads map[string]*upload
	subs    []func(ProgressEvent)

	maxSize int64
	allowed map[string]struct{}

	sink  transport.UploadSink
	store MessageSink
	log   *zap.Logger

	// onComplete, when set, observes each synthesized message after it
	// has been appended. The widget uses it to fire the host's
	// file-upload event exactly once per completed upload.
	onComplete func(msg *model.Message)
}

// Options configures a Pipeline.
type Options struct {
	// Sink performs the actual uploads. Required.
	Sink transport.UploadSink

	// Store receives the synthesized attachment messages. Required.
	Store MessageSink

	// MaxAttachmentSize in bytes. Default: DefaultMaxAttachmentSize.
	MaxAttachmentSize int64

	// AllowedMimeTypes allow-list. Default: DefaultAllowedMimeTypes.
	AllowedMimeTypes []string

	// Logger. Default: no-op.
	Logger *zap.Logger
}

// NewPipeline creates an attachment pipeline.
func NewPipeline(opts Options) *Pipeline {
	if opts.MaxAttachmentSize <= 0 {
		opts.MaxAttachmentSize = DefaultMaxAttachmentSize
	}
	if len(opts.AllowedMimeTypes) == 0 {
		opts.AllowedMimeTypes = DefaultAllowedMimeTypes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	allowed := make(map[string]struct{}, len(opts.AllowedMimeTypes))
	for _, mt := range opts.AllowedMimeTypes {
		allowed[strings.ToLower(mt)] = struct{}{}
	}

	return &Pipeline{
		uploads: make(map[string]*upload),
		maxSize: opts.MaxAttachmentSize,
		allowed: allowed,
		sink:    opts.Sink,
		store:   opts.Store,
		log:     opts.Logger,
	}
}

// Subscribe registers a progress observer. Observers run outside the
// pipeline lock.
func (p *Pipeline) Subscribe(fn func(ProgressEvent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

// SetCompletionObserver registers the post-append message observer.
func (p *Pipeline) SetCompletionObserver(fn func(msg *model.Message)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = fn
}

// =============================================================================
// SELECTION & UPLOAD
// =============================================================================

// Select validates a file and, if accepted, starts its upload.
// Rejection is synchronous with a typed ValidationError and creates no
// partial state.
func (p *Pipeline) Select(ctx context.Context, file FileInfo) (string, error) {
	if file.SizeBytes > p.maxSize {
		return "", &ValidationError{
			Reason:  ReasonSizeExceeded,
			Message: fmt.Sprintf("%s is %d bytes, limit %d", file.Name, file.SizeBytes, p.maxSize),
		}
	}
	if _, ok := p.allowed[strings.ToLower(file.MimeType)]; !ok {
		return "", &ValidationError{
			Reason:  ReasonTypeRejected,
			Message: fmt.Sprintf("%s has unsupported type %q", file.Name, file.MimeType),
		}
	}

	att := model.NewAttachment(file.Name, file.MimeType, file.SizeBytes, file.SourceURL)
	uploadCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.uploads[att.ID] = &upload{att: att, cancel: cancel}
	p.mu.Unlock()

	go p.run(uploadCtx, att, file)

	return att.ID, nil
}

// run drives one upload to completion on its own goroutine.
func (p *Pipeline) run(ctx context.Context, att *model.Attachment, file FileInfo) {
	meta := transport.BlobMeta{
		Name:      file.Name,
		MimeType:  file.MimeType,
		SizeBytes: file.SizeBytes,
	}

	url, err := p.sink.Upload(ctx, file.Data, meta, func(pct int) {
		p.tick(att.ID, pct)
	})

	p.mu.Lock()
	up, ok := p.uploads[att.ID]
	if !ok || up.cancelled {
		// Discarded while in flight: suppress everything, no message.
		p.mu.Unlock()
		return
	}

	if err != nil {
		up.failed = true
		subs := p.observers()
		p.mu.Unlock()

		p.log.Warn("attachment upload failed",
			zap.String("attachment_id", att.ID),
			zap.String("name", att.Name),
			zap.Error(err))
		for _, fn := range subs {
			fn(ProgressEvent{AttachmentID: att.ID, Progress: att.UploadProgress, Err: err})
		}
		return
	}

	att.RemoteURL = url
	att.SetProgress(100)
	subs := p.observers()
	onComplete := p.onComplete
	delete(p.uploads, att.ID)
	p.mu.Unlock()

	// Append happens at completion time: relative order against
	// concurrently typed messages is FIFO by completion, not by upload
	// start.
	msg := model.NewAttachmentMessage(att)
	p.store.Append(msg)

	for _, fn := range subs {
		fn(ProgressEvent{AttachmentID: att.ID, Progress: 100, Done: true})
	}
	if onComplete != nil {
		onComplete(msg)
	}
}

// tick applies a sink progress callback. Regressions are clamped so
// progress never decreases; ticks after cancellation are suppressed.
func (p *Pipeline) tick(id string, pct int) {
	p.mu.Lock()
	up, ok := p.uploads[id]
	if !ok || up.cancelled || up.failed {
		p.mu.Unlock()
		return
	}

	before := up.att.UploadProgress
	up.att.SetProgress(pct)
	changed := up.att.UploadProgress != before
	progress := up.att.UploadProgress
	subs := p.observers()
	p.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subs {
		fn(ProgressEvent{AttachmentID: id, Progress: progress})
	}
}

// =============================================================================
// QUERIES & CANCELLATION
// =============================================================================

// Progress returns the current progress for a pending upload, or -1
// when the ID is unknown (completed uploads are no longer pending).
func (p *Pipeline) Progress(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if up, ok := p.uploads[id]; ok {
		return up.att.UploadProgress
	}
	return -1
}

// Cancel discards a pending attachment. Outstanding progress ticks are
// suppressed and no message will ever be created for it. Cancelling an
// unknown or completed ID is a no-op.
func (p *Pipeline) Cancel(id string) {
	p.mu.Lock()
	up, ok := p.uploads[id]
	if !ok {
		p.mu.Unlock()
		return
	}
	up.cancelled = true
	cancel := up.cancel
	delete(p.uploads, id)
	p.mu.Unlock()

	cancel()
	p.log.Debug("attachment cancelled", zap.String("attachment_id", id))
}

// CancelAll discards every pending attachment (widget teardown).
func (p *Pipeline) CancelAll() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.uploads))
	for id := range p.uploads {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		p.Cancel(id)
	}
}

// observers copies the subscriber list; callers hold the lock.
func (p *Pipeline) observers() []func(ProgressEvent) {
	subs := make([]func(ProgressEvent), len(p.subs))
	copy(subs, p.subs)
	return subs
}
