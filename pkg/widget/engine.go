// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/supportwidget/pkg/attach"
	"github.com/jeranaias/supportwidget/pkg/export"
	"github.com/jeranaias/supportwidget/pkg/model"
	"github.com/jeranaias/supportwidget/pkg/store"
	"github.com/jeranaias/supportwidget/pkg/suggest"
	"github.com/jeranaias/supportwidget/pkg/transport"
	"github.com/jeranaias/supportwidget/pkg/voice"
)

// DefaultPollInterval is the agent-message poll cadence.
const DefaultPollInterval = 5 * time.Second

// =============================================================================
// MODES & TABS
// =============================================================================

// Mode is the conversation-pane state.
type Mode string

const (
	ModeConversationList Mode = "conversation_list"
	ModeLoading          Mode = "loading_conversation"
	ModeActive           Mode = "active_conversation"
)

// Tab is the navigation tab. Tabs are orthogonal to the conversation
// mode and always switchable.
type Tab string

const (
	TabHome     Tab = "home"
	TabMessages Tab = "messages"
	TabHelp     Tab = "help"
	TabNews     Tab = "news"
)

// =============================================================================
// HOST EVENTS
// =============================================================================

// HostEvents are the callbacks the embedding application can hook.
// Each fires exactly once per user action; synthesized system messages
// never fire any of them. All callbacks run outside the engine lock.
type HostEvents struct {
	// OnMessageSend fires when the customer sends a message (text,
	// attachment, or voice).
	OnMessageSend func(msg *model.Message)

	// OnFileUpload fires when an attachment upload completes.
	OnFileUpload func(msg *model.Message)

	// OnArticleView fires when the customer opens a help article.
	OnArticleView func(articleID string)

	// OnNewsRead fires when the customer reads a news item.
	OnNewsRead func(newsID string)
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine drives the widget lifecycle for one embedded instance.
type Engine struct {
	mu sync.Mutex

	open              bool
	mode              Mode
	tab               Tab
	conversationID    string
	department        string
	pendingDepartment bool

	// loadSeq orders conversation selections; only the effect of the
	// latest selection is ever applied.
	loadSeq uint64

	// Poll bookkeeping: one outstanding request, stale responses
	// dropped by sequence.
	pollInFlight    bool
	pollSeq         uint64
	pollLastApplied uint64
	pollCancel      context.CancelFunc

	failed    map[string]struct{}
	summaries []model.ConversationSummary

	ctx    context.Context
	cancel context.CancelFunc

	transport transport.Transport
	store     *store.MessageStore
	uploads   *attach.Pipeline
	recorder  *voice.Controller
	assist    *suggest.Engine
	events    HostEvents
	log       *zap.Logger

	requireDepartment bool
	departments       []string
	pollInterval      time.Duration
	listLimit         int
}

// Options configures an Engine.
type Options struct {
	// Transport connects to the conversation backend. Required.
	Transport transport.Transport

	// Store is the session message log. Required.
	Store *store.MessageStore

	// Uploads handles file attachments. Optional.
	Uploads *attach.Pipeline

	// Recorder handles voice messages. Optional.
	Recorder *voice.Controller

	// Assist produces draft suggestions. Optional.
	Assist *suggest.Engine

	// Events are the host integration callbacks.
	Events HostEvents

	// RequireDepartment gates sending until SelectDepartment.
	RequireDepartment bool

	// Departments offered when RequireDepartment is set. Empty means
	// any name is accepted.
	Departments []string

	// PollInterval for agent messages. Default: DefaultPollInterval.
	PollInterval time.Duration

	// ListLimit bounds RefreshConversations (0 = unlimited).
	ListLimit int

	// Logger. Default: no-op.
	Logger *zap.Logger
}

// New creates a closed widget engine. Call Open to start a session.
func New(opts Options) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	e := &Engine{
		mode:              ModeConversationList,
		tab:               TabHome,
		failed:            make(map[string]struct{}),
		transport:         opts.Transport,
		store:             opts.Store,
		uploads:           opts.Uploads,
		recorder:          opts.Recorder,
		assist:            opts.Assist,
		events:            opts.Events,
		log:               opts.Logger,
		requireDepartment: opts.RequireDepartment,
		departments:       opts.Departments,
		pollInterval:      opts.PollInterval,
		listLimit:         opts.ListLimit,
	}

	if e.uploads != nil {
		e.uploads.SetCompletionObserver(func(msg *model.Message) {
			e.store.SaveAsync()
			if e.events.OnFileUpload != nil {
				e.events.OnFileUpload(msg)
			}
		})
	}
	return e
}

// =============================================================================
// OPEN / CLOSE
// =============================================================================

// Open starts a widget session: restores the persisted message log and
// resets the pane to the conversation list. Opening an open widget is a
// no-op.
func (e *Engine) Open() {
	e.mu.Lock()
	if e.open {
		e.mu.Unlock()
		return
	}
	e.open = true
	e.mode = ModeConversationList
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.mu.Unlock()

	restored := e.store.LoadSnapshot()
	e.log.Debug("widget opened", zap.Int("restored_messages", len(restored)))
}

// Close ends the session: the poller stops, any in-flight recording is
// discarded, pending uploads are cancelled, and the message log is
// flushed. Closing a closed widget is a no-op.
func (e *Engine) Close() {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return
	}
	e.open = false
	cancel := e.cancel
	e.stopPollerLocked()
	e.mu.Unlock()

	if e.recorder != nil {
		e.recorder.Teardown()
	}
	if e.uploads != nil {
		e.uploads.CancelAll()
	}
	if e.assist != nil {
		e.assist.OnDraftChange("")
	}
	cancel()

	// Best-effort flush; failures are already logged by the store.
	_ = e.store.Save()
	e.log.Debug("widget closed")
}

// IsOpen reports whether a session is active.
func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Mode returns the conversation-pane state.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Tab returns the active navigation tab.
func (e *Engine) Tab() Tab {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tab
}

// SwitchTab changes the navigation tab. Tabs are independent of the
// conversation mode and always switchable, even mid-load.
func (e *Engine) SwitchTab(tab Tab) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tab = tab
}

// Back returns from the active conversation to the conversation list.
// It is the only transition out of an active conversation.
func (e *Engine) Back() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == ModeConversationList {
		return
	}
	e.loadSeq++ // invalidates any in-flight load or poll
	e.stopPollerLocked()
	e.mode = ModeConversationList
	e.conversationID = ""
}

// =============================================================================
// CONVERSATION LIST
// =============================================================================

// RefreshConversations fetches the conversation list through the
// transport. The cached result is also available via Conversations.
func (e *Engine) RefreshConversations(ctx context.Context) ([]model.ConversationSummary, error) {
	summaries, err := e.transport.ListConversations(ctx)
	if err != nil {
		e.log.Warn("conversation list fetch failed", zap.Error(err))
		return nil, err
	}
	if e.listLimit > 0 && len(summaries) > e.listLimit {
		summaries = summaries[:e.listLimit]
	}

	e.mu.Lock()
	e.summaries = summaries
	e.mu.Unlock()
	return summaries, nil
}

// Conversations returns the last fetched conversation list.
func (e *Engine) Conversations() []model.ConversationSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.ConversationSummary, len(e.summaries))
	copy(out, e.summaries)
	return out
}

// SelectConversation opens a prior conversation. The pane switches to
// loading immediately; the fetch runs in the background and only the
// latest selection ever takes effect, so rapid re-selection cannot
// interleave logs.
func (e *Engine) SelectConversation(id string) error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return ErrNotOpen
	}
	e.loadSeq++
	seq := e.loadSeq
	e.stopPollerLocked()
	e.mode = ModeLoading
	e.conversationID = id
	ctx := e.ctx
	e.mu.Unlock()

	go e.load(ctx, seq, id)
	return nil
}

// load fetches a conversation and applies it if the selection is still
// current.
func (e *Engine) load(ctx context.Context, seq uint64, id string) {
	snap, err := e.transport.FetchConversation(ctx, id)

	e.mu.Lock()
	if seq != e.loadSeq || !e.open {
		// A later selection (or Back, or Close) superseded this fetch.
		e.mu.Unlock()
		e.log.Debug("dropping superseded conversation load", zap.String("conversation_id", id))
		return
	}

	if err != nil {
		e.mode = ModeConversationList
		e.conversationID = ""
		e.mu.Unlock()
		e.log.Warn("conversation load failed", zap.String("conversation_id", id), zap.Error(err))
		return
	}

	// Install the fetched log before the pane flips to active so no
	// observer sees the previous conversation's messages.
	e.store.Reset(snap.Messages)
	e.mode = ModeActive
	e.department = snap.Department
	e.pendingDepartment = e.requireDepartment && snap.Department == ""
	e.startPollerLocked()
	e.mu.Unlock()

	e.store.SaveAsync()
}

// AskQuestion starts a fresh conversation and activates it. When
// department selection is required, the session waits in a
// pending-department sub-state and Send is rejected until
// SelectDepartment.
func (e *Engine) AskQuestion() (string, error) {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return "", ErrNotOpen
	}
	e.loadSeq++
	e.stopPollerLocked()

	id := model.NewConversationID()
	e.conversationID = id
	e.department = ""
	e.pendingDepartment = e.requireDepartment
	e.store.Reset(nil)
	e.mode = ModeActive
	e.startPollerLocked()
	e.mu.Unlock()

	e.log.Debug("conversation started", zap.String("conversation_id", id))
	return id, nil
}

// =============================================================================
// DEPARTMENT GATING
// =============================================================================

// Department returns the selected department, empty if none.
func (e *Engine) Department() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.department
}

// SelectDepartment routes the conversation. The choice is one-way: a
// second call fails with ErrDepartmentChosen. A system message records
// the assignment; it fires no host events.
func (e *Engine) SelectDepartment(name string) error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return ErrNotOpen
	}
	if e.department != "" {
		e.mu.Unlock()
		return ErrDepartmentChosen
	}
	if len(e.departments) > 0 && !contains(e.departments, name) {
		e.mu.Unlock()
		return ErrUnknownDepartment
	}
	e.department = name
	e.pendingDepartment = false
	e.mu.Unlock()

	e.store.Append(model.NewSystemMessage("Conversation assigned to " + name))
	e.store.SaveAsync()
	return nil
}

// =============================================================================
// SENDING
// =============================================================================

// Send appends a customer message and dispatches it. The message is
// local immediately at status sent; the transport acknowledgment
// advances it to delivered. A transport failure leaves the message
// local at sent, marked for manual Retry.
func (e *Engine) Send(text string) (*model.Message, error) {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return nil, ErrNotOpen
	}
	if e.mode != ModeActive || e.conversationID == "" {
		e.mu.Unlock()
		return nil, ErrNoConversation
	}
	if e.pendingDepartment {
		e.mu.Unlock()
		return nil, ErrDepartmentRequired
	}
	if strings.TrimSpace(text) == "" {
		e.mu.Unlock()
		return nil, ErrEmptyMessage
	}
	convID := e.conversationID
	ctx := e.ctx
	e.mu.Unlock()

	msg := model.NewTextMessage(model.OriginCustomer, text)
	e.store.Append(msg)
	e.store.SaveAsync()

	if e.events.OnMessageSend != nil {
		e.events.OnMessageSend(msg)
	}
	if e.assist != nil {
		e.assist.OnDraftChange("")
	}

	go e.dispatch(ctx, convID, msg)
	return msg, nil
}

// dispatch delivers one message through the transport.
func (e *Engine) dispatch(ctx context.Context, convID string, msg *model.Message) {
	_, err := e.transport.SendMessage(ctx, convID, msg)
	if err != nil {
		e.mu.Lock()
		e.failed[msg.ID] = struct{}{}
		e.mu.Unlock()

		e.log.Warn("message dispatch failed",
			zap.String("message_id", msg.ID),
			zap.String("conversation_id", convID),
			zap.Error(err))
		return
	}

	e.mu.Lock()
	delete(e.failed, msg.ID)
	e.mu.Unlock()

	e.store.UpdateStatus(msg.ID, model.StatusDelivered)
	e.store.SaveAsync()
}

// Retry re-dispatches a message whose delivery previously failed.
func (e *Engine) Retry(id string) error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return ErrNotOpen
	}
	if _, ok := e.failed[id]; !ok {
		e.mu.Unlock()
		return ErrNotFailed
	}
	delete(e.failed, id)
	convID := e.conversationID
	ctx := e.ctx
	e.mu.Unlock()

	msg := e.store.Get(id)
	if msg == nil {
		return ErrNotFailed
	}

	go e.dispatch(ctx, convID, msg)
	return nil
}

// FailedMessages returns the IDs of messages awaiting manual retry.
func (e *Engine) FailedMessages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.failed))
	for id := range e.failed {
		out = append(out, id)
	}
	return out
}

// =============================================================================
// POLLING
// =============================================================================

// startPollerLocked launches the agent-message poller for the current
// conversation. Callers hold the engine lock.
func (e *Engine) startPollerLocked() {
	e.stopPollerLocked()
	ctx, cancel := context.WithCancel(e.ctx)
	e.pollCancel = cancel
	go e.pollLoop(ctx, e.loadSeq, e.conversationID)
}

// stopPollerLocked cancels the running poller, if any. Callers hold the
// engine lock.
func (e *Engine) stopPollerLocked() {
	if e.pollCancel != nil {
		e.pollCancel()
		e.pollCancel = nil
	}
}

// pollLoop fetches the conversation at a fixed interval. At most one
// request is outstanding; a tick that arrives while a fetch is running
// is skipped rather than queued.
func (e *Engine) pollLoop(ctx context.Context, seq uint64, convID string) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.mu.Lock()
			if e.pollInFlight {
				e.mu.Unlock()
				continue
			}
			e.pollInFlight = true
			e.pollSeq++
			n := e.pollSeq
			e.mu.Unlock()

			go e.poll(ctx, seq, n, convID)
		case <-ctx.Done():
			return
		}
	}
}

// poll performs one fetch and applies the result unless it is stale:
// the conversation changed, the widget left the active mode, or a newer
// poll already applied.
func (e *Engine) poll(ctx context.Context, seq, n uint64, convID string) {
	snap, err := e.transport.FetchConversation(ctx, convID)

	e.mu.Lock()
	e.pollInFlight = false
	stale := seq != e.loadSeq || e.mode != ModeActive || e.conversationID != convID || n <= e.pollLastApplied
	if err != nil || stale {
		e.mu.Unlock()
		if err != nil && ctx.Err() == nil {
			e.log.Debug("poll failed", zap.String("conversation_id", convID), zap.Error(err))
		}
		return
	}
	e.pollLastApplied = n
	// Merge while still holding the engine lock: a conversation load
	// completing in between would install a fresh log that this
	// snapshot must not leak into.
	changed := e.mergeSnapshotLocked(snap)
	e.mu.Unlock()

	if changed {
		e.store.SaveAsync()
	}
}

// mergeSnapshotLocked merges a fetched snapshot into the local log:
// unseen messages append in server order, and delivery statuses advance
// to the server's view. Local messages are never removed. Callers hold
// the engine lock.
func (e *Engine) mergeSnapshotLocked(snap *model.ConversationSnapshot) bool {
	known := make(map[string]struct{})
	for _, msg := range e.store.All() {
		known[msg.ID] = struct{}{}
	}

	changed := false
	for _, msg := range snap.Messages {
		if _, ok := known[msg.ID]; ok {
			if msg.DeliveryStatus != model.StatusNone && e.store.UpdateStatus(msg.ID, msg.DeliveryStatus) {
				changed = true
			}
			continue
		}
		e.store.Append(msg)
		changed = true
	}
	return changed
}

// =============================================================================
// MEDIA & ASSIST
// =============================================================================

// SelectFile validates and uploads a file attachment. The synthesized
// message appends when the upload completes.
func (e *Engine) SelectFile(file attach.FileInfo) (string, error) {
	if e.uploads == nil {
		return "", ErrNotConfigured
	}
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return "", ErrNotOpen
	}
	if e.mode != ModeActive {
		e.mu.Unlock()
		return "", ErrNoConversation
	}
	ctx := e.ctx
	e.mu.Unlock()

	return e.uploads.Select(ctx, file)
}

// CancelUpload discards a pending attachment.
func (e *Engine) CancelUpload(id string) {
	if e.uploads != nil {
		e.uploads.Cancel(id)
	}
}

// StartRecording begins a voice message.
func (e *Engine) StartRecording() error {
	if e.recorder == nil {
		return ErrNotConfigured
	}
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return ErrNotOpen
	}
	if e.mode != ModeActive {
		e.mu.Unlock()
		return ErrNoConversation
	}
	ctx := e.ctx
	e.mu.Unlock()

	return e.recorder.Start(ctx)
}

// StopRecording finalizes the voice message and sends it.
func (e *Engine) StopRecording() (*model.Message, error) {
	if e.recorder == nil {
		return nil, ErrNotConfigured
	}
	msg, err := e.recorder.Stop()
	if err != nil || msg == nil {
		return msg, err
	}

	e.store.SaveAsync()
	if e.events.OnMessageSend != nil {
		e.events.OnMessageSend(msg)
	}

	e.mu.Lock()
	convID := e.conversationID
	ctx := e.ctx
	open := e.open
	e.mu.Unlock()
	if open && convID != "" {
		go e.dispatch(ctx, convID, msg)
	}
	return msg, nil
}

// DiscardRecording abandons the voice message.
func (e *Engine) DiscardRecording() {
	if e.recorder != nil {
		e.recorder.Discard()
	}
}

// Draft feeds the suggestion engine with the current input text.
func (e *Engine) Draft(text string) {
	if e.assist != nil {
		e.assist.OnDraftChange(text)
	}
}

// Suggestions returns the latest suggestion set.
func (e *Engine) Suggestions() []string {
	if e.assist == nil {
		return nil
	}
	return e.assist.Latest()
}

// =============================================================================
// CONTENT EVENTS & EXPORT
// =============================================================================

// ViewArticle records a help-article view and fires OnArticleView.
func (e *Engine) ViewArticle(articleID string) {
	e.log.Debug("article viewed", zap.String("article_id", articleID))
	if e.events.OnArticleView != nil {
		e.events.OnArticleView(articleID)
	}
}

// ReadNews records a news read and fires OnNewsRead.
func (e *Engine) ReadNews(newsID string) {
	e.log.Debug("news read", zap.String("news_id", newsID))
	if e.events.OnNewsRead != nil {
		e.events.OnNewsRead(newsID)
	}
}

// Messages returns the current message log in order.
func (e *Engine) Messages() []*model.Message {
	return e.store.All()
}

// ConversationID returns the active conversation, empty if none.
func (e *Engine) ConversationID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conversationID
}

// Export renders the current log as a downloadable transcript.
func (e *Engine) Export(format export.Format) (*export.Artifact, error) {
	log := e.store.All()
	return export.Transcript(format, model.DeriveTitle(log), log)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
