// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/jeranaias/supportwidget/pkg/model"
)

// =============================================================================
// ORDER PRESERVATION
// =============================================================================

func TestAppend_PreservesOrder(t *testing.T) {
	s := NewMessageStore(Options{Storage: NewMemoryAdapter()})

	for i := 0; i < 20; i++ {
		s.Append(model.NewTextMessage(model.OriginCustomer, fmt.Sprintf("m%d", i)))
	}

	all := s.All()
	if len(all) != 20 {
		t.Fatalf("len = %d, want 20", len(all))
	}
	for i, msg := range all {
		if want := fmt.Sprintf("m%d", i); msg.Text != want {
			t.Errorf("all[%d].Text = %q, want %q", i, msg.Text, want)
		}
	}
}

func TestReset_InstallsFetchedLog(t *testing.T) {
	s := NewMessageStore(Options{Storage: NewMemoryAdapter()})
	s.Append(model.NewTextMessage(model.OriginCustomer, "old session"))

	fetched := []*model.Message{
		model.NewTextMessage(model.OriginCustomer, "from server 1"),
		model.NewTextMessage(model.OriginAgent, "from server 2"),
	}
	s.Reset(fetched)

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].Text != "from server 1" || all[1].Text != "from server 2" {
		t.Errorf("reset did not install the fetched log: %v", all)
	}

	// Reset marks the store loaded; a later LoadSnapshot must not
	// clobber the installed log.
	if got := s.LoadSnapshot(); len(got) != 2 {
		t.Errorf("LoadSnapshot after Reset returned %d messages, want 2", len(got))
	}
}

// =============================================================================
// STATUS MONOTONICITY
// =============================================================================

func TestUpdateStatus_ForwardOnly(t *testing.T) {
	s := NewMessageStore(Options{Storage: NewMemoryAdapter()})
	msg := model.NewTextMessage(model.OriginCustomer, "hello")
	s.Append(msg)

	if !s.UpdateStatus(msg.ID, model.StatusDelivered) {
		t.Error("sent -> delivered should advance")
	}
	if s.UpdateStatus(msg.ID, model.StatusSent) {
		t.Error("delivered -> sent must be rejected")
	}
	if s.UpdateStatus(msg.ID, model.StatusDelivered) {
		t.Error("delivered -> delivered must be rejected")
	}
	if !s.UpdateStatus(msg.ID, model.StatusRead) {
		t.Error("delivered -> read should advance")
	}
	if s.UpdateStatus(msg.ID, model.StatusDelivered) {
		t.Error("read -> delivered must be rejected")
	}

	if got := s.Get(msg.ID).DeliveryStatus; got != model.StatusRead {
		t.Errorf("final status = %q, want %q", got, model.StatusRead)
	}
}

func TestUpdateStatus_UnknownID(t *testing.T) {
	s := NewMessageStore(Options{Storage: NewMemoryAdapter()})
	if s.UpdateStatus("msg_nope", model.StatusRead) {
		t.Error("unknown ID should not report a change")
	}
}

// =============================================================================
// PERSISTENCE BOUND
// =============================================================================

func TestSave_KeepsTailOnly(t *testing.T) {
	adapter := NewMemoryAdapter()
	s := NewMessageStore(Options{Storage: adapter, SnapshotLimit: 5})

	for i := 0; i < 12; i++ {
		s.Append(model.NewTextMessage(model.OriginCustomer, fmt.Sprintf("m%d", i)))
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, ok, _ := adapter.Get(DefaultKey)
	if !ok {
		t.Fatal("snapshot not written")
	}

	var snap struct {
		Messages []*model.Message `json:"messages"`
	}
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("snapshot not valid JSON: %v", err)
	}

	if len(snap.Messages) != 5 {
		t.Fatalf("persisted %d messages, want 5", len(snap.Messages))
	}
	// Truncation drops oldest first: the snapshot is the last 5.
	for i, msg := range snap.Messages {
		if want := fmt.Sprintf("m%d", i+7); msg.Text != want {
			t.Errorf("snap[%d].Text = %q, want %q", i, msg.Text, want)
		}
	}
}

func TestSave_ShrinksOnQuotaFailure(t *testing.T) {
	// Capacity fits the 10-message retry slice but not the full 50.
	adapter := NewBoundedMemoryAdapter(8192)
	s := NewMessageStore(Options{Storage: adapter})

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	for i := 0; i < 40; i++ {
		s.Append(model.NewTextMessage(model.OriginCustomer, string(long)))
	}

	if err := s.Save(); err != nil {
		t.Fatalf("Save should succeed via shrink retry: %v", err)
	}

	raw, ok, _ := adapter.Get(DefaultKey)
	if !ok {
		t.Fatal("snapshot not written")
	}
	var snap struct {
		Messages []*model.Message `json:"messages"`
	}
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("snapshot not valid JSON: %v", err)
	}
	if len(snap.Messages) != ShrinkLimit {
		t.Errorf("persisted %d messages, want %d", len(snap.Messages), ShrinkLimit)
	}
}

func TestSave_FailureIsNonFatal(t *testing.T) {
	// Too small even for the retry slice.
	adapter := NewBoundedMemoryAdapter(10)
	s := NewMessageStore(Options{Storage: adapter})
	s.Append(model.NewTextMessage(model.OriginCustomer, "hello"))

	if err := s.Save(); err == nil {
		t.Error("expected error from exhausted quota")
	}

	// The in-memory log is still authoritative.
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

// =============================================================================
// SNAPSHOT LOAD
// =============================================================================

func TestLoadSnapshot_RoundTrip(t *testing.T) {
	adapter := NewMemoryAdapter()

	s1 := NewMessageStore(Options{Storage: adapter})
	s1.Append(model.NewTextMessage(model.OriginCustomer, "Hi"))
	s1.Append(model.NewTextMessage(model.OriginAgent, "How can I help?"))
	if err := s1.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	s2 := NewMessageStore(Options{Storage: adapter})
	restored := s2.LoadSnapshot()
	if len(restored) != 2 {
		t.Fatalf("restored %d messages, want 2", len(restored))
	}
	if restored[0].Text != "Hi" || restored[1].Text != "How can I help?" {
		t.Errorf("restored wrong content: %q, %q", restored[0].Text, restored[1].Text)
	}
}

func TestLoadSnapshot_MalformedDataIsEmpty(t *testing.T) {
	adapter := NewMemoryAdapter()
	adapter.Set(DefaultKey, "{not json")

	s := NewMessageStore(Options{Storage: adapter})
	if got := s.LoadSnapshot(); len(got) != 0 {
		t.Errorf("malformed snapshot should load as empty, got %d messages", len(got))
	}
}

func TestLoadSnapshot_UnknownVersionIsEmpty(t *testing.T) {
	adapter := NewMemoryAdapter()
	adapter.Set(DefaultKey, `{"version":99,"messages":[{"id":"msg_1","text":"x"}]}`)

	s := NewMessageStore(Options{Storage: adapter})
	if got := s.LoadSnapshot(); len(got) != 0 {
		t.Errorf("unknown snapshot version should load as empty, got %d messages", len(got))
	}
}

func TestLoadSnapshot_SecondCallIsNoop(t *testing.T) {
	adapter := NewMemoryAdapter()
	s := NewMessageStore(Options{Storage: adapter})

	s.LoadSnapshot()
	s.Append(model.NewTextMessage(model.OriginCustomer, "after load"))

	// A second call must not reset the log from storage.
	if got := s.LoadSnapshot(); len(got) != 1 {
		t.Errorf("second LoadSnapshot returned %d messages, want 1", len(got))
	}
}
