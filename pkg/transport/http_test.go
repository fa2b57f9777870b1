// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jeranaias/supportwidget/pkg/model"
)

func testTransport(t *testing.T, handler http.HandlerFunc, apiKey string) *HTTPTransport {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPTransport(HTTPConfig{
		BaseURL:    srv.URL,
		APIKey:     apiKey,
		Timeout:    2 * time.Second,
		MaxElapsed: 2 * time.Second,
	}, nil)
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

func TestHTTP_SendsBearerToken(t *testing.T) {
	var gotAuth atomic.Value
	tr := testTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(&model.Message{ID: "msg_1"})
	}, "wk_live_abc123")

	msg := model.NewTextMessage(model.OriginCustomer, "hello")
	if _, err := tr.SendMessage(context.Background(), "conv_1", msg); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if got := gotAuth.Load(); got != "Bearer wk_live_abc123" {
		t.Errorf("Authorization = %q, want bearer token", got)
	}
}

func TestHTTP_NoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth atomic.Value
	tr := testTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]model.ConversationSummary{})
	}, "")

	if _, err := tr.ListConversations(context.Background()); err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if got := gotAuth.Load(); got != "" {
		t.Errorf("Authorization = %q, want none", got)
	}
}

func TestHTTP_UnauthorizedIsAuthCategoryAndPermanent(t *testing.T) {
	var calls atomic.Int32
	tr := testTransport(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}, "wk_revoked")

	_, err := tr.FetchConversation(context.Background(), "conv_1")
	if err == nil {
		t.Fatal("expected an error for 401")
	}
	if !IsCategory(err, CategoryAuth) {
		t.Errorf("401 should map to auth category, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("client errors must not be retried, got %d calls", calls.Load())
	}
}

// =============================================================================
// RETRY
// =============================================================================

func TestHTTP_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	tr := testTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(&model.ConversationSnapshot{ID: "conv_1"})
	}, "")

	snap, err := tr.FetchConversation(context.Background(), "conv_1")
	if err != nil {
		t.Fatalf("FetchConversation failed after retries: %v", err)
	}
	if snap.ID != "conv_1" {
		t.Errorf("snapshot ID = %q", snap.ID)
	}
	if calls.Load() != 3 {
		t.Errorf("got %d calls, want 2 failures + 1 success", calls.Load())
	}
}
