// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/supportwidget/pkg/model"
)

// =============================================================================
// HTTP TRANSPORT
// =============================================================================

// HTTPTransport implements Transport and UploadSink over a JSON HTTP API.
//
// Retry with exponential backoff lives here, not in the engine: server
// errors and network failures are retried up to MaxElapsed, client
// errors are permanent. A client-side rate limiter caps request bursts.
type HTTPTransport struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger

	// MaxElapsed bounds total retry time per operation.
	MaxElapsed time.Duration
}

// HTTPConfig configures an HTTPTransport.
type HTTPConfig struct {
	// BaseURL is the API root, e.g. "https://support.example.com/api/v1".
	BaseURL string

	// APIKey authenticates the widget installation. When set it is sent
	// as a bearer token on every request; 401/403 responses surface as
	// auth-category errors.
	APIKey string

	// Timeout is the per-request timeout. Default: 15s.
	Timeout time.Duration

	// MaxElapsed bounds total retry time per operation. Default: 30s.
	MaxElapsed time.Duration

	// RequestsPerSecond caps outbound request rate. Default: 10.
	RequestsPerSecond float64
}

// NewHTTPTransport creates an HTTP transport for the given API root.
func NewHTTPTransport(cfg HTTPConfig, log *zap.Logger) *HTTPTransport {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}

	return &HTTPTransport{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
				MaxIdleConns:    8,
				IdleConnTimeout: 90 * time.Second,
			},
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)),
		log:        log,
		MaxElapsed: cfg.MaxElapsed,
	}
}

// =============================================================================
// TRANSPORT OPERATIONS
// =============================================================================

// SendMessage posts a message to a conversation.
func (t *HTTPTransport) SendMessage(ctx context.Context, conversationID string, msg *model.Message) (*model.Message, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, NewValidationError("encode message", err)
	}

	var ack model.Message
	endpoint := t.baseURL + "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := t.doJSON(ctx, http.MethodPost, endpoint, body, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// FetchConversation retrieves the full message log for a conversation.
func (t *HTTPTransport) FetchConversation(ctx context.Context, conversationID string) (*model.ConversationSnapshot, error) {
	var snap model.ConversationSnapshot
	endpoint := t.baseURL + "/conversations/" + url.PathEscape(conversationID)
	if err := t.doJSON(ctx, http.MethodGet, endpoint, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListConversations retrieves conversation summaries.
func (t *HTTPTransport) ListConversations(ctx context.Context) ([]model.ConversationSummary, error) {
	var summaries []model.ConversationSummary
	if err := t.doJSON(ctx, http.MethodGet, t.baseURL+"/conversations", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// =============================================================================
// UPLOAD SINK
// =============================================================================

// uploadResponse is the sink's reply for a stored blob.
type uploadResponse struct {
	URL string `json:"url"`
}

// Upload posts a blob and returns its durable URL.
//
// HTTP uploads report coarse progress: 0 at dispatch, 100 on success.
// Fine-grained progress requires a sink wired to the host's upload
// machinery; the engine only requires monotonicity.
func (t *HTTPTransport) Upload(ctx context.Context, blob []byte, meta BlobMeta, progress func(pct int)) (string, error) {
	if progress != nil {
		progress(0)
	}

	endpoint := t.baseURL + "/uploads?name=" + url.QueryEscape(meta.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(blob))
	if err != nil {
		return "", NewValidationError("build upload request", err)
	}
	req.Header.Set("Content-Type", meta.MimeType)

	resp, err := t.do(ctx, req, blob)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", NewNetworkError("decode upload response", err)
	}
	if progress != nil {
		progress(100)
	}
	return ur.URL, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON performs a request with retry and decodes a JSON response into out.
func (t *HTTPTransport) doJSON(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return NewValidationError("build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.do(ctx, req, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewNetworkError("decode response", err)
	}
	return nil
}

// do runs the request with exponential backoff. Network failures and
// 5xx responses are retried; 4xx responses are permanent.
func (t *HTTPTransport) do(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var resp *http.Response

	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	operation := func() error {
		if err := t.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(NewTimeoutError("rate limiter", err))
		}

		// Rewind the body for retries.
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		r, err := t.client.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return NewTimeoutError(req.URL.Path, err)
			}
			return NewNetworkError(req.URL.Path, err)
		}

		if r.StatusCode >= 500 {
			// Drain and close so the connection can be reused.
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return NewNetworkError(fmt.Sprintf("%s: server error %d", req.URL.Path, r.StatusCode), nil)
		}
		if r.StatusCode >= 400 {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return backoff.Permanent(categorizeStatus(r.StatusCode, req.URL.Path))
		}

		resp = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = t.MaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		t.log.Warn("transport request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// categorizeStatus maps a 4xx status code into the error taxonomy.
func categorizeStatus(status int, path string) *Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return NewAuthError(fmt.Sprintf("%s: status %d", path, status), nil)
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return NewTimeoutError(fmt.Sprintf("%s: status %d", path, status), nil)
	default:
		return NewValidationError(fmt.Sprintf("%s: status %d", path, status), nil)
	}
}
