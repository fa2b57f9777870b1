// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/supportwidget/pkg/attach"
	"github.com/jeranaias/supportwidget/pkg/config"
	"github.com/jeranaias/supportwidget/pkg/store"
	"github.com/jeranaias/supportwidget/pkg/suggest"
	"github.com/jeranaias/supportwidget/pkg/transport"
	"github.com/jeranaias/supportwidget/pkg/voice"
)

// =============================================================================
// CONFIG WIRING
// =============================================================================

// Deps are the host-supplied pieces a configuration cannot construct:
// live connections, device access, and integration callbacks.
type Deps struct {
	// Transport overrides the HTTP transport built from the config's
	// transport section. Optional.
	Transport transport.Transport

	// Uploads overrides the upload sink. Optional; defaults to the
	// config-built HTTP transport.
	Uploads transport.UploadSink

	// Device enables voice messages. Optional.
	Device voice.CaptureDevice

	// Events are the host integration callbacks.
	Events HostEvents

	// Logger. Default: no-op.
	Logger *zap.Logger
}

// NewFromConfig assembles a complete engine from a loaded
// configuration: the storage adapter and message store from the storage
// section, the HTTP transport from the transport section, and the
// attachment, suggestion, and polling knobs from theirs. The config is
// validated (clamped) before use.
func NewFromConfig(cfg *config.Config, deps Deps) (*Engine, error) {
	cfg.Validate()
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	tr := deps.Transport
	sink := deps.Uploads
	if tr == nil {
		ht := transport.NewHTTPTransport(transport.HTTPConfig{
			BaseURL:           cfg.Transport.BaseURL,
			APIKey:            cfg.Transport.APIKey,
			Timeout:           time.Duration(cfg.Transport.TimeoutSecs) * time.Second,
			RequestsPerSecond: cfg.Transport.RequestsPerSecond,
		}, log)
		tr = ht
		if sink == nil {
			sink = ht
		}
	}

	st, err := store.NewFromConfig(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	var uploads *attach.Pipeline
	if sink != nil {
		uploads = attach.NewPipeline(attach.Options{
			Sink:              sink,
			Store:             st,
			MaxAttachmentSize: cfg.Attachments.MaxSizeBytes,
			AllowedMimeTypes:  cfg.Attachments.AllowedTypes,
			Logger:            log,
		})
	}

	var recorder *voice.Controller
	if deps.Device != nil {
		recorder = voice.NewController(voice.ControllerOptions{
			Device: deps.Device,
			Store:  st,
			Logger: log,
		})
	}

	var assist *suggest.Engine
	if cfg.Suggestions.Enabled {
		assist = suggest.NewEngine(suggest.Options{
			QuietPeriod: time.Duration(cfg.Suggestions.QuietPeriodMS) * time.Millisecond,
			MinDraftLen: cfg.Suggestions.MinDraftLen,
		})
	}

	return New(Options{
		Transport:         tr,
		Store:             st,
		Uploads:           uploads,
		Recorder:          recorder,
		Assist:            assist,
		Events:            deps.Events,
		RequireDepartment: cfg.Widget.RequireDepartment,
		Departments:       cfg.Widget.Departments,
		PollInterval:      time.Duration(cfg.Widget.PollIntervalSecs) * time.Second,
		ListLimit:         cfg.Widget.ListLimit,
		Logger:            log,
	}), nil
}
