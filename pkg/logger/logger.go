// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger constructs the zap logger shared by engine components.
package logger

import (
	"go.uber.org/zap"
)

// Config controls logger construction.
type Config struct {
	// Development switches to the human-readable development encoder.
	Development bool

	// Level overrides the default level ("debug", "info", "warn", "error").
	Level string
}

// New builds a zap logger for the engine. Components accept a
// *zap.Logger directly, so hosts embedding the widget may pass their
// own logger instead of calling this.
func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	if cfg.Level != "" {
		lvl, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = lvl
	}

	return zc.Build()
}

// Nop returns a no-op logger, the default for components constructed
// without one.
func Nop() *zap.Logger {
	return zap.NewNop()
}
