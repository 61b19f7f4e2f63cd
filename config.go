// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sassoftware/pdf-xtract/logger"
)

// ParsingMode controls how a Document responds to a malformed
// cross-reference entry.
type ParsingMode string

const (
	// ModeStrict uses every cross-reference entry as declared: an entry
	// whose offset does not land on its object header makes resolving that
	// object fail, not Open.
	ModeStrict ParsingMode = "strict"
	// ModeLenient additionally repairs, during Open, an uncompressed xref
	// entry whose declared offset does not land on an object header via a
	// bounded scan of the surrounding bytes.
	ModeLenient ParsingMode = "lenient"
)

// Config controls how Documents are opened, individually and in batch.
type Config struct {
	// MaxConcurrentDocuments bounds how many files OpenAll is opening at
	// once; Documents that have finished opening do not count against it.
	MaxConcurrentDocuments int `validate:"min=1,max=64"`
	// OpenTimeout bounds how long a single Open may take before OpenAll
	// reports it as failed.
	OpenTimeout time.Duration `validate:"required"`
	// MaxRetries is how many additional times OpenAll retries an Open
	// that fails with an IOError (a transient read failure), before
	// giving up on that file.
	MaxRetries int `validate:"min=0,max=5"`
	ParsingMode ParsingMode `validate:"oneof=strict lenient"`
	DebugOn     bool
	Logger      logger.LogFunc
}

// NewDefaultConfig returns a Config with conservative defaults: strict
// parsing, five documents open concurrently, and no retries.
func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentDocuments: 5,
		OpenTimeout:            10 * time.Second,
		MaxRetries:             0,
		ParsingMode:            ModeStrict,
		DebugOn:                false,
	}
}

// Validate reports whether cfg's fields are within their allowed ranges.
func (cfg *Config) Validate() error {
	logger.Debug("validating config")
	return validator.New().Struct(cfg)
}
