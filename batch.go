// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sassoftware/pdf-xtract/logger"
	"golang.org/x/sync/semaphore"
)

// OpenResult is the outcome of opening one file in a batch: either an open
// *os.File and *Document, or the error that Open returned for it.
type OpenResult struct {
	Path string
	File *os.File
	Doc  *Document
	Err  error
}

// BatchOpener opens many PDF files concurrently, each as its own
// single-threaded Document, bounded by Config.MaxConcurrentDocuments.
// Concurrency here is across distinct files, never within one Document's
// object graph: a Document's resolver caches and cycle detection are not
// safe for concurrent navigation by multiple goroutines.
type BatchOpener struct {
	cfg *Config
	sem *semaphore.Weighted
}

// NewBatchOpener validates cfg and returns a BatchOpener bounded by
// cfg.MaxConcurrentDocuments.
func NewBatchOpener(cfg *Config) (*BatchOpener, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}
	logger.Debug(fmt.Sprintf("batch opener initialized: parsing_mode=%v max_concurrent=%d",
		cfg.ParsingMode, cfg.MaxConcurrentDocuments), true)
	return &BatchOpener{
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(cfg.MaxConcurrentDocuments)),
	}, nil
}

// OpenAll opens every named file concurrently, bounded by
// Config.MaxConcurrentDocuments, retrying a file up to Config.MaxRetries
// times when Open fails with an *IOError (a transient read failure, as
// opposed to a malformed file, which a retry cannot fix). It blocks until
// every file has either opened or exhausted its retries, or ctx is
// canceled. The results are returned in the same order as paths; callers
// own every returned *os.File and must close it.
func (b *BatchOpener) OpenAll(ctx context.Context, paths []string) []OpenResult {
	results := make([]OpenResult, len(paths))
	done := make(chan int, len(paths))

	for i, path := range paths {
		go func(i int, path string) {
			results[i] = b.openOne(ctx, path)
			done <- i
		}(i, path)
	}

	for range paths {
		select {
		case <-done:
		case <-ctx.Done():
			return results
		}
	}
	return results
}

func (b *BatchOpener) openOne(ctx context.Context, path string) OpenResult {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return OpenResult{Path: path, Err: fmt.Errorf("acquire slot for %s: %w", path, err)}
	}
	defer b.sem.Release(1)

	var (
		f   *os.File
		doc *Document
		err error
	)
	for attempt := 0; attempt <= b.cfg.MaxRetries; attempt++ {
		f, doc, err = b.openOnceWithTimeout(path)

		if err == nil {
			return OpenResult{Path: path, File: f, Doc: doc}
		}
		if _, transient := err.(*IOError); !transient {
			break
		}
		logger.Debug(fmt.Sprintf("retrying open: path=%s attempt=%d err=%v", path, attempt, err), true)
		if ctx.Err() != nil {
			break
		}
	}
	return OpenResult{Path: path, Err: err}
}

// openAttempt carries the result of one OpenWithConfig call across the
// goroutine boundary used to enforce Config.OpenTimeout.
type openAttempt struct {
	f   *os.File
	doc *Document
	err error
}

// openOnceWithTimeout runs a single OpenWithConfig attempt, reporting an
// *IOError if it does not complete within Config.OpenTimeout. The
// underlying open is not canceled — os.Open and the header/xref scan
// offer no cancellation point — so a timed-out attempt's result, if it
// eventually arrives, is simply discarded.
func (b *BatchOpener) openOnceWithTimeout(path string) (*os.File, *Document, error) {
	result := make(chan openAttempt, 1)
	go func() {
		f, doc, err := OpenWithConfig(path, b.cfg)
		result <- openAttempt{f, doc, err}
	}()

	select {
	case r := <-result:
		return r.f, r.doc, r.err
	case <-time.After(b.cfg.OpenTimeout):
		return nil, nil, &IOError{Path: path, Err: fmt.Errorf("open timed out after %s", b.cfg.OpenTimeout)}
	}
}
