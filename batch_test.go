// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempPDF(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpenAllSucceedsForEachFile(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTempPDF(t, dir, "a.pdf", minimalOnePagePDF()),
		writeTempPDF(t, dir, "b.pdf", twoPagePDFWithInheritedMediaBox()),
	}

	opener, err := NewBatchOpener(NewDefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := opener.OpenAll(ctx, paths)
	require.Len(t, results, 2)
	for i, res := range results {
		require.NoErrorf(t, res.Err, "path %s", paths[i])
		require.NotNil(t, res.Doc)
		res.File.Close()
	}
	assert.Equal(t, 1, results[0].Doc.PageCount())
	assert.Equal(t, 2, results[1].Doc.PageCount())
}

func TestOpenAllReportsMissingFile(t *testing.T) {
	dir := t.TempDir()
	opener, err := NewBatchOpener(NewDefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := opener.OpenAll(ctx, []string{filepath.Join(dir, "nope.pdf")})
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
	var ioe *IOError
	assert.ErrorAs(t, results[0].Err, &ioe)
}

func TestOpenAllRetriesOnIOError(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.MaxRetries = 2

	opener, err := NewBatchOpener(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := opener.OpenAll(ctx, []string{filepath.Join(dir, "still-missing.pdf")})
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
	var ioe *IOError
	assert.ErrorAs(t, results[0].Err, &ioe)
}

func TestNewBatchOpenerRejectsBadConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxConcurrentDocuments = 0
	_, err := NewBatchOpener(cfg)
	assert.Error(t, err)
}
