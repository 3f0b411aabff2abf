/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"flyrec/internal/errors"
)

func setupPageFile(t *testing.T) (*PageFile, string, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "flyrec_pagefile_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	path := filepath.Join(tmpDir, "test.tbl")

	if err := CreatePageFile(path); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create page file: %v", err)
	}
	pf, err := OpenPageFile(path)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to open page file: %v", err)
	}

	cleanup := func() {
		pf.Close()
		os.RemoveAll(tmpDir)
	}
	return pf, path, cleanup
}

// stampBlock builds a block filled with a byte derived from num, so a
// read can tell which block it got.
func stampBlock(num int32) []byte {
	buf := make([]byte, PageSize)
	for i := range buf {
		buf[i] = byte(num + 1)
	}
	return buf
}

func TestCreatePageFile(t *testing.T) {
	pf, path, cleanup := setupPageFile(t)
	defer cleanup()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat page file: %v", err)
	}
	if info.Size() != PageSize {
		t.Errorf("Expected initial size %d, got %d", PageSize, info.Size())
	}
	if pf.BlockCount() != 1 {
		t.Errorf("Expected 1 block, got %d", pf.BlockCount())
	}
	if pf.Path() != path {
		t.Errorf("Expected path %s, got %s", path, pf.Path())
	}

	// The initial block must come back zeroed
	buf := make([]byte, PageSize)
	if err := pf.ReadBlock(0, buf); err != nil {
		t.Fatalf("Failed to read block 0: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("Expected zeroed initial block, got %d at byte %d", b, i)
		}
	}
}

func TestCreatePageFileAlreadyExists(t *testing.T) {
	_, path, cleanup := setupPageFile(t)
	defer cleanup()

	err := CreatePageFile(path)
	if err == nil {
		t.Fatal("Expected error creating over an existing file, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeFileExists {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeFileExists, errors.GetCode(err))
	}
}

func TestOpenPageFileMissing(t *testing.T) {
	_, err := OpenPageFile("/nonexistent/flyrec/missing.tbl")
	if err == nil {
		t.Fatal("Expected error opening missing file, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeTableNotFound {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeTableNotFound, errors.GetCode(err))
	}
}

func TestOpenPageFilePartialBlock(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "flyrec_pagefile_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "truncated.tbl")
	if err := os.WriteFile(path, make([]byte, PageSize+100), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := OpenPageFile(path); err == nil {
		t.Error("Expected error opening a file with a partial block, got nil")
	}
}

func TestReadWriteBlock(t *testing.T) {
	pf, _, cleanup := setupPageFile(t)
	defer cleanup()

	want := stampBlock(0)
	if err := pf.WriteBlock(0, want); err != nil {
		t.Fatalf("Failed to write block 0: %v", err)
	}

	got := make([]byte, PageSize)
	if err := pf.ReadBlock(0, got); err != nil {
		t.Fatalf("Failed to read block 0: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("Expected read to return the written block")
	}
}

func TestWriteBlockExtendsFile(t *testing.T) {
	pf, _, cleanup := setupPageFile(t)
	defer cleanup()

	if err := pf.WriteBlock(4, stampBlock(4)); err != nil {
		t.Fatalf("Failed to write block 4: %v", err)
	}
	if pf.BlockCount() != 5 {
		t.Errorf("Expected 5 blocks, got %d", pf.BlockCount())
	}

	// Skipped-over blocks are zero filled
	buf := make([]byte, PageSize)
	if err := pf.ReadBlock(2, buf); err != nil {
		t.Fatalf("Failed to read block 2: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("Expected zero fill in block 2, got %d at byte %d", b, i)
		}
	}

	if err := pf.ReadBlock(4, buf); err != nil {
		t.Fatalf("Failed to read block 4: %v", err)
	}
	if !bytes.Equal(buf, stampBlock(4)) {
		t.Error("Expected block 4 to hold the written data")
	}
}

func TestReadBlockPastEnd(t *testing.T) {
	pf, _, cleanup := setupPageFile(t)
	defer cleanup()

	err := pf.ReadBlock(3, make([]byte, PageSize))
	if err == nil {
		t.Fatal("Expected error reading past the end of the file, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodePageNotFound {
		t.Errorf("Expected code %d, got %d", errors.ErrCodePageNotFound, errors.GetCode(err))
	}
	if pf.BlockCount() != 1 {
		t.Errorf("Expected read not to extend the file, got %d blocks", pf.BlockCount())
	}
}

func TestReadBlockNegative(t *testing.T) {
	pf, _, cleanup := setupPageFile(t)
	defer cleanup()

	err := pf.ReadBlock(-1, make([]byte, PageSize))
	if err == nil {
		t.Fatal("Expected error reading a negative block, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidPageNum {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeInvalidPageNum, errors.GetCode(err))
	}
}

func TestAppendEmptyBlock(t *testing.T) {
	pf, _, cleanup := setupPageFile(t)
	defer cleanup()

	if err := pf.AppendEmptyBlock(); err != nil {
		t.Fatalf("Failed to append block: %v", err)
	}
	if pf.BlockCount() != 2 {
		t.Errorf("Expected 2 blocks, got %d", pf.BlockCount())
	}

	buf := make([]byte, PageSize)
	if err := pf.ReadBlock(1, buf); err != nil {
		t.Fatalf("Failed to read appended block: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("Expected appended block to be zeroed, got %d at byte %d", b, i)
		}
	}
}

func TestEnsureCapacity(t *testing.T) {
	pf, _, cleanup := setupPageFile(t)
	defer cleanup()

	if err := pf.EnsureCapacity(8); err != nil {
		t.Fatalf("Failed to extend file: %v", err)
	}
	if pf.BlockCount() != 8 {
		t.Errorf("Expected 8 blocks, got %d", pf.BlockCount())
	}

	// Ensuring a smaller capacity never shrinks
	if err := pf.EnsureCapacity(2); err != nil {
		t.Fatalf("EnsureCapacity failed: %v", err)
	}
	if pf.BlockCount() != 8 {
		t.Errorf("Expected file to keep 8 blocks, got %d", pf.BlockCount())
	}
}

func TestPageFilePersistence(t *testing.T) {
	pf, path, cleanup := setupPageFile(t)
	defer cleanup()

	for n := int32(0); n < 3; n++ {
		if err := pf.WriteBlock(n, stampBlock(n)); err != nil {
			t.Fatalf("Failed to write block %d: %v", n, err)
		}
	}
	if err := pf.Sync(); err != nil {
		t.Fatalf("Failed to sync: %v", err)
	}
	if err := pf.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	reopened, err := OpenPageFile(path)
	if err != nil {
		t.Fatalf("Failed to reopen page file: %v", err)
	}
	defer reopened.Close()

	if reopened.BlockCount() != 3 {
		t.Errorf("Expected 3 blocks after reopen, got %d", reopened.BlockCount())
	}
	buf := make([]byte, PageSize)
	for n := int32(0); n < 3; n++ {
		if err := reopened.ReadBlock(n, buf); err != nil {
			t.Fatalf("Failed to read block %d: %v", n, err)
		}
		if !bytes.Equal(buf, stampBlock(n)) {
			t.Errorf("Block %d did not survive the reopen", n)
		}
	}
}

func TestPageFileCloseIdempotent(t *testing.T) {
	pf, _, cleanup := setupPageFile(t)
	defer cleanup()

	if err := pf.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if err := pf.Close(); err != nil {
		t.Errorf("Expected second close to be a no-op, got %v", err)
	}

	// Operations on a closed file fail
	if err := pf.WriteBlock(0, make([]byte, PageSize)); err == nil {
		t.Error("Expected write on closed file to fail, got nil")
	}
	if err := pf.ReadBlock(0, make([]byte, PageSize)); err == nil {
		t.Error("Expected read on closed file to fail, got nil")
	}
	if err := pf.AppendEmptyBlock(); err == nil {
		t.Error("Expected append on closed file to fail, got nil")
	}
}

func TestDestroyPageFile(t *testing.T) {
	pf, path, cleanup := setupPageFile(t)
	defer cleanup()

	pf.Close()
	if err := DestroyPageFile(path); err != nil {
		t.Fatalf("Failed to destroy page file: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected page file to be removed from disk")
	}

	err := DestroyPageFile(path)
	if err == nil {
		t.Fatal("Expected error destroying a missing file, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeTableNotFound {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeTableNotFound, errors.GetCode(err))
	}
}
