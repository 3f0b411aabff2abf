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

/*
Page File Implementation
========================

A page file is a table's backing file viewed as an array of 4KB blocks
addressed by block number. This layer knows nothing about schemas,
directories, or records; it only reads, writes, and appends whole blocks.

There is no file header. Block 0 belongs to the schema and the blocks
after it to the page directory, so the file is self-describing from its
first byte and stays byte-compatible with every other reader of the
format. File identity checks happen one layer up, where the schema and
directory blocks are validated on open.

Writes past the current end of the file extend it with zeroed blocks
first, so a block write can never leave a hole of undefined bytes.

Thread Safety:
==============

All operations are protected by a read-write mutex:
  - ReadBlock uses RLock for concurrent readers
  - WriteBlock and the capacity operations use Lock for exclusivity

See also: page.go for the block layout, buffer_pool.go for caching.
*/
package disk

import (
	"fmt"
	"os"
	"sync"

	"flyrec/internal/errors"
)

// PageFile provides block-granular access to a table's backing file.
type PageFile struct {
	file       *os.File
	mu         sync.RWMutex
	path       string
	blockCount int32
	closed     bool
}

// CreatePageFile creates a new page file containing a single zeroed
// block. It fails if the file already exists. The file is closed again
// before returning; use OpenPageFile to work with it.
func CreatePageFile(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errors.FileExists(path)
		}
		return errors.NewIOError("create", err)
	}

	zero := make([]byte, PageSize)
	if _, err := file.WriteAt(zero, 0); err != nil {
		file.Close()
		os.Remove(path)
		return errors.WriteFailed(0, err)
	}
	if err := file.Close(); err != nil {
		return errors.NewIOError("create", err)
	}
	return nil
}

// OpenPageFile opens an existing page file. The file size must be a whole
// number of blocks.
func OpenPageFile(path string) (*PageFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.TableNotFound(path)
		}
		return nil, errors.NewIOError("open", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.NewIOError("open", err)
	}
	if info.Size()%PageSize != 0 {
		file.Close()
		return nil, errors.NewIOError("open", nil).WithDetail(
			fmt.Sprintf("file size %d is not a multiple of the %d-byte block size", info.Size(), PageSize))
	}

	return &PageFile{
		file:       file,
		path:       path,
		blockCount: int32(info.Size() / PageSize),
	}, nil
}

// DestroyPageFile removes a page file from disk.
func DestroyPageFile(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.TableNotFound(path)
		}
		return errors.NewIOError("remove", err)
	}
	return nil
}

// ReadBlock reads block num into buf, which must hold at least PageSize
// bytes. Reading past the end of the file is an error, not an implicit
// extension.
func (pf *PageFile) ReadBlock(num int32, buf []byte) error {
	pf.mu.RLock()
	defer pf.mu.RUnlock()

	if pf.closed {
		return errors.NewIOError("read", nil).WithDetail("page file is closed")
	}
	if num < 0 {
		return errors.InvalidPageNum(num)
	}
	if num >= pf.blockCount {
		return errors.PageNotFound(num, int(pf.blockCount))
	}

	if _, err := pf.file.ReadAt(buf[:PageSize], int64(num)*PageSize); err != nil {
		return errors.ReadFailed(num, err)
	}
	return nil
}

// WriteBlock writes buf to block num, extending the file with zeroed
// blocks first if num is past the current end.
func (pf *PageFile) WriteBlock(num int32, buf []byte) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return errors.NewIOError("write", nil).WithDetail("page file is closed")
	}
	if num < 0 {
		return errors.InvalidPageNum(num)
	}
	if err := pf.ensureCapacityLocked(num + 1); err != nil {
		return err
	}

	if _, err := pf.file.WriteAt(buf[:PageSize], int64(num)*PageSize); err != nil {
		return errors.WriteFailed(num, err)
	}
	return nil
}

// EnsureCapacity grows the file to at least n blocks.
func (pf *PageFile) EnsureCapacity(n int32) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return errors.NewIOError("extend", nil).WithDetail("page file is closed")
	}
	return pf.ensureCapacityLocked(n)
}

// AppendEmptyBlock adds one zeroed block to the end of the file.
func (pf *PageFile) AppendEmptyBlock() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return errors.NewIOError("extend", nil).WithDetail("page file is closed")
	}
	return pf.ensureCapacityLocked(pf.blockCount + 1)
}

func (pf *PageFile) ensureCapacityLocked(n int32) error {
	if n <= pf.blockCount {
		return nil
	}
	zero := make([]byte, PageSize)
	for pf.blockCount < n {
		if _, err := pf.file.WriteAt(zero, int64(pf.blockCount)*PageSize); err != nil {
			return errors.WriteFailed(pf.blockCount, err)
		}
		pf.blockCount++
	}
	return nil
}

// BlockCount returns the number of blocks currently in the file.
func (pf *PageFile) BlockCount() int32 {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return pf.blockCount
}

// Path returns the file's path on disk.
func (pf *PageFile) Path() string {
	return pf.path
}

// Sync flushes pending writes through to disk.
func (pf *PageFile) Sync() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return nil
	}
	if err := pf.file.Sync(); err != nil {
		return errors.NewIOError("sync", err)
	}
	return nil
}

// Close closes the file. Closing an already-closed page file is a no-op.
func (pf *PageFile) Close() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return nil
	}
	pf.closed = true
	if err := pf.file.Close(); err != nil {
		return errors.NewIOError("close", err)
	}
	return nil
}
