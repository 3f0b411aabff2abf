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
Table: The Record Store
=======================

A Table ties the layers of this package together: it owns the page file,
the buffer pool over it, the page directory, and the schema, and exposes
record-level CRUD on top of them.

Records are addressed by RID (page, slot). Both halves are stable for
the life of the record: slots are reused after deletion but their stored
payload offsets never move, and pages never change identity. An RID
handed out by Insert stays valid until that record is deleted, no matter
what happens to its neighbors.

Operation Ordering:
===================

Every mutating operation follows the same discipline:

 1. Validate inputs before pinning anything.
 2. Pin the target data page, mutate page bytes, mark the frame dirty.
 3. Unpin. Error paths unpin too; no operation leaks a pin.
 4. Persist the page directory last, after the data mutation succeeded.

The directory is written straight through the page file rather than the
buffer pool, so the pool's cache holds data pages only.

Counting:
=========

Count() reports live records: inserts minus deletes. The per-page
recordCount in the directory is a high-water mark of allocated slots and
deliberately does not shrink on delete, so the live count is maintained
separately and rebuilt on open by reading the slot free flags.
*/
package disk

import (
	"fmt"
	"sync"

	"flyrec/internal/config"
	"flyrec/internal/errors"
	"flyrec/internal/logging"
	"flyrec/internal/storage"
)

// Options configures OpenTable. The zero value of each field means "use
// the global configuration default".
type Options struct {
	// PoolSize is the buffer pool capacity in pages. 0 uses the
	// configured default.
	PoolSize int

	// Policy selects the pool's eviction policy.
	Policy Policy

	// Encoding overrides the string encoding used when records are
	// decoded. Empty keeps the schema default (UTF-8).
	Encoding storage.CharacterEncoding
}

// DefaultOptions builds Options from the global configuration.
func DefaultOptions() *Options {
	cfg := config.Global().Get()

	policy, err := ParsePolicy(cfg.BufferPolicy)
	if err != nil {
		policy = PolicyLRU
	}
	encoding, err := storage.ParseEncoding(cfg.StringEncoding)
	if err != nil {
		encoding = storage.EncodingUTF8
	}
	return &Options{
		PoolSize: cfg.BufferPoolSize,
		Policy:   policy,
		Encoding: encoding,
	}
}

// Table is an open record store backed by a single page file.
type Table struct {
	mu         sync.RWMutex
	pf         *PageFile
	pool       *BufferPool
	dir        *pageDirectory
	schema     *storage.Schema
	recordSize int32
	liveCount  int64
	path       string
	logger     *logging.Logger
	closed     bool
}

// TableInfo is a read-only snapshot of a table's layout, used by
// inspection tools.
type TableInfo struct {
	Path        string
	Schema      *storage.Schema
	RecordSize  int32
	TotalPages  int32
	DirPages    int32
	LiveRecords int64
	Entries     []DirEntry
}

// CreateTable creates a new table file at path with the given schema.
// The file is written and closed; use OpenTable to work with it.
func CreateTable(path string, schema *storage.Schema) error {
	if schema == nil {
		return errors.NilArgument("schema")
	}
	if err := schema.Validate(); err != nil {
		return err
	}
	recordSize := schema.RecordSize()
	if recordSize+SlotEntrySize > PageSize {
		return errors.InvalidSchema(fmt.Sprintf(
			"record size %d does not fit a %d-byte page", recordSize, PageSize))
	}

	schemaBytes, err := schema.Marshal()
	if err != nil {
		return err
	}
	if len(schemaBytes) > PageSize {
		return errors.InvalidSchema(fmt.Sprintf(
			"serialized schema is %d bytes, limit is one %d-byte block",
			len(schemaBytes), PageSize))
	}

	if err := CreatePageFile(path); err != nil {
		return err
	}
	pf, err := OpenPageFile(path)
	if err != nil {
		return err
	}

	block := make([]byte, PageSize)
	copy(block, schemaBytes)
	if err := pf.WriteBlock(0, block); err != nil {
		pf.Close()
		DestroyPageFile(path)
		return err
	}
	if err := newPageDirectory().save(pf); err != nil {
		pf.Close()
		DestroyPageFile(path)
		return err
	}
	if err := pf.Close(); err != nil {
		return err
	}

	logging.NewLogger("table").Debug("Created table",
		"path", path,
		"record_size", recordSize,
		"attributes", len(schema.Attributes))
	return nil
}

// OpenTable opens an existing table. A nil opts uses the global
// configuration defaults.
func OpenTable(path string, opts *Options) (*Table, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pf, err := OpenPageFile(path)
	if err != nil {
		return nil, err
	}

	block := make([]byte, PageSize)
	if err := pf.ReadBlock(0, block); err != nil {
		pf.Close()
		return nil, err
	}
	schema, err := storage.UnmarshalSchema(block)
	if err != nil {
		pf.Close()
		return nil, err
	}
	if opts.Encoding != storage.EncodingDefault {
		schema.Encoding = opts.Encoding
	}

	dir, err := loadDirectory(pf)
	if err != nil {
		pf.Close()
		return nil, err
	}

	pool, err := NewBufferPool(pf, opts.PoolSize, opts.Policy)
	if err != nil {
		pf.Close()
		return nil, err
	}

	t := &Table{
		pf:         pf,
		pool:       pool,
		dir:        dir,
		schema:     schema,
		recordSize: schema.RecordSize(),
		path:       path,
		logger:     logging.NewLogger("table"),
	}
	if err := t.recountLive(); err != nil {
		pool.Shutdown()
		pf.Close()
		return nil, err
	}

	t.logger.Debug("Opened table",
		"path", path,
		"pages", len(dir.entries),
		"records", t.liveCount,
		"pool_size", pool.Capacity(),
		"policy", pool.Policy().String())
	return t, nil
}

// recountLive rebuilds the live record count by reading every allocated
// page's slot flags. Pages whose entry shows no allocated slots were
// never written and are skipped without touching the file.
func (t *Table) recountLive() error {
	var live int64
	for i := range t.dir.entries {
		e := t.dir.entries[i]
		if e.RecordCount == 0 {
			continue
		}
		frame, err := t.pool.Pin(t.dir.dataBlock(int32(i)))
		if err != nil {
			return err
		}
		live += int64(DataPage(frame.Data()).CountLive(e.RecordCount))
		if err := t.pool.Unpin(frame); err != nil {
			return err
		}
	}
	t.liveCount = live
	return nil
}

// DestroyTable removes a table's file from disk. The table must not be
// open.
func DestroyTable(path string) error {
	if err := DestroyPageFile(path); err != nil {
		return err
	}
	logging.NewLogger("table").Debug("Destroyed table", "path", path)
	return nil
}

// Schema returns the table's schema. Callers must not mutate it.
func (t *Table) Schema() *storage.Schema {
	return t.schema
}

// Path returns the table file's path.
func (t *Table) Path() string {
	return t.path
}

// RecordSize returns the fixed payload width of this table's records.
func (t *Table) RecordSize() int32 {
	return t.recordSize
}

// NewRecord allocates an empty record shaped for this table.
func (t *Table) NewRecord() (*storage.Record, error) {
	return storage.NewRecord(t.schema)
}

// Count returns the number of live records.
func (t *Table) Count() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.liveCount
}

// PoolStats returns the buffer pool's counters.
func (t *Table) PoolStats() Stats {
	return t.pool.Stats()
}

// Info returns a snapshot of the table's layout.
func (t *Table) Info() TableInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := make([]DirEntry, len(t.dir.entries))
	copy(entries, t.dir.entries)
	return TableInfo{
		Path:        t.path,
		Schema:      t.schema,
		RecordSize:  t.recordSize,
		TotalPages:  t.dir.totalPages,
		DirPages:    t.dir.dirPages,
		LiveRecords: t.liveCount,
		Entries:     entries,
	}
}

// Insert stores the record and assigns its RID. A freed slot is reused
// when one exists, keeping the slot's original payload offset; otherwise
// a fresh slot is allocated, on a new page if no existing page has room.
func (t *Table) Insert(rec *storage.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insertLocked(rec)
}

func (t *Table) insertLocked(rec *storage.Record) error {
	if err := t.checkOpenLocked(); err != nil {
		return err
	}
	if rec == nil {
		return errors.NilArgument("record")
	}
	if int32(len(rec.Data)) != t.recordSize {
		return errors.NewInvalidInputError(fmt.Sprintf(
			"record payload is %d bytes, table records are %d bytes",
			len(rec.Data), t.recordSize))
	}

	need := t.recordSize + SlotEntrySize
	pageID, ok := t.dir.findFreePage()
	if !ok {
		if t.dir.needsGrow() {
			if err := t.dir.addDirectoryBlock(t.pf, t.pool); err != nil {
				return err
			}
			// Persist the relocation immediately so the on-disk
			// directory and the shifted data blocks never disagree.
			if err := t.dir.save(t.pf); err != nil {
				return err
			}
			t.logger.Info("Grew page directory",
				"path", t.path,
				"directory_pages", t.dir.dirPages)
		}
		pageID = t.dir.appendEntry()
	}

	frame, err := t.pool.Pin(t.dir.dataBlock(pageID))
	if err != nil {
		return err
	}
	page := DataPage(frame.Data())
	entry := t.dir.entries[pageID]

	slot, reused := page.FindFreeSlot(entry.RecordCount)
	var offset int32
	if reused {
		offset = page.Slot(slot).Offset
	} else {
		slot = entry.RecordCount
		offset = NewSlotOffset(entry.RecordCount, t.recordSize)
	}

	page.SetSlot(slot, SlotEntry{Offset: offset, IsFree: false})
	page.WritePayload(offset, rec.Data)
	if err := t.pool.MarkDirty(frame); err != nil {
		t.unpinDiscard(frame)
		return err
	}
	t.dir.applyInsert(pageID, need, !reused)
	if err := t.pool.Unpin(frame); err != nil {
		return err
	}
	if err := t.dir.save(t.pf); err != nil {
		return err
	}

	rec.ID = storage.RID{Page: pageID, Slot: slot}
	t.liveCount++
	return nil
}

// Delete removes the record at rid. The slot becomes reusable; the RID
// is dead until a later insert claims the slot.
func (t *Table) Delete(rid storage.RID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteLocked(rid)
}

func (t *Table) deleteLocked(rid storage.RID) error {
	if err := t.checkOpenLocked(); err != nil {
		return err
	}
	if err := t.validateRIDLocked(rid); err != nil {
		return err
	}

	frame, err := t.pool.Pin(t.dir.dataBlock(rid.Page))
	if err != nil {
		return err
	}
	page := DataPage(frame.Data())
	entry := t.dir.entries[rid.Page]

	if rid.Slot >= entry.RecordCount {
		t.unpinDiscard(frame)
		return errors.RecordNotFound(rid.Page, rid.Slot)
	}
	se := page.Slot(rid.Slot)
	if se.IsFree {
		t.unpinDiscard(frame)
		return errors.RecordNotFound(rid.Page, rid.Slot)
	}

	page.SetSlot(rid.Slot, SlotEntry{Offset: se.Offset, IsFree: true})
	page.Tombstone(se.Offset)
	if err := t.pool.MarkDirty(frame); err != nil {
		t.unpinDiscard(frame)
		return err
	}
	t.dir.applyDelete(rid.Page, t.recordSize+SlotEntrySize)
	if err := t.pool.Unpin(frame); err != nil {
		return err
	}
	if err := t.dir.save(t.pf); err != nil {
		return err
	}

	t.liveCount--
	return nil
}

// Get reads the record at rid into a fresh Record.
func (t *Table) Get(rid storage.RID) (*storage.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.checkOpenLocked(); err != nil {
		return nil, err
	}
	if err := t.validateRIDLocked(rid); err != nil {
		return nil, err
	}

	frame, err := t.pool.Pin(t.dir.dataBlock(rid.Page))
	if err != nil {
		return nil, err
	}
	page := DataPage(frame.Data())
	entry := t.dir.entries[rid.Page]

	if rid.Slot >= entry.RecordCount {
		t.unpinDiscard(frame)
		return nil, errors.RecordNotFound(rid.Page, rid.Slot)
	}
	se := page.Slot(rid.Slot)
	if se.IsFree {
		t.unpinDiscard(frame)
		return nil, errors.RecordNotFound(rid.Page, rid.Slot)
	}

	data := page.ReadPayload(se.Offset, t.recordSize)
	if err := t.pool.Unpin(frame); err != nil {
		return nil, err
	}
	return &storage.Record{ID: rid, Data: data}, nil
}

// Update overwrites the record at rec.ID. When the new payload fits the
// slot it is updated in place and the RID is unchanged. A payload too
// large for the slot is relocated via delete+insert and rec.ID is
// rewritten to the new RID; with fixed-width records every payload fits,
// so that path waits for variable-length support.
func (t *Table) Update(rec *storage.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updateLocked(rec)
}

func (t *Table) updateLocked(rec *storage.Record) error {
	if err := t.checkOpenLocked(); err != nil {
		return err
	}
	if rec == nil {
		return errors.NilArgument("record")
	}
	if int32(len(rec.Data)) != t.recordSize {
		return errors.NewInvalidInputError(fmt.Sprintf(
			"record payload is %d bytes, table records are %d bytes",
			len(rec.Data), t.recordSize))
	}
	if err := t.validateRIDLocked(rec.ID); err != nil {
		return err
	}

	frame, err := t.pool.Pin(t.dir.dataBlock(rec.ID.Page))
	if err != nil {
		return err
	}
	page := DataPage(frame.Data())
	entry := t.dir.entries[rec.ID.Page]

	if rec.ID.Slot >= entry.RecordCount {
		t.unpinDiscard(frame)
		return errors.RecordNotFound(rec.ID.Page, rec.ID.Slot)
	}
	se := page.Slot(rec.ID.Slot)
	if se.IsFree {
		t.unpinDiscard(frame)
		return errors.RecordNotFound(rec.ID.Page, rec.ID.Slot)
	}

	if int32(len(rec.Data)) <= t.recordSize {
		page.WritePayload(se.Offset, rec.Data)
		if err := t.pool.MarkDirty(frame); err != nil {
			t.unpinDiscard(frame)
			return err
		}
		// Occupancy is unchanged by an in-place overwrite, so there is
		// no directory delta to persist.
		return t.pool.Unpin(frame)
	}

	// Relocation path for payloads that outgrow their slot. Unreachable
	// while all records share the table's fixed width.
	if err := t.pool.Unpin(frame); err != nil {
		return err
	}
	if err := t.deleteLocked(rec.ID); err != nil {
		return err
	}
	return t.insertLocked(rec)
}

// OpenScan starts a scan over the table's live records. A nil predicate
// matches everything.
func (t *Table) OpenScan(pred Predicate) (*Scan, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.checkOpenLocked(); err != nil {
		return nil, err
	}
	return &Scan{table: t, pred: pred}, nil
}

// Flush persists the directory and writes every unpinned dirty page
// back to disk without closing the table. Establishes a durability
// point for long-lived sessions.
func (t *Table) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkOpenLocked(); err != nil {
		return err
	}
	op := logging.StartOp("flush", t.path)
	if err := t.dir.save(t.pf); err != nil {
		op.LogError(t.logger, err.Error())
		return err
	}
	if err := t.pool.FlushAll(); err != nil {
		op.LogError(t.logger, err.Error())
		return err
	}
	if err := t.pf.Sync(); err != nil {
		op.LogError(t.logger, err.Error())
		return err
	}
	op.LogComplete(t.logger)
	return nil
}

// Close flushes and releases the table: directory, buffer pool, then
// file, collecting the first error while continuing teardown. A second
// Close returns nil.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	var firstErr error
	if err := t.dir.save(t.pf); err != nil {
		firstErr = err
	}
	if err := t.pool.Shutdown(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := t.pf.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := t.pf.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	if firstErr != nil {
		t.logger.Warn("Table closed with error",
			"path", t.path,
			"error", firstErr.Error())
	} else {
		t.logger.Debug("Closed table", "path", t.path, "records", t.liveCount)
	}
	return firstErr
}

func (t *Table) checkOpenLocked() error {
	if t.closed {
		return errors.NewResourceError("table is closed")
	}
	return nil
}

func (t *Table) validateRIDLocked(rid storage.RID) error {
	if rid.Page < 0 || rid.Page >= int32(len(t.dir.entries)) || rid.Slot < 0 {
		return errors.InvalidRID(rid.Page, rid.Slot)
	}
	return nil
}

// unpinDiscard unpins on an error path where the original error is
// already being returned.
func (t *Table) unpinDiscard(f *Frame) {
	if err := t.pool.Unpin(f); err != nil {
		t.logger.Warn("Unpin failed during error handling",
			"page", f.PageNum(),
			"error", err.Error())
	}
}
