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
Page Directory
==============

The page directory is the table's free space map: one entry per data
page recording how much space the page has left and whether another
record still fits. Insert consults it to find a target page without
touching any data blocks; delete and insert update it as space changes
hands.

On-Disk Layout:
===============

The directory occupies raw blocks 1..D, immediately after the schema
block. Block 1 starts with an 8-byte header:

	Offset  Size  Field
	0       4     totalPages (int32)
	4       4     directoryPageCount D (int32)

Blocks 2..D reserve the same 8 bytes, zeroed, so entries sit at uniform
offsets in every block. Entries are 16 bytes each:

	Offset  Size  Field
	0       4     pageID (int32)
	4       1     hasFreeSlot (0 or 1)
	5       3     padding (zero)
	8       4     freeSpace in bytes (int32)
	12      4     recordCount, slots ever allocated (int32)

Each block holds at most (4096-8)/16 = 255 entries; entry j lives on
block 1 + j/255 at byte 8 + (j%255)*16.

Counters:
=========

totalPages starts at 1 for a fresh table and increments once per
appended entry and once per added directory block, so the entry count is
always recoverable as totalPages - D + 1. Loading verifies that
arithmetic and rejects the file when it does not hold; a directory that
fails it was written by a broken or foreign writer, and guessing would
corrupt data pages.

recordCount counts slots ever allocated on the page, not live records.
It never decreases: deletes free slots for reuse but the slot array
itself only grows. Live counts come from the slot free flags.

Growing:
========

When all D blocks are full, a new directory block is claimed at raw
block D+1, which is where the first data page lives. Every data block
shifts up one raw index (last first, so nothing is overwritten), the
vacated block is zeroed, and D increments. The buffer pool caches by raw
block number, so it must be flushed and emptied before the shift. Entry
offsets and logical page IDs are untouched; only the raw mapping
pageID -> block pageID + D + 1 changes through D.
*/
package disk

import (
	"fmt"

	"flyrec/internal/errors"
)

const (
	dirHeaderSize = 8
	dirEntrySize  = 16

	// entriesPerDirectoryPage is how many entries fit in one directory
	// block after its header.
	entriesPerDirectoryPage = (PageSize - dirHeaderSize) / dirEntrySize
)

// DirEntry describes one data page's occupancy.
type DirEntry struct {
	PageID      int32
	HasFreeSlot bool
	FreeSpace   int32
	RecordCount int32
}

// pageDirectory is the in-memory form of the directory blocks. The
// Table owns exactly one and persists it after every mutation.
type pageDirectory struct {
	totalPages int32
	dirPages   int32
	entries    []DirEntry
}

// newPageDirectory returns the directory of a fresh table: one data
// page, empty and fully free.
func newPageDirectory() *pageDirectory {
	return &pageDirectory{
		totalPages: 1,
		dirPages:   1,
		entries: []DirEntry{
			{PageID: 0, HasFreeSlot: true, FreeSpace: PageSize, RecordCount: 0},
		},
	}
}

// findFreePage returns the first page that still fits a record.
func (d *pageDirectory) findFreePage() (int32, bool) {
	for i := range d.entries {
		if d.entries[i].HasFreeSlot {
			return int32(i), true
		}
	}
	return 0, false
}

// applyInsert charges a record insertion against page pageID. need is
// the full footprint of one record: payload plus slot entry. freshSlot
// is true when the insert allocated a new slot rather than reusing a
// freed one.
func (d *pageDirectory) applyInsert(pageID, need int32, freshSlot bool) {
	e := &d.entries[pageID]
	e.FreeSpace -= need
	if freshSlot {
		e.RecordCount++
	}
	e.HasFreeSlot = e.FreeSpace >= need
}

// applyDelete returns a record's footprint to page pageID. The slot
// count stays, deletion never shrinks the slot array.
func (d *pageDirectory) applyDelete(pageID, need int32) {
	e := &d.entries[pageID]
	e.FreeSpace += need
	e.HasFreeSlot = e.FreeSpace >= need
}

// needsGrow reports whether the next appendEntry requires another
// directory block first.
func (d *pageDirectory) needsGrow() bool {
	return int32(len(d.entries)) >= entriesPerDirectoryPage*d.dirPages
}

// appendEntry registers a brand-new, fully free data page and returns
// its ID. The caller must have handled needsGrow first.
func (d *pageDirectory) appendEntry() int32 {
	id := int32(len(d.entries))
	d.entries = append(d.entries, DirEntry{
		PageID:      id,
		HasFreeSlot: true,
		FreeSpace:   PageSize,
		RecordCount: 0,
	})
	d.totalPages++
	return id
}

// dataBlock maps a logical data page ID to its raw block number.
func (d *pageDirectory) dataBlock(pageID int32) int32 {
	return pageID + d.dirPages + 1
}

// addDirectoryBlock claims raw block D+1 for the directory, shifting
// every data block up one raw index. pool is flushed and emptied first
// because its cache is keyed by raw block numbers that are about to
// move.
func (d *pageDirectory) addDirectoryBlock(pf *PageFile, pool *BufferPool) error {
	if err := pool.Reset(); err != nil {
		return err
	}
	if err := pf.AppendEmptyBlock(); err != nil {
		return err
	}

	// Shift data blocks up, last first. Before the append the file held
	// blocks 0..lastData with data in dirPages+1..lastData.
	firstData := d.dirPages + 1
	lastData := pf.BlockCount() - 2
	buf := make([]byte, PageSize)
	for raw := lastData; raw >= firstData; raw-- {
		if err := pf.ReadBlock(raw, buf); err != nil {
			return err
		}
		if err := pf.WriteBlock(raw+1, buf); err != nil {
			return err
		}
	}

	// The vacated block becomes the new last directory block.
	zero := make([]byte, PageSize)
	if err := pf.WriteBlock(firstData, zero); err != nil {
		return err
	}

	d.dirPages++
	d.totalPages++
	return nil
}

// save writes the directory blocks straight through the page file. The
// buffer pool never caches directory blocks; there is exactly one
// directory and the Table serializes access to it, so caching would
// only add invalidation work during grows.
func (d *pageDirectory) save(pf *PageFile) error {
	buf := make([]byte, PageSize)
	for block := int32(0); block < d.dirPages; block++ {
		for i := range buf {
			buf[i] = 0
		}
		if block == 0 {
			putInt32(buf[0:4], d.totalPages)
			putInt32(buf[4:8], d.dirPages)
		}

		start := int(block) * entriesPerDirectoryPage
		end := start + entriesPerDirectoryPage
		if end > len(d.entries) {
			end = len(d.entries)
		}
		for j := start; j < end; j++ {
			encodeDirEntry(buf[dirHeaderSize+(j-start)*dirEntrySize:], d.entries[j])
		}

		if err := pf.WriteBlock(1+block, buf); err != nil {
			return err
		}
	}
	return nil
}

// loadDirectory reads and validates the directory blocks of an open
// page file.
func loadDirectory(pf *PageFile) (*pageDirectory, error) {
	if pf.BlockCount() < 2 {
		return nil, errors.CorruptHeader("file has no directory block")
	}

	buf := make([]byte, PageSize)
	if err := pf.ReadBlock(1, buf); err != nil {
		return nil, err
	}
	totalPages := readInt32(buf[0:4])
	dirPages := readInt32(buf[4:8])

	if dirPages < 1 {
		return nil, errors.CorruptHeader(
			fmt.Sprintf("directory page count %d", dirPages))
	}
	if totalPages < 1 {
		return nil, errors.CorruptHeader(
			fmt.Sprintf("total page count %d", totalPages))
	}

	entryCount := totalPages - dirPages + 1
	if entryCount < 1 {
		return nil, errors.CorruptHeader(fmt.Sprintf(
			"counters give %d entries (totalPages=%d, dirPages=%d)",
			entryCount, totalPages, dirPages))
	}
	needDirPages := (entryCount + entriesPerDirectoryPage - 1) / entriesPerDirectoryPage
	if needDirPages != dirPages {
		return nil, errors.CorruptHeader(fmt.Sprintf(
			"%d entries need %d directory pages, header claims %d",
			entryCount, needDirPages, dirPages))
	}

	blocks := pf.BlockCount()
	if blocks < 1+dirPages || blocks > 1+dirPages+entryCount {
		return nil, errors.CorruptHeader(fmt.Sprintf(
			"file has %d blocks, expected between %d and %d",
			blocks, 1+dirPages, 1+dirPages+entryCount))
	}

	d := &pageDirectory{
		totalPages: totalPages,
		dirPages:   dirPages,
		entries:    make([]DirEntry, 0, entryCount),
	}
	for block := int32(0); block < dirPages; block++ {
		if err := pf.ReadBlock(1+block, buf); err != nil {
			return nil, err
		}
		start := block * entriesPerDirectoryPage
		end := start + entriesPerDirectoryPage
		if end > entryCount {
			end = entryCount
		}
		for j := start; j < end; j++ {
			e := decodeDirEntry(buf[dirHeaderSize+(j-start)*dirEntrySize:])
			if e.PageID != j {
				return nil, errors.CorruptHeader(fmt.Sprintf(
					"entry %d has page ID %d", j, e.PageID))
			}
			if e.RecordCount < 0 || e.FreeSpace < 0 || e.FreeSpace > PageSize {
				return nil, errors.CorruptHeader(fmt.Sprintf(
					"entry %d has recordCount %d, freeSpace %d",
					j, e.RecordCount, e.FreeSpace))
			}
			d.entries = append(d.entries, e)
		}
	}
	return d, nil
}

func encodeDirEntry(buf []byte, e DirEntry) {
	putInt32(buf[0:4], e.PageID)
	if e.HasFreeSlot {
		buf[4] = 1
	} else {
		buf[4] = 0
	}
	buf[5] = 0
	buf[6] = 0
	buf[7] = 0
	putInt32(buf[8:12], e.FreeSpace)
	putInt32(buf[12:16], e.RecordCount)
}

func decodeDirEntry(buf []byte) DirEntry {
	return DirEntry{
		PageID:      readInt32(buf[0:4]),
		HasFreeSlot: buf[4] != 0,
		FreeSpace:   readInt32(buf[8:12]),
		RecordCount: readInt32(buf[12:16]),
	}
}
