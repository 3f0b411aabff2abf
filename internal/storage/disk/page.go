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
Package disk implements FlyRec's paged table storage: a block file, a
buffer pool that caches blocks in memory, a page directory that tracks
free space, and slotted data pages holding fixed-width records.

Page-Based Storage Overview:
============================

A table is a single file divided into fixed-size blocks of 4KB. Block 0
holds the serialized schema, the next blocks hold the page directory, and
every block after that is a data page. All I/O happens in whole blocks,
so the buffer pool can cache them and the operating system sees aligned,
predictable reads and writes.

File layout for a table with D directory blocks:

	┌──────────┬──────────────┬─────────────┬─────────────┬─────
	│ Block 0  │ Blocks 1..D  │ Block D+1   │ Block D+2   │ ...
	│ schema   │ directory    │ data page 0 │ data page 1 │
	└──────────┴──────────────┴─────────────┴─────────────┴─────

Logical data page p therefore lives in raw block p + D + 1. The directory
records that mapping constant (its own block count), so it survives the
directory growing.

Slotted Page Architecture:
==========================

Data pages use a slotted layout. Slot entries grow forward from the start
of the page; record payloads are packed backward from the end. Free space
sits in the middle until slots and payloads meet.

	┌─────────────────────────────────────────────────────────────┐
	│ Slot 0 │ Slot 1 │ ... │ Slot N-1 │                          │
	├────────┴────────┴─────┴──────────┘                          │
	│                        Free Space                           │
	│                           ┌─────────────────────────────────┤
	│                           │ Payload N-1 │ ... │ Payload 0   │
	└───────────────────────────┴─────────────────────────────────┘

Slot entry layout (8 bytes each, little-endian):

	Offset  Size  Field
	0       4     Payload offset within the page (int32)
	4       1     Free flag (0 = occupied, 1 = free)
	5       3     Padding (zero)

All records in a table have the same width, so slot i's payload starts at
PageSize - (i+1) * recordSize. The offset is still stored in the slot
entry and is immutable for the life of the slot: when a deleted slot is
reused the new record goes back to the stored offset, never to a
recomputed one. Slot numbers are equally stable, which keeps record IDs
(page, slot) valid across unrelated inserts and deletes.

Deleting a record flips the slot's free flag and stamps a tombstone byte
over the first payload byte. The tombstone is diagnostic: readers decide
liveness from the slot flag alone, but a stray tombstone in a supposedly
live payload is a corruption tell for the dump tool.

References:
===========

  - "Database Internals" by Alex Petrov, Chapter 3: File Formats
  - PostgreSQL Documentation: Database Page Layout
*/
package disk

import "encoding/binary"

// Block and slot geometry. These constants define the on-disk format and
// cannot change without a file format version bump.
const (
	// PageSize is the size of every block in the file, in bytes.
	PageSize = 4096

	// SlotEntrySize is the size of one slot directory entry in bytes.
	SlotEntrySize = 8

	// TombstoneByte is stamped over the first payload byte of a deleted
	// record.
	TombstoneByte = 0xFD
)

// SlotEntry is the decoded form of one slot directory entry.
type SlotEntry struct {
	Offset int32 // payload offset within the page, fixed at slot creation
	IsFree bool  // true once the record has been deleted
}

// DataPage is a 4KB block interpreted as a slotted data page. It is a
// view over buffer pool frame memory, not a copy: writes through its
// methods mutate the cached block and must be followed by marking the
// frame dirty.
type DataPage []byte

// Slot decodes slot entry i. The caller is responsible for keeping i
// within the page's allocated slot range.
func (p DataPage) Slot(i int32) SlotEntry {
	base := i * SlotEntrySize
	return SlotEntry{
		Offset: readInt32(p[base : base+4]),
		IsFree: p[base+4] != 0,
	}
}

// SetSlot encodes e into slot entry i.
func (p DataPage) SetSlot(i int32, e SlotEntry) {
	base := i * SlotEntrySize
	putInt32(p[base:base+4], e.Offset)
	if e.IsFree {
		p[base+4] = 1
	} else {
		p[base+4] = 0
	}
	p[base+5] = 0
	p[base+6] = 0
	p[base+7] = 0
}

// FindFreeSlot returns the lowest-numbered free slot among the first
// recordCount slots, or false if every one is occupied.
func (p DataPage) FindFreeSlot(recordCount int32) (int32, bool) {
	for i := int32(0); i < recordCount; i++ {
		if p.Slot(i).IsFree {
			return i, true
		}
	}
	return 0, false
}

// CountLive returns how many of the first recordCount slots hold a
// record.
func (p DataPage) CountLive(recordCount int32) int32 {
	var live int32
	for i := int32(0); i < recordCount; i++ {
		if !p.Slot(i).IsFree {
			live++
		}
	}
	return live
}

// ReadPayload copies size bytes starting at offset out of the page.
func (p DataPage) ReadPayload(offset, size int32) []byte {
	out := make([]byte, size)
	copy(out, p[offset:offset+size])
	return out
}

// WritePayload copies src into the page starting at offset.
func (p DataPage) WritePayload(offset int32, src []byte) {
	copy(p[offset:], src)
}

// Tombstone stamps the deletion marker over the first payload byte.
func (p DataPage) Tombstone(offset int32) {
	p[offset] = TombstoneByte
}

// NewSlotOffset returns the payload offset for a page's next fresh slot,
// given how many slots the page has already allocated. Payloads pack
// backward from the end of the page.
func NewSlotOffset(recordCount, recordSize int32) int32 {
	return PageSize - (recordCount+1)*recordSize
}

// MaxRecordsPerPage returns how many records of the given width fit on
// one page, counting both the slot entry and the payload.
func MaxRecordsPerPage(recordSize int32) int32 {
	return PageSize / (recordSize + SlotEntrySize)
}

// readInt32 decodes a little-endian int32. All multi-byte fields in the
// file format are little-endian.
func readInt32(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

// putInt32 encodes a little-endian int32.
func putInt32(b []byte, v int32) {
	binary.LittleEndian.PutUint32(b, uint32(v))
}
