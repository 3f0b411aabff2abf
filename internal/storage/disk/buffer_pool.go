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
Buffer Pool Implementation
==========================

The buffer pool manages a fixed-size cache of file blocks in memory,
reducing expensive disk I/O by keeping recently used blocks in RAM.

Why Buffer Pools Matter:
========================

Disk I/O is orders of magnitude slower than memory access:
  - Memory access: ~100 nanoseconds
  - SSD random read: ~100 microseconds (1000x slower)
  - HDD random read: ~10 milliseconds (100,000x slower)

A well-sized buffer pool can absorb most block reads of a record
workload, so the file is touched only on cold reads and dirty
write-backs.

Architecture:
=============

	┌──────────────────────────────────────────────────────────────┐
	│                      Buffer Pool                             │
	│  ┌─────────────────────────────────────────────────────────┐ │
	│  │                    Page Table                           │ │
	│  │  block number → Frame mapping (hash map, O(1) lookup)   │ │
	│  └─────────────────────────────────────────────────────────┘ │
	│  ┌─────────────────────────────────────────────────────────┐ │
	│  │                    Frame Array                          │ │
	│  │  [Frame 0] [Frame 1] [Frame 2] ... [Frame K-1]          │ │
	│  │  Each frame holds one block + metadata (pins, dirty)    │ │
	│  └─────────────────────────────────────────────────────────┘ │
	└──────────────────────────────────────────────────────────────┘

Pin/Unpin Protocol:
===================

Blocks must be "pinned" before use and "unpinned" when done:

 1. Pin(pageNum): pins the block, returns its frame
 2. Use the frame's data (read/write)
 3. MarkDirty(frame) after modifying it
 4. Unpin(frame)

Pinned frames are never evicted, so a caller holding a pin can read and
write the frame memory safely. Unpinning a frame whose pin count is
already zero is an error rather than a silent no-op; it always indicates
a bookkeeping bug in the caller.

Eviction Policies:
==================

The pool supports four interchangeable replacement policies, selected at
construction:

  - FIFO: evict the frame loaded longest ago, regardless of use.
  - LRU: evict the frame used longest ago. Pinning and marking dirty
    both count as uses.
  - CLOCK: a circular hand sweeps the frame array; frames referenced
    since the last sweep get a second chance. Approximates LRU without
    per-use ordering costs.
  - LFU: evict the frame with the fewest pins, breaking ties toward the
    one loaded longest ago.

All policies consider only resident, unpinned frames. If every frame is
pinned, a faulting Pin fails with a no-free-frame error instead of
blocking. A dirty victim is written back before its frame is reused.

Recency and load order are tracked with a logical tick counter rather
than wall-clock time, so eviction order is deterministic and testable.

Thread Safety:
==============

All buffer pool operations are protected by a single mutex. This simple
approach works well for an embedded engine; production servers use
per-frame latches for higher concurrency.

References:
===========

  - "Database Internals" by Alex Petrov, Chapter 5: Buffer Management
  - "A Paging Experiment with the Multics System" by Corbató (1968),
    the origin of the CLOCK algorithm
  - PostgreSQL Documentation: Shared Buffer Cache
*/
package disk

import (
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"flyrec/internal/errors"
	"flyrec/internal/logging"
)

// Policy selects the buffer pool's page replacement algorithm.
type Policy int

const (
	PolicyFIFO Policy = iota
	PolicyLRU
	PolicyCLOCK
	PolicyLFU
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fifo":
		return PolicyFIFO, nil
	case "lru", "":
		return PolicyLRU, nil
	case "clock":
		return PolicyCLOCK, nil
	case "lfu":
		return PolicyLFU, nil
	default:
		return PolicyLRU, errors.InvalidConfig("buffer_policy",
			"must be one of fifo, lru, clock, lfu")
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyFIFO:
		return "FIFO"
	case PolicyLRU:
		return "LRU"
	case PolicyCLOCK:
		return "CLOCK"
	case PolicyLFU:
		return "LFU"
	default:
		return "UNKNOWN"
	}
}

// Frame is one slot of the buffer pool. A pinned frame's data may be
// read and written directly; call MarkDirty after writing so the block
// is flushed back.
type Frame struct {
	pageNum  int32
	data     []byte
	pinCount int
	dirty    bool
	resident bool

	// Replacement metadata, all driven by the pool's logical tick.
	loadSeq  int64 // tick when the block was loaded (FIFO, LFU ties)
	lastUsed int64 // tick of the last pin or dirty mark (LRU)
	useCount int64 // number of pins since load (LFU)
	refBit   bool  // referenced since the hand last passed (CLOCK)
}

// Data returns the frame's block memory. Valid only while the caller
// holds a pin.
func (f *Frame) Data() []byte {
	return f.data
}

// PageNum returns the block number the frame currently holds.
func (f *Frame) PageNum() int32 {
	return f.pageNum
}

// Stats is a snapshot of buffer pool counters.
type Stats struct {
	Capacity   int
	Resident   int
	Pinned     int
	Dirty      int
	Hits       int64
	Misses     int64
	Evictions  int64
	DiskReads  int64
	DiskWrites int64
	HitRate    float64
}

// BufferPool caches file blocks in a fixed set of frames.
type BufferPool struct {
	pf       *PageFile
	capacity int
	policy   Policy
	logger   *logging.Logger

	mu        sync.Mutex
	frames    []*Frame
	pageTable map[int32]*Frame
	tick      int64
	hand      int
	shut      bool

	hits       atomic.Int64
	misses     atomic.Int64
	evictions  atomic.Int64
	diskReads  atomic.Int64
	diskWrites atomic.Int64
}

// CalculateOptimalPoolSize picks a pool capacity from available memory:
// a quarter of what the runtime has obtained from the OS, bounded to
// [64, 262144] blocks (256KB to 1GB).
func CalculateOptimalPoolSize() int {
	const minPages = 64
	const maxPages = 262144

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	available := memStats.Sys
	if available == 0 {
		available = 1 << 30
	}
	pages := int(available / 4 / PageSize)
	if pages < minPages {
		pages = minPages
	}
	if pages > maxPages {
		pages = maxPages
	}
	return pages
}

// NewBufferPool creates a pool of capacity frames over the given page
// file. A capacity of 0 or less auto-sizes from available memory.
func NewBufferPool(pf *PageFile, capacity int, policy Policy) (*BufferPool, error) {
	if pf == nil {
		return nil, errors.NilArgument("page file")
	}
	if capacity <= 0 {
		capacity = CalculateOptimalPoolSize()
	}

	bp := &BufferPool{
		pf:        pf,
		capacity:  capacity,
		policy:    policy,
		logger:    logging.NewLogger("buffer"),
		frames:    make([]*Frame, capacity),
		pageTable: make(map[int32]*Frame, capacity),
	}
	for i := range bp.frames {
		bp.frames[i] = &Frame{data: make([]byte, PageSize)}
	}
	return bp, nil
}

// Capacity returns the number of frames in the pool.
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}

// Policy returns the pool's replacement policy.
func (bp *BufferPool) Policy() Policy {
	return bp.policy
}

// Pin makes the block resident and pins its frame. A pin past the end of
// the file extends the file with zeroed blocks first, so new pages can
// be materialized simply by pinning them.
func (bp *BufferPool) Pin(pageNum int32) (*Frame, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.shut {
		return nil, errors.PoolShutDown()
	}
	if pageNum < 0 {
		return nil, errors.InvalidPageNum(pageNum)
	}

	if frame, ok := bp.pageTable[pageNum]; ok {
		bp.hits.Add(1)
		frame.pinCount++
		frame.lastUsed = bp.tick
		frame.useCount++
		frame.refBit = true
		bp.tick++
		return frame, nil
	}

	bp.misses.Add(1)
	frame, err := bp.victimLocked()
	if err != nil {
		return nil, err
	}

	if err := bp.pf.EnsureCapacity(pageNum + 1); err != nil {
		return nil, err
	}
	if err := bp.pf.ReadBlock(pageNum, frame.data); err != nil {
		return nil, err
	}
	bp.diskReads.Add(1)

	frame.pageNum = pageNum
	frame.pinCount = 1
	frame.dirty = false
	frame.resident = true
	frame.loadSeq = bp.tick
	frame.lastUsed = bp.tick
	frame.useCount = 1
	frame.refBit = true
	bp.tick++
	bp.pageTable[pageNum] = frame
	return frame, nil
}

// victimLocked returns a frame ready to receive a new block, evicting a
// resident one if no frame is free. Dirty victims are written back.
func (bp *BufferPool) victimLocked() (*Frame, error) {
	for _, f := range bp.frames {
		if !f.resident {
			return f, nil
		}
	}

	var victim *Frame
	switch bp.policy {
	case PolicyCLOCK:
		victim = bp.clockVictimLocked()
	case PolicyFIFO:
		victim = bp.minVictimLocked(func(f *Frame) int64 { return f.loadSeq })
	case PolicyLFU:
		victim = bp.lfuVictimLocked()
	default:
		victim = bp.minVictimLocked(func(f *Frame) int64 { return f.lastUsed })
	}
	if victim == nil {
		return nil, errors.NoFreeFrame(bp.capacity)
	}

	if victim.dirty {
		if err := bp.pf.WriteBlock(victim.pageNum, victim.data); err != nil {
			return nil, err
		}
		bp.diskWrites.Add(1)
		victim.dirty = false
	}
	delete(bp.pageTable, victim.pageNum)
	victim.resident = false
	bp.evictions.Add(1)

	bp.logger.Debug("Evicted page",
		"page", victim.pageNum,
		"policy", bp.policy.String())
	return victim, nil
}

// minVictimLocked picks the unpinned resident frame minimizing the given
// metric. Shared by FIFO (load order) and LRU (use order).
func (bp *BufferPool) minVictimLocked(metric func(*Frame) int64) *Frame {
	var victim *Frame
	var best int64
	for _, f := range bp.frames {
		if !f.resident || f.pinCount > 0 {
			continue
		}
		m := metric(f)
		if victim == nil || m < best {
			victim = f
			best = m
		}
	}
	return victim
}

// lfuVictimLocked picks the unpinned frame with the fewest pins,
// breaking ties toward the earliest load.
func (bp *BufferPool) lfuVictimLocked() *Frame {
	var victim *Frame
	for _, f := range bp.frames {
		if !f.resident || f.pinCount > 0 {
			continue
		}
		if victim == nil ||
			f.useCount < victim.useCount ||
			(f.useCount == victim.useCount && f.loadSeq < victim.loadSeq) {
			victim = f
		}
	}
	return victim
}

// clockVictimLocked advances the clock hand across the frame array.
// Referenced frames lose their bit and get a second chance; the first
// unreferenced, unpinned frame is the victim. Two full sweeps visit
// every candidate twice, so finding none means all frames are pinned.
func (bp *BufferPool) clockVictimLocked() *Frame {
	for i := 0; i < 2*bp.capacity; i++ {
		f := bp.frames[bp.hand]
		bp.hand = (bp.hand + 1) % bp.capacity
		if !f.resident || f.pinCount > 0 {
			continue
		}
		if f.refBit {
			f.refBit = false
			continue
		}
		return f
	}
	return nil
}

// Unpin releases one pin on the frame. Unpinning a frame that is not
// pinned is an error.
func (bp *BufferPool) Unpin(f *Frame) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.shut {
		return errors.PoolShutDown()
	}
	if f == nil {
		return errors.NilArgument("frame")
	}
	if f.pinCount == 0 {
		return errors.UnpinnedFrame(f.pageNum)
	}
	f.pinCount--
	return nil
}

// MarkDirty flags the frame's block for write-back and counts as a
// recency touch. Safe to call repeatedly.
func (bp *BufferPool) MarkDirty(f *Frame) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.shut {
		return errors.PoolShutDown()
	}
	if f == nil {
		return errors.NilArgument("frame")
	}
	f.dirty = true
	f.lastUsed = bp.tick
	f.refBit = true
	bp.tick++
	return nil
}

// ForcePage writes the frame's block to disk immediately, regardless of
// its pin count, and clears the dirty flag.
func (bp *BufferPool) ForcePage(f *Frame) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.shut {
		return errors.PoolShutDown()
	}
	if f == nil {
		return errors.NilArgument("frame")
	}
	if err := bp.pf.WriteBlock(f.pageNum, f.data); err != nil {
		return err
	}
	bp.diskWrites.Add(1)
	f.dirty = false
	return nil
}

// FlushAll writes back every dirty frame whose pin count is zero.
// Pinned dirty frames are left alone; their holders flush them on unpin
// paths or at shutdown.
func (bp *BufferPool) FlushAll() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.shut {
		return errors.PoolShutDown()
	}
	return bp.flushAllLocked()
}

func (bp *BufferPool) flushAllLocked() error {
	for _, f := range bp.frames {
		if !f.resident || !f.dirty || f.pinCount > 0 {
			continue
		}
		if err := bp.pf.WriteBlock(f.pageNum, f.data); err != nil {
			return err
		}
		bp.diskWrites.Add(1)
		f.dirty = false
	}
	return nil
}

// Reset flushes every dirty frame and drops all residency, leaving the
// pool empty but usable. It fails if any frame is pinned. Used when the
// file's block layout is about to shift and cached block numbers would
// go stale.
func (bp *BufferPool) Reset() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.shut {
		return errors.PoolShutDown()
	}
	if n := bp.pinnedLocked(); n > 0 {
		return errors.PinnedFrames(n)
	}
	if err := bp.flushAllLocked(); err != nil {
		return err
	}
	for _, f := range bp.frames {
		f.resident = false
	}
	bp.pageTable = make(map[int32]*Frame, bp.capacity)
	return nil
}

// Shutdown flushes all unpinned dirty frames and releases the pool. If
// any frame is still pinned the pool is left fully usable and an error
// reporting the pin count is returned. A second Shutdown is a no-op.
func (bp *BufferPool) Shutdown() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.shut {
		return nil
	}
	if err := bp.flushAllLocked(); err != nil {
		return err
	}
	if n := bp.pinnedLocked(); n > 0 {
		return errors.PinnedFrames(n)
	}

	bp.frames = nil
	bp.pageTable = nil
	bp.shut = true
	return nil
}

func (bp *BufferPool) pinnedLocked() int {
	n := 0
	for _, f := range bp.frames {
		if f.resident && f.pinCount > 0 {
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the pool's counters.
func (bp *BufferPool) Stats() Stats {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	stats := Stats{
		Capacity:   bp.capacity,
		Hits:       bp.hits.Load(),
		Misses:     bp.misses.Load(),
		Evictions:  bp.evictions.Load(),
		DiskReads:  bp.diskReads.Load(),
		DiskWrites: bp.diskWrites.Load(),
	}
	for _, f := range bp.frames {
		if !f.resident {
			continue
		}
		stats.Resident++
		if f.pinCount > 0 {
			stats.Pinned++
		}
		if f.dirty {
			stats.Dirty++
		}
	}
	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}
