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
	"flyrec/internal/errors"
	"flyrec/internal/storage"
)

// Predicate filters records during a scan. It is satisfied by
// expr.Predicate; the indirection keeps this package independent of the
// expression engine.
type Predicate interface {
	Matches(rec *storage.Record, schema *storage.Schema) (bool, error)
}

// Scan states. A scan starts initialized, moves in-page once it has
// returned or skipped something, and parks at exhausted when the table
// runs out; exhaustion is sticky.
const (
	scanInitialized = iota
	scanInPage
	scanExhausted
)

// Scan is a cursor over a table's live records in (page, slot) order.
// Each Next call pins at most one page at a time and holds no pins
// between calls, so an abandoned scan never blocks table shutdown.
//
// Typical use:
//
//	scan, err := table.OpenScan(pred)
//	if err != nil { ... }
//	defer scan.Close()
//	for {
//	    rec, err := scan.Next()
//	    if errors.IsNoMoreRecords(err) {
//	        break
//	    }
//	    if err != nil { ... }
//	    // use rec
//	}
type Scan struct {
	table  *Table
	pred   Predicate
	page   int32
	slot   int32
	state  int
	closed bool
}

// Next returns the next record matching the predicate, or
// ErrNoMoreRecords once the table is exhausted. After exhaustion every
// further call returns ErrNoMoreRecords again.
func (s *Scan) Next() (*storage.Record, error) {
	if s.closed {
		return nil, errors.ScanClosed()
	}
	if s.state == scanExhausted {
		return nil, errors.ErrNoMoreRecords
	}

	s.table.mu.RLock()
	defer s.table.mu.RUnlock()

	if s.table.closed {
		return nil, errors.NewResourceError("table is closed")
	}

	for s.page < int32(len(s.table.dir.entries)) {
		entry := s.table.dir.entries[s.page]
		if entry.RecordCount == 0 || s.slot >= entry.RecordCount {
			s.page++
			s.slot = 0
			continue
		}

		frame, err := s.table.pool.Pin(s.table.dir.dataBlock(s.page))
		if err != nil {
			return nil, err
		}
		page := DataPage(frame.Data())

		for ; s.slot < entry.RecordCount; s.slot++ {
			se := page.Slot(s.slot)
			if se.IsFree {
				continue
			}

			rec := &storage.Record{
				ID:   storage.RID{Page: s.page, Slot: s.slot},
				Data: page.ReadPayload(se.Offset, s.table.recordSize),
			}
			if s.pred != nil {
				ok, err := s.pred.Matches(rec, s.table.schema)
				if err != nil {
					s.table.unpinDiscard(frame)
					return nil, err
				}
				if !ok {
					continue
				}
			}

			s.slot++
			s.state = scanInPage
			if err := s.table.pool.Unpin(frame); err != nil {
				return nil, err
			}
			return rec, nil
		}

		if err := s.table.pool.Unpin(frame); err != nil {
			return nil, err
		}
		s.page++
		s.slot = 0
	}

	s.state = scanExhausted
	return nil, errors.ErrNoMoreRecords
}

// Close ends the scan. Closing twice is a no-op; only Next on a closed
// scan is an error.
func (s *Scan) Close() error {
	s.closed = true
	return nil
}
