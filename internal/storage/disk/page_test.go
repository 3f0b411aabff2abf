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
	"encoding/binary"
	"testing"
)

func TestSlotEntryRoundTrip(t *testing.T) {
	page := make(DataPage, PageSize)

	entries := []SlotEntry{
		{Offset: PageSize - 18, IsFree: false},
		{Offset: PageSize - 36, IsFree: true},
		{Offset: 0, IsFree: false},
	}
	for i, e := range entries {
		page.SetSlot(int32(i), e)
	}
	for i, want := range entries {
		got := page.Slot(int32(i))
		if got != want {
			t.Errorf("Slot %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestSlotEntryLayout(t *testing.T) {
	page := make(DataPage, PageSize)
	page.SetSlot(1, SlotEntry{Offset: 4060, IsFree: true})

	base := int32(1) * SlotEntrySize
	if got := int32(binary.LittleEndian.Uint32(page[base : base+4])); got != 4060 {
		t.Errorf("Expected offset 4060 at byte %d, got %d", base, got)
	}
	if page[base+4] != 1 {
		t.Errorf("Expected free flag 1 at byte %d, got %d", base+4, page[base+4])
	}
	for i := base + 5; i < base+SlotEntrySize; i++ {
		if page[i] != 0 {
			t.Errorf("Expected zero padding at byte %d, got %d", i, page[i])
		}
	}

	// Clearing the flag writes a zero byte back
	page.SetSlot(1, SlotEntry{Offset: 4060, IsFree: false})
	if page[base+4] != 0 {
		t.Errorf("Expected free flag 0 after reoccupation, got %d", page[base+4])
	}
}

func TestFindFreeSlot(t *testing.T) {
	page := make(DataPage, PageSize)

	// No slots allocated yet
	if _, ok := page.FindFreeSlot(0); ok {
		t.Error("Expected no free slot on a page with no slots")
	}

	page.SetSlot(0, SlotEntry{Offset: 4078})
	page.SetSlot(1, SlotEntry{Offset: 4060})
	page.SetSlot(2, SlotEntry{Offset: 4042})
	if _, ok := page.FindFreeSlot(3); ok {
		t.Error("Expected no free slot while every slot is occupied")
	}

	// A delete reopens its slot
	page.SetSlot(1, SlotEntry{Offset: 4060, IsFree: true})
	slot, ok := page.FindFreeSlot(3)
	if !ok {
		t.Fatal("Expected a free slot after a delete")
	}
	if slot != 1 {
		t.Errorf("Expected slot 1, got %d", slot)
	}

	// The lowest-numbered free slot wins
	page.SetSlot(0, SlotEntry{Offset: 4078, IsFree: true})
	slot, _ = page.FindFreeSlot(3)
	if slot != 0 {
		t.Errorf("Expected slot 0, got %d", slot)
	}
}

func TestCountLive(t *testing.T) {
	page := make(DataPage, PageSize)

	if got := page.CountLive(0); got != 0 {
		t.Errorf("Expected 0 live records, got %d", got)
	}

	page.SetSlot(0, SlotEntry{Offset: 4078})
	page.SetSlot(1, SlotEntry{Offset: 4060, IsFree: true})
	page.SetSlot(2, SlotEntry{Offset: 4042})
	if got := page.CountLive(3); got != 2 {
		t.Errorf("Expected 2 live records, got %d", got)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	page := make(DataPage, PageSize)

	payload := []byte("hello, page")
	offset := NewSlotOffset(0, int32(len(payload)))
	page.WritePayload(offset, payload)

	got := page.ReadPayload(offset, int32(len(payload)))
	if !bytes.Equal(got, payload) {
		t.Errorf("Expected %q, got %q", payload, got)
	}

	// ReadPayload copies; mutating the result must not touch the page
	got[0] = 'X'
	again := page.ReadPayload(offset, int32(len(payload)))
	if again[0] != 'h' {
		t.Error("Expected ReadPayload to copy out of the page")
	}
}

func TestTombstone(t *testing.T) {
	page := make(DataPage, PageSize)
	offset := NewSlotOffset(0, 16)
	page.WritePayload(offset, bytes.Repeat([]byte{0xAA}, 16))

	page.Tombstone(offset)
	if page[offset] != TombstoneByte {
		t.Errorf("Expected tombstone byte %#x, got %#x", TombstoneByte, page[offset])
	}
	if page[offset+1] != 0xAA {
		t.Error("Expected tombstone to touch only the first payload byte")
	}
}

func TestNewSlotOffset(t *testing.T) {
	tests := []struct {
		recordCount int32
		recordSize  int32
		want        int32
	}{
		{0, 100, PageSize - 100},
		{1, 100, PageSize - 200},
		{9, 100, PageSize - 1000},
		{0, 18, PageSize - 18},
		{2, 18, PageSize - 54},
	}
	for _, tt := range tests {
		got := NewSlotOffset(tt.recordCount, tt.recordSize)
		if got != tt.want {
			t.Errorf("NewSlotOffset(%d, %d): expected %d, got %d",
				tt.recordCount, tt.recordSize, tt.want, got)
		}
	}
}

func TestMaxRecordsPerPage(t *testing.T) {
	tests := []struct {
		recordSize int32
		want       int32
	}{
		{18, 157},
		{100, 37},
		{2040, 2},
		{PageSize - SlotEntrySize, 1},
	}
	for _, tt := range tests {
		got := MaxRecordsPerPage(tt.recordSize)
		if got != tt.want {
			t.Errorf("MaxRecordsPerPage(%d): expected %d, got %d",
				tt.recordSize, tt.want, got)
		}
	}
}

// Slot entries and payloads grow toward each other; the last record a
// page can hold must not let them collide.
func TestSlotAndPayloadRegionsNeverOverlap(t *testing.T) {
	for _, recordSize := range []int32{1, 18, 100, 1000, 2040} {
		max := MaxRecordsPerPage(recordSize)
		slotEnd := max * SlotEntrySize
		payloadStart := NewSlotOffset(max-1, recordSize)
		if slotEnd > payloadStart {
			t.Errorf("Record size %d: %d slots end at %d, payloads start at %d",
				recordSize, max, slotEnd, payloadStart)
		}
	}
}
