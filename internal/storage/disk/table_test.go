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
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"flyrec/internal/errors"
	"flyrec/internal/expr"
	"flyrec/internal/storage"
)

func peopleSchema(t *testing.T) *storage.Schema {
	t.Helper()
	schema, err := storage.NewSchema(
		[]string{"id", "name", "age"},
		[]storage.DataType{storage.TypeInt, storage.TypeString, storage.TypeInt},
		[]int32{0, 10, 0},
		[]int{0},
	)
	if err != nil {
		t.Fatalf("Failed to build schema: %v", err)
	}
	return schema
}

func setupTable(t *testing.T) (*Table, string, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "flyrec_table_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	path := filepath.Join(tmpDir, "people.tbl")
	if err := CreateTable(path, peopleSchema(t)); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create table: %v", err)
	}
	tbl, err := OpenTable(path, &Options{PoolSize: 8, Policy: PolicyLRU})
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to open table: %v", err)
	}

	cleanup := func() {
		tbl.Close()
		os.RemoveAll(tmpDir)
	}
	return tbl, path, cleanup
}

func insertPerson(t *testing.T, tbl *Table, id int32, name string, age int32) storage.RID {
	t.Helper()

	rec, err := tbl.NewRecord()
	if err != nil {
		t.Fatalf("Failed to allocate record: %v", err)
	}
	schema := tbl.Schema()
	if err := rec.SetValue(schema, 0, storage.IntValue(id)); err != nil {
		t.Fatalf("Failed to set id: %v", err)
	}
	if err := rec.SetValue(schema, 1, storage.StringValue(name)); err != nil {
		t.Fatalf("Failed to set name: %v", err)
	}
	if err := rec.SetValue(schema, 2, storage.IntValue(age)); err != nil {
		t.Fatalf("Failed to set age: %v", err)
	}
	if err := tbl.Insert(rec); err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}
	return rec.ID
}

func personID(t *testing.T, tbl *Table, rec *storage.Record) int32 {
	t.Helper()
	v, err := rec.Value(tbl.Schema(), 0)
	if err != nil {
		t.Fatalf("Failed to read id: %v", err)
	}
	return v.Int
}

func personName(t *testing.T, tbl *Table, rec *storage.Record) string {
	t.Helper()
	v, err := rec.Value(tbl.Schema(), 1)
	if err != nil {
		t.Fatalf("Failed to read name: %v", err)
	}
	return v.Str
}

func scanIDs(t *testing.T, tbl *Table, pred Predicate) []int32 {
	t.Helper()

	scan, err := tbl.OpenScan(pred)
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer scan.Close()

	var ids []int32
	for {
		rec, err := scan.Next()
		if err != nil {
			if errors.IsNoMoreRecords(err) {
				return ids
			}
			t.Fatalf("Scan failed: %v", err)
		}
		ids = append(ids, personID(t, tbl, rec))
	}
}

func TestCreateTable(t *testing.T) {
	_, path, cleanup := setupTable(t)
	defer cleanup()

	// Schema block plus one directory block
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat table file: %v", err)
	}
	if info.Size() != 2*PageSize {
		t.Errorf("Expected fresh table file of %d bytes, got %d", 2*PageSize, info.Size())
	}

	err = CreateTable(path, peopleSchema(t))
	if err == nil {
		t.Fatal("Expected error creating over an existing table, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeFileExists {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeFileExists, errors.GetCode(err))
	}
}

func TestCreateTableValidation(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "flyrec_table_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	err = CreateTable(filepath.Join(tmpDir, "nil.tbl"), nil)
	if err == nil {
		t.Error("Expected error for nil schema, got nil")
	}

	// A record too wide for one page is rejected up front
	wide, err := storage.NewSchema(
		[]string{"blob"},
		[]storage.DataType{storage.TypeString},
		[]int32{PageSize},
		nil,
	)
	if err != nil {
		t.Fatalf("Failed to build schema: %v", err)
	}
	err = CreateTable(filepath.Join(tmpDir, "wide.tbl"), wide)
	if err == nil {
		t.Fatal("Expected error for oversized record, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidSchema {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeInvalidSchema, errors.GetCode(err))
	}
}

func TestOpenTableMissing(t *testing.T) {
	_, err := OpenTable("/nonexistent/flyrec/people.tbl", nil)
	if err == nil {
		t.Fatal("Expected error opening missing table, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeTableNotFound {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeTableNotFound, errors.GetCode(err))
	}
}

func TestOpenTableDefaultOptions(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()
	path := tbl.Path()
	if err := tbl.Close(); err != nil {
		t.Fatalf("Failed to close table: %v", err)
	}

	reopened, err := OpenTable(path, nil)
	if err != nil {
		t.Fatalf("Failed to open table with default options: %v", err)
	}
	defer reopened.Close()

	insertPerson(t, reopened, 1, "alice", 30)
	if got := reopened.Count(); got != 1 {
		t.Errorf("Expected 1 record, got %d", got)
	}
}

func TestInsertAssignsSequentialRIDs(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	for slot := int32(0); slot < 3; slot++ {
		rid := insertPerson(t, tbl, slot+1, "person", 20+slot)
		want := storage.RID{Page: 0, Slot: slot}
		if rid != want {
			t.Errorf("Expected RID %v, got %v", want, rid)
		}
	}
	if got := tbl.Count(); got != 3 {
		t.Errorf("Expected 3 records, got %d", got)
	}
}

func TestInsertGetRoundTrip(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	rid := insertPerson(t, tbl, 7, "carol", 41)

	rec, err := tbl.Get(rid)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if rec.ID != rid {
		t.Errorf("Expected RID %v, got %v", rid, rec.ID)
	}
	if got := personID(t, tbl, rec); got != 7 {
		t.Errorf("Expected id 7, got %d", got)
	}
	if got := personName(t, tbl, rec); got != "carol" {
		t.Errorf("Expected name carol, got %q", got)
	}
	age, err := rec.Value(tbl.Schema(), 2)
	if err != nil {
		t.Fatalf("Failed to read age: %v", err)
	}
	if age.Int != 41 {
		t.Errorf("Expected age 41, got %d", age.Int)
	}
}

func TestInsertValidation(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	if err := tbl.Insert(nil); err == nil {
		t.Error("Expected error inserting nil record, got nil")
	}

	short := &storage.Record{Data: make([]byte, 5)}
	err := tbl.Insert(short)
	if err == nil {
		t.Fatal("Expected error inserting wrong-sized payload, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeInvalidInput, errors.GetCode(err))
	}
}

func TestGetErrors(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)

	tests := []struct {
		name string
		rid  storage.RID
		code errors.ErrorCode
	}{
		{"negative page", storage.RID{Page: -1, Slot: 0}, errors.ErrCodeInvalidRID},
		{"page out of range", storage.RID{Page: 5, Slot: 0}, errors.ErrCodeInvalidRID},
		{"negative slot", storage.RID{Page: 0, Slot: -1}, errors.ErrCodeInvalidRID},
		{"slot past record count", storage.RID{Page: 0, Slot: 99}, errors.ErrCodeRecordNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tbl.Get(tt.rid)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if errors.GetCode(err) != tt.code {
				t.Errorf("Expected code %d, got %d", tt.code, errors.GetCode(err))
			}
		})
	}
}

func TestDeleteRecord(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)
	rid := insertPerson(t, tbl, 2, "bob", 25)

	if err := tbl.Delete(rid); err != nil {
		t.Fatalf("Failed to delete record: %v", err)
	}
	if got := tbl.Count(); got != 1 {
		t.Errorf("Expected 1 record after delete, got %d", got)
	}

	_, err := tbl.Get(rid)
	if err == nil {
		t.Fatal("Expected error reading a deleted record, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeRecordNotFound {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeRecordNotFound, errors.GetCode(err))
	}

	// Deleting the same RID twice fails the same way
	err = tbl.Delete(rid)
	if err == nil {
		t.Fatal("Expected error deleting twice, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeRecordNotFound {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeRecordNotFound, errors.GetCode(err))
	}
}

// A freed slot is reclaimed by the next insert, and the payload offset
// assigned when the slot was first created survives the reuse.
func TestDeleteFreesSlotForReuse(t *testing.T) {
	tbl, path, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)
	bobRID := insertPerson(t, tbl, 2, "bob", 25)
	insertPerson(t, tbl, 3, "carol", 41)

	if err := tbl.Delete(bobRID); err != nil {
		t.Fatalf("Failed to delete record: %v", err)
	}

	daveRID := insertPerson(t, tbl, 4, "dave", 19)
	if daveRID != bobRID {
		t.Errorf("Expected freed slot %v reused, got %v", bobRID, daveRID)
	}
	if got := tbl.Count(); got != 3 {
		t.Errorf("Expected 3 records, got %d", got)
	}

	rec, err := tbl.Get(daveRID)
	if err != nil {
		t.Fatalf("Failed to get reused slot: %v", err)
	}
	if got := personName(t, tbl, rec); got != "dave" {
		t.Errorf("Expected dave in the reused slot, got %q", got)
	}

	// Scan order follows slot order, so dave sits between alice and carol
	if got := scanIDs(t, tbl, nil); len(got) != 3 ||
		got[0] != 1 || got[1] != 4 || got[2] != 3 {
		t.Errorf("Expected scan order [1 4 3], got %v", got)
	}

	recordSize := tbl.RecordSize()
	if err := tbl.Close(); err != nil {
		t.Fatalf("Failed to close table: %v", err)
	}

	// On disk, slot 1 must still point at its original payload offset
	pf, err := OpenPageFile(path)
	if err != nil {
		t.Fatalf("Failed to open page file: %v", err)
	}
	defer pf.Close()

	page := make(DataPage, PageSize)
	if err := pf.ReadBlock(2, page); err != nil {
		t.Fatalf("Failed to read first data block: %v", err)
	}
	slot := page.Slot(1)
	if slot.IsFree {
		t.Error("Expected reused slot to be live on disk")
	}
	if want := NewSlotOffset(1, recordSize); slot.Offset != want {
		t.Errorf("Expected reused slot to keep offset %d, got %d", want, slot.Offset)
	}
}

func TestScanWithPredicate(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)
	bobRID := insertPerson(t, tbl, 2, "bob", 25)
	insertPerson(t, tbl, 3, "carol", 41)
	if err := tbl.Delete(bobRID); err != nil {
		t.Fatalf("Failed to delete record: %v", err)
	}
	insertPerson(t, tbl, 4, "dave", 19)

	pred := expr.NewPredicate(expr.Gt(expr.AttrNamed("id"), expr.Int(1)))
	if got := scanIDs(t, tbl, pred); len(got) != 2 || got[0] != 4 || got[1] != 3 {
		t.Errorf("Expected ids [4 3] for id > 1, got %v", got)
	}

	pred = expr.NewPredicate(expr.Eq(expr.AttrNamed("name"), expr.Str("carol")))
	if got := scanIDs(t, tbl, pred); len(got) != 1 || got[0] != 3 {
		t.Errorf("Expected ids [3] for name = carol, got %v", got)
	}

	pred = expr.NewPredicate(expr.And(
		expr.Ge(expr.AttrNamed("age"), expr.Int(19)),
		expr.Not(expr.Eq(expr.AttrNamed("name"), expr.Str("alice"))),
	))
	if got := scanIDs(t, tbl, pred); len(got) != 2 || got[0] != 4 || got[1] != 3 {
		t.Errorf("Expected ids [4 3], got %v", got)
	}
}

func TestUpdateInPlace(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	rid := insertPerson(t, tbl, 1, "alice", 30)
	insertPerson(t, tbl, 2, "bob", 25)

	rec, err := tbl.Get(rid)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if err := rec.SetValue(tbl.Schema(), 2, storage.IntValue(31)); err != nil {
		t.Fatalf("Failed to set age: %v", err)
	}
	if err := tbl.Update(rec); err != nil {
		t.Fatalf("Failed to update record: %v", err)
	}
	if rec.ID != rid {
		t.Errorf("Expected in-place update to keep RID %v, got %v", rid, rec.ID)
	}

	got, err := tbl.Get(rid)
	if err != nil {
		t.Fatalf("Failed to get updated record: %v", err)
	}
	age, err := got.Value(tbl.Schema(), 2)
	if err != nil {
		t.Fatalf("Failed to read age: %v", err)
	}
	if age.Int != 31 {
		t.Errorf("Expected age 31, got %d", age.Int)
	}
	if got := tbl.Count(); got != 2 {
		t.Errorf("Expected count unchanged at 2, got %d", got)
	}
}

func TestUpdateErrors(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	rid := insertPerson(t, tbl, 1, "alice", 30)

	if err := tbl.Update(nil); err == nil {
		t.Error("Expected error updating nil record, got nil")
	}

	short := &storage.Record{ID: rid, Data: make([]byte, 5)}
	if err := tbl.Update(short); err == nil {
		t.Error("Expected error updating with wrong-sized payload, got nil")
	}

	rec, err := tbl.Get(rid)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	rec.ID = storage.RID{Page: 0, Slot: 42}
	err = tbl.Update(rec)
	if err == nil {
		t.Fatal("Expected error updating a dead RID, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeRecordNotFound {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeRecordNotFound, errors.GetCode(err))
	}
}

func TestMultiPageTable(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "flyrec_table_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// 1994-byte records: exactly two fit on each page
	schema, err := storage.NewSchema(
		[]string{"id", "blob"},
		[]storage.DataType{storage.TypeInt, storage.TypeString},
		[]int32{0, 1990},
		nil,
	)
	if err != nil {
		t.Fatalf("Failed to build schema: %v", err)
	}
	path := filepath.Join(tmpDir, "big.tbl")
	if err := CreateTable(path, schema); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	tbl, err := OpenTable(path, &Options{PoolSize: 4, Policy: PolicyLRU})
	if err != nil {
		t.Fatalf("Failed to open table: %v", err)
	}
	defer tbl.Close()

	wantRIDs := []storage.RID{
		{Page: 0, Slot: 0}, {Page: 0, Slot: 1},
		{Page: 1, Slot: 0}, {Page: 1, Slot: 1},
		{Page: 2, Slot: 0}, {Page: 2, Slot: 1},
		{Page: 3, Slot: 0},
	}
	for i, want := range wantRIDs {
		rec, err := storage.NewRecord(schema)
		if err != nil {
			t.Fatalf("Failed to allocate record: %v", err)
		}
		if err := rec.SetValue(schema, 0, storage.IntValue(int32(i))); err != nil {
			t.Fatalf("Failed to set id: %v", err)
		}
		if err := tbl.Insert(rec); err != nil {
			t.Fatalf("Failed to insert record %d: %v", i, err)
		}
		if rec.ID != want {
			t.Errorf("Insert %d: expected RID %v, got %v", i, want, rec.ID)
		}
	}

	info := tbl.Info()
	if info.TotalPages != 4 {
		t.Errorf("Expected 4 data pages, got %d", info.TotalPages)
	}
	if info.DirPages != 1 {
		t.Errorf("Expected 1 directory page, got %d", info.DirPages)
	}

	// Deletes on interior pages do not disturb scan order
	if err := tbl.Delete(storage.RID{Page: 1, Slot: 1}); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if err := tbl.Delete(storage.RID{Page: 2, Slot: 0}); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	scan, err := tbl.OpenScan(nil)
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer scan.Close()

	var got []int32
	for {
		rec, err := scan.Next()
		if err != nil {
			if errors.IsNoMoreRecords(err) {
				break
			}
			t.Fatalf("Scan failed: %v", err)
		}
		v, err := rec.Value(schema, 0)
		if err != nil {
			t.Fatalf("Failed to read id: %v", err)
		}
		got = append(got, v.Int)
	}
	want := []int32{0, 1, 2, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected id %d, got %d", i, want[i], got[i])
		}
	}
}

// Filling the first directory block forces the directory to claim
// another raw block, relocating every data page behind it.
func TestDirectoryGrowthOnInsert(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "flyrec_table_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// One 4004-byte record per page: page count equals record count
	schema, err := storage.NewSchema(
		[]string{"id", "blob"},
		[]storage.DataType{storage.TypeInt, storage.TypeString},
		[]int32{0, 4000},
		nil,
	)
	if err != nil {
		t.Fatalf("Failed to build schema: %v", err)
	}
	path := filepath.Join(tmpDir, "grow.tbl")
	if err := CreateTable(path, schema); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	tbl, err := OpenTable(path, &Options{PoolSize: 8, Policy: PolicyLRU})
	if err != nil {
		t.Fatalf("Failed to open table: %v", err)
	}
	defer tbl.Close()

	total := int32(entriesPerDirectoryPage) + 1
	for i := int32(0); i < total; i++ {
		rec, err := storage.NewRecord(schema)
		if err != nil {
			t.Fatalf("Failed to allocate record: %v", err)
		}
		if err := rec.SetValue(schema, 0, storage.IntValue(i)); err != nil {
			t.Fatalf("Failed to set id: %v", err)
		}
		if err := rec.SetValue(schema, 1, storage.StringValue(fmt.Sprintf("rec-%d", i))); err != nil {
			t.Fatalf("Failed to set blob: %v", err)
		}
		if err := tbl.Insert(rec); err != nil {
			t.Fatalf("Failed to insert record %d: %v", i, err)
		}
		if want := (storage.RID{Page: i, Slot: 0}); rec.ID != want {
			t.Fatalf("Insert %d: expected RID %v, got %v", i, want, rec.ID)
		}
	}

	info := tbl.Info()
	if info.DirPages != 2 {
		t.Errorf("Expected 2 directory pages after growth, got %d", info.DirPages)
	}
	if info.TotalPages != total {
		t.Errorf("Expected %d data pages, got %d", total, info.TotalPages)
	}
	if got := tbl.Count(); got != int64(total) {
		t.Errorf("Expected %d records, got %d", total, got)
	}

	// Records on both sides of the relocation still read back intact
	for _, page := range []int32{0, 100, total - 2, total - 1} {
		rec, err := tbl.Get(storage.RID{Page: page, Slot: 0})
		if err != nil {
			t.Fatalf("Failed to get record on page %d: %v", page, err)
		}
		v, err := rec.Value(schema, 0)
		if err != nil {
			t.Fatalf("Failed to read id: %v", err)
		}
		if v.Int != page {
			t.Errorf("Page %d: expected id %d, got %d", page, page, v.Int)
		}
	}

	// The grown directory survives a reopen
	if err := tbl.Close(); err != nil {
		t.Fatalf("Failed to close table: %v", err)
	}
	reopened, err := OpenTable(path, &Options{PoolSize: 8, Policy: PolicyLRU})
	if err != nil {
		t.Fatalf("Failed to reopen grown table: %v", err)
	}
	defer reopened.Close()

	if got := reopened.Count(); got != int64(total) {
		t.Errorf("Expected %d records after reopen, got %d", total, got)
	}
	if got := reopened.Info().DirPages; got != 2 {
		t.Errorf("Expected 2 directory pages after reopen, got %d", got)
	}
	rec, err := reopened.Get(storage.RID{Page: total - 1, Slot: 0})
	if err != nil {
		t.Fatalf("Failed to get last record after reopen: %v", err)
	}
	v, err := rec.Value(schema, 1)
	if err != nil {
		t.Fatalf("Failed to read blob: %v", err)
	}
	if want := fmt.Sprintf("rec-%d", total-1); v.Str != want {
		t.Errorf("Expected blob %q, got %q", want, v.Str)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	tbl, path, cleanup := setupTable(t)
	defer cleanup()

	rids := make([]storage.RID, 5)
	for i := int32(0); i < 5; i++ {
		rids[i] = insertPerson(t, tbl, i+1, fmt.Sprintf("p%d", i+1), 20+i)
	}
	if err := tbl.Delete(rids[1]); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if err := tbl.Delete(rids[3]); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("Failed to close table: %v", err)
	}

	reopened, err := OpenTable(path, &Options{PoolSize: 8, Policy: PolicyLRU})
	if err != nil {
		t.Fatalf("Failed to reopen table: %v", err)
	}
	defer reopened.Close()

	// The live count is rebuilt from the slot flags on disk
	if got := reopened.Count(); got != 3 {
		t.Errorf("Expected 3 records after reopen, got %d", got)
	}
	if got := scanIDs(t, reopened, nil); len(got) != 3 ||
		got[0] != 1 || got[1] != 3 || got[2] != 5 {
		t.Errorf("Expected ids [1 3 5] after reopen, got %v", got)
	}

	// Freed slots remain reusable after the reopen
	rid := insertPerson(t, reopened, 9, "ivan", 50)
	if rid != rids[1] {
		t.Errorf("Expected freed slot %v reused after reopen, got %v", rids[1], rid)
	}

	schema := reopened.Schema()
	if len(schema.Attributes) != 3 || schema.Attributes[1].Name != "name" {
		t.Errorf("Expected schema to survive reopen, got %s", schema.String())
	}
}

func TestTableInfo(t *testing.T) {
	tbl, path, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)
	rid := insertPerson(t, tbl, 2, "bob", 25)
	insertPerson(t, tbl, 3, "carol", 41)
	if err := tbl.Delete(rid); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	info := tbl.Info()
	if info.Path != path {
		t.Errorf("Expected path %s, got %s", path, info.Path)
	}
	if info.RecordSize != 18 {
		t.Errorf("Expected record size 18, got %d", info.RecordSize)
	}
	if info.TotalPages != 1 || info.DirPages != 1 {
		t.Errorf("Expected 1 data page and 1 directory page, got %d and %d",
			info.TotalPages, info.DirPages)
	}
	if info.LiveRecords != 2 {
		t.Errorf("Expected 2 live records, got %d", info.LiveRecords)
	}
	if len(info.Entries) != 1 {
		t.Fatalf("Expected 1 directory entry, got %d", len(info.Entries))
	}
	// The slot count includes the tombstoned slot
	if info.Entries[0].RecordCount != 3 {
		t.Errorf("Expected 3 allocated slots, got %d", info.Entries[0].RecordCount)
	}
	if !info.Entries[0].HasFreeSlot {
		t.Error("Expected the page to advertise its freed slot")
	}

	stats := tbl.PoolStats()
	if stats.Capacity != 8 {
		t.Errorf("Expected pool capacity 8, got %d", stats.Capacity)
	}
}

func TestTableFlush(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)
	insertPerson(t, tbl, 2, "bob", 25)

	if err := tbl.Flush(); err != nil {
		t.Fatalf("Failed to flush table: %v", err)
	}
	if dirty := tbl.PoolStats().Dirty; dirty != 0 {
		t.Errorf("Expected no dirty frames after flush, got %d", dirty)
	}

	// The table stays fully usable after a flush
	rid := insertPerson(t, tbl, 3, "carol", 41)
	rec, err := tbl.Get(rid)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if got := personName(t, tbl, rec); got != "carol" {
		t.Errorf("Expected carol, got %q", got)
	}

	if err := tbl.Close(); err != nil {
		t.Fatalf("Failed to close table: %v", err)
	}
	if err := tbl.Flush(); err == nil {
		t.Error("Expected flush on closed table to fail, got nil")
	}
}

func TestTableCloseIdempotent(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)

	if err := tbl.Close(); err != nil {
		t.Fatalf("Failed to close table: %v", err)
	}
	if err := tbl.Close(); err != nil {
		t.Errorf("Expected second close to be a no-op, got %v", err)
	}

	// Every operation on a closed table fails
	if err := tbl.Insert(&storage.Record{Data: make([]byte, 18)}); err == nil {
		t.Error("Expected insert on closed table to fail, got nil")
	}
	if _, err := tbl.Get(storage.RID{Page: 0, Slot: 0}); err == nil {
		t.Error("Expected get on closed table to fail, got nil")
	}
	if err := tbl.Delete(storage.RID{Page: 0, Slot: 0}); err == nil {
		t.Error("Expected delete on closed table to fail, got nil")
	}
	if _, err := tbl.OpenScan(nil); err == nil {
		t.Error("Expected scan on closed table to fail, got nil")
	}
}

func TestDestroyTable(t *testing.T) {
	tbl, path, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)
	if err := tbl.Close(); err != nil {
		t.Fatalf("Failed to close table: %v", err)
	}

	if err := DestroyTable(path); err != nil {
		t.Fatalf("Failed to destroy table: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected table file to be removed")
	}
	if err := DestroyTable(path); err == nil {
		t.Error("Expected error destroying a missing table, got nil")
	}
}

// Every replacement policy must preserve correctness under a pool far
// smaller than the data.
func TestTableUnderTinyPool(t *testing.T) {
	for _, policy := range []Policy{PolicyFIFO, PolicyLRU, PolicyCLOCK, PolicyLFU} {
		t.Run(policy.String(), func(t *testing.T) {
			tmpDir, err := os.MkdirTemp("", "flyrec_table_test_*")
			if err != nil {
				t.Fatalf("Failed to create temp dir: %v", err)
			}
			defer os.RemoveAll(tmpDir)

			schema, err := storage.NewSchema(
				[]string{"id", "blob"},
				[]storage.DataType{storage.TypeInt, storage.TypeString},
				[]int32{0, 1990},
				nil,
			)
			if err != nil {
				t.Fatalf("Failed to build schema: %v", err)
			}
			path := filepath.Join(tmpDir, "tiny.tbl")
			if err := CreateTable(path, schema); err != nil {
				t.Fatalf("Failed to create table: %v", err)
			}
			tbl, err := OpenTable(path, &Options{PoolSize: 2, Policy: policy})
			if err != nil {
				t.Fatalf("Failed to open table: %v", err)
			}
			defer tbl.Close()

			const n = 30
			for i := int32(0); i < n; i++ {
				rec, err := storage.NewRecord(schema)
				if err != nil {
					t.Fatalf("Failed to allocate record: %v", err)
				}
				if err := rec.SetValue(schema, 0, storage.IntValue(i)); err != nil {
					t.Fatalf("Failed to set id: %v", err)
				}
				if err := tbl.Insert(rec); err != nil {
					t.Fatalf("Failed to insert record %d: %v", i, err)
				}
			}

			scan, err := tbl.OpenScan(nil)
			if err != nil {
				t.Fatalf("Failed to open scan: %v", err)
			}
			defer scan.Close()

			var seen int32
			for {
				rec, err := scan.Next()
				if err != nil {
					if errors.IsNoMoreRecords(err) {
						break
					}
					t.Fatalf("Scan failed: %v", err)
				}
				v, err := rec.Value(schema, 0)
				if err != nil {
					t.Fatalf("Failed to read id: %v", err)
				}
				if v.Int != seen {
					t.Fatalf("Expected id %d, got %d", seen, v.Int)
				}
				seen++
			}
			if seen != n {
				t.Errorf("Expected %d records, got %d", n, seen)
			}

			if stats := tbl.PoolStats(); stats.Evictions == 0 {
				t.Error("Expected the tiny pool to evict during the workload")
			}
		})
	}
}

func TestConcurrentReaders(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	const n = 20
	rids := make([]storage.RID, n)
	for i := int32(0); i < n; i++ {
		rids[i] = insertPerson(t, tbl, i, fmt.Sprintf("p%d", i), 20+i)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				rec, err := tbl.Get(rids[(i+w)%n])
				if err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
				if rec == nil {
					t.Error("Expected a record, got nil")
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if got := tbl.Count(); got != n {
		t.Errorf("Expected %d records, got %d", n, got)
	}
}
