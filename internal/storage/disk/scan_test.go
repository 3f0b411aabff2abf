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
	stderrors "errors"
	"testing"

	"flyrec/internal/errors"
	"flyrec/internal/expr"
	"flyrec/internal/storage"
)

type failingPredicate struct{}

func (failingPredicate) Matches(*storage.Record, *storage.Schema) (bool, error) {
	return false, errors.NewInvalidInputError("predicate blew up")
}

func TestScanEmptyTable(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	scan, err := tbl.OpenScan(nil)
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer scan.Close()

	_, err = scan.Next()
	if err == nil {
		t.Fatal("Expected end-of-scan on an empty table, got nil")
	}
	if !errors.IsNoMoreRecords(err) {
		t.Errorf("Expected no-more-records, got %v", err)
	}
	if !stderrors.Is(err, errors.ErrNoMoreRecords) {
		t.Error("Expected the sentinel to satisfy errors.Is")
	}
}

func TestScanAllRecordsInSlotOrder(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	for i := int32(1); i <= 5; i++ {
		insertPerson(t, tbl, i, "person", 20+i)
	}

	scan, err := tbl.OpenScan(nil)
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer scan.Close()

	var next int32 = 1
	for {
		rec, err := scan.Next()
		if err != nil {
			if errors.IsNoMoreRecords(err) {
				break
			}
			t.Fatalf("Scan failed: %v", err)
		}
		if got := personID(t, tbl, rec); got != next {
			t.Errorf("Expected id %d, got %d", next, got)
		}
		want := storage.RID{Page: 0, Slot: next - 1}
		if rec.ID != want {
			t.Errorf("Expected RID %v, got %v", want, rec.ID)
		}
		next++
	}
	if next != 6 {
		t.Errorf("Expected 5 records, got %d", next-1)
	}

	// Exhaustion is sticky
	for i := 0; i < 2; i++ {
		if _, err := scan.Next(); !errors.IsNoMoreRecords(err) {
			t.Errorf("Expected no-more-records after exhaustion, got %v", err)
		}
	}
}

func TestScanSkipsDeleted(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	var rids []storage.RID
	for i := int32(1); i <= 4; i++ {
		rids = append(rids, insertPerson(t, tbl, i, "person", 20+i))
	}
	if err := tbl.Delete(rids[1]); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	if got := scanIDs(t, tbl, nil); len(got) != 3 ||
		got[0] != 1 || got[1] != 3 || got[2] != 4 {
		t.Errorf("Expected ids [1 3 4], got %v", got)
	}
}

func TestScanPredicateFilters(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)
	insertPerson(t, tbl, 2, "bob", 25)
	insertPerson(t, tbl, 3, "carol", 41)
	insertPerson(t, tbl, 4, "dave", 19)

	pred := expr.NewPredicate(expr.Ge(expr.AttrNamed("age"), expr.Int(30)))
	if got := scanIDs(t, tbl, pred); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("Expected ids [1 3] for age >= 30, got %v", got)
	}

	pred = expr.NewPredicate(expr.Or(
		expr.Lt(expr.AttrNamed("age"), expr.Int(20)),
		expr.Eq(expr.AttrNamed("name"), expr.Str("bob")),
	))
	if got := scanIDs(t, tbl, pred); len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("Expected ids [2 4], got %v", got)
	}

	// A predicate matching nothing exhausts immediately
	pred = expr.NewPredicate(expr.Gt(expr.AttrNamed("id"), expr.Int(100)))
	if got := scanIDs(t, tbl, pred); len(got) != 0 {
		t.Errorf("Expected no matches, got %v", got)
	}
}

func TestScanPredicateErrorPropagates(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)

	scan, err := tbl.OpenScan(failingPredicate{})
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer scan.Close()

	_, err = scan.Next()
	if err == nil {
		t.Fatal("Expected predicate error, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeInvalidInput, errors.GetCode(err))
	}
}

// A predicate referencing an unknown attribute surfaces the evaluation
// error instead of silently matching nothing.
func TestScanUnknownAttribute(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)

	scan, err := tbl.OpenScan(expr.NewPredicate(
		expr.Eq(expr.AttrNamed("salary"), expr.Int(1))))
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer scan.Close()

	if _, err := scan.Next(); err == nil {
		t.Error("Expected error for unknown attribute, got nil")
	}
}

func TestScanClose(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)

	scan, err := tbl.OpenScan(nil)
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	if err := scan.Close(); err != nil {
		t.Fatalf("Failed to close scan: %v", err)
	}
	if err := scan.Close(); err != nil {
		t.Errorf("Expected second close to be a no-op, got %v", err)
	}

	_, err = scan.Next()
	if err == nil {
		t.Fatal("Expected error on closed scan, got nil")
	}
	if errors.GetCode(err) != errors.ErrCodeScanClosed {
		t.Errorf("Expected code %d, got %d", errors.ErrCodeScanClosed, errors.GetCode(err))
	}
}

// A scan holds no pins between calls, so interleaved writes are legal
// and visible.
func TestScanSeesInterleavedMutations(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)
	r2 := insertPerson(t, tbl, 2, "bob", 25)
	insertPerson(t, tbl, 3, "carol", 41)

	scan, err := tbl.OpenScan(nil)
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer scan.Close()

	rec, err := scan.Next()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got := personID(t, tbl, rec); got != 1 {
		t.Fatalf("Expected id 1 first, got %d", got)
	}

	// Delete the record the scan has not reached yet
	if err := tbl.Delete(r2); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	rec, err = scan.Next()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got := personID(t, tbl, rec); got != 3 {
		t.Errorf("Expected the scan to skip the deleted record, got id %d", got)
	}

	if _, err := scan.Next(); !errors.IsNoMoreRecords(err) {
		t.Errorf("Expected no-more-records, got %v", err)
	}
}

// Records inserted behind the cursor while a scan is in flight appear
// before the scan ends.
func TestScanSeesInsertsAhead(t *testing.T) {
	tbl, _, cleanup := setupTable(t)
	defer cleanup()

	insertPerson(t, tbl, 1, "alice", 30)

	scan, err := tbl.OpenScan(nil)
	if err != nil {
		t.Fatalf("Failed to open scan: %v", err)
	}
	defer scan.Close()

	if _, err := scan.Next(); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	insertPerson(t, tbl, 2, "bob", 25)

	rec, err := scan.Next()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got := personID(t, tbl, rec); got != 2 {
		t.Errorf("Expected the scan to reach the new record, got id %d", got)
	}
}
