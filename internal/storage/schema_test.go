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

package storage

import (
	"encoding/binary"
	"testing"

	"flyrec/internal/errors"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	schema, err := NewSchema(
		[]string{"id", "name"},
		[]DataType{TypeInt, TypeString},
		[]int32{0, 10},
		[]int{0},
	)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	return schema
}

func TestNewSchema(t *testing.T) {
	schema := testSchema(t)

	if len(schema.Attributes) != 2 {
		t.Errorf("Expected 2 attributes, got %d", len(schema.Attributes))
	}
	if schema.Attributes[0].Name != "id" {
		t.Errorf("Expected attribute name id, got %s", schema.Attributes[0].Name)
	}
	if schema.Attributes[1].Type != TypeString {
		t.Errorf("Expected STRING type, got %s", schema.Attributes[1].Type)
	}
	if schema.Encoding != EncodingUTF8 {
		t.Errorf("Expected default UTF8 encoding, got %s", schema.Encoding)
	}
}

func TestNewSchemaValidation(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		types   []DataType
		lengths []int32
		keys    []int
	}{
		{
			name:    "mismatched slice lengths",
			names:   []string{"id", "name"},
			types:   []DataType{TypeInt},
			lengths: []int32{0, 10},
			keys:    []int{0},
		},
		{
			name:    "no attributes",
			names:   []string{},
			types:   []DataType{},
			lengths: []int32{},
			keys:    []int{},
		},
		{
			name:    "empty attribute name",
			names:   []string{""},
			types:   []DataType{TypeInt},
			lengths: []int32{0},
			keys:    nil,
		},
		{
			name:    "invalid type tag",
			names:   []string{"x"},
			types:   []DataType{DataType(99)},
			lengths: []int32{0},
			keys:    nil,
		},
		{
			name:    "string with zero length",
			names:   []string{"s"},
			types:   []DataType{TypeString},
			lengths: []int32{0},
			keys:    nil,
		},
		{
			name:    "key index out of range",
			names:   []string{"id"},
			types:   []DataType{TypeInt},
			lengths: []int32{0},
			keys:    []int{3},
		},
		{
			name:    "negative key index",
			names:   []string{"id"},
			types:   []DataType{TypeInt},
			lengths: []int32{0},
			keys:    []int{-1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.names, tt.types, tt.lengths, tt.keys)
			if err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestRecordSize(t *testing.T) {
	tests := []struct {
		name  string
		types []DataType
		lens  []int32
		want  int32
	}{
		{"int only", []DataType{TypeInt}, []int32{0}, 4},
		{"float only", []DataType{TypeFloat}, []int32{0}, 4},
		{"bool only", []DataType{TypeBool}, []int32{0}, 1},
		{"string 10", []DataType{TypeString}, []int32{10}, 10},
		{"int plus string 10", []DataType{TypeInt, TypeString}, []int32{0, 10}, 14},
		{"all types", []DataType{TypeInt, TypeString, TypeFloat, TypeBool}, []int32{0, 5, 0, 0}, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := make([]string, len(tt.types))
			for i := range names {
				names[i] = string(rune('a' + i))
			}
			schema, err := NewSchema(names, tt.types, tt.lens, nil)
			if err != nil {
				t.Fatalf("NewSchema failed: %v", err)
			}
			if got := schema.RecordSize(); got != tt.want {
				t.Errorf("Expected record size %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAttrOffset(t *testing.T) {
	schema, err := NewSchema(
		[]string{"id", "name", "score", "active"},
		[]DataType{TypeInt, TypeString, TypeFloat, TypeBool},
		[]int32{0, 10, 0, 0},
		[]int{0},
	)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}

	wantOffsets := []int32{0, 4, 14, 18}
	for i, want := range wantOffsets {
		got, err := schema.AttrOffset(i)
		if err != nil {
			t.Fatalf("AttrOffset(%d) failed: %v", i, err)
		}
		if got != want {
			t.Errorf("Expected offset %d for attribute %d, got %d", want, i, got)
		}
	}

	// Out-of-range attribute index
	if _, err := schema.AttrOffset(4); err == nil {
		t.Error("Expected error for out-of-range attribute index")
	}
	if _, err := schema.AttrOffset(-1); err == nil {
		t.Error("Expected error for negative attribute index")
	}
}

func TestAttrIndex(t *testing.T) {
	schema := testSchema(t)

	idx, err := schema.AttrIndex("name")
	if err != nil {
		t.Fatalf("AttrIndex failed: %v", err)
	}
	if idx != 1 {
		t.Errorf("Expected index 1, got %d", idx)
	}

	if _, err := schema.AttrIndex("missing"); err == nil {
		t.Error("Expected error for unknown attribute name")
	}
}

func TestSchemaString(t *testing.T) {
	schema := testSchema(t)

	s := schema.String()
	want := "(id: INT, name: STRING[10])"
	if s != want {
		t.Errorf("Expected %q, got %q", want, s)
	}
}

func TestSchemaMarshalRoundTrip(t *testing.T) {
	schema, err := NewSchema(
		[]string{"id", "name", "score", "active"},
		[]DataType{TypeInt, TypeString, TypeFloat, TypeBool},
		[]int32{0, 12, 0, 0},
		[]int{0, 2},
	)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}

	data, err := schema.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	loaded, err := UnmarshalSchema(data)
	if err != nil {
		t.Fatalf("UnmarshalSchema failed: %v", err)
	}

	if len(loaded.Attributes) != len(schema.Attributes) {
		t.Fatalf("Expected %d attributes, got %d", len(schema.Attributes), len(loaded.Attributes))
	}
	for i, a := range schema.Attributes {
		b := loaded.Attributes[i]
		if a.Name != b.Name || a.Type != b.Type || a.Length != b.Length {
			t.Errorf("Attribute %d mismatch: want %+v, got %+v", i, a, b)
		}
	}
	if len(loaded.Keys) != 2 || loaded.Keys[0] != 0 || loaded.Keys[1] != 2 {
		t.Errorf("Expected keys [0 2], got %v", loaded.Keys)
	}
	if loaded.RecordSize() != schema.RecordSize() {
		t.Errorf("Expected record size %d, got %d", schema.RecordSize(), loaded.RecordSize())
	}
}

func TestSchemaMarshalLayout(t *testing.T) {
	schema := testSchema(t)

	data, err := schema.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// attrCount at offset 0
	if got := int32(binary.LittleEndian.Uint32(data[0:4])); got != 2 {
		t.Errorf("Expected attrCount 2, got %d", got)
	}

	// Names follow, each NUL terminated: "id\x00name\x00"
	names := data[4:12]
	want := []byte{'i', 'd', 0, 'n', 'a', 'm', 'e', 0}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Name block mismatch at byte %d: want %d, got %d", i, want[i], names[i])
		}
	}

	// Data types after names: INT=0, STRING=1
	if got := int32(binary.LittleEndian.Uint32(data[12:16])); got != 0 {
		t.Errorf("Expected type tag 0 for INT, got %d", got)
	}
	if got := int32(binary.LittleEndian.Uint32(data[16:20])); got != 1 {
		t.Errorf("Expected type tag 1 for STRING, got %d", got)
	}

	// Type lengths: 0 for id, 10 for name
	if got := int32(binary.LittleEndian.Uint32(data[24:28])); got != 10 {
		t.Errorf("Expected type length 10 for name, got %d", got)
	}

	// Key count then key indices
	if got := int32(binary.LittleEndian.Uint32(data[28:32])); got != 1 {
		t.Errorf("Expected keyCount 1, got %d", got)
	}
	if got := int32(binary.LittleEndian.Uint32(data[32:36])); got != 0 {
		t.Errorf("Expected key index 0, got %d", got)
	}
}

func TestUnmarshalSchemaCorrupt(t *testing.T) {
	schema := testSchema(t)
	good, err := schema.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"truncated count", good[:2]},
		{"truncated names", good[:6]},
		{"truncated types", good[:14]},
		{"truncated keys", good[:30]},
		{
			"implausible attr count",
			func() []byte {
				d := make([]byte, len(good))
				copy(d, good)
				binary.LittleEndian.PutUint32(d[0:4], 1<<30)
				return d
			}(),
		},
		{
			"negative attr count",
			func() []byte {
				d := make([]byte, len(good))
				copy(d, good)
				binary.LittleEndian.PutUint32(d[0:4], 0xFFFFFFFF)
				return d
			}(),
		},
		{
			"unterminated name",
			func() []byte {
				// attrCount = 1 but no NUL anywhere after it
				d := make([]byte, 8)
				binary.LittleEndian.PutUint32(d[0:4], 1)
				copy(d[4:], "abcd")
				return d
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalSchema(tt.data)
			if err == nil {
				t.Error("Expected error for corrupt schema data")
			}
		})
	}
}

func TestUnmarshalSchemaErrorCategory(t *testing.T) {
	_, err := UnmarshalSchema([]byte{1, 2})
	if err == nil {
		t.Fatal("Expected error for truncated data")
	}
	if errors.GetCode(err) != errors.ErrCodeCorruptSchema {
		t.Errorf("Expected corrupt schema error code, got %d", errors.GetCode(err))
	}
}
