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
Package storage defines the data model shared by all FlyRec components:
schemas, typed values, records, and record identifiers.

A schema is an ordered list of fixed-width attributes. Records are flat
byte buffers laid out as the concatenation of attribute values in schema
order, with no padding between them. The fixed record size computed from
the schema drives all offset arithmetic in the page layer, so it never
changes for the lifetime of a table.

Values are a tagged variant over the four supported attribute types.
Float attributes are 32-bit to match the 4-byte on-disk width.
*/
package storage

import (
	"fmt"
	"strconv"

	"flyrec/internal/errors"
)

// DataType identifies the type of an attribute.
// The numeric values are part of the on-disk schema format.
type DataType int32

const (
	// TypeInt is a 32-bit signed integer (4 bytes).
	TypeInt DataType = 0
	// TypeString is a fixed-length byte string (length given per attribute).
	TypeString DataType = 1
	// TypeFloat is a 32-bit IEEE 754 float (4 bytes).
	TypeFloat DataType = 2
	// TypeBool is a boolean (1 byte).
	TypeBool DataType = 3
)

// String returns the name of the data type.
func (dt DataType) String() string {
	switch dt {
	case TypeInt:
		return "INT"
	case TypeString:
		return "STRING"
	case TypeFloat:
		return "FLOAT"
	case TypeBool:
		return "BOOL"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(dt))
	}
}

// Valid reports whether dt is one of the supported data types.
func (dt DataType) Valid() bool {
	switch dt {
	case TypeInt, TypeString, TypeFloat, TypeBool:
		return true
	}
	return false
}

// Width returns the on-disk byte width of the type. String attributes
// carry their width in the schema, so length is only consulted for them.
func (dt DataType) Width(length int32) int32 {
	switch dt {
	case TypeInt:
		return 4
	case TypeString:
		return length
	case TypeFloat:
		return 4
	case TypeBool:
		return 1
	default:
		return 0
	}
}

// Value is a typed attribute value. Exactly one of the payload fields
// is meaningful, selected by Type.
type Value struct {
	Type  DataType
	Int   int32
	Str   string
	Float float32
	Bool  bool
}

// IntValue creates an integer value.
func IntValue(v int32) Value {
	return Value{Type: TypeInt, Int: v}
}

// StringValue creates a string value.
func StringValue(v string) Value {
	return Value{Type: TypeString, Str: v}
}

// FloatValue creates a float value.
func FloatValue(v float32) Value {
	return Value{Type: TypeFloat, Float: v}
}

// BoolValue creates a boolean value.
func BoolValue(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

// String formats the value for display.
func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(int64(v.Int), 10)
	case TypeString:
		return v.Str
	case TypeFloat:
		return strconv.FormatFloat(float64(v.Float), 'g', -1, 32)
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	default:
		return "<invalid>"
	}
}

// Equal reports whether two values have the same type and payload.
// String comparison is byte-wise; use a Collator for locale-aware equality.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeInt:
		return v.Int == other.Int
	case TypeString:
		return v.Str == other.Str
	case TypeFloat:
		return v.Float == other.Float
	case TypeBool:
		return v.Bool == other.Bool
	}
	return false
}

// Compare orders two values of the same type. Returns -1, 0, or 1.
// Booleans order false before true. The collator, when non-nil, is
// consulted for string values.
func (v Value) Compare(other Value, coll Collator) (int, error) {
	if v.Type != other.Type {
		return 0, errors.TypeMismatch(v.Type.String(), other.Type.String())
	}
	switch v.Type {
	case TypeInt:
		switch {
		case v.Int < other.Int:
			return -1, nil
		case v.Int > other.Int:
			return 1, nil
		}
		return 0, nil
	case TypeFloat:
		switch {
		case v.Float < other.Float:
			return -1, nil
		case v.Float > other.Float:
			return 1, nil
		}
		return 0, nil
	case TypeBool:
		switch {
		case !v.Bool && other.Bool:
			return -1, nil
		case v.Bool && !other.Bool:
			return 1, nil
		}
		return 0, nil
	case TypeString:
		if coll == nil {
			coll = &DefaultCollator{}
		}
		return coll.Compare(v.Str, other.Str), nil
	}
	return 0, errors.UnknownType(int(v.Type))
}

// RID identifies a record by logical data page and slot index.
// Logical page numbering starts at 0 and is independent of the raw
// block numbering inside the table file.
type RID struct {
	Page int32
	Slot int32
}

// NilRID is the identifier of a record that has not been inserted yet.
var NilRID = RID{Page: -1, Slot: -1}

// Valid reports whether the RID has a usable page and slot.
func (r RID) Valid() bool {
	return r.Page >= 0 && r.Slot >= 0
}

// String formats the RID as "page.slot".
func (r RID) String() string {
	return fmt.Sprintf("%d.%d", r.Page, r.Slot)
}

// CharacterEncoding names a character encoding for string attributes.
// The encoding is a runtime property of an open table; it is not part
// of the persisted schema. Only encodings whose byte streams never
// contain NUL inside a character are supported, because string fields
// are NUL-padded to their fixed width.
type CharacterEncoding string

const (
	EncodingDefault CharacterEncoding = ""
	EncodingUTF8    CharacterEncoding = "UTF8"
	EncodingLatin1  CharacterEncoding = "LATIN1"
	EncodingASCII   CharacterEncoding = "ASCII"
)

// ParseEncoding maps a configuration string to a CharacterEncoding.
func ParseEncoding(s string) (CharacterEncoding, error) {
	switch s {
	case "", "utf8", "UTF8", "utf-8", "UTF-8":
		return EncodingUTF8, nil
	case "latin1", "LATIN1", "iso-8859-1", "ISO-8859-1":
		return EncodingLatin1, nil
	case "ascii", "ASCII":
		return EncodingASCII, nil
	}
	return EncodingDefault, errors.InvalidConfig("string_encoding", fmt.Sprintf("unknown encoding %q", s))
}

// Collation names a string comparison ruleset.
type Collation string

const (
	CollationDefault         Collation = "default"
	CollationBinary          Collation = "binary"
	CollationCaseInsensitive Collation = "nocase"
	CollationUnicode         Collation = "unicode"
)
