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
	"bytes"
	"encoding/binary"
	"fmt"

	"flyrec/internal/errors"
)

// Attribute describes one column of a schema: a name, a data type, and,
// for string attributes, the fixed byte length of the stored value.
type Attribute struct {
	Name   string
	Type   DataType
	Length int32
}

// Width returns the on-disk byte width of the attribute.
func (a Attribute) Width() int32 {
	return a.Type.Width(a.Length)
}

// Schema is an ordered list of attributes plus the indices of the key
// attributes. The schema is immutable once a table has been created
// with it; the record size derived from it drives all page-offset
// arithmetic.
//
// Encoding is a runtime property applied when string values are packed
// into or unpacked from record buffers. It is not serialized: the
// persisted schema format carries only names, types, lengths, and keys.
type Schema struct {
	Attributes []Attribute
	Keys       []int
	Encoding   CharacterEncoding
}

// Serialized schema layout (table block 0), all integers little-endian:
//
//	attrCount  int32
//	names      attrCount x (bytes + NUL)
//	dataTypes  attrCount x int32
//	typeLens   attrCount x int32
//	keyCount   int32
//	keyAttrs   keyCount x int32
const schemaIntSize = 4

// NewSchema builds a schema from parallel attribute slices. The lengths
// slice gives the byte width of string attributes and is ignored for
// the fixed-width types.
func NewSchema(names []string, types []DataType, lengths []int32, keys []int) (*Schema, error) {
	if len(names) != len(types) || len(names) != len(lengths) {
		return nil, errors.InvalidSchema(fmt.Sprintf(
			"attribute slices disagree: %d names, %d types, %d lengths",
			len(names), len(types), len(lengths)))
	}
	attrs := make([]Attribute, len(names))
	for i := range names {
		attrs[i] = Attribute{Name: names[i], Type: types[i], Length: lengths[i]}
	}
	s := &Schema{Attributes: attrs, Keys: append([]int(nil), keys...), Encoding: EncodingUTF8}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks structural invariants: at least one attribute,
// non-empty names, known types, positive string lengths, and key
// indices in range.
func (s *Schema) Validate() error {
	if len(s.Attributes) == 0 {
		return errors.InvalidSchema("schema has no attributes")
	}
	for i, a := range s.Attributes {
		if a.Name == "" {
			return errors.InvalidSchema(fmt.Sprintf("attribute %d has an empty name", i))
		}
		if !a.Type.Valid() {
			return errors.UnknownType(int(a.Type))
		}
		if a.Type == TypeString && a.Length < 1 {
			return errors.InvalidSchema(fmt.Sprintf(
				"string attribute '%s' needs a positive length, got %d", a.Name, a.Length))
		}
	}
	for _, k := range s.Keys {
		if k < 0 || k >= len(s.Attributes) {
			return errors.InvalidAttribute(k, len(s.Attributes))
		}
	}
	return nil
}

// RecordSize returns the fixed byte size of a record under this schema.
func (s *Schema) RecordSize() int32 {
	var size int32
	for _, a := range s.Attributes {
		size += a.Width()
	}
	return size
}

// AttrOffset returns the byte offset of attribute i inside a record
// buffer.
func (s *Schema) AttrOffset(i int) (int32, error) {
	if i < 0 || i >= len(s.Attributes) {
		return 0, errors.InvalidAttribute(i, len(s.Attributes))
	}
	var off int32
	for j := 0; j < i; j++ {
		off += s.Attributes[j].Width()
	}
	return off, nil
}

// AttrIndex returns the index of the attribute with the given name.
func (s *Schema) AttrIndex(name string) (int, error) {
	for i, a := range s.Attributes {
		if a.Name == name {
			return i, nil
		}
	}
	return 0, errors.NewNotFoundError(fmt.Sprintf("no attribute named '%s'", name))
}

// String formats the schema as "(name: TYPE, name: STRING[n], ...)".
func (s *Schema) String() string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	for i, a := range s.Attributes {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(a.Name)
		buf.WriteString(": ")
		buf.WriteString(a.Type.String())
		if a.Type == TypeString {
			fmt.Fprintf(&buf, "[%d]", a.Length)
		}
	}
	buf.WriteByte(')')
	return buf.String()
}

// Marshal serializes the schema to its on-disk layout.
func (s *Schema) Marshal() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writeInt32 := func(v int32) {
		var b [schemaIntSize]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf.Write(b[:])
	}

	writeInt32(int32(len(s.Attributes)))
	for _, a := range s.Attributes {
		buf.WriteString(a.Name)
		buf.WriteByte(0)
	}
	for _, a := range s.Attributes {
		writeInt32(int32(a.Type))
	}
	for _, a := range s.Attributes {
		writeInt32(a.Length)
	}
	writeInt32(int32(len(s.Keys)))
	for _, k := range s.Keys {
		writeInt32(int32(k))
	}
	return buf.Bytes(), nil
}

// UnmarshalSchema parses a serialized schema block. The buffer may be
// longer than the schema needs (a full page is passed in); trailing
// bytes are ignored.
func UnmarshalSchema(data []byte) (*Schema, error) {
	pos := 0
	readInt32 := func() (int32, error) {
		if pos+schemaIntSize > len(data) {
			return 0, errors.CorruptSchema("truncated integer field")
		}
		v := int32(binary.LittleEndian.Uint32(data[pos : pos+schemaIntSize]))
		pos += schemaIntSize
		return v, nil
	}

	attrCount, err := readInt32()
	if err != nil {
		return nil, err
	}
	if attrCount < 1 || int(attrCount) > len(data) {
		return nil, errors.CorruptSchema(fmt.Sprintf("implausible attribute count %d", attrCount))
	}

	names := make([]string, attrCount)
	for i := int32(0); i < attrCount; i++ {
		end := bytes.IndexByte(data[pos:], 0)
		if end < 0 {
			return nil, errors.CorruptSchema("unterminated attribute name")
		}
		names[i] = string(data[pos : pos+end])
		pos += end + 1
	}

	attrs := make([]Attribute, attrCount)
	for i := int32(0); i < attrCount; i++ {
		dt, err := readInt32()
		if err != nil {
			return nil, err
		}
		attrs[i] = Attribute{Name: names[i], Type: DataType(dt)}
	}
	for i := int32(0); i < attrCount; i++ {
		length, err := readInt32()
		if err != nil {
			return nil, err
		}
		attrs[i].Length = length
	}

	keyCount, err := readInt32()
	if err != nil {
		return nil, err
	}
	if keyCount < 0 || keyCount > attrCount {
		return nil, errors.CorruptSchema(fmt.Sprintf("implausible key count %d", keyCount))
	}
	keys := make([]int, keyCount)
	for i := int32(0); i < keyCount; i++ {
		k, err := readInt32()
		if err != nil {
			return nil, err
		}
		keys[i] = int(k)
	}

	s := &Schema{Attributes: attrs, Keys: keys, Encoding: EncodingUTF8}
	if err := s.Validate(); err != nil {
		return nil, errors.CorruptSchema(err.Error())
	}
	return s, nil
}
