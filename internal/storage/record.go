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
	"math"

	"flyrec/internal/errors"
)

// Record is a flat byte buffer holding one tuple, plus the identifier
// assigned when the record was inserted. Data is always exactly the
// schema's record size; attribute values are packed in schema order
// with no padding between them.
type Record struct {
	ID   RID
	Data []byte
}

// NewRecord allocates a zeroed record buffer for the schema. The ID is
// NilRID until the record is inserted.
func NewRecord(schema *Schema) (*Record, error) {
	if schema == nil {
		return nil, errors.NilArgument("schema")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Record{
		ID:   NilRID,
		Data: make([]byte, schema.RecordSize()),
	}, nil
}

// SetValue packs a typed value into attribute attr of the record.
// The value's type must match the schema; string values are encoded
// with the schema's character encoding, rejected if they exceed the
// attribute's declared width, and padded with NUL bytes to fill it.
func (r *Record) SetValue(schema *Schema, attr int, v Value) error {
	if schema == nil {
		return errors.NilArgument("schema")
	}
	off, err := schema.AttrOffset(attr)
	if err != nil {
		return err
	}
	a := schema.Attributes[attr]
	if v.Type != a.Type {
		return errors.TypeMismatch(a.Type.String(), v.Type.String())
	}
	if int32(len(r.Data)) < off+a.Width() {
		return errors.NewInvalidInputError("record buffer is smaller than the schema requires")
	}

	switch a.Type {
	case TypeInt:
		binary.LittleEndian.PutUint32(r.Data[off:off+4], uint32(v.Int))
	case TypeFloat:
		binary.LittleEndian.PutUint32(r.Data[off:off+4], math.Float32bits(v.Float))
	case TypeBool:
		if v.Bool {
			r.Data[off] = 1
		} else {
			r.Data[off] = 0
		}
	case TypeString:
		enc := GetEncoder(schema.Encoding)
		raw, err := enc.Encode(v.Str)
		if err != nil {
			return errors.InvalidEncodedString(enc.Name(), err.Error())
		}
		if int32(len(raw)) > a.Length {
			return errors.ValueTooLarge(a.Name, int(a.Length), len(raw))
		}
		field := r.Data[off : off+a.Length]
		copy(field, raw)
		for i := len(raw); i < len(field); i++ {
			field[i] = 0
		}
	default:
		return errors.UnknownType(int(a.Type))
	}
	return nil
}

// Value unpacks attribute attr of the record into a typed value.
// String values are cut at the first NUL byte and decoded with the
// schema's character encoding.
func (r *Record) Value(schema *Schema, attr int) (Value, error) {
	if schema == nil {
		return Value{}, errors.NilArgument("schema")
	}
	off, err := schema.AttrOffset(attr)
	if err != nil {
		return Value{}, err
	}
	a := schema.Attributes[attr]
	if int32(len(r.Data)) < off+a.Width() {
		return Value{}, errors.NewInvalidInputError("record buffer is smaller than the schema requires")
	}

	switch a.Type {
	case TypeInt:
		return IntValue(int32(binary.LittleEndian.Uint32(r.Data[off : off+4]))), nil
	case TypeFloat:
		return FloatValue(math.Float32frombits(binary.LittleEndian.Uint32(r.Data[off : off+4]))), nil
	case TypeBool:
		return BoolValue(r.Data[off] != 0), nil
	case TypeString:
		field := r.Data[off : off+a.Length]
		if i := bytes.IndexByte(field, 0); i >= 0 {
			field = field[:i]
		}
		enc := GetEncoder(schema.Encoding)
		s, err := enc.Decode(field)
		if err != nil {
			return Value{}, errors.InvalidEncodedString(enc.Name(), err.Error())
		}
		return StringValue(s), nil
	default:
		return Value{}, errors.UnknownType(int(a.Type))
	}
}

// Values unpacks every attribute in schema order. Convenient for
// display and dump tooling.
func (r *Record) Values(schema *Schema) ([]Value, error) {
	if schema == nil {
		return nil, errors.NilArgument("schema")
	}
	vals := make([]Value, len(schema.Attributes))
	for i := range schema.Attributes {
		v, err := r.Value(schema, i)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	data := make([]byte, len(r.Data))
	copy(data, r.Data)
	return &Record{ID: r.ID, Data: data}
}
