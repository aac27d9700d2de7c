/*
Copyright 2025 The MySQLX Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package xtypes implements the typed value layer between raw X protocol
// column bytes and client code. A Value carries a type tag plus a canonical
// representation; DecodeColumn and EncodeColumn translate to and from the
// wire form described by a column's metadata.
package xtypes

import (
	"fmt"
	"strconv"
)

// Type is the client-side value type.
type Type int

const (
	Null Type = iota
	Int64
	Uint64
	Float32
	Float64
	Decimal
	Text
	Blob
	Enum
	Set
	Bit
	Time
	Datetime
	Timestamp
	JSON
	Geometry
	XML
)

var typeNames = map[Type]string{
	Null:      "NULL",
	Int64:     "INT64",
	Uint64:    "UINT64",
	Float32:   "FLOAT32",
	Float64:   "FLOAT64",
	Decimal:   "DECIMAL",
	Text:      "TEXT",
	Blob:      "BLOB",
	Enum:      "ENUM",
	Set:       "SET",
	Bit:       "BIT",
	Time:      "TIME",
	Datetime:  "DATETIME",
	Timestamp: "TIMESTAMP",
	JSON:      "JSON",
	Geometry:  "GEOMETRY",
	XML:       "XML",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TYPE(%d)", int(t))
}

// Value is a typed value. The internal representation is the canonical
// textual form for everything except Blob/Geometry, which keep raw bytes.
type Value struct {
	typ Type
	val []byte
}

// NULL is the canonical null value.
var NULL = Value{}

// MakeTrusted builds a Value from a type and its canonical representation
// without validation. Use the typed constructors unless the input is known
// to be well formed.
func MakeTrusted(typ Type, val []byte) Value {
	if typ == Null {
		return NULL
	}
	return Value{typ: typ, val: val}
}

func NewInt64(v int64) Value   { return MakeTrusted(Int64, strconv.AppendInt(nil, v, 10)) }
func NewUint64(v uint64) Value { return MakeTrusted(Uint64, strconv.AppendUint(nil, v, 10)) }
func NewFloat64(v float64) Value {
	return MakeTrusted(Float64, strconv.AppendFloat(nil, v, 'g', -1, 64))
}
func NewFloat32(v float32) Value {
	return MakeTrusted(Float32, strconv.AppendFloat(nil, float64(v), 'g', -1, 32))
}
func NewDecimal(v string) Value   { return MakeTrusted(Decimal, []byte(v)) }
func NewText(v string) Value      { return MakeTrusted(Text, []byte(v)) }
func NewBlob(v []byte) Value      { return MakeTrusted(Blob, v) }
func NewEnum(v string) Value      { return MakeTrusted(Enum, []byte(v)) }
func NewSet(v string) Value       { return MakeTrusted(Set, []byte(v)) }
func NewBit(v uint64) Value       { return MakeTrusted(Bit, strconv.AppendUint(nil, v, 10)) }
func NewTime(v string) Value      { return MakeTrusted(Time, []byte(v)) }
func NewDatetime(v string) Value  { return MakeTrusted(Datetime, []byte(v)) }
func NewTimestamp(v string) Value { return MakeTrusted(Timestamp, []byte(v)) }
func NewJSON(v string) Value      { return MakeTrusted(JSON, []byte(v)) }

// Type returns the type tag.
func (v Value) Type() Type { return v.typ }

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool { return v.typ == Null }

// Raw returns the internal representation without copying.
func (v Value) Raw() []byte { return v.val }

// ToString returns the canonical textual form. Null yields the empty
// string; use IsNull to distinguish.
func (v Value) ToString() string { return string(v.val) }

// ToInt64 converts integral values.
func (v Value) ToInt64() (int64, error) {
	switch v.typ {
	case Int64, Uint64, Bit:
		return strconv.ParseInt(string(v.val), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %v to int64", v.typ)
	}
}

// ToUint64 converts integral values.
func (v Value) ToUint64() (uint64, error) {
	switch v.typ {
	case Int64, Uint64, Bit:
		return strconv.ParseUint(string(v.val), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %v to uint64", v.typ)
	}
}

// ToFloat64 converts numeric values.
func (v Value) ToFloat64() (float64, error) {
	switch v.typ {
	case Int64, Uint64, Float32, Float64, Decimal:
		return strconv.ParseFloat(string(v.val), 64)
	default:
		return 0, fmt.Errorf("cannot convert %v to float64", v.typ)
	}
}

// ToBool interprets integral values as booleans.
func (v Value) ToBool() (bool, error) {
	i, err := v.ToInt64()
	if err != nil {
		return false, err
	}
	return i != 0, nil
}

func (v Value) String() string {
	if v.IsNull() {
		return "NULL"
	}
	switch v.typ {
	case Text, Enum, Set, Time, Datetime, Timestamp, JSON, XML:
		return fmt.Sprintf("%v(%q)", v.typ, v.val)
	default:
		return fmt.Sprintf("%v(%s)", v.typ, v.val)
	}
}

// Row is one decoded result row.
type Row []Value
