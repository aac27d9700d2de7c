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

package xtypes

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"mysqlx.io/mysqlx/go/mysqlx/xproto"
)

// Row field encodings, per column type:
//
//	SINT      zigzag varint
//	UINT      varint
//	DOUBLE    8 bytes IEEE little endian
//	FLOAT     4 bytes IEEE little endian
//	BYTES     payload plus one trailing 0x00 byte
//	TIME      negate byte, then varints hour, minute, second, usec
//	          (trailing components may be omitted)
//	DATETIME  varints year, month, day, then optionally hour, minute,
//	          second, usec
//	DECIMAL   scale byte, BCD digit nibbles, sign nibble 0xc/0xd
//	SET       sequence of varint-length-prefixed elements
//	ENUM      like BYTES
//	BIT       varint
//
// A nil field is SQL NULL.

// DecodeColumn translates one raw column field into a typed Value using the
// column's reported metadata.
func DecodeColumn(raw []byte, meta *xproto.ColumnMeta) (Value, error) {
	if raw == nil {
		return NULL, nil
	}
	switch meta.Type {
	case xproto.TypeSint:
		u, n := protowire.ConsumeVarint(raw)
		if n < 0 {
			return NULL, fmt.Errorf("malformed SINT field")
		}
		return NewInt64(protowire.DecodeZigZag(u)), nil

	case xproto.TypeUint:
		u, n := protowire.ConsumeVarint(raw)
		if n < 0 {
			return NULL, fmt.Errorf("malformed UINT field")
		}
		return NewUint64(u), nil

	case xproto.TypeDouble:
		if len(raw) != 8 {
			return NULL, fmt.Errorf("DOUBLE field has %d bytes, want 8", len(raw))
		}
		return NewFloat64(math.Float64frombits(binary.LittleEndian.Uint64(raw))), nil

	case xproto.TypeFloat:
		if len(raw) != 4 {
			return NULL, fmt.Errorf("FLOAT field has %d bytes, want 4", len(raw))
		}
		return NewFloat32(math.Float32frombits(binary.LittleEndian.Uint32(raw))), nil

	case xproto.TypeBytes:
		s, err := trimFieldTerminator(raw)
		if err != nil {
			return NULL, err
		}
		switch meta.ContentType {
		case xproto.ContentTypeJSON:
			return NewJSON(string(s)), nil
		case xproto.ContentTypeGeometry:
			return MakeTrusted(Geometry, s), nil
		case xproto.ContentTypeXML:
			return MakeTrusted(XML, s), nil
		}
		if meta.Collation == collationBinary {
			return NewBlob(s), nil
		}
		return NewText(string(s)), nil

	case xproto.TypeEnum:
		s, err := trimFieldTerminator(raw)
		if err != nil {
			return NULL, err
		}
		return NewEnum(string(s)), nil

	case xproto.TypeSet:
		s, err := decodeSet(raw)
		if err != nil {
			return NULL, err
		}
		return NewSet(s), nil

	case xproto.TypeBit:
		u, n := protowire.ConsumeVarint(raw)
		if n < 0 {
			return NULL, fmt.Errorf("malformed BIT field")
		}
		return NewBit(u), nil

	case xproto.TypeTime:
		s, err := decodeTime(raw)
		if err != nil {
			return NULL, err
		}
		return NewTime(s), nil

	case xproto.TypeDatetime:
		s, err := decodeDatetime(raw)
		if err != nil {
			return NULL, err
		}
		if meta.IsTimestamp() {
			return NewTimestamp(s), nil
		}
		return NewDatetime(s), nil

	case xproto.TypeDecimal:
		s, err := decodeDecimal(raw)
		if err != nil {
			return NULL, err
		}
		return NewDecimal(s), nil
	}
	return NULL, fmt.Errorf("unknown column type %d", meta.Type)
}

// The binary collation id; bytes columns with it decode as Blob.
const collationBinary = 63

func trimFieldTerminator(raw []byte) ([]byte, error) {
	if len(raw) == 0 || raw[len(raw)-1] != 0x00 {
		return nil, fmt.Errorf("string field without 0x00 terminator")
	}
	return raw[:len(raw)-1], nil
}

func decodeSet(raw []byte) (string, error) {
	// A single 0x00 byte is the empty set; a single 0x01 byte is the
	// one-element set containing the empty string.
	if len(raw) == 1 {
		switch raw[0] {
		case 0x00:
			return "", nil
		case 0x01:
			return "", nil
		}
	}
	var elems []string
	for len(raw) > 0 {
		l, n := protowire.ConsumeVarint(raw)
		if n < 0 || int(l) > len(raw)-n {
			return "", fmt.Errorf("malformed SET field")
		}
		elems = append(elems, string(raw[n:n+int(l)]))
		raw = raw[n+int(l):]
	}
	return strings.Join(elems, ","), nil
}

func decodeTime(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty TIME field")
	}
	neg := raw[0] != 0x00
	parts, err := varintSeq(raw[1:], 4)
	if err != nil {
		return "", fmt.Errorf("malformed TIME field: %v", err)
	}
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	fmt.Fprintf(&sb, "%02d:%02d:%02d", parts[0], parts[1], parts[2])
	if parts[3] != 0 {
		fmt.Fprintf(&sb, ".%06d", parts[3])
	}
	return sb.String(), nil
}

func decodeDatetime(raw []byte) (string, error) {
	parts, err := varintSeq(raw, 7)
	if err != nil {
		return "", fmt.Errorf("malformed DATETIME field: %v", err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d-%02d-%02d %02d:%02d:%02d",
		parts[0], parts[1], parts[2], parts[3], parts[4], parts[5])
	if parts[6] != 0 {
		fmt.Fprintf(&sb, ".%06d", parts[6])
	}
	return sb.String(), nil
}

// varintSeq reads up to max varints; omitted trailing components read as 0.
func varintSeq(raw []byte, max int) ([]uint64, error) {
	parts := make([]uint64, max)
	for i := 0; i < max && len(raw) > 0; i++ {
		u, n := protowire.ConsumeVarint(raw)
		if n < 0 {
			return nil, fmt.Errorf("truncated varint")
		}
		parts[i] = u
		raw = raw[n:]
	}
	if len(raw) > 0 {
		return nil, fmt.Errorf("%d trailing bytes", len(raw))
	}
	return parts, nil
}

func decodeDecimal(raw []byte) (string, error) {
	if len(raw) < 2 {
		return "", fmt.Errorf("DECIMAL field too short")
	}
	scale := int(raw[0])
	var digits []byte
	var sign byte
	for _, b := range raw[1:] {
		for _, nib := range [2]byte{b >> 4, b & 0x0f} {
			if sign != 0 {
				if nib != 0 {
					return "", fmt.Errorf("DECIMAL digits after sign nibble")
				}
				continue
			}
			switch {
			case nib <= 9:
				digits = append(digits, '0'+nib)
			case nib == 0x0c || nib == 0x0d:
				sign = nib
			default:
				return "", fmt.Errorf("bad DECIMAL nibble %x", nib)
			}
		}
	}
	if sign == 0 {
		return "", fmt.Errorf("DECIMAL field without sign nibble")
	}
	if scale > len(digits) {
		return "", fmt.Errorf("DECIMAL scale %d exceeds %d digits", scale, len(digits))
	}
	var sb strings.Builder
	if sign == 0x0d {
		sb.WriteByte('-')
	}
	intPart := digits[:len(digits)-scale]
	if len(intPart) == 0 {
		sb.WriteByte('0')
	} else {
		sb.Write(intPart)
	}
	if scale > 0 {
		sb.WriteByte('.')
		sb.Write(digits[len(digits)-scale:])
	}
	return sb.String(), nil
}

// EncodeColumn is the inverse of DecodeColumn. It is used by test servers
// and by the round-trip tests; real servers produce these bytes themselves.
func EncodeColumn(v Value, meta *xproto.ColumnMeta) ([]byte, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch meta.Type {
	case xproto.TypeSint:
		i, err := v.ToInt64()
		if err != nil {
			return nil, err
		}
		return protowire.AppendVarint(nil, protowire.EncodeZigZag(i)), nil

	case xproto.TypeUint:
		u, err := v.ToUint64()
		if err != nil {
			return nil, err
		}
		return protowire.AppendVarint(nil, u), nil

	case xproto.TypeDouble:
		f, err := v.ToFloat64()
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(f)), nil

	case xproto.TypeFloat:
		f, err := v.ToFloat64()
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(f))), nil

	case xproto.TypeBytes, xproto.TypeEnum:
		return append(append([]byte(nil), v.Raw()...), 0x00), nil

	case xproto.TypeSet:
		return encodeSet(v.ToString()), nil

	case xproto.TypeBit:
		u, err := v.ToUint64()
		if err != nil {
			return nil, err
		}
		return protowire.AppendVarint(nil, u), nil

	case xproto.TypeTime:
		return encodeTime(v.ToString())

	case xproto.TypeDatetime:
		return encodeDatetime(v.ToString())

	case xproto.TypeDecimal:
		return encodeDecimal(v.ToString())
	}
	return nil, fmt.Errorf("unknown column type %d", meta.Type)
}

func encodeSet(s string) []byte {
	if s == "" {
		return []byte{0x00}
	}
	var out []byte
	for _, elem := range strings.Split(s, ",") {
		out = protowire.AppendVarint(out, uint64(len(elem)))
		out = append(out, elem...)
	}
	return out
}

func encodeTime(s string) ([]byte, error) {
	out := []byte{0x00}
	if strings.HasPrefix(s, "-") {
		out[0] = 0x01
		s = s[1:]
	}
	parts, usec, err := splitClock(s)
	if err != nil {
		return nil, err
	}
	for _, p := range []uint64{parts[0], parts[1], parts[2], usec} {
		out = protowire.AppendVarint(out, p)
	}
	return out, nil
}

func encodeDatetime(s string) ([]byte, error) {
	date, clock, ok := strings.Cut(s, " ")
	if !ok {
		return nil, fmt.Errorf("bad DATETIME %q", s)
	}
	d := strings.Split(date, "-")
	if len(d) != 3 {
		return nil, fmt.Errorf("bad DATETIME date %q", date)
	}
	var out []byte
	for _, p := range d {
		u, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, err
		}
		out = protowire.AppendVarint(out, u)
	}
	parts, usec, err := splitClock(clock)
	if err != nil {
		return nil, err
	}
	for _, p := range []uint64{parts[0], parts[1], parts[2], usec} {
		out = protowire.AppendVarint(out, p)
	}
	return out, nil
}

func splitClock(s string) ([3]uint64, uint64, error) {
	var parts [3]uint64
	clock, frac, _ := strings.Cut(s, ".")
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return parts, 0, fmt.Errorf("bad time %q", s)
	}
	for i, p := range hms {
		u, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return parts, 0, err
		}
		parts[i] = u
	}
	var usec uint64
	if frac != "" {
		for len(frac) < 6 {
			frac += "0"
		}
		u, err := strconv.ParseUint(frac[:6], 10, 32)
		if err != nil {
			return parts, 0, err
		}
		usec = u
	}
	return parts, usec, nil
}

func encodeDecimal(s string) ([]byte, error) {
	sign := byte(0x0c)
	if strings.HasPrefix(s, "-") {
		sign = 0x0d
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	digits := intPart + fracPart
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("bad DECIMAL %q", s)
		}
	}
	out := []byte{byte(len(fracPart))}
	nibbles := make([]byte, 0, len(digits)+1)
	for _, c := range digits {
		nibbles = append(nibbles, byte(c-'0'))
	}
	nibbles = append(nibbles, sign)
	if len(nibbles)%2 != 0 {
		nibbles = append(nibbles, 0)
	}
	for i := 0; i < len(nibbles); i += 2 {
		out = append(out, nibbles[i]<<4|nibbles[i+1])
	}
	return out, nil
}
