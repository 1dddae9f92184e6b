// SPDX-License-Identifier: AGPL-3.0-or-later
// MeshHES - A DLMS/COSEM head-end system for pmesh-routed meters
// Copyright (C) 2023 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/USA-RedDragon/MeshHES>

package dlms

import (
	"encoding/binary"
	"errors"
	"slices"
)

var (
	// ErrTruncated indicates the buffer ended before the declared value width.
	ErrTruncated = errors.New("value truncated")
	// ErrUnsupportedType indicates a type tag the codec refuses to decode.
	ErrUnsupportedType = errors.New("unsupported data type")
	// ErrStringTooLong indicates a length-prefixed string longer than MaxOctetStringLen.
	ErrStringTooLong = errors.New("string length exceeds 127 bytes")
)

// DecodeValue decodes one self-describing value of type t from data at
// *offset. On success the offset advances by exactly the consumed width; on
// any error the offset is left unchanged. Integers are big-endian; signed
// widths are two's-complement.
func DecodeValue(data []byte, offset *int, t DataType) (Value, error) {
	pos := *offset
	if pos >= len(data) {
		return Value{}, ErrTruncated
	}

	v := Value{Type: t}

	switch t {
	case TypeArray:
		// Carried by some simulators as a bare tag with no payload.

	case TypeBoolean:
		v.Bool = data[pos] != 0
		pos++

	case TypeInt8, TypeDeltaInt8:
		v.Signed = int64(int8(data[pos]))
		pos++

	case TypeUint8, TypeDeltaUint8, TypeEnum:
		v.Unsigned = uint64(data[pos])
		pos++

	case TypeInt16, TypeDeltaInt16:
		if pos+2 > len(data) {
			return Value{}, ErrTruncated
		}
		v.Signed = int64(int16(binary.BigEndian.Uint16(data[pos:])))
		pos += 2

	case TypeUint16, TypeDeltaUint16:
		if pos+2 > len(data) {
			return Value{}, ErrTruncated
		}
		v.Unsigned = uint64(binary.BigEndian.Uint16(data[pos:]))
		pos += 2

	case TypeInt32:
		if pos+4 > len(data) {
			return Value{}, ErrTruncated
		}
		v.Signed = int64(int32(binary.BigEndian.Uint32(data[pos:])))
		pos += 4

	case TypeUint32, TypeDateTime:
		if pos+4 > len(data) {
			return Value{}, ErrTruncated
		}
		v.Unsigned = uint64(binary.BigEndian.Uint32(data[pos:]))
		pos += 4

	case TypeInt64:
		if pos+8 > len(data) {
			return Value{}, ErrTruncated
		}
		v.Signed = int64(binary.BigEndian.Uint64(data[pos:]))
		pos += 8

	case TypeUint64:
		if pos+8 > len(data) {
			return Value{}, ErrTruncated
		}
		v.Unsigned = binary.BigEndian.Uint64(data[pos:])
		pos += 8

	case TypeBitString, TypeOctetString, TypeString, TypeStringUTF8:
		length := int(data[pos])
		if length > MaxOctetStringLen {
			return Value{}, ErrStringTooLong
		}
		if pos+1+length > len(data) {
			return Value{}, ErrTruncated
		}
		v.Bytes = slices.Clone(data[pos+1 : pos+1+length])
		pos += 1 + length

	default:
		// DELTA_UINT32, FLOAT32/64, DATE, TIME, BCD, STRUCTURE and
		// COMPACT_ARRAY are reserved: refuse rather than guess an encoding.
		return Value{}, ErrUnsupportedType
	}

	*offset = pos
	return v, nil
}

// EncodeValue appends the wire encoding of v (payload only, without the
// record id, delimiter or type tag) to dst.
func EncodeValue(dst []byte, v Value) []byte {
	switch v.Type {
	case TypeArray:
		return dst
	case TypeBoolean:
		if v.Bool {
			return append(dst, 0x01)
		}
		return append(dst, 0x00)
	case TypeInt8, TypeDeltaInt8:
		return append(dst, byte(int8(v.Signed)))
	case TypeUint8, TypeDeltaUint8, TypeEnum:
		return append(dst, byte(v.Unsigned))
	case TypeInt16, TypeDeltaInt16:
		return binary.BigEndian.AppendUint16(dst, uint16(int16(v.Signed)))
	case TypeUint16, TypeDeltaUint16:
		return binary.BigEndian.AppendUint16(dst, uint16(v.Unsigned))
	case TypeInt32:
		return binary.BigEndian.AppendUint32(dst, uint32(int32(v.Signed)))
	case TypeUint32, TypeDateTime:
		return binary.BigEndian.AppendUint32(dst, uint32(v.Unsigned))
	case TypeInt64:
		return binary.BigEndian.AppendUint64(dst, uint64(v.Signed))
	case TypeUint64:
		return binary.BigEndian.AppendUint64(dst, v.Unsigned)
	case TypeBitString, TypeOctetString, TypeString, TypeStringUTF8:
		dst = append(dst, byte(len(v.Bytes)))
		return append(dst, v.Bytes...)
	default:
		return dst
	}
}
