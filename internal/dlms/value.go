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
	"fmt"
	"slices"
)

// Value is a decoded DLMS typed value. The arm named by Type is the only one
// carrying data; all reads go through the accessors, which switch on Type.
type Value struct {
	Type DataType

	Bool     bool
	Signed   int64
	Unsigned uint64
	Bytes    []byte
}

// RecordMap maps a record id to its decoded value. Last write wins per
// record id within one assembly.
type RecordMap map[uint8]Value

// Insert stores a value under the record id.
func (m RecordMap) Insert(id uint8, v Value) {
	m[id] = v
}

// Clone returns a deep copy of the record map.
func (m RecordMap) Clone() RecordMap {
	out := make(RecordMap, len(m))
	for id, v := range m {
		v.Bytes = slices.Clone(v.Bytes)
		out[id] = v
	}
	return out
}

// IsString reports whether the value carries a length-prefixed byte string.
func (t DataType) IsString() bool {
	switch t {
	case TypeBitString, TypeOctetString, TypeString, TypeStringUTF8:
		return true
	default:
		return false
	}
}

// Numeric returns the value as a float64 where the type permits. The second
// return is false for strings, arrays and unsupported types.
func (v Value) Numeric() (float64, bool) {
	switch v.Type {
	case TypeBoolean:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeDeltaInt8, TypeDeltaInt16, TypeDeltaInt32:
		return float64(v.Signed), true
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeEnum, TypeDateTime,
		TypeDeltaUint8, TypeDeltaUint16, TypeDeltaUint32:
		return float64(v.Unsigned), true
	default:
		return 0, false
	}
}

// OctetString returns the byte-string arm, or nil when the type is not a
// string type.
func (v Value) OctetString() []byte {
	if v.Type.IsString() {
		return v.Bytes
	}
	return nil
}

// Equal reports byte-wise equality of two values.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	if v.Bool != other.Bool {
		return false
	}
	if v.Signed != other.Signed {
		return false
	}
	if v.Unsigned != other.Unsigned {
		return false
	}
	return slices.Equal(v.Bytes, other.Bytes)
}

// String renders the value for logs, mirroring how values print on the
// operator console.
func (v Value) String() string {
	switch v.Type {
	case TypeNone, TypeArray:
		return fmt.Sprintf("%s: no data", v.Type)
	case TypeBoolean:
		return fmt.Sprintf("%s: %t", v.Type, v.Bool)
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeDeltaInt8, TypeDeltaInt16, TypeDeltaInt32:
		return fmt.Sprintf("%s: %d", v.Type, v.Signed)
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeEnum, TypeDateTime,
		TypeDeltaUint8, TypeDeltaUint16, TypeDeltaUint32:
		return fmt.Sprintf("%s: 0x%X", v.Type, v.Unsigned)
	case TypeBitString, TypeOctetString, TypeString, TypeStringUTF8:
		return fmt.Sprintf("%s: % X", v.Type, v.Bytes)
	default:
		return fmt.Sprintf("%s: unsupported", v.Type)
	}
}

// Numeric looks up a record id and returns its numeric rendering.
func (m RecordMap) Numeric(id uint8) (float64, bool) {
	v, ok := m[id]
	if !ok {
		return 0, false
	}
	return v.Numeric()
}

// NumericOr looks up a record id and returns its numeric rendering, or def
// when the record is absent or not numeric.
func (m RecordMap) NumericOr(id uint8, def float64) float64 {
	n, ok := m.Numeric(id)
	if !ok {
		return def
	}
	return n
}

// OctetString looks up a record id and returns its byte-string arm.
func (m RecordMap) OctetString(id uint8) []byte {
	v, ok := m[id]
	if !ok {
		return nil
	}
	return v.OctetString()
}

// Has reports whether a record id is present.
func (m RecordMap) Has(id uint8) bool {
	_, ok := m[id]
	return ok
}
