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

// DataType is a DLMS data type tag carried inline in the record stream.
type DataType uint8

const (
	TypeNone        DataType = 0x00
	TypeArray       DataType = 0x01
	TypeStructure   DataType = 0x02
	TypeBoolean     DataType = 0x03
	TypeBitString   DataType = 0x04
	TypeInt32       DataType = 0x05
	TypeUint32      DataType = 0x06
	TypeOctetString DataType = 0x09
	TypeString      DataType = 0x0A
	TypeStringUTF8  DataType = 0x0C
	TypeBCD         DataType = 0x0D
	TypeInt8        DataType = 0x0F
	TypeInt16       DataType = 0x10
	TypeUint8       DataType = 0x11
	TypeUint16      DataType = 0x12
	TypeCompactArr  DataType = 0x13
	TypeInt64       DataType = 0x14
	TypeUint64      DataType = 0x15
	TypeEnum        DataType = 0x16
	TypeFloat32     DataType = 0x17
	TypeFloat64     DataType = 0x18
	TypeDateTime    DataType = 0x19
	TypeDate        DataType = 0x1A
	TypeTime        DataType = 0x1B
	TypeDeltaInt8   DataType = 0x1C
	TypeDeltaInt16  DataType = 0x1D
	TypeDeltaInt32  DataType = 0x1E
	TypeDeltaUint8  DataType = 0x1F
	TypeDeltaUint16 DataType = 0x20
	TypeDeltaUint32 DataType = 0x21
)

// String returns the DLMS name of the type tag.
func (t DataType) String() string {
	switch t {
	case TypeNone:
		return "NONE"
	case TypeArray:
		return "ARRAY"
	case TypeStructure:
		return "STRUCTURE"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeBitString:
		return "BIT_STRING"
	case TypeInt32:
		return "INT32"
	case TypeUint32:
		return "UINT32"
	case TypeOctetString:
		return "OCTET_STRING"
	case TypeString:
		return "STRING"
	case TypeStringUTF8:
		return "STRING_UTF8"
	case TypeBCD:
		return "BCD"
	case TypeInt8:
		return "INT8"
	case TypeInt16:
		return "INT16"
	case TypeUint8:
		return "UINT8"
	case TypeUint16:
		return "UINT16"
	case TypeCompactArr:
		return "COMPACT_ARRAY"
	case TypeInt64:
		return "INT64"
	case TypeUint64:
		return "UINT64"
	case TypeEnum:
		return "ENUM"
	case TypeFloat32:
		return "FLOAT32"
	case TypeFloat64:
		return "FLOAT64"
	case TypeDateTime:
		return "DATETIME"
	case TypeDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	case TypeDeltaInt8:
		return "DELTA_INT8"
	case TypeDeltaInt16:
		return "DELTA_INT16"
	case TypeDeltaInt32:
		return "DELTA_INT32"
	case TypeDeltaUint8:
		return "DELTA_UINT8"
	case TypeDeltaUint16:
		return "DELTA_UINT16"
	case TypeDeltaUint32:
		return "DELTA_UINT32"
	default:
		return "UNKNOWN"
	}
}

// RecordDelimiter separates the record id from the type tag in every triple.
const RecordDelimiter = 0x00

// BlockEndRecordID is the sentinel record id that closes one block-load
// record map and starts the next.
const BlockEndRecordID = 0x06

// MaxOctetStringLen is the largest accepted length for a length-prefixed
// string value. Longer lengths fail the decode.
const MaxOctetStringLen = 127
