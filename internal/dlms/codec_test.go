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

package dlms_test

import (
	"testing"

	"github.com/USA-RedDragon/MeshHES/internal/dlms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		value dlms.Value
	}{
		{"boolean true", dlms.Value{Type: dlms.TypeBoolean, Bool: true}},
		{"boolean false", dlms.Value{Type: dlms.TypeBoolean, Bool: false}},
		{"int8 negative", dlms.Value{Type: dlms.TypeInt8, Signed: -12}},
		{"delta int8", dlms.Value{Type: dlms.TypeDeltaInt8, Signed: -128}},
		{"uint8", dlms.Value{Type: dlms.TypeUint8, Unsigned: 0xFF}},
		{"delta uint8", dlms.Value{Type: dlms.TypeDeltaUint8, Unsigned: 7}},
		{"enum", dlms.Value{Type: dlms.TypeEnum, Unsigned: 3}},
		{"int16 negative", dlms.Value{Type: dlms.TypeInt16, Signed: -30000}},
		{"delta int16", dlms.Value{Type: dlms.TypeDeltaInt16, Signed: 512}},
		{"uint16", dlms.Value{Type: dlms.TypeUint16, Unsigned: 0xBEEF}},
		{"delta uint16", dlms.Value{Type: dlms.TypeDeltaUint16, Unsigned: 42}},
		{"int32 negative", dlms.Value{Type: dlms.TypeInt32, Signed: -2000000000}},
		{"uint32", dlms.Value{Type: dlms.TypeUint32, Unsigned: 0xDEADBEEF}},
		{"datetime", dlms.Value{Type: dlms.TypeDateTime, Unsigned: 1690000000}},
		{"int64 negative", dlms.Value{Type: dlms.TypeInt64, Signed: -9000000000000000000}},
		{"uint64", dlms.Value{Type: dlms.TypeUint64, Unsigned: 0xCAFEBABEDEADBEEF}},
		{"bit string", dlms.Value{Type: dlms.TypeBitString, Bytes: []byte{0xAA}}},
		{"octet string", dlms.Value{Type: dlms.TypeOctetString, Bytes: []byte{0x41, 0x42}}},
		{"string", dlms.Value{Type: dlms.TypeString, Bytes: []byte("meter-01")}},
		{"string utf8", dlms.Value{Type: dlms.TypeStringUTF8, Bytes: []byte("kWh")}},
		{"empty octet string", dlms.Value{Type: dlms.TypeOctetString, Bytes: []byte{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wire := dlms.EncodeValue(nil, tt.value)

			offset := 0
			got, err := dlms.DecodeValue(wire, &offset, tt.value.Type)
			require.NoError(t, err)
			assert.Equal(t, len(wire), offset, "offset must advance by exactly the consumed width")
			assert.True(t, got.Equal(tt.value), "decoded %s, want %s", got, tt.value)
		})
	}
}

func TestDecodeArrayProducesNoValue(t *testing.T) {
	t.Parallel()
	offset := 0
	v, err := dlms.DecodeValue([]byte{0x99}, &offset, dlms.TypeArray)
	require.NoError(t, err)
	assert.Equal(t, 0, offset, "ARRAY consumes no payload bytes")
	assert.Equal(t, dlms.TypeArray, v.Type)
	_, numeric := v.Numeric()
	assert.False(t, numeric)
}

func TestDecodeUnsupportedTypes(t *testing.T) {
	t.Parallel()
	unsupported := []dlms.DataType{
		dlms.TypeNone,
		dlms.TypeStructure,
		dlms.TypeBCD,
		dlms.TypeCompactArr,
		dlms.TypeFloat32,
		dlms.TypeFloat64,
		dlms.TypeDate,
		dlms.TypeTime,
		dlms.TypeDeltaInt32,
		dlms.TypeDeltaUint32,
		dlms.DataType(0x7F),
	}
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	for _, typ := range unsupported {
		offset := 2
		_, err := dlms.DecodeValue(data, &offset, typ)
		assert.ErrorIs(t, err, dlms.ErrUnsupportedType, "type %s must refuse to decode", typ)
		assert.Equal(t, 2, offset, "offset must not move on error for type %s", typ)
	}
}

func TestDecodeTruncated(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		typ  dlms.DataType
	}{
		{"empty buffer", []byte{}, dlms.TypeUint8},
		{"uint16 one byte", []byte{0x01}, dlms.TypeUint16},
		{"uint32 three bytes", []byte{0x01, 0x02, 0x03}, dlms.TypeUint32},
		{"int64 seven bytes", []byte{1, 2, 3, 4, 5, 6, 7}, dlms.TypeInt64},
		{"string shorter than length", []byte{0x05, 0x41, 0x42}, dlms.TypeOctetString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			offset := 0
			_, err := dlms.DecodeValue(tt.data, &offset, tt.typ)
			assert.ErrorIs(t, err, dlms.ErrTruncated)
			assert.Equal(t, 0, offset, "offset must not move on error")
		})
	}
}

func TestDecodeStringTooLong(t *testing.T) {
	t.Parallel()
	data := make([]byte, 300)
	data[0] = 200 // length byte over the 127 ceiling
	offset := 0
	_, err := dlms.DecodeValue(data, &offset, dlms.TypeOctetString)
	assert.ErrorIs(t, err, dlms.ErrStringTooLong)
	assert.Equal(t, 0, offset)

	data[0] = dlms.MaxOctetStringLen
	_, err = dlms.DecodeValue(data, &offset, dlms.TypeOctetString)
	assert.NoError(t, err, "exactly 127 bytes is accepted")
}

func TestDecodeOffsetMidBuffer(t *testing.T) {
	t.Parallel()
	data := []byte{0xFF, 0xFF, 0x00, 0x42, 0xFF}
	offset := 2
	v, err := dlms.DecodeValue(data, &offset, dlms.TypeUint16)
	require.NoError(t, err)
	assert.Equal(t, 4, offset)
	assert.Equal(t, uint64(0x0042), v.Unsigned)
}
