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

// Package testutils builds wire-correct push frames for tests.
package testutils

import (
	"encoding/binary"

	"github.com/USA-RedDragon/MeshHES/internal/dlms"
	"github.com/USA-RedDragon/MeshHES/internal/pmesh"
)

// PushFrame describes one on-wire push page. Records holds the pre-encoded
// triple stream; NoOfRecords is carried verbatim so tests can declare
// mismatches.
type PushFrame struct {
	PacketType     uint8
	PANID          [4]byte
	Gateway        [4]byte
	Destination    [4]byte
	PageIndex      uint8
	FrameID        uint8
	Command        uint8
	SubCommand     uint8
	NextPageStatus uint8
	NoOfRecords    uint8
	Records        []byte
}

// EncodeRecord appends one (record_id, 0x00, type_tag, value) triple to dst.
func EncodeRecord(dst []byte, id uint8, v dlms.Value) []byte {
	dst = append(dst, id, dlms.RecordDelimiter, byte(v.Type))
	return dlms.EncodeValue(dst, v)
}

// Encode renders the frame with correct lengths and checksum.
func (f PushFrame) Encode() []byte {
	dlmsLen := pmesh.DlmsHeaderLength + len(f.Records)
	total := pmesh.PmeshHeaderLength + dlmsLen

	buf := make([]byte, 0, total+1)
	buf = append(buf, pmesh.PushStartByte, uint8(total), f.PacketType)
	buf = append(buf, f.PANID[:]...)
	buf = append(buf, f.Gateway[:]...)
	buf = append(buf, f.Destination[:]...)
	buf = append(buf, 0x00, 0x01) // remaining/current packet counts

	buf = append(buf, pmesh.DataStartByte)
	buf = binary.BigEndian.AppendUint16(buf, uint16(dlmsLen))
	buf = append(buf, f.PageIndex, f.FrameID, f.Command, f.SubCommand, f.NextPageStatus, f.NoOfRecords)
	buf = append(buf, f.Records...)

	buf = append(buf, pmesh.Checksum(buf[pmesh.PmeshHeaderLength:]))
	return buf
}

// Uint8 is shorthand for a UINT8-typed value.
func Uint8(v uint8) dlms.Value {
	return dlms.Value{Type: dlms.TypeUint8, Unsigned: uint64(v)}
}

// Uint16 is shorthand for a UINT16-typed value.
func Uint16(v uint16) dlms.Value {
	return dlms.Value{Type: dlms.TypeUint16, Unsigned: uint64(v)}
}

// Uint32 is shorthand for a UINT32-typed value.
func Uint32(v uint32) dlms.Value {
	return dlms.Value{Type: dlms.TypeUint32, Unsigned: uint64(v)}
}

// OctetString is shorthand for an OCTET_STRING-typed value.
func OctetString(b []byte) dlms.Value {
	return dlms.Value{Type: dlms.TypeOctetString, Bytes: b}
}
