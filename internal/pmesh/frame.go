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

package pmesh

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// PmeshHeaderLength is the fixed size of the mesh routing header.
	PmeshHeaderLength = 17
	// DlmsHeaderLength is the fixed size of the DLMS push header stacked
	// behind the mesh header.
	DlmsHeaderLength = 9

	// PushStartByte opens every pmesh push frame.
	PushStartByte = 0x2E
	// DataStartByte opens the DLMS push header.
	DataStartByte = 0x2C
	// PullStartByte opens pull-mode frames, which this path never carries.
	PullStartByte = 0x2D

	// TerminalPage is the next_page_status value marking the last page of a
	// profile stream.
	TerminalPage = 0x00
)

var (
	// ErrBounds indicates the buffer is too short for the declared layout.
	ErrBounds = errors.New("frame bounds check failed")
	// ErrChecksum indicates the byte-sum checksum did not match.
	ErrChecksum = errors.New("frame checksum mismatch")
)

// Header is the 17-byte pmesh routing header.
type Header struct {
	StartByte uint8
	// TotalLength is the offset of the checksum byte, covering the mesh and
	// DLMS payloads.
	TotalLength       uint8
	PacketType        uint8
	PANID             [4]byte
	GatewayAddr       [4]byte
	DestinationAddr   [4]byte
	RemainingPktCount uint8
	CurrentPktCount   uint8
}

// GatewayID renders the gateway address as the hex identifier used in
// persistence and logs.
func (h Header) GatewayID() string {
	return hex.EncodeToString(h.GatewayAddr[:])
}

// DlmsHeader is the 9-byte push-data header.
type DlmsHeader struct {
	StartByte uint8
	// PayloadLength covers the DLMS header itself plus the record stream.
	PayloadLength    uint16
	CurrentPageIndex uint8
	FrameID          uint8
	Command          uint8
	SubCommand       uint8
	NextPageStatus   uint8
	NoOfRecords      uint8
}

// Terminal reports whether this page closes the profile stream.
func (h DlmsHeader) Terminal() bool {
	return h.NextPageStatus == TerminalPage
}

// Frame is a validated push frame. Records aliases the input buffer.
type Frame struct {
	Pmesh   Header
	Dlms    DlmsHeader
	Records []byte
}

// Checksum reduces the byte sum of data modulo 256.
func Checksum(data []byte) uint8 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return uint8(sum)
}

// ParseFrame validates the two stacked headers and the checksum and returns
// a frame view over data. The returned Records slice holds only the record
// stream, with headers and checksum stripped.
func ParseFrame(data []byte) (Frame, error) {
	if len(data) < PmeshHeaderLength+DlmsHeaderLength {
		return Frame{}, fmt.Errorf("%w: packet of %d bytes cannot hold both headers", ErrBounds, len(data))
	}

	var f Frame
	f.Pmesh.StartByte = data[0]
	f.Pmesh.TotalLength = data[1]
	f.Pmesh.PacketType = data[2]
	copy(f.Pmesh.PANID[:], data[3:7])
	copy(f.Pmesh.GatewayAddr[:], data[7:11])
	copy(f.Pmesh.DestinationAddr[:], data[11:15])
	f.Pmesh.RemainingPktCount = data[15]
	f.Pmesh.CurrentPktCount = data[16]

	f.Dlms.StartByte = data[PmeshHeaderLength]
	f.Dlms.PayloadLength = binary.BigEndian.Uint16(data[PmeshHeaderLength+1:])
	f.Dlms.CurrentPageIndex = data[PmeshHeaderLength+3]
	f.Dlms.FrameID = data[PmeshHeaderLength+4]
	f.Dlms.Command = data[PmeshHeaderLength+5]
	f.Dlms.SubCommand = data[PmeshHeaderLength+6]
	f.Dlms.NextPageStatus = data[PmeshHeaderLength+7]
	f.Dlms.NoOfRecords = data[PmeshHeaderLength+8]

	if int(f.Pmesh.TotalLength)+1 > len(data) {
		return Frame{}, fmt.Errorf("%w: checksum offset %d outside packet of %d bytes", ErrBounds, f.Pmesh.TotalLength, len(data))
	}
	payloadEnd := PmeshHeaderLength + int(f.Dlms.PayloadLength)
	if payloadEnd > len(data) {
		return Frame{}, fmt.Errorf("%w: payload end %d outside packet of %d bytes", ErrBounds, payloadEnd, len(data))
	}
	if int(f.Dlms.PayloadLength) < DlmsHeaderLength {
		return Frame{}, fmt.Errorf("%w: payload length %d shorter than the DLMS header", ErrBounds, f.Dlms.PayloadLength)
	}

	received := data[f.Pmesh.TotalLength]
	calculated := Checksum(data[PmeshHeaderLength:payloadEnd])
	if received != calculated {
		return Frame{}, fmt.Errorf("%w: received 0x%02X, calculated 0x%02X", ErrChecksum, received, calculated)
	}

	f.Records = data[PmeshHeaderLength+DlmsHeaderLength : payloadEnd]
	return f, nil
}
