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

package pmesh_test

import (
	"testing"

	"github.com/USA-RedDragon/MeshHES/internal/pmesh"
	"github.com/USA-RedDragon/MeshHES/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame() testutils.PushFrame {
	return testutils.PushFrame{
		PANID:          [4]byte{0x11, 0x22, 0x33, 0x44},
		Gateway:        [4]byte{0x0A, 0x0B, 0x0C, 0x0D},
		Destination:    [4]byte{0xDE, 0xAD, 0xBE, 0xEF},
		FrameID:        0x0E,
		Command:        0x01,
		NextPageStatus: 0x00,
		NoOfRecords:    1,
		Records:        testutils.EncodeRecord(nil, 0x01, testutils.Uint16(0x0042)),
	}
}

func TestParseFrameHappyPath(t *testing.T) {
	t.Parallel()
	data := testFrame().Encode()

	frame, err := pmesh.ParseFrame(data)
	require.NoError(t, err)

	assert.EqualValues(t, pmesh.PushStartByte, frame.Pmesh.StartByte)
	assert.Equal(t, [4]byte{0x0A, 0x0B, 0x0C, 0x0D}, frame.Pmesh.GatewayAddr)
	assert.Equal(t, [4]byte{0xDE, 0xAD, 0xBE, 0xEF}, frame.Pmesh.DestinationAddr)
	assert.EqualValues(t, pmesh.DataStartByte, frame.Dlms.StartByte)
	assert.EqualValues(t, 0x0E, frame.Dlms.FrameID)
	assert.EqualValues(t, 0x01, frame.Dlms.Command)
	assert.True(t, frame.Dlms.Terminal())
	assert.EqualValues(t, 1, frame.Dlms.NoOfRecords)
	// id + delimiter + tag + 2 payload bytes
	assert.Len(t, frame.Records, 5)
	assert.Equal(t, "0a0b0c0d", frame.Pmesh.GatewayID())
}

func TestParseFrameChecksumCorruption(t *testing.T) {
	t.Parallel()
	base := testFrame().Encode()

	// Flipping any payload byte that changes the byte sum must be caught.
	for _, idx := range []int{pmesh.PmeshHeaderLength, pmesh.PmeshHeaderLength + 4, len(base) - 2} {
		data := append([]byte(nil), base...)
		data[idx] ^= 0x01
		_, err := pmesh.ParseFrame(data)
		assert.ErrorIs(t, err, pmesh.ErrChecksum, "flipped byte %d", idx)
	}
}

func TestParseFrameBounds(t *testing.T) {
	t.Parallel()
	base := testFrame().Encode()

	t.Run("shorter than both headers", func(t *testing.T) {
		t.Parallel()
		_, err := pmesh.ParseFrame(base[:pmesh.PmeshHeaderLength+pmesh.DlmsHeaderLength-1])
		assert.ErrorIs(t, err, pmesh.ErrBounds)
	})

	t.Run("checksum byte missing", func(t *testing.T) {
		t.Parallel()
		_, err := pmesh.ParseFrame(base[:len(base)-1])
		assert.ErrorIs(t, err, pmesh.ErrBounds)
	})

	t.Run("declared payload outruns packet", func(t *testing.T) {
		t.Parallel()
		data := append([]byte(nil), base...)
		// Inflate the declared DLMS payload length beyond the buffer.
		data[pmesh.PmeshHeaderLength+1] = 0x7F
		data[pmesh.PmeshHeaderLength+2] = 0xFF
		_, err := pmesh.ParseFrame(data)
		assert.ErrorIs(t, err, pmesh.ErrBounds)
	})

	t.Run("empty packet", func(t *testing.T) {
		t.Parallel()
		_, err := pmesh.ParseFrame(nil)
		assert.ErrorIs(t, err, pmesh.ErrBounds)
	})
}

func TestChecksum(t *testing.T) {
	t.Parallel()
	assert.EqualValues(t, 0, pmesh.Checksum(nil))
	assert.EqualValues(t, 6, pmesh.Checksum([]byte{1, 2, 3}))
	// Sum reduces modulo 256.
	assert.EqualValues(t, 0x01, pmesh.Checksum([]byte{0xFF, 0x02}))
}

func TestMakeNodeMAC(t *testing.T) {
	t.Parallel()
	mac := pmesh.MakeNodeMAC([4]byte{0xCA, 0xFE, 0x00, 0x01}, [4]byte{0xDE, 0xAD, 0xBE, 0xEF})
	assert.Equal(t, pmesh.NodeMAC{0xCA, 0xFE, 0x00, 0x01, 0xDE, 0xAD, 0xBE, 0xEF}, mac)
	assert.Equal(t, "CA:FE:00:01:DE:AD:BE:EF", mac.String())
}
