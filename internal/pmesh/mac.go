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

import "fmt"

// NodeMAC is the 8-byte meter identity: the process-wide 4-byte prefix
// followed by the 4-byte pmesh destination address. Identity is opaque;
// equality and hashing are byte-wise.
type NodeMAC [8]byte

// MakeNodeMAC concatenates the configured prefix with a destination address.
func MakeNodeMAC(prefix [4]byte, dest [4]byte) NodeMAC {
	var mac NodeMAC
	copy(mac[:4], prefix[:])
	copy(mac[4:], dest[:])
	return mac
}

// String renders the MAC in colon-separated hex.
func (m NodeMAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X:%02X:%02X",
		m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7])
}
