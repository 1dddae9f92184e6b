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

package models

import "encoding/json"

// RawMeshPacket is the envelope a push packet travels in between the ingress
// socket and the dispatcher, carrying the gateway session's remote address.
type RawMeshPacket struct {
	RemoteIP   string `json:"remoteIP"`
	RemotePort int    `json:"remotePort"`
	Data       []byte `json:"data"`
}

// MarshalBinary encodes the packet for the pubsub wire.
func (p RawMeshPacket) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalBinary decodes a packet from the pubsub wire.
func (p *RawMeshPacket) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, p)
}
