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

package push

// Frame IDs carried in the DLMS push header.
const (
	FrameObisScalerList      = 0x0A
	FrameObisList            = 0x0B
	FrameCacheData           = 0x0C
	FrameInstantData         = 0x0E
	FrameObjectReadWrite     = 0x0F
	FrameEventObjectRead     = 0x10
	FramePowerFailObjectRead = 0x11
)

// DLMS profile commands under FrameInstantData.
const (
	CommandNameplateProfile = 0x00
	CommandIPProfile        = 0x01
	CommandBillingProfile   = 0x02
	CommandDailyLoadProfile = 0x03
	CommandBlockLoadProfile = 0x04
)

// ProfileKind names one per-meter reassembly stream.
type ProfileKind int

const (
	Instantaneous ProfileKind = iota
	DailyLoad
	BlockLoad
	BillingHistory
	PowerOnEvent
	PowerOffEvent
)

// String returns the profile name used in logs and metric labels.
func (k ProfileKind) String() string {
	switch k {
	case Instantaneous:
		return "instantaneous"
	case DailyLoad:
		return "daily_load"
	case BlockLoad:
		return "block_load"
	case BillingHistory:
		return "billing_history"
	case PowerOnEvent:
		return "power_on_event"
	case PowerOffEvent:
		return "power_off_event"
	default:
		return "unknown"
	}
}

// Classify maps a (frame_id, command) pair to its profile kind. The second
// return is false for combinations the push path does not dispatch, such as
// pull-mode object reads and the nameplate profile.
func Classify(frameID, command uint8) (ProfileKind, bool) {
	switch frameID {
	case FrameInstantData:
		switch command {
		case CommandIPProfile:
			return Instantaneous, true
		case CommandBillingProfile:
			return BillingHistory, true
		case CommandDailyLoadProfile:
			return DailyLoad, true
		case CommandBlockLoadProfile:
			return BlockLoad, true
		default:
			return 0, false
		}
	case FrameEventObjectRead:
		return PowerOnEvent, true
	case FramePowerFailObjectRead:
		return PowerOffEvent, true
	default:
		return 0, false
	}
}
