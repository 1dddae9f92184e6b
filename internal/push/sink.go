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

import (
	"context"
	"time"

	"github.com/USA-RedDragon/MeshHES/internal/dlms"
	"github.com/USA-RedDragon/MeshHES/internal/pmesh"
)

// Sink receives completed profile assemblies. Implementations are assumed to
// require serialized access; the dispatcher never calls concurrently.
// Failures are logged by the caller and the assembly is not retried.
type Sink interface {
	InsertInstantaneous(ctx context.Context, node pmesh.NodeMAC, gatewayID string, cycleID int, records dlms.RecordMap) error
	InsertDailyLoad(ctx context.Context, node pmesh.NodeMAC, gatewayID string, records dlms.RecordMap) error
	InsertBlockLoad(ctx context.Context, node pmesh.NodeMAC, gatewayID string, cycleID int, blocks []dlms.RecordMap) error
	InsertBillingHistory(ctx context.Context, node pmesh.NodeMAC, gatewayID string, records dlms.RecordMap) error
	InsertPowerOnEvent(ctx context.Context, node pmesh.NodeMAC, gatewayID string, records dlms.RecordMap) error
	InsertPowerOffEvent(ctx context.Context, node pmesh.NodeMAC, gatewayID string, records dlms.RecordMap) error
}

// CycleFunc buckets a wall-clock instant into the collaborator-defined
// cycle id used to tag instantaneous and block-load rows.
type CycleFunc func(now time.Time, kind ProfileKind) int
