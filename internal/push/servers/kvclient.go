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

package servers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/USA-RedDragon/MeshHES/internal/kv"
	"go.opentelemetry.io/otel"
)

// KVClient tracks gateway liveness in the shared KV store, so operators and
// other instances can see which gateway sessions are currently pushing.
type KVClient struct {
	kv kv.KV
}

const gatewayKeyPrefix = "meshhes:gateway:"
const gatewayExpireTime = 5 * time.Minute

// GatewayState is the stored per-gateway record.
type GatewayState struct {
	RemoteIP string    `json:"remoteIP"`
	LastSeen time.Time `json:"lastSeen"`
}

func MakeKVClient(kv kv.KV) *KVClient {
	return &KVClient{
		kv: kv,
	}
}

// UpdateGatewaySeen refreshes the gateway's liveness record and TTL.
func (s *KVClient) UpdateGatewaySeen(ctx context.Context, gatewayID, remoteIP string) {
	ctx, span := otel.Tracer("MeshHES").Start(ctx, "KVClient.updateGatewaySeen")
	defer span.End()

	state := GatewayState{
		RemoteIP: remoteIP,
		LastSeen: time.Now(),
	}
	stateBytes, err := json.Marshal(state)
	if err != nil {
		slog.Error("Error marshalling gateway state", "gateway", gatewayID, "error", err)
		return
	}
	key := gatewayKeyPrefix + gatewayID
	if err := s.kv.Set(ctx, key, stateBytes); err != nil {
		slog.Error("Error storing gateway state", "gateway", gatewayID, "error", err)
		return
	}
	if err := s.kv.Expire(ctx, key, gatewayExpireTime); err != nil {
		slog.Error("Error expiring gateway state", "gateway", gatewayID, "error", err)
	}
}

// GetGateway returns the stored state for one gateway.
func (s *KVClient) GetGateway(ctx context.Context, gatewayID string) (GatewayState, error) {
	ctx, span := otel.Tracer("MeshHES").Start(ctx, "KVClient.getGateway")
	defer span.End()

	var state GatewayState
	data, err := s.kv.Get(ctx, gatewayKeyPrefix+gatewayID)
	if err != nil {
		return state, fmt.Errorf("gateway %s not found: %w", gatewayID, err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to unmarshal gateway %s: %w", gatewayID, err)
	}
	return state, nil
}

// ListGateways returns the ids of every gateway seen within the TTL window.
func (s *KVClient) ListGateways(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("MeshHES").Start(ctx, "KVClient.listGateways")
	defer span.End()

	keys, _, err := s.kv.Scan(ctx, 0, gatewayKeyPrefix+"*", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to scan gateways: %w", err)
	}
	gateways := make([]string, 0, len(keys))
	for _, key := range keys {
		gateways = append(gateways, strings.TrimPrefix(key, gatewayKeyPrefix))
	}
	return gateways, nil
}
