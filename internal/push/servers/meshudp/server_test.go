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

package meshudp_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/USA-RedDragon/MeshHES/internal/config"
	"github.com/USA-RedDragon/MeshHES/internal/dlms"
	"github.com/USA-RedDragon/MeshHES/internal/kv"
	"github.com/USA-RedDragon/MeshHES/internal/pmesh"
	"github.com/USA-RedDragon/MeshHES/internal/pubsub"
	"github.com/USA-RedDragon/MeshHES/internal/push"
	"github.com/USA-RedDragon/MeshHES/internal/push/servers"
	"github.com/USA-RedDragon/MeshHES/internal/push/servers/meshudp"
	"github.com/USA-RedDragon/MeshHES/internal/testutils"
	"github.com/USA-RedDragon/configulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSink counts instantaneous inserts.
type countingSink struct {
	mu            sync.Mutex
	instantaneous int
	lastNode      pmesh.NodeMAC
}

func (s *countingSink) InsertInstantaneous(_ context.Context, node pmesh.NodeMAC, _ string, _ int, _ dlms.RecordMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instantaneous++
	s.lastNode = node
	return nil
}

func (s *countingSink) InsertDailyLoad(context.Context, pmesh.NodeMAC, string, dlms.RecordMap) error {
	return nil
}

func (s *countingSink) InsertBlockLoad(context.Context, pmesh.NodeMAC, string, int, []dlms.RecordMap) error {
	return nil
}

func (s *countingSink) InsertBillingHistory(context.Context, pmesh.NodeMAC, string, dlms.RecordMap) error {
	return nil
}

func (s *countingSink) InsertPowerOnEvent(context.Context, pmesh.NodeMAC, string, dlms.RecordMap) error {
	return nil
}

func (s *countingSink) InsertPowerOffEvent(context.Context, pmesh.NodeMAC, string, dlms.RecordMap) error {
	return nil
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instantaneous
}

func TestServerEndToEnd(t *testing.T) {
	t.Parallel()

	defConfig, err := configulator.New[config.Config]().Default()
	require.NoError(t, err)
	defConfig.Ingest.Bind = "127.0.0.1"
	defConfig.Ingest.Port = 0 // let the kernel pick

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ps, err := pubsub.MakePubSub(ctx, &defConfig)
	require.NoError(t, err)
	kvStore, err := kv.MakeKV(ctx, &defConfig)
	require.NoError(t, err)

	sink := &countingSink{}
	store := push.NewStore()
	dispatcher := push.NewDispatcher(&defConfig, store, sink, ps, nil, nil)

	server := meshudp.MakeServer(&defConfig, dispatcher, ps, kvStore)
	require.NoError(t, server.Start(ctx))
	defer server.Stop(ctx)

	frame := testutils.PushFrame{
		Gateway:        [4]byte{0x0A, 0x0B, 0x0C, 0x0D},
		Destination:    [4]byte{0xDE, 0xAD, 0xBE, 0xEF},
		FrameID:        push.FrameInstantData,
		Command:        push.CommandIPProfile,
		NextPageStatus: 0x00,
		NoOfRecords:    1,
		Records:        testutils.EncodeRecord(nil, 0x01, testutils.Uint16(0x0042)),
	}.Encode()

	conn, err := net.DialUDP("udp", nil, server.Server.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	_, err = conn.Write(frame)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, 2*time.Second, 10*time.Millisecond, "expected the pushed frame to reach the sink")

	expectedNode := pmesh.MakeNodeMAC(defConfig.Mesh.PrefixBytes(), [4]byte{0xDE, 0xAD, 0xBE, 0xEF})
	sink.mu.Lock()
	assert.Equal(t, expectedNode, sink.lastNode)
	sink.mu.Unlock()

	// The gateway's liveness record lands in the KV store.
	kvClient := servers.MakeKVClient(kvStore)
	gateways, err := kvClient.ListGateways(ctx)
	require.NoError(t, err)
	assert.Contains(t, gateways, "0a0b0c0d")

	// A corrupt packet is swallowed without disturbing the server.
	bad := append([]byte(nil), frame...)
	bad[len(bad)-2] ^= 0x01
	_, err = conn.Write(bad)
	require.NoError(t, err)

	_, err = conn.Write(frame)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return sink.count() == 2
	}, 2*time.Second, 10*time.Millisecond)
}
