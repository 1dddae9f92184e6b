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

package meshudp

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/USA-RedDragon/MeshHES/internal/config"
	"github.com/USA-RedDragon/MeshHES/internal/kv"
	"github.com/USA-RedDragon/MeshHES/internal/models"
	"github.com/USA-RedDragon/MeshHES/internal/pmesh"
	"github.com/USA-RedDragon/MeshHES/internal/pubsub"
	"github.com/USA-RedDragon/MeshHES/internal/push"
	"github.com/USA-RedDragon/MeshHES/internal/push/servers"
	"go.opentelemetry.io/otel"
)

// IncomingTopic carries raw push packets from the socket to the dispatcher.
const IncomingTopic = "push:incoming"

const bufferSize = 1000000 // 1MB

var (
	ErrOpenSocket   = errors.New("error opening socket")
	ErrSocketBuffer = errors.New("error setting socket buffer size")
)

// Server is the push ingest server. Gateways stream pmesh push frames at it
// over UDP; frames are published to the pubsub and consumed by the
// dispatcher loop, so multiple producers fan in through one path.
type Server struct {
	Buffer        []byte
	config        *config.Config
	SocketAddress net.UDPAddr
	Server        *net.UDPConn
	Started       bool
	dispatcher    *push.Dispatcher
	pubsub        pubsub.PubSub
	kvClient      *servers.KVClient
}

// MakeServer creates a new push ingest server.
func MakeServer(config *config.Config, dispatcher *push.Dispatcher, ps pubsub.PubSub, kv kv.KV) Server {
	return Server{
		Buffer: make([]byte, config.Mesh.MaxPacketBytes),
		config: config,
		SocketAddress: net.UDPAddr{
			IP:   net.ParseIP(config.Ingest.Bind),
			Port: config.Ingest.Port,
		},
		Started:    false,
		dispatcher: dispatcher,
		pubsub:     ps,
		kvClient:   servers.MakeKVClient(kv),
	}
}

// Start opens the socket and starts the read and dispatch loops.
func (s *Server) Start(ctx context.Context) error {
	_, span := otel.Tracer("MeshHES").Start(ctx, "Server.Start")
	defer span.End()

	server, err := net.ListenUDP("udp", &s.SocketAddress)
	if err != nil {
		return errors.Join(ErrOpenSocket, err)
	}

	if err := server.SetReadBuffer(bufferSize); err != nil {
		return errors.Join(ErrSocketBuffer, err)
	}

	s.Server = server
	s.Started = true

	slog.Info("Push ingest server listening", "address", s.SocketAddress.IP.String(), "port", s.SocketAddress.Port)

	go s.listen(ctx)
	go s.readSocket(ctx)

	return nil
}

// Stop closes the socket and reports the gateways that were live.
func (s *Server) Stop(ctx context.Context) {
	ctx, span := otel.Tracer("MeshHES").Start(ctx, "Server.Stop")
	defer span.End()

	gateways, err := s.kvClient.ListGateways(ctx)
	if err != nil {
		slog.Error("Error scanning KV for gateways", "error", err)
	} else {
		slog.Info("Stopping push ingest server", "liveGateways", len(gateways))
	}

	s.Started = false
	if s.Server != nil {
		if err := s.Server.Close(); err != nil {
			slog.Error("Error closing socket", "error", err)
		}
	}
}

// listen consumes raw packets off the pubsub and feeds the dispatcher.
func (s *Server) listen(ctx context.Context) {
	sub := s.pubsub.Subscribe(IncomingTopic)
	defer func() {
		if err := sub.Close(); err != nil {
			slog.Error("Error closing subscription", "error", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping push dispatch loop")
			return
		case payload, ok := <-sub.Channel():
			if !ok {
				return
			}
			var packet models.RawMeshPacket
			if err := packet.UnmarshalBinary(payload); err != nil {
				slog.Error("Error unmarshalling packet", "error", err)
				continue
			}
			s.handlePacket(ctx, packet)
		}
	}
}

// readSocket reads datagrams and publishes them on the incoming topic.
func (s *Server) readSocket(ctx context.Context) {
	for {
		length, remoteaddr, err := s.Server.ReadFromUDP(s.Buffer)
		if err != nil {
			if !s.Started {
				return
			}
			slog.Warn("Error reading from UDP socket, swallowing error", "error", err)
			continue
		}
		slog.Debug("Read a message", "remote", remoteaddr, "bytes", length)

		packet := models.RawMeshPacket{
			RemoteIP:   remoteaddr.IP.String(),
			RemotePort: remoteaddr.Port,
			Data:       append([]byte(nil), s.Buffer[:length]...),
		}
		payload, err := packet.MarshalBinary()
		if err != nil {
			slog.Error("Error marshalling packet", "error", err)
			continue
		}
		if err := s.pubsub.Publish(IncomingTopic, payload); err != nil {
			slog.Error("Error publishing packet", "error", err)
		}
	}
}

// handlePacket records gateway liveness and runs one packet through the
// dispatcher. Core errors are drops: log and move on.
func (s *Server) handlePacket(ctx context.Context, packet models.RawMeshPacket) {
	ctx, span := otel.Tracer("MeshHES").Start(ctx, "Server.handlePacket")
	defer span.End()

	if len(packet.Data) >= pmesh.PmeshHeaderLength {
		var gatewayAddr [4]byte
		copy(gatewayAddr[:], packet.Data[7:11])
		gatewayID := pmesh.Header{GatewayAddr: gatewayAddr}.GatewayID()
		s.kvClient.UpdateGatewaySeen(ctx, gatewayID, packet.RemoteIP)
	}

	if err := s.dispatcher.ProcessPacket(ctx, packet.Data); err != nil {
		slog.Debug("Push packet dropped", "remote", packet.RemoteIP, "error", err)
	}
}
