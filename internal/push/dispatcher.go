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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/USA-RedDragon/MeshHES/internal/config"
	"github.com/USA-RedDragon/MeshHES/internal/dlms"
	"github.com/USA-RedDragon/MeshHES/internal/metrics"
	"github.com/USA-RedDragon/MeshHES/internal/pmesh"
	"github.com/USA-RedDragon/MeshHES/internal/pubsub"
	"go.opentelemetry.io/otel"
)

var (
	// ErrOversizePacket indicates a packet larger than mesh.max-packet-bytes.
	ErrOversizePacket = errors.New("packet exceeds maximum size")
	// ErrUnknownFrame indicates a (frame_id, command) pair the push path does not dispatch.
	ErrUnknownFrame = errors.New("unknown frame ID or command in push data")
	// ErrPartialPage indicates the record stream of a page did not decode fully.
	ErrPartialPage = errors.New("partial record stream")
	// ErrCountMismatch indicates a terminal page whose running packet count
	// did not match the expected page count.
	ErrCountMismatch = errors.New("page count mismatch at end of stream")
)

// CompletedTopic carries a CompletionEvent for every assembly handed to the
// persistence sink.
const CompletedTopic = "push:completed"

// CompletionEvent announces a completed assembly on the pubsub.
type CompletionEvent struct {
	Node    string `json:"node"`
	Gateway string `json:"gateway"`
	Profile string `json:"profile"`
	Pages   int    `json:"pages"`
	CycleID int    `json:"cycle_id,omitempty"`
}

// Dispatcher routes validated push frames into per-(node, profile)
// reassembly slots and hands completed assemblies to the persistence sink.
type Dispatcher struct {
	prefix         [4]byte
	maxPacketBytes int
	store          *Store
	sink           Sink
	ps             pubsub.PubSub
	metrics        *metrics.Metrics

	// Now supplies the timestamp used for staleness and cycle derivation.
	// Tests override it to drive the clock.
	Now func() time.Time
	// Cycle derives the wall-clock bucket stamped onto instantaneous and
	// block-load rows.
	Cycle CycleFunc

	// The sink is assumed to require serialized access.
	sinkMu sync.Mutex
}

// completed is an assembly extracted from its slot, ready for the sink.
type completed struct {
	kind    ProfileKind
	node    pmesh.NodeMAC
	gateway string
	pages   int
	records dlms.RecordMap
	blocks  []dlms.RecordMap
}

// NewDispatcher creates a Dispatcher. ps and m may be nil (no completion
// events, no metrics); cycle may be nil when no sink row needs a cycle id.
func NewDispatcher(cfg *config.Config, store *Store, sink Sink, ps pubsub.PubSub, m *metrics.Metrics, cycle CycleFunc) *Dispatcher {
	return &Dispatcher{
		prefix:         cfg.Mesh.PrefixBytes(),
		maxPacketBytes: cfg.Mesh.MaxPacketBytes,
		store:          store,
		sink:           sink,
		ps:             ps,
		metrics:        m,
		Now:            time.Now,
		Cycle:          cycle,
	}
}

// Store returns the reassembly store the dispatcher feeds.
func (d *Dispatcher) Store() *Store {
	return d.store
}

// ProcessPacket validates one push packet and feeds it into its reassembly
// slot. Every error is a drop: the packet is discarded and the caller moves
// on to the next one.
func (d *Dispatcher) ProcessPacket(ctx context.Context, data []byte) error {
	ctx, span := otel.Tracer("MeshHES").Start(ctx, "Dispatcher.ProcessPacket")
	defer span.End()

	if d.maxPacketBytes > 0 && len(data) > d.maxPacketBytes {
		d.metrics.RecordPacket("oversize")
		return fmt.Errorf("%w: %d bytes", ErrOversizePacket, len(data))
	}

	frame, err := pmesh.ParseFrame(data)
	if err != nil {
		switch {
		case errors.Is(err, pmesh.ErrChecksum):
			d.metrics.RecordPacket("checksum_error")
		default:
			d.metrics.RecordPacket("bounds_error")
		}
		slog.Warn("Dropping push packet", "error", err)
		return err
	}

	kind, ok := Classify(frame.Dlms.FrameID, frame.Dlms.Command)
	if !ok {
		d.metrics.RecordPacket("unknown_frame")
		slog.Warn("Invalid frame ID in push data", "frame", frame.Dlms.FrameID, "command", frame.Dlms.Command)
		return fmt.Errorf("%w: frame 0x%02X command 0x%02X", ErrUnknownFrame, frame.Dlms.FrameID, frame.Dlms.Command)
	}

	node := pmesh.MakeNodeMAC(d.prefix, frame.Pmesh.DestinationAddr)
	gateway := frame.Pmesh.GatewayID()
	key := slotKey{Node: node, Kind: kind}

	d.store.mu.Lock()
	sl, exists := d.store.slots[key]
	if !exists {
		sl = newSlot(kind)
		d.store.slots[key] = sl
	}

	status := dlms.ParseRecords(frame.Records, frame.Dlms.NoOfRecords, sl.recordSink(kind))
	if status == dlms.ParsePartial {
		delete(d.store.slots, key)
		d.store.mu.Unlock()
		d.metrics.RecordPacket("partial")
		d.metrics.RecordAssemblyDropped(kind.String(), "partial")
		slog.Warn("Partial record stream, clearing assembly", "node", node, "profile", kind)
		return fmt.Errorf("%w: node %s profile %s", ErrPartialPage, node, kind)
	}

	sl.packetsReceived++
	sl.lastPacket = d.Now()
	d.metrics.RecordPacket("ok")
	slog.Debug("Accepted push page", "node", node, "profile", kind,
		"page", frame.Dlms.CurrentPageIndex, "records", frame.Dlms.NoOfRecords)

	var done *completed
	var mismatchErr error
	if frame.Dlms.Terminal() {
		expected := int(frame.Dlms.CurrentPageIndex) + 1
		if sl.packetsReceived == expected {
			done = &completed{
				kind:    kind,
				node:    node,
				gateway: gateway,
				pages:   sl.packetsReceived,
				records: sl.records,
				blocks:  sl.blocks,
			}
		} else {
			d.metrics.RecordAssemblyDropped(kind.String(), "count_mismatch")
			slog.Warn("Corrupted or partial assembly at end of stream, clearing",
				"node", node, "profile", kind, "received", sl.packetsReceived, "expected", expected)
			mismatchErr = fmt.Errorf("%w: received %d, expected %d", ErrCountMismatch, sl.packetsReceived, expected)
		}
		delete(d.store.slots, key)
	}
	d.store.mu.Unlock()

	if done != nil {
		d.emit(ctx, done)
	}
	return mismatchErr
}

// emit hands one completed assembly to the sink, exactly once. The slot is
// already cleared, so a sink failure is logged and the assembly is gone.
func (d *Dispatcher) emit(ctx context.Context, c *completed) {
	ctx, span := otel.Tracer("MeshHES").Start(ctx, "Dispatcher.emit")
	defer span.End()

	cycle := 0
	if d.Cycle != nil && (c.kind == Instantaneous || c.kind == BlockLoad) {
		cycle = d.Cycle(d.Now(), c.kind)
	}

	d.sinkMu.Lock()
	var err error
	switch c.kind {
	case Instantaneous:
		err = d.sink.InsertInstantaneous(ctx, c.node, c.gateway, cycle, c.records)
	case DailyLoad:
		err = d.sink.InsertDailyLoad(ctx, c.node, c.gateway, c.records)
	case BlockLoad:
		err = d.sink.InsertBlockLoad(ctx, c.node, c.gateway, cycle, c.blocks)
	case BillingHistory:
		err = d.sink.InsertBillingHistory(ctx, c.node, c.gateway, c.records)
	case PowerOnEvent:
		err = d.sink.InsertPowerOnEvent(ctx, c.node, c.gateway, c.records)
	case PowerOffEvent:
		err = d.sink.InsertPowerOffEvent(ctx, c.node, c.gateway, c.records)
	}
	d.sinkMu.Unlock()

	if err != nil {
		d.metrics.RecordSinkError()
		slog.Error("Persistence sink failed, assembly lost", "node", c.node, "profile", c.kind, "error", err)
		return
	}

	d.metrics.RecordAssemblyCompleted(c.kind.String())
	slog.Info("Profile assembly stored", "node", c.node, "profile", c.kind, "pages", c.pages)

	if d.ps != nil {
		event := CompletionEvent{
			Node:    c.node.String(),
			Gateway: c.gateway,
			Profile: c.kind.String(),
			Pages:   c.pages,
		}
		if c.kind == Instantaneous || c.kind == BlockLoad {
			event.CycleID = cycle
		}
		payload, err := json.Marshal(event)
		if err == nil {
			if err := d.ps.Publish(CompletedTopic, payload); err != nil {
				slog.Error("Failed to publish completion event", "error", err)
			}
		}
	}
}
