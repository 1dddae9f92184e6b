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

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/USA-RedDragon/MeshHES/internal/db/models"
	"github.com/USA-RedDragon/MeshHES/internal/dlms"
	"github.com/USA-RedDragon/MeshHES/internal/pmesh"
	"github.com/USA-RedDragon/MeshHES/internal/push"
	"gorm.io/gorm"
)

// Sink stores completed profile assemblies as reading rows. It implements
// push.Sink.
type Sink struct {
	db *gorm.DB
}

// NewSink creates a persistence sink over an open database.
func NewSink(db *gorm.DB) *Sink {
	return &Sink{db: db}
}

// minutesPerCycle is the width of one cycle_id bucket.
const minutesPerCycle = 30
const cyclesPerDay = 24 * 60 / minutesPerCycle

// CycleID buckets a wall-clock instant into the half-hour cycle stamped onto
// instantaneous and block-load rows. Block load reports the just-closed
// bucket, since its readings describe the interval that ended at push time.
func CycleID(now time.Time, kind push.ProfileKind) int {
	slot := (now.Hour()*60 + now.Minute()) / minutesPerCycle
	if kind == push.BlockLoad {
		slot = (slot + cyclesPerDay - 1) % cyclesPerDay
	}
	return slot
}

// meterTime renders the meter's own DATETIME record, when present, into the
// timestamp column. The record stream carries it as seconds since epoch.
func meterTime(records dlms.RecordMap) string {
	for _, v := range records {
		if v.Type == dlms.TypeDateTime {
			return FormatMeterTimestamp(uint32(v.Unsigned))
		}
	}
	return ""
}

// FormatMeterTimestamp converts a DATETIME-tagged epoch value into the
// stored timestamp rendering.
func FormatMeterTimestamp(epoch uint32) string {
	return time.Unix(int64(epoch), 0).UTC().Format(time.DateTime)
}

func (s *Sink) InsertInstantaneous(ctx context.Context, node pmesh.NodeMAC, gatewayID string, cycleID int, records dlms.RecordMap) error {
	encoded, err := models.RecordsJSON(records)
	if err != nil {
		return err
	}
	reading := models.InstantaneousReading{
		NodeMAC:    node.String(),
		GatewayID:  gatewayID,
		CycleID:    cycleID,
		MeterTime:  meterTime(records),
		Records:    encoded,
		PushStatus: true,
	}
	if err := s.db.WithContext(ctx).Create(&reading).Error; err != nil {
		return fmt.Errorf("failed to insert instantaneous reading: %w", err)
	}
	return nil
}

func (s *Sink) InsertDailyLoad(ctx context.Context, node pmesh.NodeMAC, gatewayID string, records dlms.RecordMap) error {
	encoded, err := models.RecordsJSON(records)
	if err != nil {
		return err
	}
	reading := models.DailyLoadReading{
		NodeMAC:    node.String(),
		GatewayID:  gatewayID,
		MeterTime:  meterTime(records),
		Records:    encoded,
		PushStatus: true,
	}
	if err := s.db.WithContext(ctx).Create(&reading).Error; err != nil {
		return fmt.Errorf("failed to insert daily load reading: %w", err)
	}
	return nil
}

func (s *Sink) InsertBlockLoad(ctx context.Context, node pmesh.NodeMAC, gatewayID string, cycleID int, blocks []dlms.RecordMap) error {
	rows := make([]models.BlockLoadReading, 0, len(blocks))
	for i, block := range blocks {
		encoded, err := models.RecordsJSON(block)
		if err != nil {
			return err
		}
		rows = append(rows, models.BlockLoadReading{
			NodeMAC:    node.String(),
			GatewayID:  gatewayID,
			CycleID:    cycleID,
			BlockIndex: i,
			MeterTime:  meterTime(block),
			Records:    encoded,
			PushStatus: true,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert block load readings: %w", err)
	}
	return nil
}

func (s *Sink) InsertBillingHistory(ctx context.Context, node pmesh.NodeMAC, gatewayID string, records dlms.RecordMap) error {
	encoded, err := models.RecordsJSON(records)
	if err != nil {
		return err
	}
	reading := models.BillingHistoryReading{
		NodeMAC:    node.String(),
		GatewayID:  gatewayID,
		MeterTime:  meterTime(records),
		Records:    encoded,
		PushStatus: true,
	}
	if err := s.db.WithContext(ctx).Create(&reading).Error; err != nil {
		return fmt.Errorf("failed to insert billing history reading: %w", err)
	}
	return nil
}

func (s *Sink) insertEvent(ctx context.Context, node pmesh.NodeMAC, gatewayID, kind string, records dlms.RecordMap) error {
	encoded, err := models.RecordsJSON(records)
	if err != nil {
		return err
	}
	event := models.MeterEvent{
		NodeMAC:   node.String(),
		GatewayID: gatewayID,
		Kind:      kind,
		MeterTime: meterTime(records),
		Records:   encoded,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to insert %s event: %w", kind, err)
	}
	return nil
}

func (s *Sink) InsertPowerOnEvent(ctx context.Context, node pmesh.NodeMAC, gatewayID string, records dlms.RecordMap) error {
	return s.insertEvent(ctx, node, gatewayID, push.PowerOnEvent.String(), records)
}

func (s *Sink) InsertPowerOffEvent(ctx context.Context, node pmesh.NodeMAC, gatewayID string, records dlms.RecordMap) error {
	return s.insertEvent(ctx, node, gatewayID, push.PowerOffEvent.String(), records)
}
