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

import (
	"time"

	"gorm.io/gorm"
)

// InstantaneousReading is one completed instantaneous-parameters push,
// tagged with the half-hour cycle it arrived in.
type InstantaneousReading struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	NodeMAC    string    `json:"node_mac" gorm:"index"`
	GatewayID  string    `json:"gateway_id" gorm:"index"`
	CycleID    int       `json:"cycle_id"`
	MeterTime  string    `json:"meter_time"`
	Records    string    `json:"records"`
	PushStatus bool      `json:"push_status"`
	CreatedAt  time.Time `json:"created_at"`
}

// DailyLoadReading is one completed daily-load-profile push.
type DailyLoadReading struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	NodeMAC    string    `json:"node_mac" gorm:"index"`
	GatewayID  string    `json:"gateway_id" gorm:"index"`
	MeterTime  string    `json:"meter_time"`
	Records    string    `json:"records"`
	PushStatus bool      `json:"push_status"`
	CreatedAt  time.Time `json:"created_at"`
}

// BlockLoadReading is one inner record map of a completed block-load push.
// A multi-block assembly stores one row per block, ordered by BlockIndex.
type BlockLoadReading struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	NodeMAC    string    `json:"node_mac" gorm:"index"`
	GatewayID  string    `json:"gateway_id" gorm:"index"`
	CycleID    int       `json:"cycle_id"`
	BlockIndex int       `json:"block_index"`
	MeterTime  string    `json:"meter_time"`
	Records    string    `json:"records"`
	PushStatus bool      `json:"push_status"`
	CreatedAt  time.Time `json:"created_at"`
}

// BillingHistoryReading is one completed billing-history push.
type BillingHistoryReading struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	NodeMAC    string    `json:"node_mac" gorm:"index"`
	GatewayID  string    `json:"gateway_id" gorm:"index"`
	MeterTime  string    `json:"meter_time"`
	Records    string    `json:"records"`
	PushStatus bool      `json:"push_status"`
	CreatedAt  time.Time `json:"created_at"`
}

// MeterEvent is one power-on or power-off event push.
type MeterEvent struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	NodeMAC   string    `json:"node_mac" gorm:"index"`
	GatewayID string    `json:"gateway_id" gorm:"index"`
	Kind      string    `json:"kind" gorm:"index"`
	MeterTime string    `json:"meter_time"`
	Records   string    `json:"records"`
	CreatedAt time.Time `json:"created_at"`
}

// CountReadingsForNode returns how many instantaneous readings a node has
// stored.
func CountReadingsForNode(db *gorm.DB, nodeMAC string) (int, error) {
	var count int64
	err := db.Model(&InstantaneousReading{}).Where("node_mac = ?", nodeMAC).Count(&count).Error
	return int(count), err
}
