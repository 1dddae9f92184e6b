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

//nolint:golint,wrapcheck
package migration

import (
	"github.com/USA-RedDragon/MeshHES/internal/db/models"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// initial reading and event tables
		{
			ID: "202307100100",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.InstantaneousReading{},
					&models.DailyLoadReading{},
					&models.BlockLoadReading{},
					&models.BillingHistoryReading{},
					&models.MeterEvent{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&models.InstantaneousReading{},
					&models.DailyLoadReading{},
					&models.BlockLoadReading{},
					&models.BillingHistoryReading{},
					&models.MeterEvent{},
				)
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return err
	}

	return nil
}
