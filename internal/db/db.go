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
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/USA-RedDragon/MeshHES/internal/config"
	"github.com/USA-RedDragon/MeshHES/internal/db/migration"
	"github.com/glebarez/sqlite"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const connsPerCPU = 10
const maxIdleTime = 10 * time.Minute

// MakeDB opens the configured database, runs migrations and tunes the
// connection pool.
func MakeDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case config.DatabaseDriverSQLite:
		dsn := cfg.Database.Database
		if len(cfg.Database.ExtraParameters) > 0 {
			dsn += "?" + strings.Join(cfg.Database.ExtraParameters, "&")
		}
		dialector = sqlite.Open(dsn)
	case config.DatabaseDriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)
		if len(cfg.Database.ExtraParameters) > 0 {
			dsn += " " + strings.Join(cfg.Database.ExtraParameters, " ")
		}
		dialector = postgres.Open(dsn)
	case config.DatabaseDriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
		if len(cfg.Database.ExtraParameters) > 0 {
			dsn += "&" + strings.Join(cfg.Database.ExtraParameters, "&")
		}
		dialector = mysql.Open(dsn)
	default:
		return nil, config.ErrInvalidDatabaseDriver
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Metrics.OTLPEndpoint != "" {
		if err := db.Use(otelgorm.NewPlugin()); err != nil {
			return nil, fmt.Errorf("failed to trace database: %w", err)
		}
	}

	if err := migration.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(runtime.GOMAXPROCS(0))
	sqlDB.SetMaxOpenConns(runtime.GOMAXPROCS(0) * connsPerCPU)
	sqlDB.SetConnMaxIdleTime(maxIdleTime)

	return db, nil
}
