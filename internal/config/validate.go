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

package config

import (
	"encoding/hex"
	"errors"
)

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")
	// ErrInvalidMACPrefix indicates that the provided MAC prefix is not 4 hex-encoded bytes.
	ErrInvalidMACPrefix = errors.New("invalid MAC prefix provided, must be 4 hex-encoded bytes")
	// ErrInvalidStaleTimeout indicates that the provided stale timeout is not positive.
	ErrInvalidStaleTimeout = errors.New("invalid stale timeout provided, must be positive")
	// ErrInvalidEvictionInterval indicates that the provided eviction interval is not positive.
	ErrInvalidEvictionInterval = errors.New("invalid eviction interval provided, must be positive")
	// ErrInvalidMaxPacketBytes indicates that the provided maximum packet size is too small to hold the headers.
	ErrInvalidMaxPacketBytes = errors.New("invalid maximum packet size provided, must be at least 27 bytes")
	// ErrInvalidIngestBind indicates that the provided ingest bind address is not valid.
	ErrInvalidIngestBind = errors.New("invalid ingest bind address provided")
	// ErrInvalidIngestPort indicates that the provided ingest port is not valid.
	ErrInvalidIngestPort = errors.New("invalid ingest port provided")
	// ErrInvalidRedisHost indicates that the provided Redis host is not valid.
	ErrInvalidRedisHost = errors.New("invalid Redis host provided")
	// ErrInvalidRedisPort indicates that the provided Redis port is not valid.
	ErrInvalidRedisPort = errors.New("invalid Redis port provided")
	// ErrInvalidDatabaseDriver indicates that the provided database driver is not valid.
	ErrInvalidDatabaseDriver = errors.New("invalid database driver provided")
	// ErrInvalidDatabaseHost indicates that the provided database host is not valid.
	ErrInvalidDatabaseHost = errors.New("invalid database host provided")
	// ErrInvalidDatabasePort indicates that the provided database port is not valid.
	ErrInvalidDatabasePort = errors.New("invalid database port provided")
	// ErrInvalidDatabaseName indicates that the provided database name is not valid.
	ErrInvalidDatabaseName = errors.New("invalid database name provided")
	// ErrInvalidMetricsBind indicates that the provided metrics server bind address is not valid.
	ErrInvalidMetricsBind = errors.New("invalid metrics server bind address provided")
	// ErrInvalidMetricsPort indicates that the provided metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")
	// ErrInvalidPProfBind indicates that the provided pprof server bind address is not valid.
	ErrInvalidPProfBind = errors.New("invalid pprof server bind address provided")
	// ErrInvalidPProfPort indicates that the provided pprof server port is not valid.
	ErrInvalidPProfPort = errors.New("invalid pprof server port provided")
)

// headersAndChecksum is the smallest frame that can carry both stacked
// headers and the trailing checksum byte.
const headersAndChecksum = 17 + 9 + 1

// Validate validates the Mesh configuration.
func (m Mesh) Validate() error {
	decoded, err := hex.DecodeString(m.MACPrefix)
	if err != nil || len(decoded) != 4 {
		return ErrInvalidMACPrefix
	}
	if m.StaleTimeout <= 0 {
		return ErrInvalidStaleTimeout
	}
	if m.EvictionInterval <= 0 {
		return ErrInvalidEvictionInterval
	}
	if m.MaxPacketBytes < headersAndChecksum {
		return ErrInvalidMaxPacketBytes
	}
	return nil
}

// Validate validates the Ingest configuration.
func (i Ingest) Validate() error {
	if i.Bind == "" {
		return ErrInvalidIngestBind
	}
	if i.Port <= 0 || i.Port > 65535 {
		return ErrInvalidIngestPort
	}
	return nil
}

// Validate validates the Redis configuration.
func (r Redis) Validate() error {
	if !r.Enabled {
		return nil
	}

	if r.Host == "" {
		return ErrInvalidRedisHost
	}
	if r.Port <= 0 || r.Port > 65535 {
		return ErrInvalidRedisPort
	}

	return nil
}

// Validate validates the Database configuration.
func (d Database) Validate() error {
	if d.Driver != DatabaseDriverSQLite &&
		d.Driver != DatabaseDriverPostgres &&
		d.Driver != DatabaseDriverMySQL {
		return ErrInvalidDatabaseDriver
	}

	if d.Driver != DatabaseDriverSQLite && d.Host == "" {
		return ErrInvalidDatabaseHost
	}

	if d.Driver != DatabaseDriverSQLite && (d.Port <= 0 || d.Port > 65535) {
		return ErrInvalidDatabasePort
	}

	// SQLite accepts an empty name as an anonymous in-memory database.
	if d.Driver != DatabaseDriverSQLite && d.Database == "" {
		return ErrInvalidDatabaseName
	}

	return nil
}

// Validate validates the Metrics configuration.
func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Bind == "" {
		return ErrInvalidMetricsBind
	}
	if m.Port <= 0 || m.Port > 65535 {
		return ErrInvalidMetricsPort
	}
	return nil
}

// Validate validates the PProf configuration.
func (p PProf) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Bind == "" {
		return ErrInvalidPProfBind
	}
	if p.Port <= 0 || p.Port > 65535 {
		return ErrInvalidPProfPort
	}
	return nil
}

// Validate validates the entire configuration.
func (c Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}
	if err := c.Mesh.Validate(); err != nil {
		return err
	}
	if err := c.Ingest.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.PProf.Validate()
}
