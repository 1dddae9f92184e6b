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
	"time"
)

// Config stores the application configuration.
type Config struct {
	LogLevel LogLevel `name:"log-level" description:"Logging level. One of debug, info, warn, error" default:"info"`
	Mesh     Mesh     `name:"mesh"`
	Ingest   Ingest   `name:"ingest"`
	Database Database `name:"database"`
	Redis    Redis    `name:"redis"`
	Metrics  Metrics  `name:"metrics"`
	PProf    PProf    `name:"pprof"`
}

// Mesh configures the pmesh link-layer parameters shared by every
// gateway session.
type Mesh struct {
	// MACPrefix is the 4-byte proprietary prefix, hex-encoded. Node MACs are
	// formed by concatenating it with the 4-byte pmesh destination address.
	MACPrefix        string        `name:"mac-prefix" description:"Hex-encoded 4-byte MAC prefix prepended to pmesh destination addresses" default:"CAFE0001"`
	StaleTimeout     time.Duration `name:"stale-timeout" description:"Maximum inter-page gap before an incomplete profile assembly is dropped" default:"120000000000"`
	EvictionInterval time.Duration `name:"eviction-interval" description:"How often stale profile assemblies are swept" default:"30000000000"`
	MaxPacketBytes   int           `name:"max-packet-bytes" description:"Largest accepted push packet" default:"2048"`
}

// PrefixBytes returns the decoded MAC prefix. Validate must have passed.
func (m Mesh) PrefixBytes() [4]byte {
	var prefix [4]byte
	decoded, _ := hex.DecodeString(m.MACPrefix)
	copy(prefix[:], decoded)
	return prefix
}

// Ingest configures the UDP listener that gateways push to.
type Ingest struct {
	Bind string `name:"bind" description:"Address to bind the push ingest listener to" default:"[::]"`
	Port int    `name:"port" description:"Port to bind the push ingest listener to" default:"52025"`
}

// Database configures the profile persistence store.
type Database struct {
	Driver          DatabaseDriver `name:"driver" description:"Database driver. One of sqlite, postgres, mysql" default:"sqlite"`
	Host            string         `name:"host" description:"Database host"`
	Port            int            `name:"port" description:"Database port"`
	Username        string         `name:"username" description:"Database username"`
	Password        string         `name:"password" description:"Database password"`
	Database        string         `name:"database" description:"Database name, or file path for sqlite" default:"meshhes.db"`
	ExtraParameters []string       `name:"extra-parameters" description:"Extra DSN parameters"`
}

// Redis configures the optional redis backend for the KV store and pubsub.
type Redis struct {
	Enabled  bool   `name:"enabled" description:"Use redis for the KV store and pubsub instead of in-memory backends" default:"false"`
	Host     string `name:"host" description:"Redis host" default:"localhost"`
	Port     int    `name:"port" description:"Redis port" default:"6379"`
	Password string `name:"password" description:"Redis password"`
	Database int    `name:"database" description:"Redis database number" default:"0"`
}

// Metrics configures the prometheus endpoint and OTLP trace export.
type Metrics struct {
	Enabled      bool   `name:"enabled" description:"Enable the prometheus metrics server" default:"false"`
	Bind         string `name:"bind" description:"Address to bind the metrics server to" default:"127.0.0.1"`
	Port         int    `name:"port" description:"Port to bind the metrics server to" default:"9100"`
	OTLPEndpoint string `name:"otlp-endpoint" description:"OTLP gRPC endpoint for trace export. Empty disables tracing"`
}

// PProf configures the optional pprof server.
type PProf struct {
	Enabled bool   `name:"enabled" description:"Enable the pprof server" default:"false"`
	Bind    string `name:"bind" description:"Address to bind the pprof server to" default:"127.0.0.1"`
	Port    int    `name:"port" description:"Port to bind the pprof server to" default:"6060"`
}
