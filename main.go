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

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/USA-RedDragon/MeshHES/internal/cmd"
	"github.com/USA-RedDragon/MeshHES/internal/config"
	"github.com/USA-RedDragon/configulator"
)

//nolint:golint,gochecknoglobals
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	rootCmd := cmd.NewCommand(version, commit)

	c := configulator.New[config.Config]().
		WithPFlags(rootCmd.Flags(), nil).
		WithEnvironmentVariables(&configulator.EnvironmentVariableOptions{
			Prefix: "MESHHES_",
		}).
		WithFile(&configulator.FileOptions{
			Paths: []string{"config.yaml"},
		})

	rootCmd.SetContext(c.WithContext(context.Background()))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
