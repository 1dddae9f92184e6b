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
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/USA-RedDragon/MeshHES/internal/dlms"
)

// recordColumn is the JSON projection of one decoded value.
type recordColumn struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// RecordsJSON renders a record map into the JSON column stored on reading
// rows. Numeric arms store as numbers, booleans as booleans, strings as hex.
func RecordsJSON(records dlms.RecordMap) (string, error) {
	out := make(map[string]recordColumn, len(records))
	for id, v := range records {
		col := recordColumn{Type: v.Type.String()}
		switch {
		case v.Type == dlms.TypeBoolean:
			col.Value = v.Bool
		case v.Type.IsString():
			col.Value = hex.EncodeToString(v.Bytes)
		default:
			if n, ok := v.Numeric(); ok {
				col.Value = n
			}
		}
		out[fmt.Sprintf("%d", id)] = col
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode record map: %w", err)
	}
	return string(data), nil
}
