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

package models_test

import (
	"encoding/json"
	"testing"

	"github.com/USA-RedDragon/MeshHES/internal/db/models"
	"github.com/USA-RedDragon/MeshHES/internal/dlms"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRecordsJSON(t *testing.T) {
	t.Parallel()
	records := dlms.RecordMap{
		0x01: {Type: dlms.TypeUint16, Unsigned: 0x0042},
		0x02: {Type: dlms.TypeOctetString, Bytes: []byte{0x41, 0x42}},
		0x03: {Type: dlms.TypeBoolean, Bool: true},
		0x04: {Type: dlms.TypeInt8, Signed: -5},
		0x05: {Type: dlms.TypeArray},
	}

	encoded, err := models.RecordsJSON(records)
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(encoded), &decoded))

	want := map[string]map[string]any{
		"1": {"type": "UINT16", "value": float64(0x0042)},
		"2": {"type": "OCTET_STRING", "value": "4142"},
		"3": {"type": "BOOLEAN", "value": true},
		"4": {"type": "INT8", "value": float64(-5)},
		"5": {"type": "ARRAY"},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("RecordsJSON mismatch (-want +got):\n%s", diff)
	}
}
