/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "fmt"

// Mode selects how pointer input on the preview is interpreted.
type Mode uint8

const (
	ModeReorder Mode = iota
	ModeText
)

func (m Mode) String() string {
	if m == ModeText {
		return "text"
	}
	return "reorder"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "reorder":
		*m = ModeReorder
	case "text":
		*m = ModeText
	default:
		return fmt.Errorf("unknown mode %q", string(b))
	}
	return nil
}

// NoIndex marks an unset cell index.
const NoIndex = -1

// Interaction is the ephemeral UI state the renderer reads each frame.
type Interaction struct {
	SelectedIndex  int
	HoverIndex     int
	SelectedTextID string
	EditingIndex   int
	Mode           Mode
}

// NewInteraction returns a state with nothing selected.
func NewInteraction(mode Mode) Interaction {
	return Interaction{SelectedIndex: NoIndex, HoverIndex: NoIndex, EditingIndex: NoIndex, Mode: mode}
}
