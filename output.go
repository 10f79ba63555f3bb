//----------------------------------------------------------------------
// This file is part of wifiled.
// Copyright (C) 2024-present Bernd Fix   >Y<
//
// wifiled is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// wifiled is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package wifiled

import "sync"

// Output owns the logical state of the controlled LED and is the only
// writer of the physical line.
type Output struct {
	mu  sync.Mutex
	dev Device
	on  bool
}

// NewOutput drives the line low and returns a controller in state off.
func NewOutput(dev Device) *Output {
	out := &Output{dev: dev}
	dev.LED(false)
	return out
}

// Toggle flips the state and writes it to the device.
func (out *Output) Toggle() {
	out.mu.Lock()
	defer out.mu.Unlock()
	out.on = !out.on
	out.dev.LED(out.on)
}

// On returns the current state.
func (out *Output) On() bool {
	out.mu.Lock()
	defer out.mu.Unlock()
	return out.on
}
