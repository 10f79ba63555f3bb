//go:build !rp2350

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

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// HostDevice (for testing and simulation)
type HostDevice struct {
	mu       sync.Mutex
	on       bool
	writes   int
	OnChange func(on bool) // called on every LED write (optional)
}

// LED on or off
func (dev *HostDevice) LED(on bool) {
	dev.mu.Lock()
	dev.on = on
	dev.writes++
	cb := dev.OnChange
	dev.mu.Unlock()
	if cb != nil {
		cb(on)
	}
}

// Level returns the last written LED level.
func (dev *HostDevice) Level() bool {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.on
}

// Writes returns the number of LED writes.
func (dev *HostDevice) Writes() int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writes
}

// InitDevice returns a host device
func InitDevice() *HostDevice {
	return new(HostDevice)
}

// HostListen returns a TCP listener on the given port (all IPv4
// interfaces). The backlog is set by the OS.
func HostListen(port uint16) (net.Listener, error) {
	cfg := new(net.ListenConfig)
	return cfg.Listen(context.Background(), "tcp4", fmt.Sprintf(":%d", port))
}
