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
	"net"
	"net/netip"
)

// Device is a hardware abstraction
type Device interface {
	// LED on or off (if applicable)
	LED(on bool)
}

// ListenFunc returns a TCP listener on the given port (all interfaces)
// from the network stack of the target.
type ListenFunc func(port uint16) (net.Listener, error)

// EventKind identifies a station event.
type EventKind int

// Station events
const (
	EventStarted      EventKind = iota // station interface is up
	EventDisconnected                  // association attempt failed or link lost
	EventGotAddr                       // IP address acquired
)

// Event delivered by a station.
type Event struct {
	Kind EventKind
	Addr netip.Addr // only for EventGotAddr
}

// EventHandler is called from the station's dispatch context.
type EventHandler func(Event)

// Station is the wireless network interface driven by a Connector.
// Events are delivered asynchronously to subscribed handlers.
type Station interface {
	// Init prepares the network interface.
	Init() error
	// Subscribe registers a handler; the returned function removes it.
	Subscribe(h EventHandler) (cancel func())
	// Start brings the station up. Delivers EventStarted.
	Start() error
	// Associate begins an association attempt. The outcome is reported
	// as EventDisconnected or EventGotAddr.
	Associate() error
}
