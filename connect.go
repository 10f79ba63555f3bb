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
	"io"
	"log/slog"
	"net/netip"
	"sync"
)

// MaxRetries is the number of failed association attempts after which
// the connector gives up.
const MaxRetries = 10

// ConnState of a connector
type ConnState int

// Connector states
const (
	StateIdle ConnState = iota
	StateConnecting
	StateRetrying
	StateJoined
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateRetrying:
		return "retrying"
	case StateJoined:
		return "joined"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("ConnState(%d)", int(s))
}

// Connector turns the asynchronous station events into a single blocking
// "joined or failed" verdict.
type Connector struct {
	st     Station
	logger *slog.Logger

	mu       sync.Mutex
	state    ConnState
	retries  int        // consecutive failed attempts
	attempts int        // association attempts made
	addr     netip.Addr // acquired address
	success  bool       // terminal bits
	failure  bool
	wake     chan struct{} // signals a terminal bit (single use)
}

// NewConnector for the given station.
func NewConnector(st Station, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Connector{
		st:     st,
		logger: logger,
	}
}

// Connect joins the network and blocks until an address is acquired or
// the retries are exhausted. There is no timeout; only ctx can end the
// wait early. A connector can be used once.
func (c *Connector) Connect(ctx context.Context) (netip.Addr, error) {
	c.mu.Lock()
	if c.wake != nil {
		c.mu.Unlock()
		return netip.Addr{}, errConnectorUsed
	}
	wake := make(chan struct{}, 1)
	c.wake = wake
	c.mu.Unlock()

	if err := c.st.Init(); err != nil {
		return netip.Addr{}, fmt.Errorf("%w: init: %v", ErrStation, err)
	}
	cancel := c.st.Subscribe(c.handle)
	defer cancel()

	if err := c.st.Start(); err != nil {
		return netip.Addr{}, fmt.Errorf("%w: start: %v", ErrStation, err)
	}
	c.logger.Info("started interface")

	select {
	case <-wake:
	case <-ctx.Done():
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.success:
		c.logger.Info("connected to access point", slog.String("ip", c.addr.String()))
		return c.addr, nil
	case c.failure:
		c.logger.Error("failed to connect to access point", slog.Int("attempts", c.attempts))
		return netip.Addr{}, ErrRetriesExhausted
	}
	return netip.Addr{}, ctx.Err()
}

// State returns the current state and retry counter.
func (c *Connector) State() (ConnState, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.retries
}

// Addr returns the acquired address (invalid unless joined).
func (c *Connector) Addr() netip.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Attempts returns the number of association attempts made so far.
func (c *Connector) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// handle station events (runs in the station's dispatch context)
func (c *Connector) handle(ev Event) {
	switch ev.Kind {
	case EventStarted:
		c.mu.Lock()
		if c.state != StateIdle {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()
		c.logger.Info("connecting to access point...")
		c.associate()

	case EventDisconnected:
		c.disconnected()

	case EventGotAddr:
		c.mu.Lock()
		if c.terminal() {
			c.mu.Unlock()
			return
		}
		c.retries = 0
		c.addr = ev.Addr
		c.state = StateJoined
		c.signal(&c.success)
		c.mu.Unlock()
		c.logger.Info("station ip", slog.String("ip", ev.Addr.String()))
	}
}

// disconnected counts a failed attempt and either retries or fails.
func (c *Connector) disconnected() {
	c.mu.Lock()
	if c.terminal() || c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	c.retries++
	if c.retries >= MaxRetries {
		c.state = StateFailed
		c.signal(&c.failure)
		c.mu.Unlock()
		return
	}
	c.state = StateRetrying
	n := c.retries
	c.mu.Unlock()
	c.logger.Warn("reconnecting to access point...", slog.Int("retry", n))
	c.associate()
}

// associate starts an attempt; a synchronous failure counts as disconnect.
func (c *Connector) associate() {
	c.mu.Lock()
	c.attempts++
	c.mu.Unlock()
	if err := c.st.Associate(); err != nil {
		c.logger.Warn("association request failed", slog.String("err", err.Error()))
		c.disconnected()
	}
}

// terminal returns true once a verdict exists (lock held).
func (c *Connector) terminal() bool {
	return c.state == StateJoined || c.state == StateFailed
}

// signal sets a terminal bit and wakes the waiter (lock held).
func (c *Connector) signal(bit *bool) {
	*bit = true
	select {
	case c.wake <- struct{}{}:
	default:
	}
}
