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
	"errors"
	"net/netip"
	"testing"
	"time"
)

var testAddr = netip.MustParseAddr("192.168.4.23")

func connect(t *testing.T, st Station) (*Connector, netip.Addr, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := NewConnector(st, nil)
	addr, err := c.Connect(ctx)
	return c, addr, err
}

func TestConnectJoins(t *testing.T) {
	for failures := range MaxRetries {
		st := NewSimStation(testAddr, failures)
		c, addr, err := connect(t, st)
		st.Close()
		if err != nil {
			t.Fatalf("%d failures: %v", failures, err)
		}
		if addr != testAddr {
			t.Fatalf("%d failures: got address %s, want %s", failures, addr, testAddr)
		}
		state, retries := c.State()
		if state != StateJoined || retries != 0 {
			t.Fatalf("%d failures: state %s/%d, want joined/0", failures, state, retries)
		}
		if n := st.Attempts(); n != failures+1 {
			t.Fatalf("%d failures: %d attempts, want %d", failures, n, failures+1)
		}
		if c.Attempts() != st.Attempts() {
			t.Fatalf("%d failures: connector counted %d attempts, station %d", failures, c.Attempts(), st.Attempts())
		}
	}
}

func TestConnectRetriesExhausted(t *testing.T) {
	// never joins, and joins one attempt too late
	for _, failures := range []int{-1, MaxRetries} {
		st := NewSimStation(testAddr, failures)
		c, addr, err := connect(t, st)
		st.Close()
		if !errors.Is(err, ErrRetriesExhausted) {
			t.Fatalf("%d failures: got %v, want %v", failures, err, ErrRetriesExhausted)
		}
		if addr.IsValid() {
			t.Fatalf("%d failures: got address %s", failures, addr)
		}
		if n := st.Attempts(); n != MaxRetries {
			t.Fatalf("%d failures: %d attempts, want %d", failures, n, MaxRetries)
		}
		if state, _ := c.State(); state != StateFailed {
			t.Fatalf("%d failures: state %s, want failed", failures, state)
		}
	}
}

func TestConnectDelayedEvents(t *testing.T) {
	st := NewSimStation(testAddr, 3)
	st.Delay = 5 * time.Millisecond
	defer st.Close()
	_, addr, err := connect(t, st)
	if err != nil {
		t.Fatal(err)
	}
	if addr != testAddr {
		t.Fatalf("got address %s, want %s", addr, testAddr)
	}
}

func TestConnectUnsubscribes(t *testing.T) {
	st := NewSimStation(testAddr, 0)
	defer st.Close()
	if _, _, err := connect(t, st); err != nil {
		t.Fatal(err)
	}
	st.mu.Lock()
	h := st.handler
	st.mu.Unlock()
	if h != nil {
		t.Fatal("handler still subscribed")
	}
}

func TestConnectOnce(t *testing.T) {
	st := NewSimStation(testAddr, 0)
	defer st.Close()
	c := NewConnector(st, nil)
	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Connect(context.Background()); !errors.Is(err, errConnectorUsed) {
		t.Fatalf("second connect: got %v", err)
	}
}

//----------------------------------------------------------------------

// stubStation delivers events synchronously in the caller's context.
type stubStation struct {
	initErr  error
	assocErr error
	silent   bool       // never report anything
	join     netip.Addr // report address on first attempt
	handler  EventHandler
	attempts int
}

func (s *stubStation) Init() error { return s.initErr }

func (s *stubStation) Subscribe(h EventHandler) func() {
	s.handler = h
	return func() { s.handler = nil }
}

func (s *stubStation) Start() error {
	if !s.silent {
		s.handler(Event{Kind: EventStarted})
	}
	return nil
}

func (s *stubStation) Associate() error {
	s.attempts++
	if s.assocErr == nil && s.join.IsValid() {
		s.handler(Event{Kind: EventGotAddr, Addr: s.join})
	}
	return s.assocErr
}

func TestConnectAssociateErrors(t *testing.T) {
	st := &stubStation{assocErr: errors.New("radio busy")}
	_, _, err := connect(t, st)
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("got %v, want %v", err, ErrRetriesExhausted)
	}
	if st.attempts != MaxRetries {
		t.Fatalf("%d attempts, want %d", st.attempts, MaxRetries)
	}
}

func TestConnectInitError(t *testing.T) {
	st := &stubStation{initErr: errors.New("no radio")}
	if _, _, err := connect(t, st); !errors.Is(err, ErrStation) {
		t.Fatalf("got %v, want %v", err, ErrStation)
	}
}

func TestConnectCancel(t *testing.T) {
	st := &stubStation{silent: true}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c := NewConnector(st, nil)
	if _, err := c.Connect(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want %v", err, context.DeadlineExceeded)
	}
	if state, _ := c.State(); state != StateIdle {
		t.Fatalf("state %s, want idle", state)
	}
}

func TestConnectIgnoresLateEvents(t *testing.T) {
	st := &stubStation{join: testAddr}
	c, addr, err := connect(t, st)
	if err != nil {
		t.Fatal(err)
	}
	if addr != testAddr {
		t.Fatalf("got address %s, want %s", addr, testAddr)
	}
	c.handle(Event{Kind: EventDisconnected})
	c.handle(Event{Kind: EventGotAddr, Addr: netip.MustParseAddr("10.0.0.1")})
	c.handle(Event{Kind: EventStarted})
	state, retries := c.State()
	if state != StateJoined || retries != 0 {
		t.Fatalf("state %s/%d after late events, want joined/0", state, retries)
	}
	if c.Addr() != testAddr || c.Attempts() != 1 {
		t.Fatalf("late events changed the verdict: %s after %d attempts", c.Addr(), c.Attempts())
	}
}
