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
	"net/netip"
	"sync"
	"time"
)

// SimStation is a scripted wireless station: the first Failures
// association attempts end in a disconnect, the next one acquires Addr.
// A negative Failures value never joins. Events are delivered from the
// station's own dispatch goroutine like a real event loop would.
type SimStation struct {
	Addr     netip.Addr
	Failures int
	Delay    time.Duration // latency of each association attempt

	mu       sync.Mutex
	handler  EventHandler
	queue    chan Event
	done     chan struct{}
	attempts int
}

// NewSimStation returns a station joining with addr after the given
// number of failed attempts.
func NewSimStation(addr netip.Addr, failures int) *SimStation {
	return &SimStation{
		Addr:     addr,
		Failures: failures,
	}
}

// Init starts the dispatch goroutine.
func (s *SimStation) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue == nil {
		s.queue = make(chan Event, 4)
		s.done = make(chan struct{})
		go s.dispatch(s.queue, s.done)
	}
	return nil
}

// Subscribe sets the event handler.
func (s *SimStation) Subscribe(h EventHandler) (cancel func()) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.handler = nil
		s.mu.Unlock()
	}
}

// Start reports the station as started.
func (s *SimStation) Start() error {
	s.post(Event{Kind: EventStarted})
	return nil
}

// Associate runs the next scripted attempt.
func (s *SimStation) Associate() error {
	s.mu.Lock()
	s.attempts++
	n := s.attempts
	s.mu.Unlock()

	ev := Event{Kind: EventDisconnected}
	if s.Failures >= 0 && n > s.Failures {
		ev = Event{Kind: EventGotAddr, Addr: s.Addr}
	}
	if s.Delay > 0 {
		time.AfterFunc(s.Delay, func() { s.post(ev) })
		return nil
	}
	s.post(ev)
	return nil
}

// Attempts returns the number of association attempts seen.
func (s *SimStation) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Close stops the dispatch goroutine.
func (s *SimStation) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		close(s.done)
		s.done = nil
		s.queue = nil
	}
}

func (s *SimStation) post(ev Event) {
	s.mu.Lock()
	q, done := s.queue, s.done
	s.mu.Unlock()
	if q == nil {
		return
	}
	select {
	case q <- ev:
	case <-done:
	}
}

func (s *SimStation) dispatch(q chan Event, done chan struct{}) {
	for {
		select {
		case ev := <-q:
			s.mu.Lock()
			h := s.handler
			s.mu.Unlock()
			if h != nil {
				h(ev)
			}
		case <-done:
			return
		}
	}
}
