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
	"bytes"
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

func TestAppRetriesExhausted(t *testing.T) {
	st := NewSimStation(testAddr, -1)
	defer st.Close()
	listened := false
	app := &App{
		Device:  new(HostDevice),
		Station: st,
		Listen: func(uint16) (net.Listener, error) {
			listened = true
			return nil, errors.New("unexpected")
		},
	}
	err := app.Run(context.Background())
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("got %v, want %v", err, ErrRetriesExhausted)
	}
	if listened {
		t.Fatal("server started without network")
	}
	if StatusFor(err) != StatWIFI {
		t.Fatalf("status %d, want %d", StatusFor(err), StatWIFI)
	}
}

func TestAppSetupFailed(t *testing.T) {
	st := NewSimStation(testAddr, 1)
	defer st.Close()
	app := &App{
		Device:  new(HostDevice),
		Station: st,
		Listen: func(uint16) (net.Listener, error) {
			return nil, errors.New("bind failed")
		},
	}
	if err := app.Run(context.Background()); !errors.Is(err, ErrSetupFailed) {
		t.Fatalf("got %v, want %v", err, ErrSetupFailed)
	}
}

func TestAppStorageFailed(t *testing.T) {
	st := NewSimStation(testAddr, 0)
	defer st.Close()
	app := &App{
		Device:  new(HostDevice),
		Station: st,
		Storage: &fakeStorage{initErrs: []error{errors.New("flash gone")}},
	}
	if err := app.Run(context.Background()); !errors.Is(err, ErrStorage) {
		t.Fatalf("got %v, want %v", err, ErrStorage)
	}
	if st.Attempts() != 0 {
		t.Fatal("joined network with broken storage")
	}
}

func TestAppServes(t *testing.T) {
	lst, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer lst.Close()
	st := NewSimStation(testAddr, 3)
	defer st.Close()
	dev := new(HostDevice)
	var port atomic.Uint32
	app := &App{
		Device:  dev,
		Station: st,
		Listen: func(p uint16) (net.Listener, error) {
			port.Store(uint32(p))
			return lst, nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- app.Run(ctx)
	}()

	// the listener exists already: the request waits until served
	resp := exchange(t, dial(t, lst.Addr().String()), "GET /toggle HTTP/1.1\r\n\r\n")
	if !bytes.Equal(resp, ResponseToggle) {
		t.Fatalf("got %q", resp)
	}
	if !dev.Level() {
		t.Fatal("LED not switched on")
	}
	if port.Load() != DefaultPort {
		t.Fatalf("listened on port %d, want %d", port.Load(), DefaultPort)
	}

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want %v", err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("app still running")
	}
}
