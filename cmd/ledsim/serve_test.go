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

package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bfix/wifiled"
)

func TestRunDeviceSurvivesMDNSFailure(t *testing.T) {
	advertiser = func(context.Context, *Config, *zap.Logger) error {
		return errors.New("could not determine host IP addresses")
	}
	t.Cleanup(func() { advertiser = advertise })

	lst, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer lst.Close()
	station := wifiled.NewSimStation(netip.MustParseAddr("127.0.0.1"), 0)
	defer station.Close()
	app := &wifiled.App{
		Device:  wifiled.InitDevice(),
		Station: station,
		Listen: func(uint16) (net.Listener, error) {
			return lst, nil
		},
	}
	cfg := DefaultConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- runDevice(ctx, app, cfg, zap.NewNop())
	}()

	// give the failing advertisement time to tear things down
	time.Sleep(100 * time.Millisecond)
	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()
	resp, err := request(reqCtx, lst.Addr().String(), []byte(pageRequest))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(resp, wifiled.ResponseIndex) {
		t.Fatalf("got %q", resp)
	}

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want %v", err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("device still running")
	}
}
