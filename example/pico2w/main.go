//go:build rp2350

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
	"context"
	"log/slog"
	"machine"
	"strconv"
	"time"

	"github.com/bfix/wifiled"
)

// WiFi credentials and ports (set with -ldflags "-X main.SSID=...")
var (
	SSID   string
	Passwd string
	Host   string = "wifiled"
	IP     string
	Port   string = "80"
	Status string // 9p status port (empty = disabled)
)

// run LED control server
func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelInfo}))
	time.Sleep(2 * time.Second)
	logger.Info("started task")

	dev, err := wifiled.InitDevice(logger)
	if err != nil {
		// no LED without the wifi chip: nothing left to show
		logger.Error("device init failed", slog.String("err", err.Error()))
		select {}
	}
	state := wifiled.NewStatus(dev)
	defer state.Trap()

	port, err := strconv.ParseUint(Port, 10, 16)
	if err != nil {
		logger.Error("invalid port", slog.String("port", Port))
		state.Halt(wifiled.StatPORT)
	}
	var statusPort uint64
	if Status != "" {
		if statusPort, err = strconv.ParseUint(Status, 10, 16); err != nil {
			logger.Error("invalid status port", slog.String("port", Status))
			state.Halt(wifiled.StatPORT)
		}
	}
	tcpPorts := uint16(1)
	if statusPort != 0 {
		tcpPorts++
	}
	station := wifiled.NewPicoStation(dev, wifiled.SetupConfig{
		Hostname:    Host,
		RequestedIP: IP,
		TCPPorts:    tcpPorts,
		SSID:        SSID,
		Passwd:      Passwd,
		Logger:      logger,
	})
	app := &wifiled.App{
		Device:     dev,
		Station:    station,
		Listen:     station.Listen,
		Storage:    wifiled.NopStorage{},
		Port:       uint16(port),
		StatusPort: uint16(statusPort),
		Logger:     logger,
	}
	err = app.Run(context.Background())
	logger.Error("terminal failure", slog.String("err", err.Error()))
	state.Halt(wifiled.StatusFor(err))
}
