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
	"io"
	"log/slog"
)

// Version of the device software
const Version = "0.1.0"

// StatusPort is the conventional 9p port for the status namespace.
const StatusPort = 564

// App wires the device together: storage, LED, network and server.
type App struct {
	Device     Device
	Station    Station
	Listen     ListenFunc
	Storage    Storage
	Port       uint16 // control port
	StatusPort uint16 // 9p status namespace (0 = disabled)
	Logger     *slog.Logger

	// set while running
	Output    *Output
	Connector *Connector
	Server    *Server
}

// Run initializes the device, joins the network and serves requests.
// It only returns with a terminal error (or ctx.Err() after cancellation);
// the caller decides how to present it (see Status.Halt).
func (app *App) Run(ctx context.Context) error {
	logger := app.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	storage := app.Storage
	if storage == nil {
		storage = NopStorage{}
	}
	port := app.Port
	if port == 0 {
		port = DefaultPort
	}
	if err := InitStorage(storage); err != nil {
		return err
	}
	app.Output = NewOutput(app.Device)

	app.Connector = NewConnector(app.Station, logger.With(slog.String("mod", "wifi")))
	if _, err := app.Connector.Connect(ctx); err != nil {
		return err
	}

	app.Server = NewServer(app.Output, app.Listen, logger.With(slog.String("mod", "tcp")))
	if app.StatusPort != 0 {
		app.serveStatus(logger.With(slog.String("mod", "9p")))
	}

	stop := context.AfterFunc(ctx, func() { app.Server.Close() })
	defer stop()
	err := app.Server.Run(port)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// serveStatus starts the status namespace in the background. Failing to
// provide it is not fatal.
func (app *App) serveStatus(logger *slog.Logger) {
	ns, err := NewStatusNamespace(app.Output, app.Connector, app.Server)
	if err != nil {
		logger.Warn("status namespace", slog.String("err", err.Error()))
		return
	}
	lst, err := app.Listen(app.StatusPort)
	if err != nil {
		logger.Warn("status listener", slog.String("err", err.Error()))
		return
	}
	go func() {
		err := ns.Serve(lst, logger)
		logger.Warn("status namespace closed", slog.String("err", err.Error()))
	}()
}

// NewStatusNamespace exposes the device state as read-only files:
//
//	/version      software version
//	/led          on|off
//	/net/addr     acquired IP address
//	/net/state    connector state
//	/net/attempts association attempts
//	/requests     number of served requests
func NewStatusNamespace(out *Output, conn *Connector, srv *Server) (ns *Namespace, err error) {
	ns = NewNamespace("sys", "sys")
	if err = ns.NewFile("/version", 0444, NewTextFile(Version+"\n")); err != nil {
		return
	}
	if err = ns.NewFile("/led", 0444, NewValueFile(func() string {
		if out.On() {
			return "on"
		}
		return "off"
	})); err != nil {
		return
	}
	if err = ns.NewDir("/net", 0555); err != nil {
		return
	}
	if err = ns.NewFile("/net/addr", 0444, NewValueFile(conn.Addr)); err != nil {
		return
	}
	if err = ns.NewFile("/net/state", 0444, NewValueFile(func() ConnState {
		s, _ := conn.State()
		return s
	})); err != nil {
		return
	}
	if err = ns.NewFile("/net/attempts", 0444, NewValueFile(conn.Attempts)); err != nil {
		return
	}
	err = ns.NewFile("/requests", 0444, NewValueFile(srv.Served))
	return
}
