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
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
)

// Server defaults
const (
	DefaultPort = 80       // control port
	BufSize     = 4096     // max. bytes read per request
	Token       = "toggle" // command token
)

// Fixed responses
var (
	ResponseIndex = []byte("HTTP/1.1 200 OK\r\n" +
		"Content-Length: 50\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<button onclick=\"fetch('/toggle')\">Toggle</button>")

	ResponseToggle = []byte("HTTP/1.1 200\r\n" +
		"Content-Length: 0\r\n" +
		"\r\n")
)

// Server accepts and serves one client at a time. The LED state is only
// touched from the accept loop.
type Server struct {
	out    *Output
	listen ListenFunc
	logger *slog.Logger
	served atomic.Uint64

	mu     sync.Mutex
	lst    net.Listener
	closed bool
}

// NewServer for the given output.
func NewServer(out *Output, listen ListenFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		out:    out,
		listen: listen,
		logger: logger,
	}
}

// Run listens on port and serves clients sequentially. It only returns
// on failure: ErrSetupFailed if the listener can't be created,
// ErrAcceptFailed if accepting a client fails.
func (srv *Server) Run(port uint16) error {
	lst, err := srv.listen(port)
	if err != nil {
		srv.logger.Error("failed to create listener", slog.String("err", err.Error()))
		return fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}
	srv.mu.Lock()
	srv.lst = lst
	if srv.closed {
		lst.Close()
	}
	srv.mu.Unlock()
	srv.logger.Info("serving", slog.Int("port", int(port)))

	for {
		conn, err := lst.Accept()
		if err != nil {
			srv.mu.Lock()
			closed := srv.closed
			srv.mu.Unlock()
			if closed {
				srv.logger.Debug("listener closed")
			} else {
				srv.logger.Error("error accepting client", slog.String("err", err.Error()))
			}
			return fmt.Errorf("%w: %v", ErrAcceptFailed, err)
		}
		srv.handle(conn)
	}
}

// Close the listener; a running accept loop terminates.
func (srv *Server) Close() error {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.closed = true
	if srv.lst == nil {
		return nil
	}
	return srv.lst.Close()
}

// Served returns the number of handled requests.
func (srv *Server) Served() uint64 {
	return srv.served.Load()
}

// handle a single client: one read, dispatch, respond, close.
// A partial or empty read is not an error; it just misses the token.
func (srv *Server) handle(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, BufSize)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		srv.logger.Debug("read failed", slog.String("err", err.Error()))
	}
	resp := ResponseIndex
	if bytes.Contains(buf[:n], []byte(Token)) {
		srv.out.Toggle()
		resp = ResponseToggle
		srv.logger.Info("toggled", slog.Bool("on", srv.out.On()))
	}
	if _, err = conn.Write(resp); err != nil {
		srv.logger.Debug("write failed", slog.String("err", err.Error()))
	}
	srv.served.Add(1)
}
