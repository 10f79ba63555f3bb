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
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"
)

// Requests sent by the client commands
const (
	toggleRequest = "GET /toggle HTTP/1.1\r\n\r\n"
	pageRequest   = "GET / HTTP/1.1\r\n\r\n"
)

// client command flags
var (
	deviceAddr    string
	clientTimeout time.Duration
	scanTimeout   time.Duration
)

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle the LED of a device",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(cmd, toggleRequest)
	},
}

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Fetch the control page of a device",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(cmd, pageRequest)
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find wifiled devices via mDNS",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := discover(cmd.Context(), scanTimeout)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(devices) == 0 {
			fmt.Fprintln(out, "no devices found")
			return nil
		}
		for _, dev := range devices {
			fmt.Fprintf(out, "%s\t%s\t%v\t%d\n", dev.Instance, dev.Host, dev.Addrs, dev.Port)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{toggleCmd, pageCmd} {
		cmd.Flags().StringVar(&deviceAddr, "addr", fmt.Sprintf("127.0.0.1:%d", DefaultPort), "Device address (host:port)")
		cmd.Flags().DurationVar(&clientTimeout, "timeout", 5*time.Second, "Request timeout")
	}
	discoverCmd.Flags().DurationVar(&scanTimeout, "timeout", DefaultScanTimeout, "Scan duration")
}

func runRequest(cmd *cobra.Command, req string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), clientTimeout)
	defer cancel()
	resp, err := request(ctx, deviceAddr, []byte(req))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(resp)
	return err
}

// request sends one request and reads the response until the device
// closes the connection.
func request(ctx context.Context, addr string, req []byte) ([]byte, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	if _, err = conn.Write(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	resp, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}
