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
	"errors"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bfix/wifiled"
)

// serve command flags
var (
	configPath string
	port       int
	statusPort int
	failures   int
	noMDNS     bool
	logLevel   string
)

// haltBlinks is the number of status patterns shown before exiting
const haltBlinks = 3

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a simulated wifiled device",
	Long: `Run the device logic on this host: the simulated station joins after the
configured number of failed association attempts, then the LED control
server accepts one client at a time. LED changes are printed to stdout.

On a terminal failure the status code is blinked a few times and the
command exits with an error.`,
	Example: `  # Serve on port 8080 with defaults
  ledsim serve

  # Simulate 9 failed association attempts before joining
  ledsim serve --failures 9

  # Simulate an access point that never accepts us
  ledsim serve --failures -1

  # Use a config file and expose the 9p status namespace
  ledsim serve --config ledsim.yaml --status-port 5640`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	serveCmd.Flags().IntVar(&port, "port", DefaultPort, "Control port")
	serveCmd.Flags().IntVar(&statusPort, "status-port", 0, "9p status port (0 = disabled)")
	serveCmd.Flags().IntVar(&failures, "failures", 0, "Failed association attempts before joining (-1 = never join)")
	serveCmd.Flags().BoolVar(&noMDNS, "no-mdns", false, "Disable mDNS advertisement")
	serveCmd.Flags().StringVar(&logLevel, "log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serveConfig(cmd)
	if err != nil {
		return err
	}
	zl, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer zl.Sync()

	addr, _ := netip.ParseAddr(cfg.Wifi.Address)
	station := wifiled.NewSimStation(addr, cfg.Wifi.Failures)
	station.Delay = cfg.Wifi.Delay
	defer station.Close()

	dev := wifiled.InitDevice()
	dev.OnChange = newLEDView(cmd.OutOrStdout(), cfg.Device.Name).Show

	app := &wifiled.App{
		Device:     dev,
		Station:    station,
		Listen:     wifiled.HostListen,
		Storage:    &DirStorage{Dir: cfg.Storage.Dir},
		Port:       uint16(cfg.Server.Port),
		StatusPort: uint16(cfg.Server.StatusPort),
		Logger:     slogger(zl),
	}
	zl.Info("starting device",
		zap.String("id", cfg.Device.ID),
		zap.String("ssid", cfg.Wifi.SSID),
		zap.Int("failures", cfg.Wifi.Failures),
		zap.Int("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = runDevice(ctx, app, cfg, zl)
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}

	code := wifiled.StatusFor(err)
	zl.Error("terminal failure", zap.Error(err), zap.Int("status", code))
	status := wifiled.NewStatus(dev)
	status.Set(code)
	for range haltBlinks {
		status.Blink()
	}
	return err
}

// advertiser publishes the device via mDNS until ctx is done
var advertiser = advertise

// runDevice runs the device and its mDNS advertisement. Only the device
// can fail terminally; the advertisement is optional.
func runDevice(ctx context.Context, app *wifiled.App, cfg *Config, zl *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Run(ctx)
	})
	if !cfg.MDNS.Disabled {
		g.Go(func() error {
			if err := advertiser(ctx, cfg, zl); err != nil {
				zl.Warn("mDNS advertisement disabled", zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// serveConfig loads the config file (if any) and applies flag overrides.
func serveConfig(cmd *cobra.Command) (*Config, error) {
	cfg := DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = LoadConfig(configPath); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("status-port") {
		cfg.Server.StatusPort = statusPort
	}
	if flags.Changed("failures") {
		cfg.Wifi.Failures = failures
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if noMDNS {
		cfg.MDNS.Disabled = true
	}
	return cfg, cfg.Validate()
}
