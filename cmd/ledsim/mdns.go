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
	"slices"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

const (
	// ServiceType advertised by wifiled devices
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// modelTXT marks wifiled devices among other HTTP services
	modelTXT = "model=wifiled"

	// DefaultScanTimeout for device discovery
	DefaultScanTimeout = 5 * time.Second
)

// advertise the control port until ctx is done.
func advertise(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	instance := fmt.Sprintf("%s-%.8s", cfg.Device.Name, cfg.Device.ID)
	text := []string{modelTXT, "id=" + cfg.Device.ID}
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, cfg.Server.Port, text, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logger.Info("advertising", zap.String("instance", instance), zap.String("service", ServiceType))
	<-ctx.Done()
	server.Shutdown()
	return nil
}

// FoundDevice is a wifiled device seen on the network.
type FoundDevice struct {
	Instance string
	Host     string
	Addrs    []string
	Port     int
}

// discover wifiled devices until the timeout expires.
func discover(ctx context.Context, timeout time.Duration) ([]FoundDevice, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	var (
		mu      sync.Mutex
		devices []FoundDevice
	)
	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for entry := range entries {
			if dev, ok := parseEntry(entry); ok {
				mu.Lock()
				devices = append(devices, dev)
				mu.Unlock()
			}
		}
	}()
	if err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return slices.Clone(devices), nil
}

func parseEntry(entry *zeroconf.ServiceEntry) (FoundDevice, bool) {
	if entry == nil || !slices.Contains(entry.Text, modelTXT) {
		return FoundDevice{}, false
	}
	dev := FoundDevice{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Port:     entry.Port,
	}
	for _, ip := range entry.AddrIPv4 {
		dev.Addrs = append(dev.Addrs, ip.String())
	}
	return dev, true
}
