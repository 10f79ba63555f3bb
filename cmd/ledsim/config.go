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
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Default values for optional configuration fields.
const (
	DefaultName     = "wifiled"
	DefaultPort     = 8080
	DefaultAddress  = "127.0.0.1"
	DefaultSSID     = "simnet"
	DefaultDelay    = 200 * time.Millisecond
	DefaultLogLevel = "info"
)

// Config of the simulated device.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Server  ServerConfig  `yaml:"server"`
	Wifi    WifiConfig    `yaml:"wifi"`
	MDNS    MDNSConfig    `yaml:"mdns"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// DeviceConfig identifies the device.
type DeviceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ServerConfig holds the listening ports.
type ServerConfig struct {
	Port       int `yaml:"port"`
	StatusPort int `yaml:"status_port"`
}

// WifiConfig scripts the simulated station.
type WifiConfig struct {
	SSID     string        `yaml:"ssid"`
	Address  string        `yaml:"address"`
	Failures int           `yaml:"failures"` // disconnects before join; <0 never joins
	Delay    time.Duration `yaml:"delay"`    // per association attempt
}

// MDNSConfig controls service advertisement (on by default).
type MDNSConfig struct {
	Disabled bool `yaml:"disabled"`
}

// StorageConfig locates the persistent store.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{Wifi: WifiConfig{Delay: DefaultDelay}}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a YAML config file, expanding environment variables.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	// preset defaults that are valid zero values
	cfg := Config{Wifi: WifiConfig{Delay: DefaultDelay}}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Device.ID == "" {
		c.Device.ID = uuid.NewString()
	}
	if c.Device.Name == "" {
		c.Device.Name = DefaultName
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Wifi.SSID == "" {
		c.Wifi.SSID = DefaultSSID
	}
	if c.Wifi.Address == "" {
		c.Wifi.Address = DefaultAddress
	}
	if c.Storage.Dir == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			c.Storage.Dir = filepath.Join(dir, "wifiled")
		} else {
			c.Storage.Dir = filepath.Join(os.TempDir(), "wifiled")
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.StatusPort < 0 || c.Server.StatusPort > 65535 {
		return fmt.Errorf("server.status_port must be between 0 and 65535, got %d", c.Server.StatusPort)
	}
	if c.Server.StatusPort == c.Server.Port {
		return errors.New("server.status_port must differ from server.port")
	}
	if _, err := netip.ParseAddr(c.Wifi.Address); err != nil {
		return fmt.Errorf("wifi.address: %w", err)
	}
	if c.Wifi.Delay < 0 {
		return errors.New("wifi.delay must be >= 0")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}
