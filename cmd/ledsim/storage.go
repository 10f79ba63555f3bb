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
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bfix/wifiled"
)

// storeVersion of the on-disk layout
const storeVersion = 1

const storeFile = "store.yaml"

type storeHeader struct {
	Version int `yaml:"version"`
}

// DirStorage is the host stand-in for the device's flash key-value
// store: a directory with a version header.
type DirStorage struct {
	Dir string
}

// Init creates the store or checks its version.
func (s *DirStorage) Init() error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.Dir, storeFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.writeHeader(path)
	}
	if err != nil {
		return err
	}
	var hdr storeHeader
	if err := yaml.Unmarshal(data, &hdr); err != nil || hdr.Version != storeVersion {
		return fmt.Errorf("%w: version %d", wifiled.ErrStorageIncompatible, hdr.Version)
	}
	return nil
}

// Erase removes the store.
func (s *DirStorage) Erase() error {
	return os.RemoveAll(s.Dir)
}

func (s *DirStorage) writeHeader(path string) error {
	data, err := yaml.Marshal(storeHeader{Version: storeVersion})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
