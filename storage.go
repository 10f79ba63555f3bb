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
	"errors"
	"fmt"
)

// ErrStorageIncompatible is returned by Storage.Init if the store has
// no free pages or was written by an incompatible version.
var ErrStorageIncompatible = errors.New("storage incompatible")

// Storage is the small persistent key-value store initialized at boot.
// The device logic neither reads nor writes it.
type Storage interface {
	Init() error
	Erase() error
}

// InitStorage initializes the store, erasing and re-initializing it once
// if it is found incompatible.
func InitStorage(s Storage) error {
	err := s.Init()
	if errors.Is(err, ErrStorageIncompatible) {
		if err = s.Erase(); err != nil {
			return fmt.Errorf("%w: erase: %v", ErrStorage, err)
		}
		err = s.Init()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// NopStorage for targets without persistent store.
type NopStorage struct{}

// Init does nothing.
func (NopStorage) Init() error { return nil }

// Erase does nothing.
func (NopStorage) Erase() error { return nil }
