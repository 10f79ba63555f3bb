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

import "time"

// Port release polling for requests that reopen a fixed local port
const (
	portReleaseTries = 10
	portReleaseWait  = 100 * time.Millisecond
)

// beginExclusive starts a request that needs a local port an aborted
// request may still hold. The stack frees the port asynchronously, so
// starting is retried until it succeeds or tries run out.
func beginExclusive(begin func() error, tries int, wait time.Duration, sleep func(time.Duration)) (err error) {
	for i := 0; i < tries; i++ {
		if err = begin(); err == nil {
			return
		}
		if i < tries-1 {
			sleep(wait)
		}
	}
	return
}
