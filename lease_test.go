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
	"testing"
	"time"
)

var errPortBusy = errors.New("no available port")

func TestBeginExclusive(t *testing.T) {
	tests := []struct {
		name   string
		busy   int // calls failing before the port is free
		calls  int
		sleeps int
		fail   bool
	}{
		{"free", 0, 1, 0, false},
		{"released later", 3, 4, 3, false},
		{"last try", portReleaseTries - 1, portReleaseTries, portReleaseTries - 1, false},
		{"never released", -1, portReleaseTries, portReleaseTries - 1, true},
	}
	for _, tt := range tests {
		calls, sleeps := 0, 0
		begin := func() error {
			calls++
			if tt.busy < 0 || calls <= tt.busy {
				return errPortBusy
			}
			return nil
		}
		sleep := func(d time.Duration) {
			if d != portReleaseWait {
				t.Fatalf("%s: slept %v", tt.name, d)
			}
			sleeps++
		}
		err := beginExclusive(begin, portReleaseTries, portReleaseWait, sleep)
		if (err != nil) != tt.fail {
			t.Errorf("%s: got error %v", tt.name, err)
		}
		if tt.fail && !errors.Is(err, errPortBusy) {
			t.Errorf("%s: got %v, want %v", tt.name, err, errPortBusy)
		}
		if calls != tt.calls || sleeps != tt.sleeps {
			t.Errorf("%s: %d calls, %d sleeps; want %d, %d", tt.name, calls, sleeps, tt.calls, tt.sleeps)
		}
	}
}
