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
	"slices"
	"testing"
	"time"
)

// recorder logs LED writes and sleeps
type recorder struct {
	levels []bool
	sleeps []time.Duration
}

func (r *recorder) LED(on bool) { r.levels = append(r.levels, on) }

func newTestStatus() (*Status, *recorder) {
	rec := new(recorder)
	state := NewStatus(rec)
	state.sleep = func(d time.Duration) { rec.sleeps = append(rec.sleeps, d) }
	return state, rec
}

func TestStatusNoWritesBeforeHalt(t *testing.T) {
	state, rec := newTestStatus()
	state.Set(StatWIFI)
	if state.Get() != StatWIFI {
		t.Fatalf("got status %d, want %d", state.Get(), StatWIFI)
	}
	if len(rec.levels) != 0 {
		t.Fatal("status wrote to the LED")
	}
}

func TestStatusBlink(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		code   int
		sleeps []time.Duration
	}{
		{StatOK, []time.Duration{100 * ms, 1000 * ms}},
		{StatDEV, []time.Duration{150 * ms, 150 * ms, 150 * ms, 150 * ms, 2 * time.Second}},
		{StatLISTEN, []time.Duration{
			150 * ms, 150 * ms, 150 * ms, 150 * ms, 150 * ms,
			150 * ms, 150 * ms, 150 * ms, 150 * ms, 150 * ms,
			2 * time.Second,
		}},
		{StatEXCP, []time.Duration{
			1000 * ms, 300 * ms,
			150 * ms, 150 * ms, 150 * ms, 150 * ms, 150 * ms, 150 * ms,
			2 * time.Second,
		}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("code%d", tt.code), func(t *testing.T) {
			state, rec := newTestStatus()
			state.Set(tt.code)
			state.Blink()
			if !slices.Equal(rec.sleeps, tt.sleeps) {
				t.Fatalf("got sleeps %v, want %v", rec.sleeps, tt.sleeps)
			}
			for i, on := range rec.levels {
				if on != (i%2 == 0) {
					t.Fatalf("write #%d: level %v", i, on)
				}
			}
			if len(rec.levels) == 0 || rec.levels[len(rec.levels)-1] {
				t.Fatal("LED not left off")
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{nil, StatOK},
		{fmt.Errorf("%w: flash", ErrStorage), StatNVS},
		{ErrRetriesExhausted, StatWIFI},
		{fmt.Errorf("%w: init: no radio", ErrStation), StatDEV},
		{fmt.Errorf("%w: address in use", ErrSetupFailed), StatLISTEN},
		{fmt.Errorf("%w: closed", ErrAcceptFailed), StatSRV},
		{errors.New("something else"), StatUNK},
	}
	for _, tt := range tests {
		if code := StatusFor(tt.err); code != tt.code {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, code, tt.code)
		}
	}
}
