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
	"sync/atomic"
	"time"
)

// Status codes (blinked on the LED when halted)
const (
	StatUNK    = iota // unknown status (init)
	StatOK            // processing active
	StatDEV           // device failure
	StatNVS           // storage initialization failed
	StatWIFI          // can't connect to AP (retries exhausted)
	StatLISTEN        // failed to create listener
	StatSRV           // accepting clients failed
	StatPORT          // invalid port specified
	StatEXCP          // exception (panic) occured
)

// StatusFor maps a terminal error to its status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return StatOK
	case errors.Is(err, ErrStorage):
		return StatNVS
	case errors.Is(err, ErrRetriesExhausted):
		return StatWIFI
	case errors.Is(err, ErrStation):
		return StatDEV
	case errors.Is(err, ErrSetupFailed):
		return StatLISTEN
	case errors.Is(err, ErrAcceptFailed):
		return StatSRV
	}
	return StatUNK
}

// Status keeps the current status code and presents a terminal failure
// on the LED. It never touches the LED before Halt is called.
type Status struct {
	dev   Device       // reference to device
	curr  atomic.Int32 // current state
	sleep func(time.Duration)
}

// NewStatus for the given device.
func NewStatus(dev Device) (state *Status) {
	state = new(Status)
	state.dev = dev
	state.sleep = time.Sleep
	state.curr.Store(StatOK)
	return
}

// Set the current status code.
func (state *Status) Set(flag int) {
	if state != nil {
		state.curr.Store(int32(flag))
	}
}

// Get the current status code.
func (state *Status) Get() int {
	return int(state.curr.Load())
}

// Halt sets the status and blinks it forever. It never returns.
func (state *Status) Halt(flag int) {
	state.Set(flag)
	for {
		state.Blink()
	}
}

// Blink the current status code once: a long pulse for every 5, a
// short pulse for each remaining unit, then a pause. Codes without a
// pattern flash briefly once per second.
func (state *Status) Blink() {
	num := state.curr.Load()
	if num <= StatOK {
		state.pulse(100*time.Millisecond, 1000*time.Millisecond)
		return
	}
	for num > 5 {
		state.pulse(1000*time.Millisecond, 300*time.Millisecond)
		num -= 5
	}
	for range num {
		state.pulse(150*time.Millisecond, 150*time.Millisecond)
	}
	state.sleep(2 * time.Second)
}

func (state *Status) pulse(on, off time.Duration) {
	state.dev.LED(true)
	state.sleep(on)
	state.dev.LED(false)
	state.sleep(off)
}

// Trap a panic in the calling goroutine and halt with StatEXCP.
// Use as deferred call.
func (state *Status) Trap() {
	if r := recover(); r != nil {
		fmt.Printf("EXCP: %v\n", r)
		state.Halt(StatEXCP)
	}
}
