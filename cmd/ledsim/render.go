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
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	ledOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	ledOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// ledView renders LED writes of the host device as terminal lines.
type ledView struct {
	mu   sync.Mutex
	w    io.Writer
	name string
}

func newLEDView(w io.Writer, name string) *ledView {
	return &ledView{w: w, name: name}
}

// Show is used as HostDevice.OnChange.
func (v *ledView) Show(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.w, renderLED(v.name, on))
}

func renderLED(name string, on bool) string {
	led := ledOffStyle.Render("○ off")
	if on {
		led = ledOnStyle.Render("● on")
	}
	return labelStyle.Render(name+" LED") + " " + led
}
