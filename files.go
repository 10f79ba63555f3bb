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

import "fmt"

//----------------------------------------------------------------------
// File implementations for the status namespace
//----------------------------------------------------------------------

// File interface for read-only status files
type File interface {
	Read() ([]byte, error)
}

// TextFile with fixed content
type TextFile struct {
	body string
}

// NewTextFile with given content
func NewTextFile(content string) *TextFile {
	return &TextFile{
		body: content,
	}
}

// Read returns the text
func (f *TextFile) Read() ([]byte, error) {
	return []byte(f.body), nil
}

// FuncFile produces its content on every read
type FuncFile struct {
	fcn func() ([]byte, error)
}

// NewFuncFile with content function
func NewFuncFile(fcn func() ([]byte, error)) *FuncFile {
	return &FuncFile{
		fcn: fcn,
	}
}

// Read calls the content function
func (f *FuncFile) Read() ([]byte, error) {
	return f.fcn()
}

// NewValueFile renders a value as a single text line on every read.
func NewValueFile[T any](val func() T) *FuncFile {
	return NewFuncFile(func() ([]byte, error) {
		return fmt.Appendf(nil, "%v\n", val()), nil
	})
}
