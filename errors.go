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

import "errors"

// Terminal errors reported to the orchestrator.
var (
	ErrRetriesExhausted = errors.New("wifi association failed: retries exhausted")
	ErrStation          = errors.New("wifi station failure")
	ErrSetupFailed      = errors.New("server setup failed")
	ErrAcceptFailed     = errors.New("accepting client failed")
	ErrStorage          = errors.New("storage initialization failed")
)

var errConnectorUsed = errors.New("connector already used")
