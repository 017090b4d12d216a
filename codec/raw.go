//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoState.
//
// GoState is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoState is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoState. If not, see https://www.gnu.org/licenses/.

package codec

import (
	"github.com/aaronlmathis/gostate"
)

// String is a pass-through codec for string elements.
type String struct{}

// Encode implements gostate.Codec.
func (String) Encode(value string) ([]byte, error) {
	return []byte(value), nil
}

// Decode implements gostate.Codec.
func (String) Decode(data []byte) (string, error) {
	return string(data), nil
}

var _ gostate.Codec[string] = String{}
