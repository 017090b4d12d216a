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

package dataview

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// hashContents computes an order-sensitive xxh3 hash over the external
// representation of the elements. Each element is length-prefixed so that
// adjacent elements cannot alias ("ab","c" vs "a","bc").
func hashContents[T comparable](contents []T) uint64 {
	h := xxh3.New()
	for _, value := range contents {
		s := fmt.Sprint(value)
		fmt.Fprintf(h, "%d:", len(s))
		h.WriteString(s)
	}
	return h.Sum64()
}
