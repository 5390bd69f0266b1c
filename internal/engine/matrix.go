/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package engine

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// quietZone is the border go-qrcode adds around Bitmap(); margins are applied by Layout instead.
const quietZone = 4

// finderSize is the edge of a finder pattern in modules.
const finderSize = 7

// Matrix is the module grid of an encoded symbol, without quiet zone.
type Matrix struct {
	n    int
	dark []bool
}

// recoveryLevel maps the L/M/Q/H letters to go-qrcode levels.
func recoveryLevel(level string) qrcode.RecoveryLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "L":
		return qrcode.Low
	case "M":
		return qrcode.Medium
	case "Q":
		return qrcode.High
	default:
		return qrcode.Highest
	}
}

// NewMatrix encodes data at the given error-correction level.
func NewMatrix(data, level string) (*Matrix, error) {
	q, err := qrcode.New(data, recoveryLevel(level))
	if err != nil {
		return nil, fmt.Errorf("encode QR: %w", err)
	}
	bm := q.Bitmap()
	n := len(bm) - 2*quietZone
	if n < 21 {
		return nil, errors.New("encode QR: unexpected symbol size")
	}
	m := &Matrix{n: n, dark: make([]bool, n*n)}
	for y := 0; y < n; y++ {
		row := bm[y+quietZone]
		for x := 0; x < n; x++ {
			m.dark[y*n+x] = row[x+quietZone]
		}
	}
	return m, nil
}

// Size returns the number of modules per side.
func (m *Matrix) Size() int { return m.n }

// Dark reports whether the module at (x, y) is dark. Out-of-range modules are light.
func (m *Matrix) Dark(x, y int) bool {
	if x < 0 || y < 0 || x >= m.n || y >= m.n {
		return false
	}
	return m.dark[y*m.n+x]
}

// InFinder reports whether (x, y) lies inside one of the three finder patterns.
func (m *Matrix) InFinder(x, y int) bool {
	lo, hi := finderSize, m.n-finderSize
	return (x < lo && y < lo) || (x >= hi && y < lo) || (x < lo && y >= hi)
}

// FinderOrigins returns the top-left module of each finder pattern.
func (m *Matrix) FinderOrigins() [3][2]int {
	hi := m.n - finderSize
	return [3][2]int{{0, 0}, {hi, 0}, {0, hi}}
}
