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
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

type Point struct{ X, Y float64 }

type Rect struct{ X, Y, W, H float64 }

func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// Intersects reports whether r and o overlap with positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Expand grows r by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{r.X - d, r.Y - d, r.W + 2*d, r.H + 2*d}
}

type OpKind int

const (
	OpMove OpKind = iota
	OpLine
	OpArc // X, Y is the center; angles grow clockwise on screen
	OpClose
)

type Op struct {
	Kind   OpKind
	X, Y   float64
	R      float64
	A1, A2 float64
}

// Path is a toolkit-neutral outline. The raster and vector writers both replay it.
type Path struct {
	Ops     []Op
	EvenOdd bool
}

func (p *Path) MoveTo(x, y float64) { p.Ops = append(p.Ops, Op{Kind: OpMove, X: x, Y: y}) }
func (p *Path) LineTo(x, y float64) { p.Ops = append(p.Ops, Op{Kind: OpLine, X: x, Y: y}) }
func (p *Path) Close()              { p.Ops = append(p.Ops, Op{Kind: OpClose}) }

// Arc adds a circular arc around (cx, cy) from angle a1 to a2 (radians).
func (p *Path) Arc(cx, cy, r, a1, a2 float64) {
	p.Ops = append(p.Ops, Op{Kind: OpArc, X: cx, Y: cy, R: r, A1: a1, A2: a2})
}

func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

func (p *Path) Circle(cx, cy, r float64) {
	p.MoveTo(cx+r, cy)
	p.Arc(cx, cy, r, 0, 2*math.Pi)
	p.Close()
}

// RoundRect adds a rectangle whose corners (top-left, top-right, bottom-right,
// bottom-left) are rounded by the given radii. A zero radius leaves the corner square.
func (p *Path) RoundRect(x, y, w, h float64, radii [4]float64) {
	tl, tr, br, bl := radii[0], radii[1], radii[2], radii[3]
	p.MoveTo(x+tl, y)
	p.LineTo(x+w-tr, y)
	if tr > 0 {
		p.Arc(x+w-tr, y+tr, tr, -math.Pi/2, 0)
	}
	p.LineTo(x+w, y+h-br)
	if br > 0 {
		p.Arc(x+w-br, y+h-br, br, 0, math.Pi/2)
	}
	p.LineTo(x+bl, y+h)
	if bl > 0 {
		p.Arc(x+bl, y+h-bl, bl, math.Pi/2, math.Pi)
	}
	p.LineTo(x, y+tl)
	if tl > 0 {
		p.Arc(x+tl, y+tl, tl, math.Pi, 3*math.Pi/2)
	}
	p.Close()
}

// Empty reports whether the path has no drawing operations.
func (p Path) Empty() bool { return len(p.Ops) == 0 }

type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// LinearGradient runs from (X0, Y0) to (X1, Y1) in canvas coordinates.
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []Stop
}

// Fill paints a path. None leaves the path unpainted (a transparent fill).
type Fill struct {
	Color    color.NRGBA
	Gradient *LinearGradient
	None     bool
}

// gradientAcross places a gradient rotated by rot radians so that it spans box exactly:
// the endpoints are the extreme projections of the box corners on the gradient direction.
func gradientAcross(box Rect, rot float64, stops []Stop) *LinearGradient {
	dx, dy := math.Cos(rot), math.Sin(rot)
	half := (box.W*math.Abs(dx) + box.H*math.Abs(dy)) / 2
	c := box.Center()
	return &LinearGradient{
		X0: c.X - half*dx, Y0: c.Y - half*dy,
		X1: c.X + half*dx, Y1: c.Y + half*dy,
		Stops: stops,
	}
}

// ParseHex parses #rgb or #rrggbb into an opaque color.
func ParseHex(s string) (color.NRGBA, error) {
	h, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("color %q: missing #", s)
	}
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("color %q: bad length", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Hex formats c as #rrggbb.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
