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
	"image"
	"image/color"
	"math"

	"qrstudio/internal/renderopts"
)

// Layer is one painted outline of the scene.
type Layer struct {
	Name string
	Path Path
	Fill Fill
}

// Logo is the placed center image.
type Logo struct {
	Rect   Rect
	Image  image.Image
	Behind bool
}

// Scene is the resolved geometry of one render, shared by the raster and vector writers.
type Scene struct {
	Width, Height int
	Modules       int
	Cell          float64
	Origin        Point // top-left of the symbol

	Background    Layer
	Dots          Layer
	CornerSquares [3]Layer
	CornerDots    [3]Layer
	Logo          *Logo

	// Hidden is the area cleared of dots for a front logo; zero when nothing is cleared.
	Hidden Rect
}

// SymbolRect is the box covered by the module grid.
func (s *Scene) SymbolRect() Rect {
	side := s.Cell * float64(s.Modules)
	return Rect{s.Origin.X, s.Origin.Y, side, side}
}

// Walk visits layers in paint order. A behind logo is painted over the background
// and under the dots; a front logo is painted last.
func (s *Scene) Walk(layer func(Layer), logo func(*Logo)) {
	layer(s.Background)
	if s.Logo != nil && s.Logo.Behind {
		logo(s.Logo)
	}
	layer(s.Dots)
	for _, l := range s.CornerSquares {
		layer(l)
	}
	for _, l := range s.CornerDots {
		layer(l)
	}
	if s.Logo != nil && !s.Logo.Behind {
		logo(s.Logo)
	}
}

// Layout places every module, corner and the logo for options o. logo may be nil.
func Layout(o renderopts.Options, m *Matrix, logo image.Image) (*Scene, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return nil, fmt.Errorf("layout: bad canvas %dx%d", o.Width, o.Height)
	}
	n := m.Size()
	avail := float64(min(o.Width, o.Height) - 2*o.Margin)
	cell := math.Floor(avail / float64(n))
	if cell < 1 {
		return nil, errors.New("layout: canvas too small for symbol")
	}
	side := cell * float64(n)
	sc := &Scene{
		Width:   o.Width,
		Height:  o.Height,
		Modules: n,
		Cell:    cell,
		Origin:  Point{math.Floor((float64(o.Width) - side) / 2), math.Floor((float64(o.Height) - side) / 2)},
	}
	canvas := Rect{0, 0, float64(o.Width), float64(o.Height)}
	symbol := sc.SymbolRect()

	bgFill, err := fillFor(o.BackgroundOptions.Color, o.BackgroundOptions.Gradient, canvas)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	sc.Background = Layer{Name: "background", Fill: bgFill}
	sc.Background.Path.Rect(0, 0, canvas.W, canvas.H)

	if logo != nil && o.ImageOptions.ImageSize > 0 {
		b := logo.Bounds()
		if b.Dx() > 0 && b.Dy() > 0 {
			box := o.ImageOptions.ImageSize * side
			w, h := box, box
			if b.Dx() >= b.Dy() {
				h = box * float64(b.Dy()) / float64(b.Dx())
			} else {
				w = box * float64(b.Dx()) / float64(b.Dy())
			}
			c := symbol.Center()
			sc.Logo = &Logo{
				Rect:   Rect{c.X - w/2, c.Y - h/2, w, h},
				Image:  logo,
				Behind: !o.ImageOptions.HideBackgroundDots,
			}
			if o.ImageOptions.HideBackgroundDots {
				sc.Hidden = sc.Logo.Rect.Expand(float64(o.ImageOptions.Margin))
			}
		}
	}

	drawable := func(x, y int) bool {
		if !m.Dark(x, y) || m.InFinder(x, y) {
			return false
		}
		if sc.Hidden.W > 0 && sc.moduleRect(x, y).Intersects(sc.Hidden) {
			return false
		}
		return true
	}
	dotFill, err := fillFor(o.DotsOptions.Color, o.DotsOptions.Gradient, symbol)
	if err != nil {
		return nil, fmt.Errorf("dots: %w", err)
	}
	sc.Dots = Layer{Name: "dots", Fill: dotFill}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if drawable(x, y) {
				addDot(&sc.Dots.Path, o.DotsOptions.Type, sc.moduleRect(x, y), neighbours(drawable, x, y))
			}
		}
	}

	for i, org := range m.FinderOrigins() {
		sq := sc.boxAt(org[0], org[1], finderSize)
		f, err := fillFor(o.CornersSquareOptions.Color, o.CornersSquareOptions.Gradient, sq)
		if err != nil {
			return nil, fmt.Errorf("corner squares: %w", err)
		}
		sc.CornerSquares[i] = Layer{Name: "corner-square", Fill: f, Path: Path{EvenOdd: true}}
		addCornerSquare(&sc.CornerSquares[i].Path, o.CornersSquareOptions.Type, sq, cell)

		dot := sc.boxAt(org[0]+2, org[1]+2, 3)
		f, err = fillFor(o.CornersDotOptions.Color, o.CornersDotOptions.Gradient, dot)
		if err != nil {
			return nil, fmt.Errorf("corner dots: %w", err)
		}
		sc.CornerDots[i] = Layer{Name: "corner-dot", Fill: f}
		addCornerDot(&sc.CornerDots[i].Path, o.CornersDotOptions.Type, dot)
	}
	return sc, nil
}

func (s *Scene) moduleRect(x, y int) Rect {
	return Rect{s.Origin.X + float64(x)*s.Cell, s.Origin.Y + float64(y)*s.Cell, s.Cell, s.Cell}
}

func (s *Scene) boxAt(x, y, size int) Rect {
	r := s.moduleRect(x, y)
	r.W, r.H = s.Cell*float64(size), s.Cell*float64(size)
	return r
}

// fillFor turns a color-or-gradient pair into a Fill spanning box.
func fillFor(c *string, g *renderopts.Gradient, box Rect) (Fill, error) {
	if g != nil {
		stops := make([]Stop, 0, len(g.ColorStops))
		for _, cs := range g.ColorStops {
			col, err := ParseHex(cs.Color)
			if err != nil {
				return Fill{}, err
			}
			stops = append(stops, Stop{Offset: cs.Offset, Color: col})
		}
		return Fill{Gradient: gradientAcross(box, g.Rotation, stops)}, nil
	}
	if c == nil {
		return Fill{}, renderopts.ErrNotExclusive
	}
	if *c == renderopts.Transparent {
		return Fill{None: true, Color: color.NRGBA{}}, nil
	}
	col, err := ParseHex(*c)
	if err != nil {
		return Fill{}, err
	}
	return Fill{Color: col}, nil
}
