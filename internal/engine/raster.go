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
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
)

// Rasterize paints the scene into a new RGBA image of the scene's size.
func Rasterize(sc *Scene) image.Image {
	dc := gg.NewContext(sc.Width, sc.Height)
	sc.Walk(func(l Layer) { paintLayer(dc, l) }, func(lg *Logo) { paintLogo(dc, lg) })
	return dc.Image()
}

func paintLayer(dc *gg.Context, l Layer) {
	if l.Fill.None || l.Path.Empty() {
		return
	}
	dc.ClearPath()
	replay(dc, l.Path)
	if l.Path.EvenOdd {
		dc.SetFillRule(gg.FillRuleEvenOdd)
	} else {
		dc.SetFillRule(gg.FillRuleWinding)
	}
	if g := l.Fill.Gradient; g != nil {
		lg := gg.NewLinearGradient(g.X0, g.Y0, g.X1, g.Y1)
		for _, s := range g.Stops {
			lg.AddColorStop(s.Offset, s.Color)
		}
		dc.SetFillStyle(lg)
	} else {
		dc.SetColor(l.Fill.Color)
	}
	dc.Fill()
}

func replay(dc *gg.Context, p Path) {
	for _, op := range p.Ops {
		switch op.Kind {
		case OpMove:
			dc.MoveTo(op.X, op.Y)
		case OpLine:
			dc.LineTo(op.X, op.Y)
		case OpArc:
			dc.DrawArc(op.X, op.Y, op.R, op.A1, op.A2)
		case OpClose:
			dc.ClosePath()
		}
	}
}

func paintLogo(dc *gg.Context, lg *Logo) {
	w := uint(math.Round(lg.Rect.W))
	h := uint(math.Round(lg.Rect.H))
	if w == 0 || h == 0 {
		return
	}
	scaled := resize.Resize(w, h, lg.Image, resize.Lanczos3)
	dc.DrawImage(scaled, int(math.Round(lg.Rect.X)), int(math.Round(lg.Rect.Y)))
}
