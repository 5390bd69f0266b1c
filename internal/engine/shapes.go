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
	"math"

	"qrstudio/internal/design"
)

// Neighbours of a module: left, top, right, bottom.
type Neighbours [4]bool

func neighbours(drawable func(x, y int) bool, x, y int) Neighbours {
	return Neighbours{drawable(x-1, y), drawable(x, y-1), drawable(x+1, y), drawable(x, y+1)}
}

// addDot appends one module in the given shape. Rounded variants round only the
// corners whose two adjacent sides are free, so runs of modules merge into blobs.
func addDot(p *Path, shape string, r Rect, nb Neighbours) {
	c := r.W
	left, top, right, bottom := nb[0], nb[1], nb[2], nb[3]
	free := func(a, b bool, rad float64) float64 {
		if a || b {
			return 0
		}
		return rad
	}
	switch shape {
	case design.DotDots:
		p.Circle(r.X+c/2, r.Y+c/2, c/2)
	case design.DotRounded:
		rad := 0.35 * c
		p.RoundRect(r.X, r.Y, c, c, [4]float64{
			free(left, top, rad), free(top, right, rad), free(right, bottom, rad), free(bottom, left, rad),
		})
	case design.DotExtraRounded:
		rad := 0.5 * c
		p.RoundRect(r.X, r.Y, c, c, [4]float64{
			free(left, top, rad), free(top, right, rad), free(right, bottom, rad), free(bottom, left, rad),
		})
	case design.DotClassy:
		p.RoundRect(r.X, r.Y, c, c, [4]float64{free(left, top, c/2), 0, free(right, bottom, c/2), 0})
	case design.DotClassyRounded:
		p.RoundRect(r.X, r.Y, c, c, [4]float64{
			free(left, top, c/2), free(top, right, c/4), free(right, bottom, c/2), free(bottom, left, c/4),
		})
	default:
		p.Rect(r.X, r.Y, c, c)
	}
}

// addCornerSquare appends the 7x7 finder ring; p must use the even-odd rule.
func addCornerSquare(p *Path, shape string, box Rect, cell float64) {
	in := box.Expand(-cell)
	switch shape {
	case design.CornerDot:
		c := box.Center()
		p.Circle(c.X, c.Y, box.W/2)
		p.Circle(c.X, c.Y, in.W/2)
	case design.CornerExtraRounded:
		p.RoundRect(box.X, box.Y, box.W, box.H, uniform(2.5*cell))
		p.RoundRect(in.X, in.Y, in.W, in.H, uniform(1.5*cell))
	default:
		p.Rect(box.X, box.Y, box.W, box.H)
		p.Rect(in.X, in.Y, in.W, in.H)
	}
}

// addCornerDot appends the 3x3 finder center.
func addCornerDot(p *Path, shape string, box Rect) {
	if shape == design.CornerDot {
		c := box.Center()
		p.Circle(c.X, c.Y, box.W/2)
		return
	}
	p.Rect(box.X, box.Y, box.W, box.H)
}

func uniform(r float64) [4]float64 { return [4]float64{r, r, r, r} }

// ArcPoint returns the point at angle a on the circle around (cx, cy).
func ArcPoint(cx, cy, r, a float64) (float64, float64) {
	return cx + r*math.Cos(a), cy + r*math.Sin(a)
}
