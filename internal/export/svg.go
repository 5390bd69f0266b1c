/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"qrstudio/internal/datauri"
	"qrstudio/internal/engine"
)

// WriteSVG writes the scene as a standalone SVG document. Gradients use
// userSpaceOnUse coordinates so they line up with the raster output.
func WriteSVG(w io.Writer, sc *engine.Scene) error {
	if sc == nil {
		return errors.New("no scene")
	}
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n",
		sc.Width, sc.Height, sc.Width, sc.Height)

	grads := 0
	sc.Walk(func(l engine.Layer) {
		if l.Fill.None || l.Path.Empty() {
			return
		}
		fill := engine.Hex(l.Fill.Color)
		if g := l.Fill.Gradient; g != nil {
			grads++
			id := fmt.Sprintf("g%d", grads)
			wf("  <defs><linearGradient id=\"%s\" gradientUnits=\"userSpaceOnUse\" x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\">",
				id, num(g.X0), num(g.Y0), num(g.X1), num(g.Y1))
			for _, s := range g.Stops {
				wf("<stop offset=\"%s\" stop-color=\"%s\"/>", num(s.Offset), engine.Hex(s.Color))
			}
			wf("</linearGradient></defs>\n")
			fill = "url(#" + id + ")"
		}
		rule := ""
		if l.Path.EvenOdd {
			rule = " fill-rule=\"evenodd\""
		}
		wf("  <path class=\"%s\" d=\"%s\" fill=\"%s\"%s/>\n", escAttr(l.Name), pathData(l.Path), fill, rule)
	}, func(lg *engine.Logo) {
		var img bytes.Buffer
		if err := png.Encode(&img, lg.Image); err != nil {
			if werr == nil {
				werr = fmt.Errorf("encode logo: %w", err)
			}
			return
		}
		wf("  <image x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" preserveAspectRatio=\"none\" xlink:href=\"%s\"/>\n",
			num(lg.Rect.X), num(lg.Rect.Y), num(lg.Rect.W), num(lg.Rect.H), escAttr(datauri.Encode("image/png", img.Bytes())))
	})
	wf("</svg>\n")

	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// pathData converts a path to SVG path commands. Arcs become A commands;
// a full circle is split in two since a single A cannot close on itself.
func pathData(p engine.Path) string {
	var b strings.Builder
	var cx, cy float64
	cmd := func(c string, v ...float64) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c)
		for _, f := range v {
			b.WriteByte(' ')
			b.WriteString(num(f))
		}
	}
	for _, op := range p.Ops {
		switch op.Kind {
		case engine.OpMove:
			cmd("M", op.X, op.Y)
			cx, cy = op.X, op.Y
		case engine.OpLine:
			cmd("L", op.X, op.Y)
			cx, cy = op.X, op.Y
		case engine.OpArc:
			sx, sy := engine.ArcPoint(op.X, op.Y, op.R, op.A1)
			if math.Abs(sx-cx) > 1e-6 || math.Abs(sy-cy) > 1e-6 {
				cmd("L", sx, sy)
			}
			sweep := op.A2 - op.A1
			if math.Abs(sweep) >= 2*math.Pi-1e-9 {
				mx, my := engine.ArcPoint(op.X, op.Y, op.R, op.A1+math.Pi)
				cmd("A", op.R, op.R, 0, 0, 1, mx, my)
				cmd("A", op.R, op.R, 0, 0, 1, sx, sy)
				cx, cy = sx, sy
				continue
			}
			large := 0.0
			if math.Abs(sweep) > math.Pi {
				large = 1
			}
			ex, ey := engine.ArcPoint(op.X, op.Y, op.R, op.A2)
			cmd("A", op.R, op.R, 0, large, 1, ex, ey)
			cx, cy = ex, ey
		case engine.OpClose:
			cmd("Z")
		}
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
