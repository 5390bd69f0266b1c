/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package design

// This file defines the canonical design record. It serializes with the flat keys the
// gallery and exported design files have always used, so older files keep loading.

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// CurrentVersion is the schema version written by Gather and by every export.
const CurrentVersion = 2

// FallbackText is encoded when the design text is empty.
const FallbackText = "https://example.com"

// Logo control bounds: size is a percentage of the symbol, margin is in pixels.
const (
	MaxLogoSize   = 100
	MaxLogoMargin = 40
)

// Color modes.
const (
	ModeSolid       = "solid"
	ModeGradient    = "gradient"
	ModeTransparent = "transparent" // background only
)

// Dot shapes.
const (
	DotSquare        = "square"
	DotDots          = "dots"
	DotRounded       = "rounded"
	DotExtraRounded  = "extra-rounded"
	DotClassy        = "classy"
	DotClassyRounded = "classy-rounded"
)

// Corner shapes.
const (
	CornerSquare       = "square"
	CornerDot          = "dot"
	CornerExtraRounded = "extra-rounded"
)

var (
	DotShapes          = []string{DotSquare, DotDots, DotRounded, DotExtraRounded, DotClassy, DotClassyRounded}
	CornerSquareShapes = []string{CornerSquare, CornerDot, CornerExtraRounded}
	CornerDotShapes    = []string{CornerSquare, CornerDot}
)

// Region identifies one independently styled part of the symbol.
type Region string

const (
	Background    Region = "bg"
	Dots          Region = "dot"
	CornerSquares Region = "csq"
	CornerDots    Region = "cd"
)

// Regions lists all regions in drawing order.
var Regions = []Region{Background, Dots, CornerSquares, CornerDots}

// Shapes returns the shape vocabulary of the region (nil for the background).
func (r Region) Shapes() []string {
	switch r {
	case Dots:
		return DotShapes
	case CornerSquares:
		return CornerSquareShapes
	case CornerDots:
		return CornerDotShapes
	}
	return nil
}

// Modes returns the color modes the region accepts.
func (r Region) Modes() []string {
	if r == Background {
		return []string{ModeSolid, ModeGradient, ModeTransparent}
	}
	return []string{ModeSolid, ModeGradient}
}

// Control is a raw numeric form value (slider or number input). It is kept as text, the way
// the form reports it, and parsed only when render options are built. JSON numbers and
// strings both decode; it always encodes as a string.
type Control string

// Int parses the control as a base-10 integer, returning fallback when it does not parse.
// Leading digits are accepted ("12px" is 12).
func (c Control) Int(fallback int) int {
	s := strings.TrimSpace(string(c))
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return fallback
	}
	return n
}

// Float parses the leading decimal number of the control ("12.5%" is 12.5), returning
// fallback when there is none.
func (c Control) Float(fallback float64) float64 {
	s := strings.TrimSpace(string(c))
	end, digits, dot := 0, false, false
scan:
	for ; end < len(s); end++ {
		switch ch := s[end]; {
		case ch >= '0' && ch <= '9':
			digits = true
		case ch == '.' && !dot:
			dot = true
		case end == 0 && (ch == '-' || ch == '+'):
		default:
			break scan
		}
	}
	if !digits {
		return fallback
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return fallback
	}
	return f
}

func (c *Control) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Control(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*c = Control(n.String())
		return nil
	}
}

// DataURL is an inline image payload. The empty value encodes as JSON null.
type DataURL string

func (d DataURL) MarshalJSON() ([]byte, error) {
	if d == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

func (d *DataURL) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*d = DataURL(s)
	return nil
}

// State is the canonical, serializable description of a design.
type State struct {
	Version int    `json:"version"`
	Text    string `json:"text"`

	BgMode      string  `json:"bgMode"`
	BgColor     string  `json:"bgColor"`
	BgGradC1    string  `json:"bgGradC1"`
	BgGradC2    string  `json:"bgGradC2"`
	BgGradAngle Control `json:"bgGradAngle"`

	DotShape     string  `json:"dotShape"`
	DotColorMode string  `json:"dotColorMode"`
	DotColor     string  `json:"dotColor"`
	DotGradC1    string  `json:"dotGradC1"`
	DotGradC2    string  `json:"dotGradC2"`
	DotGradAngle Control `json:"dotGradAngle"`

	CsqShape     string  `json:"csqShape"`
	CsqColorMode string  `json:"csqColorMode"`
	CsqColor     string  `json:"csqColor"`
	CsqGradC1    string  `json:"csqGradC1"`
	CsqGradC2    string  `json:"csqGradC2"`
	CsqGradAngle Control `json:"csqGradAngle"`

	CdShape     string  `json:"cdShape"`
	CdColorMode string  `json:"cdColorMode"`
	CdColor     string  `json:"cdColor"`
	CdGradC1    string  `json:"cdGradC1"`
	CdGradC2    string  `json:"cdGradC2"`
	CdGradAngle Control `json:"cdGradAngle"`

	LogoDataURL DataURL `json:"logoDataUrl"`
	LogoSize    Control `json:"logoSize"`
	LogoMargin  Control `json:"logoMargin"`
	LogoBehind  bool    `json:"logoBehind"`
}

// Style is a view of one region's styling fields.
type Style struct {
	Shape     string // empty for the background
	Mode      string
	Color     string
	GradC1    string
	GradC2    string
	GradAngle Control
}

// Style returns the styling fields of region r.
func (s State) Style(r Region) Style {
	switch r {
	case Background:
		return Style{Mode: s.BgMode, Color: s.BgColor, GradC1: s.BgGradC1, GradC2: s.BgGradC2, GradAngle: s.BgGradAngle}
	case Dots:
		return Style{Shape: s.DotShape, Mode: s.DotColorMode, Color: s.DotColor, GradC1: s.DotGradC1, GradC2: s.DotGradC2, GradAngle: s.DotGradAngle}
	case CornerSquares:
		return Style{Shape: s.CsqShape, Mode: s.CsqColorMode, Color: s.CsqColor, GradC1: s.CsqGradC1, GradC2: s.CsqGradC2, GradAngle: s.CsqGradAngle}
	case CornerDots:
		return Style{Shape: s.CdShape, Mode: s.CdColorMode, Color: s.CdColor, GradC1: s.CdGradC1, GradC2: s.CdGradC2, GradAngle: s.CdGradAngle}
	}
	return Style{}
}

// SetStyle replaces the styling fields of region r. The shape is ignored for the background.
func (s *State) SetStyle(r Region, st Style) {
	switch r {
	case Background:
		s.BgMode, s.BgColor, s.BgGradC1, s.BgGradC2, s.BgGradAngle = st.Mode, st.Color, st.GradC1, st.GradC2, st.GradAngle
	case Dots:
		s.DotShape, s.DotColorMode, s.DotColor, s.DotGradC1, s.DotGradC2, s.DotGradAngle = st.Shape, st.Mode, st.Color, st.GradC1, st.GradC2, st.GradAngle
	case CornerSquares:
		s.CsqShape, s.CsqColorMode, s.CsqColor, s.CsqGradC1, s.CsqGradC2, s.CsqGradAngle = st.Shape, st.Mode, st.Color, st.GradC1, st.GradC2, st.GradAngle
	case CornerDots:
		s.CdShape, s.CdColorMode, s.CdColor, s.CdGradC1, s.CdGradC2, s.CdGradAngle = st.Shape, st.Mode, st.Color, st.GradC1, st.GradC2, st.GradAngle
	}
}

// Data returns the text to encode, substituting FallbackText for an empty payload.
func (s State) Data() string {
	if s.Text == "" {
		return FallbackText
	}
	return s.Text
}

// Default returns the design a fresh form starts with.
func Default() State {
	return State{
		Version: CurrentVersion,

		BgMode:      ModeSolid,
		BgColor:     "#ffffff",
		BgGradC1:    "#80cbc4",
		BgGradC2:    "#81d4fa",
		BgGradAngle: "135",

		DotShape:     DotRounded,
		DotColorMode: ModeSolid,
		DotColor:     "#000000",
		DotGradC1:    "#004d47",
		DotGradC2:    "#0277bd",
		DotGradAngle: "135",

		CsqShape:     CornerSquare,
		CsqColorMode: ModeSolid,
		CsqColor:     "#000000",
		CsqGradC1:    "#004d47",
		CsqGradC2:    "#0277bd",
		CsqGradAngle: "135",

		CdShape:     CornerDot,
		CdColorMode: ModeSolid,
		CdColor:     "#000000",
		CdGradC1:    "#004d47",
		CdGradC2:    "#0277bd",
		CdGradAngle: "135",

		LogoSize:   "30",
		LogoMargin: "5",
	}
}
