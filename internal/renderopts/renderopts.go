/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package renderopts derives the rendering engine's option tree from a design.
// The transform is pure: the same design always yields the same options.
package renderopts

import (
	"errors"
	"fmt"
	"math"

	"qrstudio/internal/design"
)

const (
	// BaseSize is the preview canvas edge in pixels.
	BaseSize = 1024
	// ExportBase is multiplied by the export scale to get the exported edge.
	ExportBase = 512
	// Margin is the quiet area around the symbol in pixels.
	Margin = 12
	// ErrorCorrection is the QR error-correction level; H tolerates a centered logo.
	ErrorCorrection = "H"

	TypeCanvas = "canvas"
	TypeSVG    = "svg"

	GradientLinear = "linear"
	Transparent    = "transparent"
)

// ErrNotExclusive is returned by Check when a region carries both a color and a gradient, or neither.
var ErrNotExclusive = errors.New("region must have exactly one of color or gradient")

type ColorStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

type Gradient struct {
	Type       string      `json:"type"`
	Rotation   float64     `json:"rotation"` // radians
	ColorStops []ColorStop `json:"colorStops"`
}

// RegionOptions styles dots or corners. Exactly one of Color and Gradient is set.
type RegionOptions struct {
	Type     string    `json:"type"`
	Color    *string   `json:"color,omitempty"`
	Gradient *Gradient `json:"gradient,omitempty"`
}

// BackgroundOptions has no shape. Color may be Transparent.
type BackgroundOptions struct {
	Color    *string   `json:"color,omitempty"`
	Gradient *Gradient `json:"gradient,omitempty"`
}

type QROptions struct {
	ErrorCorrectionLevel string `json:"errorCorrectionLevel"`
}

type ImageOptions struct {
	CrossOrigin        string  `json:"crossOrigin"`
	Margin             int     `json:"margin"`
	ImageSize          float64 `json:"imageSize"` // fraction of the symbol, 0..1
	HideBackgroundDots bool    `json:"hideBackgroundDots"`
}

// Options is the complete input of one render.
type Options struct {
	Width                int               `json:"width"`
	Height               int               `json:"height"`
	Type                 string            `json:"type"`
	Data                 string            `json:"data"`
	Margin               int               `json:"margin"`
	QROptions            QROptions         `json:"qrOptions"`
	DotsOptions          RegionOptions     `json:"dotsOptions"`
	CornersSquareOptions RegionOptions     `json:"cornersSquareOptions"`
	CornersDotOptions    RegionOptions     `json:"cornersDotOptions"`
	BackgroundOptions    BackgroundOptions `json:"backgroundOptions"`
	Image                *string           `json:"image,omitempty"`
	ImageOptions         ImageOptions      `json:"imageOptions"`
}

// DegToRad converts a gradient angle to the rotation the engine expects.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Build derives render options from s. Missing or invalid fields use design defaults;
// numeric controls that do not parse count as 0.
func Build(s design.State) Options {
	s = s.WithDefaults()
	o := Options{
		Width:                BaseSize,
		Height:               BaseSize,
		Type:                 TypeCanvas,
		Data:                 s.Data(),
		Margin:               Margin,
		QROptions:            QROptions{ErrorCorrectionLevel: ErrorCorrection},
		DotsOptions:          region(s.Style(design.Dots)),
		CornersSquareOptions: region(s.Style(design.CornerSquares)),
		CornersDotOptions:    region(s.Style(design.CornerDots)),
		BackgroundOptions:    background(s.Style(design.Background)),
		ImageOptions: ImageOptions{
			CrossOrigin:        "anonymous",
			Margin:             s.LogoMargin.Int(0),
			ImageSize:          s.LogoSize.Float(0) / 100,
			HideBackgroundDots: !s.LogoBehind,
		},
	}
	if s.LogoDataURL != "" {
		img := string(s.LogoDataURL)
		o.Image = &img
	}
	return o
}

// ForExport returns a copy of o sized for export at the given scale (clamped to 1..4).
// Vector output switches the type to svg.
func ForExport(o Options, scale int, vector bool) Options {
	scale = ClampScale(scale)
	o.Width = ExportBase * scale
	o.Height = ExportBase * scale
	o.Type = TypeCanvas
	if vector {
		o.Type = TypeSVG
	}
	return o
}

// ClampScale bounds an export scale to the supported 1..4 range.
func ClampScale(scale int) int {
	if scale < 1 {
		return 1
	}
	if scale > 4 {
		return 4
	}
	return scale
}

func gradient(st design.Style) *Gradient {
	return &Gradient{
		Type:     GradientLinear,
		Rotation: DegToRad(float64(st.GradAngle.Int(0))),
		ColorStops: []ColorStop{
			{Offset: 0, Color: st.GradC1},
			{Offset: 1, Color: st.GradC2},
		},
	}
}

func region(st design.Style) RegionOptions {
	ro := RegionOptions{Type: st.Shape}
	if st.Mode == design.ModeGradient {
		ro.Gradient = gradient(st)
		return ro
	}
	c := st.Color
	ro.Color = &c
	return ro
}

func background(st design.Style) BackgroundOptions {
	switch st.Mode {
	case design.ModeTransparent:
		c := Transparent
		return BackgroundOptions{Color: &c}
	case design.ModeGradient:
		return BackgroundOptions{Gradient: gradient(st)}
	default:
		c := st.Color
		return BackgroundOptions{Color: &c}
	}
}

// Check verifies the color/gradient exclusivity every region must satisfy.
func (o Options) Check() error {
	pairs := []struct {
		name string
		c    *string
		g    *Gradient
	}{
		{"background", o.BackgroundOptions.Color, o.BackgroundOptions.Gradient},
		{"dots", o.DotsOptions.Color, o.DotsOptions.Gradient},
		{"corner squares", o.CornersSquareOptions.Color, o.CornersSquareOptions.Gradient},
		{"corner dots", o.CornersDotOptions.Color, o.CornersDotOptions.Gradient},
	}
	for _, p := range pairs {
		if (p.c == nil) == (p.g == nil) {
			return fmt.Errorf("%s: %w", p.name, ErrNotExclusive)
		}
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", o.Width, o.Height)
	}
	return nil
}
