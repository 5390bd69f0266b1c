/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package uisync projects a design onto form controls. It holds no business rules beyond
// which control groups are visible for a given color mode or logo presence, and it knows
// nothing about the toolkit drawing the form: anything implementing Surface will do.
package uisync

import (
	"sort"

	"qrstudio/internal/design"
)

// Surface is the presentation layer: a set of controls addressed by ID.
type Surface interface {
	Value(id string) string
	SetValue(id, v string)
	SetVisible(id string, visible bool)
}

// Control IDs that are not per region.
const (
	IDText = "qr-text"

	IDLogoSize       = "logo-size"
	IDLogoSizeVal    = "logo-size-val"
	IDLogoMargin     = "logo-margin"
	IDLogoMarginVal  = "logo-margin-val"
	IDLogoBehind     = "logo-behind"
	IDLogoModeLabel  = "logo-mode-label"
	IDLogoPreview    = "logo-preview-container"
	IDLogoUpload     = "logo-upload-area"
	IDLogoOptions    = "logo-options"
	IDLogoMarginGrp  = "logo-margin-group"
	IDLogoModeToggle = "logo-mode-toggle"
	IDLogoFilename   = "logo-filename"

	IDThemeSwitch = "theme-switch"
)

// Per-region control suffixes; see ID.
const (
	FieldMode       = "mode"
	FieldShape      = "shape"
	FieldColor      = "color"
	FieldColorHex   = "color-hex"
	FieldGradC1     = "grad-color1"
	FieldGradHex1   = "grad-hex1"
	FieldGradC2     = "grad-color2"
	FieldGradHex2   = "grad-hex2"
	FieldGradAngle  = "grad-angle"
	FieldAngleVal   = "grad-angle-val"
	FieldSolidGroup = "solid-group"
	FieldGradGroup  = "gradient-controls"
)

// ID returns the control ID of a region field, e.g. "dot-grad-angle".
func ID(r design.Region, field string) string {
	return string(r) + "-" + field
}

const (
	PlacementBehind = "Placement: Behind (transparent dots)"
	PlacementFront  = "Placement: Front (overlay)"
)

// PlacementLabel describes where the logo is drawn.
func PlacementLabel(behind bool) string {
	if behind {
		return PlacementBehind
	}
	return PlacementFront
}

// Visibility says which color controls of a region are shown.
type Visibility struct {
	Solid    bool
	Gradient bool
}

// ModeVisibility returns the visible groups for a color mode. Transparent shows neither.
func ModeVisibility(mode string) Visibility {
	return Visibility{Solid: mode == design.ModeSolid, Gradient: mode == design.ModeGradient}
}

// LogoFlags says which logo controls are shown.
type LogoFlags struct {
	Preview    bool
	Upload     bool
	Options    bool
	Margin     bool
	ModeToggle bool
}

// LogoVisibility returns the visible logo controls. The upload area is shown only without a logo.
func LogoVisibility(hasLogo bool) LogoFlags {
	return LogoFlags{Preview: hasLogo, Upload: !hasLogo, Options: hasLogo, Margin: hasLogo, ModeToggle: hasLogo}
}

// View is the literal state of every control for one design.
type View struct {
	Values  map[string]string
	Visible map[string]bool
}

// Project computes the view of s. Pass a resolved state; values are copied verbatim.
func Project(s design.State) View {
	v := View{Values: map[string]string{}, Visible: map[string]bool{}}
	v.Values[IDText] = s.Text
	for _, r := range design.Regions {
		st := s.Style(r)
		v.Values[ID(r, FieldMode)] = st.Mode
		if r != design.Background {
			v.Values[ID(r, FieldShape)] = st.Shape
		}
		v.Values[ID(r, FieldColor)] = st.Color
		v.Values[ID(r, FieldColorHex)] = st.Color
		v.Values[ID(r, FieldGradC1)] = st.GradC1
		v.Values[ID(r, FieldGradHex1)] = st.GradC1
		v.Values[ID(r, FieldGradC2)] = st.GradC2
		v.Values[ID(r, FieldGradHex2)] = st.GradC2
		v.Values[ID(r, FieldGradAngle)] = string(st.GradAngle)
		v.Values[ID(r, FieldAngleVal)] = string(st.GradAngle)
		modeVisibility(v.Visible, r, st.Mode)
	}
	v.Values[IDLogoSize] = string(s.LogoSize)
	v.Values[IDLogoSizeVal] = string(s.LogoSize)
	v.Values[IDLogoMargin] = string(s.LogoMargin)
	v.Values[IDLogoMarginVal] = string(s.LogoMargin)
	v.Values[IDLogoBehind] = boolValue(s.LogoBehind)
	v.Values[IDLogoModeLabel] = PlacementLabel(s.LogoBehind)
	logoVisibility(v.Visible, s.LogoDataURL != "")
	return v
}

func modeVisibility(into map[string]bool, r design.Region, mode string) {
	vis := ModeVisibility(mode)
	into[ID(r, FieldSolidGroup)] = vis.Solid
	into[ID(r, FieldGradGroup)] = vis.Gradient
}

func logoVisibility(into map[string]bool, hasLogo bool) {
	f := LogoVisibility(hasLogo)
	into[IDLogoPreview] = f.Preview
	into[IDLogoUpload] = f.Upload
	into[IDLogoOptions] = f.Options
	into[IDLogoMarginGrp] = f.Margin
	into[IDLogoModeToggle] = f.ModeToggle
}

// Sync pushes v into surf in a stable order. Applying the same view twice leaves the surface unchanged.
func Sync(surf Surface, v View) {
	for _, id := range sortedKeys(v.Values) {
		surf.SetValue(id, v.Values[id])
	}
	for _, id := range sortedKeys(v.Visible) {
		surf.SetVisible(id, v.Visible[id])
	}
}

// SyncMode updates only the color-group visibility of region r.
func SyncMode(surf Surface, r design.Region, mode string) {
	vis := map[string]bool{}
	modeVisibility(vis, r, mode)
	for _, id := range sortedKeys(vis) {
		surf.SetVisible(id, vis[id])
	}
}

// SyncLogo updates only the logo controls' visibility.
func SyncLogo(surf Surface, hasLogo bool) {
	vis := map[string]bool{}
	logoVisibility(vis, hasLogo)
	for _, id := range sortedKeys(vis) {
		surf.SetVisible(id, vis[id])
	}
}

// Read gathers the form back into a design tagged with the current version.
// The logo payload is not a form control and is left empty.
func Read(surf Surface) design.State {
	s := design.State{
		Version:    design.CurrentVersion,
		Text:       surf.Value(IDText),
		LogoSize:   design.Control(surf.Value(IDLogoSize)),
		LogoMargin: design.Control(surf.Value(IDLogoMargin)),
		LogoBehind: surf.Value(IDLogoBehind) == "true",
	}
	for _, r := range design.Regions {
		st := design.Style{
			Mode:      surf.Value(ID(r, FieldMode)),
			Color:     surf.Value(ID(r, FieldColor)),
			GradC1:    surf.Value(ID(r, FieldGradC1)),
			GradC2:    surf.Value(ID(r, FieldGradC2)),
			GradAngle: design.Control(surf.Value(ID(r, FieldGradAngle))),
		}
		if r != design.Background {
			st.Shape = surf.Value(ID(r, FieldShape))
		}
		s.SetStyle(r, st)
	}
	return s
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mirrors maps a control to the label echoing its value.
var mirrors = func() map[string]string {
	m := map[string]string{
		IDLogoSize:   IDLogoSizeVal,
		IDLogoMargin: IDLogoMarginVal,
	}
	for _, r := range design.Regions {
		m[ID(r, FieldColor)] = ID(r, FieldColorHex)
		m[ID(r, FieldGradC1)] = ID(r, FieldGradHex1)
		m[ID(r, FieldGradC2)] = ID(r, FieldGradHex2)
		m[ID(r, FieldGradAngle)] = ID(r, FieldAngleVal)
	}
	return m
}()

// Edit applies a user edit of control id and refreshes what depends on it: the mirrored
// label, the region's color groups for a mode change, the placement label for the logo toggle.
func Edit(surf Surface, id, value string) {
	surf.SetValue(id, value)
	if m, ok := mirrors[id]; ok {
		surf.SetValue(m, value)
	}
	if id == IDLogoBehind {
		surf.SetValue(IDLogoModeLabel, PlacementLabel(value == "true"))
		return
	}
	for _, r := range design.Regions {
		if id == ID(r, FieldMode) {
			SyncMode(surf, r, value)
			return
		}
	}
}
