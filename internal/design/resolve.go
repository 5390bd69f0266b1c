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

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"qrstudio/internal/datauri"
)

var (
	// ErrUnsupportedVersion is returned for a design whose version is absent or unknown.
	ErrUnsupportedVersion = errors.New("invalid or unsupported template format")
	// ErrMalformedJSON is returned when design JSON does not parse or fails the schema.
	ErrMalformedJSON = errors.New("invalid JSON")
)

// Supported reports whether designs of version v can be loaded.
func Supported(v int) bool {
	return v >= 1 && v <= CurrentVersion
}

// migrations upgrades a state from the key version to the next one. Each entry is pure.
var migrations = map[int]func(State) State{
	// v1 had no placement toggle, so whatever logoBehind holds is not trusted.
	1: func(s State) State {
		s.LogoBehind = false
		s.Version = 2
		return s
	},
}

// Migrate upgrades s to CurrentVersion.
func Migrate(s State) (State, error) {
	if !Supported(s.Version) {
		return s, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, s.Version)
	}
	for s.Version < CurrentVersion {
		up, ok := migrations[s.Version]
		if !ok {
			return s, fmt.Errorf("%w: no migration from version %d", ErrUnsupportedVersion, s.Version)
		}
		s = up(s)
	}
	return s, nil
}

// Resolve validates the version, migrates to the current schema and fills defaults.
// The result always builds valid render options.
func Resolve(s State) (State, error) {
	m, err := Migrate(s)
	if err != nil {
		return s, err
	}
	return m.WithDefaults(), nil
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidColor reports whether c is a #rgb or #rrggbb hex color.
func ValidColor(c string) bool { return hexColor.MatchString(c) }

// WithDefaults replaces every missing or invalid field with its default and normalizes
// numeric controls: angles into [0, 360), logo size into [0, 100], margin to >= 0.
// Controls that are present but do not parse become "0". The version is left untouched.
func (s State) WithDefaults() State {
	def := Default()
	for _, r := range Regions {
		st, d := s.Style(r), def.Style(r)
		if r != Background && !slices.Contains(r.Shapes(), st.Shape) {
			st.Shape = d.Shape
		}
		if !slices.Contains(r.Modes(), st.Mode) {
			st.Mode = d.Mode
		}
		st.Color = colorOr(st.Color, d.Color)
		st.GradC1 = colorOr(st.GradC1, d.GradC1)
		st.GradC2 = colorOr(st.GradC2, d.GradC2)
		st.GradAngle = normAngle(st.GradAngle, d.GradAngle)
		s.SetStyle(r, st)
	}
	if s.LogoDataURL != "" && !datauri.Valid(string(s.LogoDataURL)) {
		s.LogoDataURL = ""
	}
	s.LogoSize = clampControl(s.LogoSize, def.LogoSize, 0, MaxLogoSize)
	s.LogoMargin = clampControl(s.LogoMargin, def.LogoMargin, 0, MaxLogoMargin)
	return s
}

func colorOr(c, def string) string {
	if ValidColor(c) {
		return c
	}
	return def
}

func normAngle(c, def Control) Control {
	if c == "" {
		return def
	}
	n := c.Int(0) % 360
	if n < 0 {
		n += 360
	}
	return Control(strconv.Itoa(n))
}

// clampControl bounds c to [lo, hi], keeping fractions.
func clampControl(c, def Control, lo, hi float64) Control {
	if c == "" {
		return def
	}
	n := min(max(c.Float(0), lo), hi)
	return Control(strconv.FormatFloat(n, 'f', -1, 64))
}

// Decode parses design JSON after checking it against the design schema.
// It does not check the version; see Resolve.
func Decode(data []byte) (State, error) {
	if !json.Valid(data) {
		return State{}, fmt.Errorf("%w: not valid JSON", ErrMalformedJSON)
	}
	if err := ValidateJSON(data); err != nil {
		return State{}, err
	}
	var s State
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return s, nil
}

// Encode returns s as pretty-printed JSON with a two-space indent.
func Encode(s State) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
