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
	"fmt"
	"path/filepath"
	"strings"

	"qrstudio/internal/renderopts"
)

// PresetName represents a named batch export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// ScaleOption is one entry of the export size picker.
type ScaleOption struct {
	Scale  int
	Pixels int
	Label  string
}

// Scales lists the export sizes 1x..4x.
func Scales() []ScaleOption {
	out := make([]ScaleOption, 0, 4)
	for s := 1; s <= 4; s++ {
		px := renderopts.ExportBase * s
		out = append(out, ScaleOption{Scale: s, Pixels: px, Label: fmt.Sprintf("%dx — %dpx", s, px)})
	}
	return out
}

// BatchOptions controls exporting one design in several formats at once.
//
// OutDir receives <BaseName>.<ext> for every format. Formats empty means the preset defaults;
// Scale 0 means the preset default.
type BatchOptions struct {
	Preset  PresetName
	Formats []string
	Scale   int
	OutDir  string
}

// BatchExport renders o once per requested format and writes the files to OutDir.
// It returns the written paths.
func BatchExport(o renderopts.Options, opt BatchOptions) ([]string, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	scale := opt.Scale
	if scale == 0 {
		scale = presetScale(opt.Preset)
	}
	outDir := opt.OutDir
	if outDir == "" {
		outDir = string(opt.Preset)
	}

	var written []string
	for _, name := range formats {
		f, err := ParseFormat(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return written, err
		}
		res, err := Render(o, f, scale)
		if err != nil {
			return written, fmt.Errorf("%s: %w", f, err)
		}
		path := filepath.Join(outDir, res.FileName())
		if err := WriteFile(path, res.Data); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"png"}
	}
}

func presetScale(p PresetName) int {
	switch p {
	case PresetWeb:
		return 2
	default:
		return 4
	}
}
