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
	"encoding/xml"
	"errors"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qrstudio/internal/design"
	"qrstudio/internal/engine"
	"qrstudio/internal/renderopts"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"png": PNG, "JPG": JPEG, " jpeg ": JPEG, "svg": SVG, "Pdf": PDF}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(gif) err = %v", err)
	}
}

func TestRenderPNG(t *testing.T) {
	res, err := Render(renderopts.Build(design.Default()), PNG, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Scale != 1 || res.Pixels != 512 {
		t.Errorf("scale/px = %d/%d, want 1/512", res.Scale, res.Pixels)
	}
	if got := res.Message(); got != "Downloaded PNG (1x — 512px)" {
		t.Errorf("Message = %q", got)
	}
	if res.FileName() != "qrcode.png" {
		t.Errorf("FileName = %q", res.FileName())
	}
	img, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 512 || img.Bounds().Dy() != 512 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}

func TestJPEGFlattensTransparency(t *testing.T) {
	s := design.Default()
	s.BgMode = design.ModeTransparent
	res, err := Render(renderopts.Build(s), JPEG, 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, g, b, _ := img.At(1, 1).RGBA(); r>>8 < 0xf0 || g>>8 < 0xf0 || b>>8 < 0xf0 {
		t.Errorf("corner = %v, want white", img.At(1, 1))
	}
	if !strings.HasPrefix(res.Message(), "Downloaded JPEG (1x") {
		t.Errorf("Message = %q", res.Message())
	}
}

func TestSVGIsWellFormed(t *testing.T) {
	s := design.Default()
	s.DotColorMode = design.ModeGradient
	res, err := Render(renderopts.Build(s), SVG, 2)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := string(res.Data)
	for _, want := range []string{"<svg", "viewBox=\"0 0 1024 1024\"", "linearGradient", "userSpaceOnUse", "fill-rule=\"evenodd\""} {
		if !strings.Contains(doc, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	dec := xml.NewDecoder(bytes.NewReader(res.Data))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("svg not well-formed: %v", err)
		}
	}
}

func TestPathDataCircle(t *testing.T) {
	var p engine.Path
	p.Circle(10, 10, 5)
	got := pathData(p)
	if want := "M 15 10 A 5 5 0 0 1 5 10 A 5 5 0 0 1 15 10 Z"; got != want {
		t.Errorf("pathData = %q, want %q", got, want)
	}
}

func TestRenderPDF(t *testing.T) {
	res, err := Render(renderopts.Build(design.Default()), PDF, 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(res.Data, []byte("%PDF-")) {
		t.Errorf("not a pdf: %q", res.Data[:min(8, len(res.Data))])
	}
}

func TestBatchExportWeb(t *testing.T) {
	dir := t.TempDir()
	paths, err := BatchExport(renderopts.Build(design.Default()), BatchOptions{Preset: PresetWeb, OutDir: dir})
	if err != nil {
		t.Fatalf("BatchExport: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	for _, name := range []string{"qrcode.png", "qrcode.svg"} {
		st, err := os.Stat(filepath.Join(dir, name))
		if err != nil || st.Size() == 0 {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := BatchExport(renderopts.Build(design.Default()), BatchOptions{Formats: []string{"tiff"}, OutDir: dir}); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestScales(t *testing.T) {
	sc := Scales()
	if len(sc) != 4 || sc[3].Pixels != 2048 || sc[3].Label != "4x — 2048px" {
		t.Errorf("Scales = %+v", sc)
	}
}

func TestWriteDesign(t *testing.T) {
	var buf bytes.Buffer
	s := design.Default()
	s.Text = "hello"
	if err := WriteDesign(&buf, s); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n  \"text\": \"hello\"") {
		t.Errorf("not indented: %s", buf.String())
	}
	got, err := design.Decode(buf.Bytes())
	if err != nil || got != s {
		t.Errorf("Decode = %+v, %v", got, err)
	}
}
