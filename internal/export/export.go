/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export writes rendered QR symbols to image and document formats.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"qrstudio/internal/design"
	"qrstudio/internal/engine"
	applog "qrstudio/internal/log"
	"qrstudio/internal/renderopts"
)

// Format is an export file type.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	SVG  Format = "svg"
	PDF  Format = "pdf"
)

// BaseName is the file name stem of exported images.
const BaseName = "qrcode"

// DesignFileName is the file name of an exported design.
const DesignFileName = "qr-design.json"

// FailedMessage is shown when an export does not complete.
const FailedMessage = "Download failed — try again"

var ErrUnknownFormat = errors.New("unknown export format")

// Formats lists every supported format in menu order.
var Formats = []Format{PNG, JPEG, SVG, PDF}

// ParseFormat accepts a format name case-insensitively; "jpg" is an alias of jpeg.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "jpg" {
		s = string(JPEG)
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Vector reports whether f is rendered from the scene instead of a raster.
func (f Format) Vector() bool { return f == SVG }

// Result is one finished export.
type Result struct {
	Format Format
	Scale  int
	Pixels int
	Data   []byte
}

// FileName is the suggested download name, e.g. qrcode.png.
func (r Result) FileName() string { return BaseName + "." + string(r.Format) }

// Message is the confirmation shown after a download, e.g. "Downloaded PNG (4x — 2048px)".
func (r Result) Message() string {
	return fmt.Sprintf("Downloaded %s (%dx — %dpx)", strings.ToUpper(string(r.Format)), r.Scale, r.Pixels)
}

// Render exports the symbol described by o at scale (clamped to 1..4) in format f.
// o is the preview's options; only size and type are overridden.
func Render(o renderopts.Options, f Format, scale int) (Result, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "render")
	if _, err := ParseFormat(string(f)); err != nil {
		return Result{}, err
	}
	scale = renderopts.ClampScale(scale)
	eo := renderopts.ForExport(o, scale, f.Vector())
	sc, img, err := engine.Render(eo)
	if err != nil {
		l.Error("render failed", slog.String("format", string(f)), slog.Any("err", err))
		return Result{}, err
	}
	var buf bytes.Buffer
	switch f {
	case PNG:
		err = WritePNG(&buf, img)
	case JPEG:
		err = WriteJPEG(&buf, img)
	case SVG:
		err = WriteSVG(&buf, sc)
	case PDF:
		err = WritePDF(&buf, img)
	}
	if err != nil {
		l.Error("encode failed", slog.String("format", string(f)), slog.Any("err", err))
		return Result{}, fmt.Errorf("encode %s: %w", f, err)
	}
	l.Info("exported", slog.String("format", string(f)), slog.Int("scale", scale), slog.Int("px", eo.Width), slog.Int("bytes", buf.Len()))
	return Result{Format: f, Scale: scale, Pixels: eo.Width, Data: buf.Bytes()}, nil
}

// WriteFile stores data at path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure out dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteDesign writes s as indented JSON.
func WriteDesign(w io.Writer, s design.State) error {
	b, err := design.Encode(s)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
