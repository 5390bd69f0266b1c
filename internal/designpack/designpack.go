/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package designpack bundles saved gallery designs into a zip archive and installs such
// archives back into a gallery.
//
// Layout of a pack:
//
//	manifest.json
//	designs/001.json
//	thumbs/001.png
package designpack

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"qrstudio/internal/datauri"
	"qrstudio/internal/design"
	"qrstudio/internal/gallery"
	applog "qrstudio/internal/log"
	"qrstudio/internal/version"
)

const (
	ManifestName  = "manifest.json"
	FormatName    = "qrstudio-designpack"
	FormatVersion = 1

	// maxMember bounds how much is read from a single archive member.
	maxMember = 16 << 20
)

var ErrNoDesigns = errors.New("pack contains no designs")

// Item locates one design inside a pack.
type Item struct {
	Design string `json:"design"`
	Thumb  string `json:"thumb,omitempty"`
	TS     int64  `json:"ts"`
}

// Manifest describes a pack's contents.
type Manifest struct {
	Format  string    `json:"format"`
	Version int       `json:"version"`
	App     string    `json:"app"`
	Created time.Time `json:"created"`
	Items   []Item    `json:"items"`
}

// Export writes entries to a new pack at destZipPath, replacing any existing file.
func Export(entries []gallery.Entry, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("designpack"), "export").With(slog.String("zip", destZipPath))
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	tmp := destZipPath + ".tmp"
	zf, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	if err := writePack(zf, entries); err != nil {
		_ = zf.Close()
		_ = os.Remove(tmp)
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	if err := zf.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close zip: %w", err)
	}
	// On Windows, remove destination if present before rename
	_ = os.Remove(destZipPath)
	if err := os.Rename(tmp, destZipPath); err != nil {
		return fmt.Errorf("rename zip: %w", err)
	}
	l.Info("design pack exported", slog.Int("designs", len(entries)))
	return nil
}

func writePack(w io.Writer, entries []gallery.Entry) error {
	zw := zip.NewWriter(w)
	m := Manifest{Format: FormatName, Version: FormatVersion, App: version.String(), Created: time.Now().UTC()}
	for i, e := range entries {
		it := Item{Design: fmt.Sprintf("designs/%03d.json", i+1), TS: e.TS}
		b, err := design.Encode(e.State)
		if err != nil {
			return err
		}
		if err := addFile(zw, it.Design, b); err != nil {
			return err
		}
		if e.Thumbnail != "" {
			u, err := datauri.Parse(e.Thumbnail)
			if err == nil && u.MediaType == "image/png" {
				it.Thumb = fmt.Sprintf("thumbs/%03d.png", i+1)
				if err := addFile(zw, it.Thumb, u.Data); err != nil {
					return err
				}
			}
		}
		m.Items = append(m.Items, it)
	}
	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := addFile(zw, ManifestName, mb); err != nil {
		return err
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = fw.Write(data)
	return err
}

// Read loads the designs of a pack in manifest order. Packs without a manifest are read in
// file-name order from designs/. Designs with an unsupported version are skipped.
func Read(packZipPath string) ([]gallery.Entry, error) {
	l := applog.WithOperation(applog.WithComponent("designpack"), "read").With(slog.String("zip", packZipPath))
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return nil, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[path.Clean(f.Name)] = f
	}
	items, err := manifestItems(files)
	if err != nil {
		return nil, err
	}

	var out []gallery.Entry
	for _, it := range items {
		f, ok := files[path.Clean(it.Design)]
		if !ok {
			l.Warn("manifest entry missing", slog.String("design", it.Design))
			continue
		}
		b, err := readMember(f)
		if err != nil {
			return nil, err
		}
		st, err := design.Decode(b)
		if err == nil {
			st, err = design.Resolve(st)
		}
		if err != nil {
			l.Warn("skip design", slog.String("design", it.Design), slog.Any("err", err))
			continue
		}
		e := gallery.Entry{State: st, TS: it.TS}
		if tf, ok := files[path.Clean(it.Thumb)]; ok && it.Thumb != "" {
			if tb, err := readMember(tf); err == nil {
				if uri, err := datauri.FromImageBytes(tb); err == nil {
					e.Thumbnail = uri
				}
			}
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, ErrNoDesigns
	}
	return out, nil
}

func manifestItems(files map[string]*zip.File) ([]Item, error) {
	if f, ok := files[ManifestName]; ok {
		b, err := readMember(f)
		if err != nil {
			return nil, err
		}
		var m Manifest
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		if m.Format != FormatName {
			return nil, fmt.Errorf("not a design pack: format %q", m.Format)
		}
		return m.Items, nil
	}
	var items []Item
	for name := range files {
		if strings.HasPrefix(name, "designs/") && strings.HasSuffix(name, ".json") {
			thumb := "thumbs/" + strings.TrimSuffix(path.Base(name), ".json") + ".png"
			items = append(items, Item{Design: name, Thumb: thumb})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Design < items[j].Design })
	return items, nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(io.LimitReader(rc, maxMember+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(b) > maxMember {
		return nil, fmt.Errorf("%s: member too large", f.Name)
	}
	return b, nil
}

// Install reads a pack and appends its designs to m until the gallery is full.
// It returns the number of designs installed.
func Install(ctx context.Context, m *gallery.Manager, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("designpack"), "install").With(slog.String("zip", packZipPath))
	entries, err := Read(packZipPath)
	if err != nil {
		return 0, err
	}
	n := m.Import(ctx, entries)
	l.Info("design pack installed", slog.Int("designs", n), slog.Int("offered", len(entries)))
	return n, nil
}
