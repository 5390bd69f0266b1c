/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package designpack

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"qrstudio/internal/datauri"
	"qrstudio/internal/design"
	"qrstudio/internal/gallery"
	"qrstudio/internal/storage"
)

func thumb(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return datauri.Encode("image/png", buf.Bytes())
}

func entries(t *testing.T, texts ...string) []gallery.Entry {
	var out []gallery.Entry
	for i, txt := range texts {
		s := design.Default()
		s.Text = txt
		out = append(out, gallery.Entry{State: s, Thumbnail: thumb(t), TS: int64(1000 + i)})
	}
	return out
}

func TestExportAndRead(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "packs", "mine.zip")
	in := entries(t, "a", "b", "c")
	if err := Export(in, zipPath); err != nil {
		t.Fatalf("Export: %v", err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	_ = r.Close()
	for _, want := range []string{ManifestName, "designs/001.json", "designs/003.json", "thumbs/002.png"} {
		if !names[want] {
			t.Errorf("zip missing %s", want)
		}
	}

	got, err := Read(zipPath)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range got {
		if got[i].State != in[i].State || got[i].TS != in[i].TS {
			t.Errorf("entry %d = %+v, want %+v", i, got[i].State.Text, in[i].State.Text)
		}
		if got[i].Thumbnail != in[i].Thumbnail {
			t.Errorf("entry %d thumbnail changed", i)
		}
	}
}

func TestInstallStopsAtCapacity(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "p.zip")
	if err := Export(entries(t, "a", "b", "c"), zipPath); err != nil {
		t.Fatal(err)
	}
	m := gallery.New(storage.NewMemStore(0), 2, nil)
	n, err := Install(context.Background(), m, zipPath)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if n != 2 || m.Len(context.Background()) != 2 {
		t.Errorf("installed = %d, len = %d, want 2", n, m.Len(context.Background()))
	}
}

func TestReadWithoutManifestSkipsUnsupported(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "loose.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	members := map[string]string{
		"designs/b.json": `{"version":2,"text":"second"}`,
		"designs/a.json": `{"version":1,"text":"first","logoBehind":true}`,
		"designs/c.json": `{"version":3,"text":"future"}`,
		"designs/d.json": `not json`,
	}
	for name, body := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	got, err := Read(zipPath)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].State.Text != "first" || got[1].State.Text != "second" {
		t.Errorf("order = %q, %q", got[0].State.Text, got[1].State.Text)
	}
	if got[0].State.Version != design.CurrentVersion || got[0].State.LogoBehind {
		t.Errorf("v1 design not migrated: %+v", got[0].State)
	}
	if got[0].State.DotShape != design.DotRounded {
		t.Errorf("defaults not applied: %q", got[0].State.DotShape)
	}
}

func TestReadEmptyPack(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "empty.zip")
	if err := Export(nil, zipPath); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(zipPath); !errors.Is(err, ErrNoDesigns) {
		t.Errorf("Read = %v, want ErrNoDesigns", err)
	}
}
