/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qrstudio/internal/design"
	"qrstudio/internal/gallery"
	"qrstudio/internal/version"
)

// setup isolates config, data and logs in a temp dir and returns it.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("QRS_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("QRS_STORE_BACKEND", "file")
	t.Setenv("QRS_LOG_LEVEL", "error")
	return dir
}

func writeDesign(t *testing.T, dir string) string {
	t.Helper()
	s := design.Default()
	s.Text = "https://example.org/cli"
	b, err := design.Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, "design.json")
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := run(args, &out)
	return code, out.String()
}

func TestVersion(t *testing.T) {
	setup(t)
	code, out := runCLI(t, "version")
	if code != 0 || !strings.Contains(out, version.String()) {
		t.Fatalf("version = %d %q", code, out)
	}
}

func TestUsage(t *testing.T) {
	setup(t)
	if code, out := runCLI(t); code != 0 || !strings.Contains(out, "Usage:") {
		t.Fatalf("no args = %d %q", code, out)
	}
	if code, _ := runCLI(t, "frobnicate"); code != 2 {
		t.Fatalf("unknown command exit = %d, want 2", code)
	}
	if code, _ := runCLI(t, "render", "only-one"); code != 2 {
		t.Fatalf("short render exit = %d, want 2", code)
	}
}

func TestRenderWritesPNG(t *testing.T) {
	dir := setup(t)
	in := writeDesign(t, dir)
	out := filepath.Join(dir, "out", "qr.png")
	code, msg := runCLI(t, "render", in, "png", "1", out)
	if code != 0 {
		t.Fatalf("render exit = %d: %s", code, msg)
	}
	if !strings.Contains(msg, "Downloaded PNG (1x — 512px)") {
		t.Fatalf("message = %q", msg)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("output is not a PNG")
	}
}

func TestRenderRejectsBadArgs(t *testing.T) {
	dir := setup(t)
	in := writeDesign(t, dir)
	out := filepath.Join(dir, "qr.png")
	if code, _ := runCLI(t, "render", in, "png", "9", out); code != 2 {
		t.Fatalf("scale 9 exit = %d, want 2", code)
	}
	if code, _ := runCLI(t, "render", in, "gif", "1", out); code != 2 {
		t.Fatalf("gif exit = %d, want 2", code)
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"version":3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _ := runCLI(t, "render", bad, "png", "1", out); code != 1 {
		t.Fatalf("unsupported design exit = %d, want 1", code)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("failed renders must not write output")
	}
}

func TestOptionsPrintsJSON(t *testing.T) {
	dir := setup(t)
	code, out := runCLI(t, "options", writeDesign(t, dir))
	if code != 0 {
		t.Fatalf("options exit = %d: %s", code, out)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("options output is not JSON: %v", err)
	}
	if m["data"] != "https://example.org/cli" {
		t.Fatalf("data = %v", m["data"])
	}
}

func TestBatchWeb(t *testing.T) {
	dir := setup(t)
	outDir := filepath.Join(dir, "web")
	code, out := runCLI(t, "batch", writeDesign(t, dir), "web", outDir)
	if code != 0 {
		t.Fatalf("batch exit = %d: %s", code, out)
	}
	for _, name := range []string{"qrcode.png", "qrcode.svg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if code, _ := runCLI(t, "batch", writeDesign(t, dir), "poster", outDir); code != 2 {
		t.Fatalf("unknown preset exit = %d, want 2", code)
	}
}

func TestGalleryCommands(t *testing.T) {
	dir := setup(t)
	in := writeDesign(t, dir)

	if _, out := runCLI(t, "gallery", "list"); !strings.Contains(out, gallery.EmptyText) {
		t.Fatalf("empty list = %q", out)
	}
	if code, out := runCLI(t, "gallery", "save", in); code != 0 || !strings.Contains(out, "Design saved") {
		t.Fatalf("save = %d %q", code, out)
	}
	code, out := runCLI(t, "gallery", "list")
	if code != 0 || !strings.Contains(out, "Design 1") || !strings.Contains(out, "1 / 25 saved") {
		t.Fatalf("list = %d %q", code, out)
	}
	code, out = runCLI(t, "gallery", "show", "1")
	if code != 0 {
		t.Fatalf("show exit = %d: %s", code, out)
	}
	s, err := design.Decode([]byte(out))
	if err != nil {
		t.Fatalf("show output: %v", err)
	}
	if s.Text != "https://example.org/cli" {
		t.Fatalf("shown text = %q", s.Text)
	}
	if code, _ := runCLI(t, "gallery", "show", "2"); code != 2 {
		t.Fatalf("show out of range exit = %d, want 2", code)
	}
	if code, _ := runCLI(t, "gallery", "delete", "1"); code != 0 {
		t.Fatalf("delete exit = %d", code)
	}
	if _, out := runCLI(t, "gallery", "list"); !strings.Contains(out, gallery.EmptyText) {
		t.Fatalf("list after delete = %q", out)
	}
}

func TestPackExportInstall(t *testing.T) {
	dir := setup(t)
	zip := filepath.Join(dir, "designs.zip")
	if code, _ := runCLI(t, "pack", "export", zip); code != 1 {
		t.Fatalf("exporting an empty gallery exit = %d, want 1", code)
	}
	runCLI(t, "gallery", "save", writeDesign(t, dir))
	if code, out := runCLI(t, "pack", "export", zip); code != 0 {
		t.Fatalf("export exit = %d: %s", code, out)
	}
	runCLI(t, "gallery", "delete", "1")
	code, out := runCLI(t, "pack", "install", zip)
	if code != 0 || !strings.Contains(out, "Installed 1 designs") {
		t.Fatalf("install = %d %q", code, out)
	}
}

func TestTheme(t *testing.T) {
	setup(t)
	if _, out := runCLI(t, "theme"); !strings.HasPrefix(out, "system") {
		t.Fatalf("unsaved theme = %q", out)
	}
	if code, _ := runCLI(t, "theme", "dark"); code != 0 {
		t.Fatalf("set theme exit = %d", code)
	}
	if _, out := runCLI(t, "theme"); strings.TrimSpace(out) != "dark" {
		t.Fatalf("saved theme = %q", out)
	}
	if code, _ := runCLI(t, "theme", "sepia"); code != 2 {
		t.Fatalf("bad theme exit = %d, want 2", code)
	}
}

func TestPrefsBackendNeedsUI(t *testing.T) {
	setup(t)
	t.Setenv("QRS_STORE_BACKEND", "prefs")
	if code, out := runCLI(t, "gallery", "list"); code != 1 || !strings.Contains(out, "desktop UI") {
		t.Fatalf("prefs backend = %d %q", code, out)
	}
}
