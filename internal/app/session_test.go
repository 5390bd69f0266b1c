/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"qrstudio/internal/datauri"
	"qrstudio/internal/design"
	"qrstudio/internal/export"
	"qrstudio/internal/storage"
	"qrstudio/internal/uisync"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) count(msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m == msg {
			n++
		}
	}
	return n
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return ""
	}
	return r.msgs[len(r.msgs)-1]
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newSession(t *testing.T) (*Session, *uisync.MemSurface, *recorder) {
	t.Helper()
	surf := uisync.NewMemSurface()
	rec := &recorder{}
	s := New(Options{
		Surface:  surf,
		Store:    storage.NewMemStore(0),
		Notifier: rec,
		Debounce: time.Hour,
	})
	t.Cleanup(s.Close)
	return s, surf, rec
}

func TestApplyGatherRoundTrip(t *testing.T) {
	s, _, _ := newSession(t)
	st := design.Default()
	st.Text = "https://go.dev"
	st.DotColorMode = design.ModeGradient
	st.DotGradAngle = "45"
	st.BgMode = design.ModeTransparent
	st.LogoDataURL = design.DataURL(datauri.Encode("image/png", pngBytes(t)))
	st.LogoBehind = true

	if err := s.Apply(st); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := s.Gather()
	if got != st {
		t.Fatalf("Gather = %+v, want %+v", got, st)
	}
	if err := s.Apply(got); err != nil {
		t.Fatalf("re-Apply: %v", err)
	}
	if again := s.Gather(); again != got {
		t.Errorf("second round trip changed state: %+v", again)
	}
}

func TestApplyMigratesV1(t *testing.T) {
	s, surf, _ := newSession(t)
	st := design.Default()
	st.Version = 1
	st.LogoBehind = true
	if err := s.Apply(st); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := s.Gather(); got.Version != design.CurrentVersion || got.LogoBehind {
		t.Errorf("Gather = version %d behind %v", got.Version, got.LogoBehind)
	}
	if surf.Value(uisync.IDLogoModeLabel) != uisync.PlacementFront {
		t.Errorf("placement label = %q", surf.Value(uisync.IDLogoModeLabel))
	}
}

func TestApplyRejectsUnsupportedVersion(t *testing.T) {
	for _, v := range []int{0, 3} {
		s, surf, rec := newSession(t)
		s.Reset()
		vals, vis := surf.Snapshot()
		triggersBefore, _ := s.updates.Stats()

		bad := design.Default()
		bad.Version = v
		bad.Text = "should not appear"
		if err := s.Apply(bad); !errors.Is(err, design.ErrUnsupportedVersion) {
			t.Fatalf("Apply(v%d) = %v, want ErrUnsupportedVersion", v, err)
		}
		vals2, vis2 := surf.Snapshot()
		if !reflect.DeepEqual(vals, vals2) || !reflect.DeepEqual(vis, vis2) {
			t.Errorf("v%d: form changed", v)
		}
		if triggers, _ := s.updates.Stats(); triggers != triggersBefore {
			t.Errorf("v%d: render scheduled", v)
		}
		if rec.last() != MsgUnsupported {
			t.Errorf("v%d: notified %q", v, rec.last())
		}
	}
}

func TestApplySchedulesOneRender(t *testing.T) {
	renders := 0
	surf := uisync.NewMemSurface()
	s := New(Options{
		Surface:  surf,
		Store:    storage.NewMemStore(0),
		Debounce: time.Hour,
		OnRender: func(image.Image) { renders++ },
	})
	defer s.Close()
	if err := s.Apply(design.Default()); err != nil {
		t.Fatal(err)
	}
	if triggers, _ := s.updates.Stats(); triggers != 1 {
		t.Errorf("triggers = %d, want 1", triggers)
	}
	s.RenderNow()
	if renders != 1 || !s.Ready() {
		t.Errorf("renders = %d ready %v", renders, s.Ready())
	}
}

func TestImportJSON(t *testing.T) {
	s, surf, rec := newSession(t)
	s.Reset()
	vals, _ := surf.Snapshot()

	if err := s.ImportJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if rec.last() != MsgInvalidJSON {
		t.Errorf("notified %q, want %q", rec.last(), MsgInvalidJSON)
	}
	if after, _ := surf.Snapshot(); !reflect.DeepEqual(vals, after) {
		t.Errorf("malformed import changed the form")
	}

	if err := s.ImportJSON([]byte(`{"version":3,"text":"x"}`)); !errors.Is(err, design.ErrUnsupportedVersion) {
		t.Fatalf("ImportJSON(v3) = %v", err)
	}
	if rec.count(MsgImported) != 0 {
		t.Errorf("success reported for rejected design")
	}

	if err := s.ImportJSON([]byte(`{"version":2,"text":"imported","dotGradAngle":90}`)); err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if got := s.Gather(); got.Text != "imported" || got.DotGradAngle != "90" || got.DotShape != design.DotRounded {
		t.Errorf("Gather = %+v", got)
	}
	if rec.count(MsgImported) != 1 {
		t.Errorf("imported notified %d times", rec.count(MsgImported))
	}
}

func TestExportJSON(t *testing.T) {
	s, _, rec := newSession(t)
	s.Reset()
	s.Edit(uisync.IDText, "exported")
	var buf bytes.Buffer
	if err := s.ExportJSON(&buf); err != nil {
		t.Fatal(err)
	}
	if err := design.ValidateJSON(buf.Bytes()); err != nil {
		t.Errorf("exported JSON fails schema: %v", err)
	}
	if !strings.Contains(buf.String(), `"text": "exported"`) {
		t.Errorf("export = %s", buf.String())
	}
	if rec.last() != MsgExportedJSON {
		t.Errorf("notified %q", rec.last())
	}
}

func TestSaveDesignNeedsPreview(t *testing.T) {
	s, _, rec := newSession(t)
	ok, err := s.SaveDesign(context.Background())
	if ok || !errors.Is(err, ErrNotReady) {
		t.Fatalf("SaveDesign = %v, %v", ok, err)
	}
	if rec.last() != MsgNotReady {
		t.Errorf("notified %q", rec.last())
	}
}

func TestSaveRestoreDelete(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newSession(t)
	s.Reset()
	s.Edit(uisync.IDText, "first")
	ok, err := s.SaveDesign(ctx)
	if !ok || err != nil {
		t.Fatalf("SaveDesign = %v, %v", ok, err)
	}
	if rec.last() != MsgSaved {
		t.Errorf("notified %q", rec.last())
	}
	e := s.Gallery().Entries(ctx)
	if len(e) != 1 || !strings.HasPrefix(e[0].Thumbnail, "data:image/png;base64,") {
		t.Fatalf("entries = %+v", e)
	}

	s.Edit(uisync.IDText, "second")
	if !s.Restore(ctx, 0) {
		t.Fatal("Restore(0) = false")
	}
	if got := s.Gather().Text; got != "first" {
		t.Errorf("restored text = %q", got)
	}
	if rec.last() != "Design 1 restored" {
		t.Errorf("notified %q", rec.last())
	}
	if s.Restore(ctx, 5) {
		t.Errorf("Restore(5) should fail")
	}

	s.Delete(ctx, 0)
	if s.Gallery().Len(ctx) != 0 || rec.last() != MsgDeleted {
		t.Errorf("Delete: len %d, notified %q", s.Gallery().Len(ctx), rec.last())
	}
}

func TestDownload(t *testing.T) {
	s, _, rec := newSession(t)
	s.Reset()
	s.SetExportScale(1)
	dir := t.TempDir()
	res := <-s.Download(export.PNG, dir)
	if res.Err != nil {
		t.Fatalf("Download: %v", res.Err)
	}
	if res.Path != filepath.Join(dir, "qrcode.png") {
		t.Errorf("path = %q", res.Path)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Errorf("stat: %v", err)
	}
	if rec.last() != "Downloaded PNG (1x — 512px)" {
		t.Errorf("notified %q", rec.last())
	}

	bad := <-s.Download(export.Format("gif"), dir)
	if bad.Err == nil || rec.last() != export.FailedMessage {
		t.Errorf("bad download = %v, notified %q", bad.Err, rec.last())
	}
}

func TestLoadLogoFile(t *testing.T) {
	s, surf, rec := newSession(t)
	s.Reset()
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadLogoFile(txt); !errors.Is(err, datauri.ErrNotImage) {
		t.Errorf("LoadLogoFile(txt) = %v", err)
	}
	if rec.last() != MsgNotAnImage {
		t.Errorf("notified %q", rec.last())
	}

	img := filepath.Join(dir, "brand.png")
	if err := os.WriteFile(img, pngBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadLogoFile(img); err != nil {
		t.Fatalf("LoadLogoFile: %v", err)
	}
	uri, name := s.Logo()
	if name != "brand.png" || !strings.HasPrefix(string(uri), "data:image/png;base64,") {
		t.Errorf("Logo = %q, %q", uri[:min(30, len(uri))], name)
	}
	if !surf.Visible(uisync.IDLogoOptions) || surf.Visible(uisync.IDLogoUpload) {
		t.Errorf("logo controls not shown")
	}
	if s.RenderOptions().Image == nil {
		t.Errorf("render options carry no image")
	}

	s.ClearLogo()
	if uri, _ := s.Logo(); uri != "" || s.RenderOptions().Image != nil {
		t.Errorf("logo not cleared")
	}
	if err := s.SetLogo("not a uri", "x"); !errors.Is(err, datauri.ErrMalformed) {
		t.Errorf("SetLogo(bad) = %v", err)
	}
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore(0)
	s := New(Options{Surface: uisync.NewMemSurface(), Store: store})
	defer s.Close()

	if !s.InitTheme(ctx, true) {
		t.Fatal("InitTheme(systemDark) should pick dark")
	}
	if s.SystemThemeChanged(false) {
		t.Errorf("unsaved theme should follow the system")
	}
	if s.ThemeColor() != LightThemeColor {
		t.Errorf("ThemeColor = %q", s.ThemeColor())
	}
	s.SetTheme(ctx, true)
	if !s.SystemThemeChanged(false) {
		t.Errorf("saved theme should ignore the system")
	}
	if b, err := store.Get(ctx, ThemeKey); err != nil || string(b) != ThemeDark {
		t.Errorf("stored theme = %q, %v", b, err)
	}

	s2 := New(Options{Surface: uisync.NewMemSurface(), Store: store, Theme: ThemeLight})
	defer s2.Close()
	if !s2.InitTheme(ctx, false) || s2.ThemeColor() != DarkThemeColor {
		t.Errorf("saved theme not restored")
	}
	s3 := New(Options{Surface: uisync.NewMemSurface(), Store: storage.NewMemStore(0), Theme: ThemeLight})
	defer s3.Close()
	if s3.InitTheme(ctx, true) {
		t.Errorf("configured light theme should beat the system preference")
	}
}
