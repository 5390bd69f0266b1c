//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// These tests exercise the Fyne form and preferences store. They are gated behind the
// "fyne" build tag so headless CI does not need Fyne. To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"context"
	"errors"
	"testing"

	"fyne.io/fyne/v2/test"

	"qrstudio/internal/config"
	"qrstudio/internal/design"
	"qrstudio/internal/storage"
	"qrstudio/internal/uisync"
)

func TestFormRoundTrip(t *testing.T) {
	test.NewApp()
	df := newDesignForm(nil)
	var edits int
	df.surf.onEdit = func(string, string) { edits++ }

	st := design.Default()
	st.Text = "https://fyne.io"
	st.DotColorMode = design.ModeGradient
	st.CsqShape = design.CornerExtraRounded
	st.LogoBehind = true
	uisync.Sync(df.surf, uisync.Project(st))

	if edits != 0 {
		t.Errorf("programmatic sync produced %d edits", edits)
	}
	if got := uisync.Read(df.surf); got != st {
		t.Errorf("Read = %+v, want %+v", got, st)
	}
	if df.surf.objects[uisync.ID(design.Dots, uisync.FieldSolidGroup)].Visible() {
		t.Errorf("solid group visible in gradient mode")
	}
	if !df.surf.objects[uisync.IDLogoUpload].Visible() {
		t.Errorf("upload area hidden without a logo")
	}
}

func TestFormReportsUserEdits(t *testing.T) {
	test.NewApp()
	df := newDesignForm(nil)
	got := map[string]string{}
	df.surf.onEdit = func(id, v string) { got[id] = v }

	if _, ok := df.surf.values[uisync.IDText]; !ok {
		t.Fatal("text control not bound")
	}
	df.surf.changed(uisync.IDText, "typed")
	if got[uisync.IDText] != "typed" {
		t.Errorf("edit not reported: %v", got)
	}
}

func TestPrefsStore(t *testing.T) {
	a := test.NewApp()
	ctx := context.Background()
	s := NewPrefsStore(a.Preferences(), 10)

	if _, err := s.Get(ctx, "qr-theme"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get(missing) = %v", err)
	}
	if err := s.Set(ctx, "qr-theme", []byte("dark")); err != nil {
		t.Fatal(err)
	}
	if b, err := s.Get(ctx, "qr-theme"); err != nil || string(b) != "dark" {
		t.Errorf("Get = %q, %v", b, err)
	}
	if err := s.Set(ctx, "qr-session-gallery", []byte("0123456789")); !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Errorf("Set over quota = %v", err)
	}
	keys, _ := s.Keys(ctx)
	if len(keys) != 1 || keys[0] != "qr-theme" {
		t.Errorf("Keys = %v", keys)
	}
	if err := s.Delete(ctx, "qr-theme"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "qr-theme"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
}

func TestFormKeepsResolvedLogoControls(t *testing.T) {
	test.NewApp()
	df := newDesignForm(nil)

	st := design.Default()
	st.LogoSize = "12.5"
	st.LogoMargin = "60"
	st, err := design.Resolve(st)
	if err != nil {
		t.Fatal(err)
	}
	uisync.Sync(df.surf, uisync.Project(st))
	got := uisync.Read(df.surf)
	if got.LogoSize != "12.5" || got.LogoMargin != "40" {
		t.Fatalf("logo controls = %q, %q, want 12.5, 40", got.LogoSize, got.LogoMargin)
	}
	if got != st {
		t.Errorf("Read = %+v, want %+v", got, st)
	}
}

func TestOpenStore(t *testing.T) {
	a := test.NewApp()
	ctx := context.Background()

	cfg := config.Defaults()
	cfg.Storage.Backend = config.BackendPrefs
	st, err := openStore(cfg, a.Preferences())
	if err != nil {
		t.Fatalf("openStore(prefs) = %v", err)
	}
	if _, ok := st.(*PrefsStore); !ok {
		t.Fatalf("prefs backend opened %T", st)
	}

	cfg.Storage.Backend = config.BackendFile
	cfg.Storage.Dir = t.TempDir()
	st, err = openStore(cfg, a.Preferences())
	if err != nil {
		t.Fatalf("openStore(file) = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Set(ctx, "qr-theme", []byte("light")); err != nil {
		t.Fatal(err)
	}
	if b, err := st.Get(ctx, "qr-theme"); err != nil || string(b) != "light" {
		t.Errorf("Get = %q, %v", b, err)
	}
}
