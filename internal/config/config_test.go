/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigFile, p)
	return p
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	useTempConfig(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Gallery.Capacity, 25; got != want {
		t.Fatalf("Gallery.Capacity = %d, want %d", got, want)
	}
	if got, want := cfg.Storage.Backend, BackendFile; got != want {
		t.Fatalf("Storage.Backend = %q, want %q", got, want)
	}
	if got, want := cfg.Render.Debounce(), 120*time.Millisecond; got != want {
		t.Fatalf("Render.Debounce() = %v, want %v", got, want)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	useTempConfig(t)
	cfg := Defaults()
	cfg.General.Theme = "dark"
	cfg.Gallery.Capacity = 10
	cfg.Storage.Backend = BackendSQLite
	cfg.Render.ExportScale = 2
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.General.Theme != "dark" || got.Gallery.Capacity != 10 || got.Storage.Backend != BackendSQLite || got.Render.ExportScale != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadMalformedFileKeepsDefaults(t *testing.T) {
	p := useTempConfig(t)
	if err := os.WriteFile(p, []byte("general: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Gallery.Capacity != 25 {
		t.Fatalf("defaults not applied on parse error: %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	useTempConfig(t)
	t.Setenv(EnvGalleryCapacity, "7")
	t.Setenv(EnvStoreBackend, "SQLite")
	t.Setenv(EnvExportScale, "9") // out of range, ignored
	t.Setenv(EnvDebounceMs, "40")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Gallery.Capacity != 7 {
		t.Fatalf("Gallery.Capacity = %d, want 7", cfg.Gallery.Capacity)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Fatalf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Render.ExportScale != 4 {
		t.Fatalf("Render.ExportScale = %d, want default 4", cfg.Render.ExportScale)
	}
	if cfg.Render.Debounce() != 40*time.Millisecond {
		t.Fatalf("Render.Debounce() = %v, want 40ms", cfg.Render.Debounce())
	}
	if env, ok := EnvOverrideFor("gallery.capacity"); !ok || env != EnvGalleryCapacity {
		t.Fatalf("EnvOverrideFor(gallery.capacity) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("general.theme"); ok {
		t.Fatalf("general.theme should not be reported as overridden")
	}
}

func TestMergeIgnoresInvalidValues(t *testing.T) {
	dst := Defaults()
	src := AppConfig{
		General: GeneralConfig{Theme: "purple"},
		Storage: StorageConfig{Backend: "redis"},
		Render:  RenderConfig{ExportScale: 0},
		Logging: LoggingConfig{Level: " DEBUG ", Source: true},
	}
	mergeInto(&dst, &src)
	if dst.General.Theme != "system" || dst.Storage.Backend != BackendFile || dst.Render.ExportScale != 4 {
		t.Fatalf("invalid values leaked into config: %+v", dst)
	}
	if dst.Logging.Level != "debug" || !dst.Logging.Source {
		t.Fatalf("logging not merged: %+v", dst.Logging)
	}
}

func TestDataDirPrefersConfiguredDir(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Dir = "/srv/qr"
	d, err := cfg.DataDir()
	if err != nil || d != "/srv/qr" {
		t.Fatalf("DataDir() = %q, %v", d, err)
	}
}
