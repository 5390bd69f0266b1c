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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied after the file is merged.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Theme string `yaml:"theme"` // "system" | "light" | "dark"
}

type GalleryConfig struct {
	Capacity int `yaml:"capacity"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend"` // "file" | "sqlite" | "prefs"
	Dir        string `yaml:"dir"`
	QuotaBytes int64  `yaml:"quota_bytes"` // 0 = unlimited
}

type RenderConfig struct {
	DebounceMs  int `yaml:"debounce_ms"`
	ExportScale int `yaml:"export_scale"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Gallery       GalleryConfig `yaml:"gallery"`
	Storage       StorageConfig `yaml:"storage"`
	Render        RenderConfig  `yaml:"render"`
	Logging       LoggingConfig `yaml:"logging"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	// BackendPrefs keeps data in the desktop app's preferences; only the UI can open it.
	BackendPrefs = "prefs"
)

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system"},
		Gallery:       GalleryConfig{Capacity: 25},
		Storage:       StorageConfig{Backend: BackendFile},
		Render:        RenderConfig{DebounceMs: 120, ExportScale: 4},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile      = "QRS_CONFIG_FILE"
	EnvTheme           = "QRS_THEME"
	EnvGalleryCapacity = "QRS_GALLERY_CAPACITY"
	EnvStoreBackend    = "QRS_STORE_BACKEND"
	EnvDataDir         = "QRS_DATA_DIR"
	EnvStoreQuota      = "QRS_STORE_QUOTA_BYTES"
	EnvDebounceMs      = "QRS_DEBOUNCE_MS"
	EnvExportScale     = "QRS_EXPORT_SCALE"
	EnvLogLevel        = "QRS_LOG_LEVEL"
	EnvLogFormat       = "QRS_LOG_FORMAT"
	EnvLogSource       = "QRS_LOG_SOURCE"
	EnvLogFile         = "QRS_LOG_FILE"
)

// baseDir returns the per-user application directory.
func baseDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "QRStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "QRStudio")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "qrstudio")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "qrstudio")
		}
	}
	if base == "" || base == "QRStudio" || base == "qrstudio" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path. QRS_CONFIG_FILE takes precedence.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DataDir returns where the local store keeps its files.
func (c AppConfig) DataDir() (string, error) {
	if d := strings.TrimSpace(c.Storage.Dir); d != "" {
		return d, nil
	}
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "data"), nil
}

// Debounce returns the re-render coalescing window.
func (r RenderConfig) Debounce() time.Duration {
	if r.DebounceMs <= 0 {
		return time.Duration(Defaults().Render.DebounceMs) * time.Millisecond
	}
	return time.Duration(r.DebounceMs) * time.Millisecond
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A missing file is not an error; an unreadable or malformed one is reported but defaults still apply.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	var loadErr error
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if uerr := yaml.Unmarshal(data, &fileCfg); uerr != nil {
			loadErr = fmt.Errorf("parse %s: %w", path, uerr)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	case !errors.Is(err, os.ErrNotExist):
		loadErr = fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, loadErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if t := normTheme(src.General.Theme); t != "" {
		dst.General.Theme = t
	}
	if src.Gallery.Capacity > 0 {
		dst.Gallery.Capacity = src.Gallery.Capacity
	}
	if b := normBackend(src.Storage.Backend); b != "" {
		dst.Storage.Backend = b
	}
	if d := strings.TrimSpace(src.Storage.Dir); d != "" {
		dst.Storage.Dir = d
	}
	if src.Storage.QuotaBytes > 0 {
		dst.Storage.QuotaBytes = src.Storage.QuotaBytes
	}
	if src.Render.DebounceMs > 0 {
		dst.Render.DebounceMs = src.Render.DebounceMs
	}
	if s := src.Render.ExportScale; s >= 1 && s <= 4 {
		dst.Render.ExportScale = s
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if t := normTheme(os.Getenv(EnvTheme)); t != "" {
		cfg.General.Theme = t
	}
	if n, ok := envInt(EnvGalleryCapacity); ok && n > 0 {
		cfg.Gallery.Capacity = n
	}
	if b := normBackend(os.Getenv(EnvStoreBackend)); b != "" {
		cfg.Storage.Backend = b
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.Storage.Dir = v
	}
	if n, ok := envInt(EnvStoreQuota); ok && n >= 0 {
		cfg.Storage.QuotaBytes = int64(n)
	}
	if n, ok := envInt(EnvDebounceMs); ok && n > 0 {
		cfg.Render.DebounceMs = n
	}
	if n, ok := envInt(EnvExportScale); ok && n >= 1 && n <= 4 {
		cfg.Render.ExportScale = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"general.theme":       EnvTheme,
		"gallery.capacity":    EnvGalleryCapacity,
		"storage.backend":     EnvStoreBackend,
		"storage.dir":         EnvDataDir,
		"storage.quota_bytes": EnvStoreQuota,
		"render.debounce_ms":  EnvDebounceMs,
		"render.export_scale": EnvExportScale,
		"logging.level":       EnvLogLevel,
		"logging.format":      EnvLogFormat,
		"logging.source":      EnvLogSource,
		"logging.file":        EnvLogFile,
	}
	env, ok := names[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func normTheme(v string) string {
	switch t := strings.ToLower(strings.TrimSpace(v)); t {
	case "system", "light", "dark":
		return t
	default:
		return ""
	}
}

func normBackend(v string) string {
	switch b := strings.ToLower(strings.TrimSpace(v)); b {
	case BackendFile, BackendSQLite, BackendPrefs:
		return b
	default:
		return ""
	}
}
