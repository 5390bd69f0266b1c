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
	"context"
	"errors"
	"log/slog"
	"strings"

	applog "qrstudio/internal/log"
	"qrstudio/internal/storage"
	"qrstudio/internal/uisync"
)

const (
	// ThemeKey is the store key of the saved theme.
	ThemeKey = "qr-theme"

	ThemeDark   = "dark"
	ThemeLight  = "light"
	ThemeSystem = "system"

	// Status-bar colors per theme.
	DarkThemeColor  = "#0f1513"
	LightThemeColor = "#e8f0ee"
)

// InitTheme picks the theme at startup: a saved choice wins, then the configured theme,
// then the system preference. It returns whether the dark theme is active.
func (s *Session) InitTheme(ctx context.Context, systemDark bool) bool {
	l := applog.WithOperation(applog.WithComponent("session"), "theme")
	dark := systemDark
	saved := false
	b, err := s.store.Get(ctx, ThemeKey)
	switch {
	case err == nil && (string(b) == ThemeDark || string(b) == ThemeLight):
		dark, saved = string(b) == ThemeDark, true
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		l.Warn("theme unreadable, using system", slog.Any("err", err))
	}
	if !saved {
		switch strings.ToLower(s.theme) {
		case ThemeDark:
			dark = true
		case ThemeLight:
			dark = false
		}
	}
	s.mu.Lock()
	s.dark, s.themeSaved = dark, saved
	s.showThemeLocked()
	s.mu.Unlock()
	return dark
}

// SystemThemeChanged follows an OS theme change unless the user picked a theme.
func (s *Session) SystemThemeChanged(dark bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.themeSaved {
		s.dark = dark
		s.showThemeLocked()
	}
	return s.dark
}

// SetTheme applies and persists the user's choice. A failed write keeps the choice for this session.
func (s *Session) SetTheme(ctx context.Context, dark bool) {
	s.mu.Lock()
	s.dark, s.themeSaved = dark, true
	s.showThemeLocked()
	s.mu.Unlock()
	v := ThemeLight
	if dark {
		v = ThemeDark
	}
	if err := s.store.Set(ctx, ThemeKey, []byte(v)); err != nil {
		applog.WithOperation(applog.WithComponent("session"), "theme").Warn("theme not saved", slog.Any("err", err))
	}
}

// Dark reports whether the dark theme is active.
func (s *Session) Dark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// ThemeColor returns the status-bar color of the active theme.
func (s *Session) ThemeColor() string {
	if s.Dark() {
		return DarkThemeColor
	}
	return LightThemeColor
}

func (s *Session) showThemeLocked() {
	v := "false"
	if s.dark {
		v = "true"
	}
	s.surf.SetValue(uisync.IDThemeSwitch, v)
}
