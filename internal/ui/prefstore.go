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

package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"fyne.io/fyne/v2"

	"qrstudio/internal/config"
	"qrstudio/internal/storage"
)

const (
	prefsKeyPrefix = "store."
	prefsIndexKey  = "store.keys"
)

// PrefsStore is a storage.Store kept in the application's Fyne preferences.
// Values are stored as strings; the set of keys is tracked under prefsIndexKey.
type PrefsStore struct {
	prefs fyne.Preferences
	quota int64

	mu sync.Mutex
}

var _ storage.Store = (*PrefsStore)(nil)

// NewPrefsStore wraps p. quota <= 0 means unlimited.
func NewPrefsStore(p fyne.Preferences, quota int64) *PrefsStore {
	return &PrefsStore{prefs: p, quota: quota}
}

func (s *PrefsStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasKey(key) {
		return nil, storage.ErrNotFound
	}
	return []byte(s.prefs.String(prefsKeyPrefix + key)), nil
}

func (s *PrefsStore) Set(_ context.Context, key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quota > 0 {
		var total int64
		for _, k := range s.keys() {
			if k != key {
				total += int64(len(s.prefs.String(prefsKeyPrefix + k)))
			}
		}
		if total+int64(len(value)) > s.quota {
			return storage.ErrQuotaExceeded
		}
	}
	s.prefs.SetString(prefsKeyPrefix+key, string(value))
	if !s.hasKey(key) {
		s.saveKeys(append(s.keys(), key))
	}
	return nil
}

func (s *PrefsStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasKey(key) {
		return nil
	}
	s.prefs.RemoveValue(prefsKeyPrefix + key)
	keys := s.keys()
	out := keys[:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	s.saveKeys(out)
	return nil
}

func (s *PrefsStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.keys()
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; the Fyne app persists preferences itself.
func (s *PrefsStore) Close() error { return nil }

func (s *PrefsStore) keys() []string {
	var keys []string
	if raw := s.prefs.String(prefsIndexKey); raw != "" {
		_ = json.Unmarshal([]byte(raw), &keys)
	}
	return keys
}

func (s *PrefsStore) hasKey(key string) bool {
	for _, k := range s.keys() {
		if k == key {
			return true
		}
	}
	return false
}

func (s *PrefsStore) saveKeys(keys []string) {
	b, _ := json.Marshal(keys)
	s.prefs.SetString(prefsIndexKey, string(b))
}

// openStore opens the configured store. The prefs backend lives in the app's preferences;
// the others live under the data dir.
func openStore(cfg config.AppConfig, prefs fyne.Preferences) (storage.Store, error) {
	if cfg.Storage.Backend == config.BackendPrefs {
		return NewPrefsStore(prefs, cfg.Storage.QuotaBytes), nil
	}
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	return storage.Open(storage.Options{Backend: cfg.Storage.Backend, Dir: dir, QuotaBytes: cfg.Storage.QuotaBytes})
}
