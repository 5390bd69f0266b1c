/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package gallery manages the bounded, ordered collection of saved designs.
// Entries are addressed by position; removing one shifts every later entry down by one.
// The whole collection is persisted under a single key and every write replaces it,
// so concurrent writers resolve as last-writer-wins.
package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"qrstudio/internal/design"
	applog "qrstudio/internal/log"
	"qrstudio/internal/storage"
)

const (
	// Key is the store key holding the serialized collection.
	Key = "qr-session-gallery"
	// DefaultCapacity bounds the collection when no capacity is configured.
	DefaultCapacity = 25

	EmptyText          = "No saved designs yet"
	StorageFullMessage = "Storage full — remove some designs"
)

// LimitMessage is shown when a save is refused because the gallery is full.
func LimitMessage(capacity int) string {
	return fmt.Sprintf("Limit reached (%d). Delete a design first.", capacity)
}

// Entry is one saved design. Entries are never modified once stored.
type Entry struct {
	State     design.State `json:"state"`
	Thumbnail string       `json:"thumbnail"` // PNG data URI
	TS        int64        `json:"ts"`        // Unix milliseconds
}

// CreatedAt returns the save time.
func (e Entry) CreatedAt() time.Time { return time.UnixMilli(e.TS) }

// Card summarizes an entry for display.
type Card struct {
	Index     int
	Title     string
	Alt       string
	Thumbnail string
	CreatedAt time.Time
}

// Notifier shows a short user-visible message.
type Notifier interface {
	Notify(msg string)
}

// Manager performs CRUD over the persisted collection. It is safe for concurrent use.
type Manager struct {
	store    storage.Store
	capacity int
	notify   Notifier
	now      func() time.Time

	mu sync.Mutex
	// unsaved holds the collection whose last persist failed; it stands in for
	// the store until a later write succeeds.
	unsaved []Entry
}

// New returns a Manager over store. capacity <= 0 uses DefaultCapacity. notify may be nil.
func New(store storage.Store, capacity int, notify Notifier) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{store: store, capacity: capacity, notify: notify, now: time.Now}
}

// Capacity returns the maximum number of entries Add accepts.
func (m *Manager) Capacity() int { return m.capacity }

// Entries returns a copy of the collection. A missing or unreadable collection is empty.
func (m *Manager) Entries(ctx context.Context) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx)
}

// Len returns the number of saved entries.
func (m *Manager) Len(ctx context.Context) int {
	return len(m.Entries(ctx))
}

// Add appends state with its thumbnail. At capacity it notifies and returns false without
// writing. A failed persist notifies but still returns true: the entry lives on in memory
// for this session.
func (m *Manager) Add(ctx context.Context, state design.State, thumbnail string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := applog.WithOperation(applog.WithComponent("gallery"), "add")
	entries := m.loadLocked(ctx)
	if len(entries) >= m.capacity {
		l.Info("gallery full", slog.Int("len", len(entries)), slog.Int("capacity", m.capacity))
		m.say(LimitMessage(m.capacity))
		return false
	}
	entries = append(entries, Entry{State: state, Thumbnail: thumbnail, TS: m.now().UnixMilli()})
	m.saveLocked(ctx, entries)
	l.Debug("design added", slog.Int("len", len(entries)))
	return true
}

// Import appends entries in order until the gallery is full and returns how many were added.
// All additions are persisted in one write.
func (m *Manager) Import(ctx context.Context, add []Entry) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.loadLocked(ctx)
	n := 0
	for _, e := range add {
		if len(entries) >= m.capacity {
			break
		}
		if e.TS == 0 {
			e.TS = m.now().UnixMilli()
		}
		entries = append(entries, e)
		n++
	}
	if n < len(add) {
		m.say(LimitMessage(m.capacity))
	}
	if n > 0 {
		m.saveLocked(ctx, entries)
	}
	return n
}

// Remove deletes the entry at index. An out-of-range index is a no-op.
func (m *Manager) Remove(ctx context.Context, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.loadLocked(ctx)
	if index < 0 || index >= len(entries) {
		return
	}
	entries = append(entries[:index:index], entries[index+1:]...)
	m.saveLocked(ctx, entries)
}

// State returns the design stored at index; ok is false when index is out of range.
func (m *Manager) State(ctx context.Context, index int) (s design.State, ok bool) {
	entries := m.Entries(ctx)
	if index < 0 || index >= len(entries) {
		return design.State{}, false
	}
	return entries[index].State, true
}

// Cards returns display summaries; titles number designs from 1.
func (m *Manager) Cards(ctx context.Context) []Card {
	entries := m.Entries(ctx)
	cards := make([]Card, len(entries))
	for i, e := range entries {
		cards[i] = Card{
			Index:     i,
			Title:     fmt.Sprintf("Design %d — click to restore", i+1),
			Alt:       fmt.Sprintf("Design %d", i+1),
			Thumbnail: e.Thumbnail,
			CreatedAt: e.CreatedAt(),
		}
	}
	return cards
}

// Note returns the "N / capacity saved" line, or "" for an empty gallery.
func (m *Manager) Note(ctx context.Context) string {
	n := m.Len(ctx)
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d / %d saved", n, m.capacity)
}

func (m *Manager) loadLocked(ctx context.Context) []Entry {
	if m.unsaved != nil {
		return append([]Entry(nil), m.unsaved...)
	}
	data, err := m.store.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			applog.WithComponent("gallery").Warn("gallery unreadable, treating as empty", slog.Any("err", err))
		}
		return []Entry{}
	}
	entries, err := decodeEntries(data)
	if err != nil {
		applog.WithComponent("gallery").Warn("gallery corrupt, treating as empty", slog.Any("err", err))
		return []Entry{}
	}
	return entries
}

// decodeEntries decodes the collection one entry at a time. A mistyped design field falls
// back to its zero value and is resolved to the default on restore; an entry that is not an
// object is dropped.
func decodeEntries(data []byte) ([]Entry, error) {
	l := applog.WithOperation(applog.WithComponent("gallery"), "load")
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raws))
	for i, raw := range raws {
		e, dropped, err := decodeEntry(raw)
		if err != nil {
			l.Warn("skipping unreadable entry", slog.Int("index", i), slog.Any("err", err))
			continue
		}
		if len(dropped) > 0 {
			l.Warn("entry has invalid fields", slog.Int("index", i), slog.Any("fields", dropped))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeEntry(raw json.RawMessage) (Entry, []string, error) {
	var e Entry
	if err := json.Unmarshal(raw, &e); err == nil {
		return e, nil, nil
	}
	var parts struct {
		State     map[string]json.RawMessage `json:"state"`
		Thumbnail json.RawMessage            `json:"thumbnail"`
		TS        json.RawMessage            `json:"ts"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return Entry{}, nil, err
	}
	e = Entry{}
	var dropped []string
	if len(parts.Thumbnail) > 0 && json.Unmarshal(parts.Thumbnail, &e.Thumbnail) != nil {
		dropped = append(dropped, "thumbnail")
	}
	if len(parts.TS) > 0 && json.Unmarshal(parts.TS, &e.TS) != nil {
		dropped = append(dropped, "ts")
	}
	keys := make([]string, 0, len(parts.State))
	for k := range parts.State {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		one, err := json.Marshal(map[string]json.RawMessage{k: parts.State[k]})
		if err == nil {
			err = json.Unmarshal(one, &e.State)
		}
		if err != nil {
			dropped = append(dropped, "state."+k)
		}
	}
	return e, dropped, nil
}

func (m *Manager) saveLocked(ctx context.Context, entries []Entry) {
	l := applog.WithOperation(applog.WithComponent("gallery"), "save")
	data, err := json.Marshal(entries)
	if err == nil {
		err = m.store.Set(ctx, Key, data)
	}
	if err != nil {
		l.Warn("persist gallery failed", slog.Any("err", err), slog.Int("len", len(entries)))
		m.unsaved = append([]Entry{}, entries...)
		m.say(StorageFullMessage)
		return
	}
	m.unsaved = nil
}

func (m *Manager) say(msg string) {
	if m.notify != nil {
		m.notify.Notify(msg)
	}
}
