/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package uisync

import "sync"

// MemSurface is a Surface backed by maps. It serves headless sessions and tests.
type MemSurface struct {
	mu      sync.Mutex
	values  map[string]string
	visible map[string]bool
	writes  int
}

func NewMemSurface() *MemSurface {
	return &MemSurface{values: map[string]string{}, visible: map[string]bool{}}
}

func (m *MemSurface) Value(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[id]
}

func (m *MemSurface) SetValue(id, v string) {
	m.mu.Lock()
	m.values[id] = v
	m.writes++
	m.mu.Unlock()
}

func (m *MemSurface) SetVisible(id string, visible bool) {
	m.mu.Lock()
	m.visible[id] = visible
	m.writes++
	m.mu.Unlock()
}

// Visible reports the last visibility set for id.
func (m *MemSurface) Visible(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible[id]
}

// Snapshot returns copies of all values and visibility flags.
func (m *MemSurface) Snapshot() (map[string]string, map[string]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals := make(map[string]string, len(m.values))
	for k, v := range m.values {
		vals[k] = v
	}
	vis := make(map[string]bool, len(m.visible))
	for k, v := range m.visible {
		vis[k] = v
	}
	return vals, vis
}

// Writes counts SetValue and SetVisible calls.
func (m *MemSurface) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
