/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	applog "qrstudio/internal/log"
)

const (
	BackupsDirName = "backups"
	valueExt       = ".val"
	backupExt      = ".bak"
	// MaxBackups is how many previous values are kept per key.
	MaxBackups = 3
)

// FileStore keeps one file per key under Dir. Writes go to a temp file in the same
// directory and are renamed over the target; the previous value is copied to
// backups/<key>.<stamp>.bak first. A value that cannot be read falls back to its latest backup.
type FileStore struct {
	Dir   string
	quota int64
	mu    sync.Mutex
}

// OpenFileStore creates dir (and its backups folder) if needed.
func OpenFileStore(dir string, quota int64) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{Dir: dir, quota: quota}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, key+valueExt)
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path(key))
	if err == nil {
		return b, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	bb, berr := s.latestBackup(key)
	if berr != nil {
		return nil, fmt.Errorf("read %s: %w; backup attempt: %v", key, err, berr)
	}
	applog.WithComponent("storage").Warn("value unreadable, served latest backup",
		slog.String("key", key), slog.Any("err", err))
	return bb, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.usedExcept(key)
	if err != nil {
		return err
	}
	if overQuota(s.quota, total+int64(len(value))) {
		return ErrQuotaExceeded
	}

	target := s.path(key)
	if _, statErr := os.Stat(target); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(s.Dir, BackupsDirName, fmt.Sprintf("%s.%s%s", key, stamp, backupExt))
		if cerr := copyFile(target, bpath); cerr != nil {
			return fmt.Errorf("backup current value: %w", cerr)
		}
		s.pruneBackups(key)
	}

	temp := filepath.Join(s.Dir, fmt.Sprintf(".%s.tmp-%d-%d", key, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, value); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp value: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(target); err == nil {
		_ = os.Remove(target)
	}
	if rerr := os.Rename(temp, target); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace value: %w", rerr)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	for _, b := range s.backups(key) {
		_ = os.Remove(b)
	}
	return nil
}

func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ents, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read storage dir: %w", err)
	}
	var keys []string
	for _, e := range ents {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if k, ok := strings.CutSuffix(e.Name(), valueExt); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) usedExcept(key string) (int64, error) {
	if s.quota <= 0 {
		return 0, nil
	}
	ents, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("read storage dir: %w", err)
	}
	var total int64
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), valueExt) || e.Name() == key+valueExt {
			continue
		}
		if info, err := e.Info(); err == nil {
			total += info.Size()
		}
	}
	return total, nil
}

// backups returns the backup files of key, oldest first.
func (s *FileStore) backups(key string) []string {
	bdir := filepath.Join(s.Dir, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, key+".") && strings.HasSuffix(name, backupExt) {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out
}

func (s *FileStore) pruneBackups(key string) {
	bs := s.backups(key)
	for len(bs) > MaxBackups {
		_ = os.Remove(bs[0])
		bs = bs[1:]
	}
}

func (s *FileStore) latestBackup(key string) ([]byte, error) {
	bs := s.backups(key)
	if len(bs) == 0 {
		return nil, errors.New("no backups found")
	}
	return os.ReadFile(bs[len(bs)-1])
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
