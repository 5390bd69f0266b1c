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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"qrstudio/internal/app"
	"qrstudio/internal/config"
	"qrstudio/internal/design"
	"qrstudio/internal/designpack"
	"qrstudio/internal/engine"
	"qrstudio/internal/export"
	"qrstudio/internal/gallery"
	applog "qrstudio/internal/log"
	"qrstudio/internal/renderopts"
	"qrstudio/internal/storage"
)

var errUsage = errors.New("invalid arguments")

func loadDesign(path string) (design.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return design.State{}, err
	}
	s, err := design.Decode(data)
	if err != nil {
		return design.State{}, err
	}
	return design.Resolve(s)
}

func (c *cli) render(path, format, scale, out string) error {
	l := applog.WithOperation(c.l, "render")
	f, err := export.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	n, err := strconv.Atoi(scale)
	if err != nil || n < 1 || n > 4 {
		return fmt.Errorf("%w: scale must be 1-4, got %q", errUsage, scale)
	}
	s, err := loadDesign(path)
	if err != nil {
		return err
	}
	res, err := export.Render(renderopts.Build(s), f, n)
	if err != nil {
		return err
	}
	if err := export.WriteFile(out, res.Data); err != nil {
		return err
	}
	l.Info("rendered", slog.String("out", out), slog.Int("px", res.Pixels))
	fmt.Fprintln(c.out, res.Message())
	return nil
}

func (c *cli) options(path string) error {
	s, err := loadDesign(path)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(renderopts.Build(s), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, string(b))
	return nil
}

func (c *cli) batch(path, preset, dir string, formats []string) error {
	p := export.PresetName(strings.ToLower(preset))
	if p != export.PresetWeb && p != export.PresetPrint {
		return fmt.Errorf("%w: unknown preset %q", errUsage, preset)
	}
	s, err := loadDesign(path)
	if err != nil {
		return err
	}
	abs, _ := filepath.Abs(dir)
	written, err := export.BatchExport(renderopts.Build(s), export.BatchOptions{Preset: p, Formats: formats, OutDir: abs})
	if err != nil {
		return err
	}
	for _, w := range written {
		fmt.Fprintln(c.out, "Wrote", w)
	}
	return nil
}

// openStore opens the configured store. The preferences backend lives inside the desktop app.
func (c *cli) openStore() (storage.Store, error) {
	if c.cfg.Storage.Backend == config.BackendPrefs {
		return nil, fmt.Errorf("storage backend %q is only available in the desktop UI", config.BackendPrefs)
	}
	dir, err := c.cfg.DataDir()
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Options{Backend: c.cfg.Storage.Backend, Dir: dir, QuotaBytes: c.cfg.Storage.QuotaBytes})
}

func (c *cli) say(msg string) { fmt.Fprintln(c.out, msg) }

func (c *cli) withGallery(fn func(ctx context.Context, m *gallery.Manager) error) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	m := gallery.New(st, c.cfg.Gallery.Capacity, app.NotifyFunc(c.say))
	return fn(context.Background(), m)
}

// index parses a 1-based gallery position.
func index(arg string, n int) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("%w: index must be 1-%d, got %q", errUsage, n, arg)
	}
	return i - 1, nil
}

func (c *cli) gallery(sub string, args []string) error {
	l := applog.WithOperation(c.l, "gallery")
	return c.withGallery(func(ctx context.Context, m *gallery.Manager) error {
		switch sub {
		case "list":
			cards := m.Cards(ctx)
			if len(cards) == 0 {
				c.say(gallery.EmptyText)
				return nil
			}
			for _, cd := range cards {
				fmt.Fprintf(c.out, "%s  %s\n", cd.Alt, cd.CreatedAt.Format("2006-01-02 15:04"))
			}
			c.say(m.Note(ctx))
			return nil
		case "save":
			if len(args) < 1 {
				return fmt.Errorf("%w: gallery save requires <design.json>", errUsage)
			}
			s, err := loadDesign(args[0])
			if err != nil {
				return err
			}
			_, img, err := engine.Render(renderopts.Build(s))
			if err != nil {
				return err
			}
			thumb, err := engine.ThumbnailDataURI(img)
			if err != nil {
				return err
			}
			if m.Add(ctx, s, thumb) {
				l.Info("saved", slog.Int("len", m.Len(ctx)))
				c.say(app.MsgSaved)
			}
			return nil
		case "show":
			if len(args) < 1 {
				return fmt.Errorf("%w: gallery show requires <index>", errUsage)
			}
			i, err := index(args[0], m.Len(ctx))
			if err != nil {
				return err
			}
			s, _ := m.State(ctx, i)
			b, err := design.Encode(s)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, string(b))
			return nil
		case "delete":
			if len(args) < 1 {
				return fmt.Errorf("%w: gallery delete requires <index>", errUsage)
			}
			i, err := index(args[0], m.Len(ctx))
			if err != nil {
				return err
			}
			m.Remove(ctx, i)
			c.say(app.MsgDeleted)
			return nil
		}
		return fmt.Errorf("%w: unknown gallery command %q", errUsage, sub)
	})
}

func (c *cli) pack(sub, path string) error {
	return c.withGallery(func(ctx context.Context, m *gallery.Manager) error {
		switch sub {
		case "export":
			entries := m.Entries(ctx)
			if len(entries) == 0 {
				return errors.New("gallery is empty")
			}
			if err := designpack.Export(entries, path); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Exported %d designs to %s\n", len(entries), path)
			return nil
		case "install":
			n, err := designpack.Install(ctx, m, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Installed %d designs\n", n)
			return nil
		}
		return fmt.Errorf("%w: unknown pack command %q", errUsage, sub)
	})
}

// theme prints the saved theme, or saves value when given.
func (c *cli) theme(value string) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()
	switch v := strings.ToLower(value); v {
	case "":
		b, err := st.Get(ctx, app.ThemeKey)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			fmt.Fprintf(c.out, "%s (not saved, configured: %s)\n", app.ThemeSystem, c.cfg.General.Theme)
		case err != nil:
			return err
		default:
			c.say(string(b))
		}
		return nil
	case app.ThemeDark, app.ThemeLight:
		if err := st.Set(ctx, app.ThemeKey, []byte(v)); err != nil {
			return err
		}
		c.say("Theme set to " + v)
		return nil
	}
	return fmt.Errorf("%w: theme must be dark or light, got %q", errUsage, value)
}
