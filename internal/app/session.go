/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package app holds the editing session: it connects the form surface, the preview
// renderer, the gallery and the persistent store, and reports outcomes to the user
// through a Notifier.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"qrstudio/internal/datauri"
	"qrstudio/internal/design"
	"qrstudio/internal/engine"
	"qrstudio/internal/export"
	"qrstudio/internal/gallery"
	applog "qrstudio/internal/log"
	"qrstudio/internal/renderopts"
	"qrstudio/internal/scheduler"
	"qrstudio/internal/storage"
	"qrstudio/internal/uisync"
)

// User-visible messages.
const (
	MsgUnsupported   = "Invalid or unsupported template format"
	MsgInvalidJSON   = "Invalid JSON file"
	MsgImported      = "Design imported successfully"
	MsgExportedJSON  = "Design exported as JSON"
	MsgSaved         = "Design saved to gallery"
	MsgDeleted       = "Design deleted"
	MsgNotReady      = "QR not ready yet — wait a moment"
	MsgNotAnImage    = "Please choose an image file"
	MsgLogoReadError = "Could not read the image file"
)

// Notifier shows a short user-visible message (a toast).
type Notifier interface {
	Notify(msg string)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(msg string)

func (f NotifyFunc) Notify(msg string) { f(msg) }

// Options configure a Session.
type Options struct {
	Surface         uisync.Surface
	Store           storage.Store
	Notifier        Notifier
	GalleryCapacity int
	Debounce        time.Duration
	ExportScale     int
	// Theme is the configured preference: "dark", "light" or "system".
	Theme string
	// OnRender is called with every new preview image, on the render goroutine.
	OnRender func(image.Image)
}

// Session is one editing session. All operations are serialized.
type Session struct {
	surf     uisync.Surface
	store    storage.Store
	notify   Notifier
	gallery  *gallery.Manager
	renderer *engine.Renderer
	updates  *scheduler.Coalescer
	onRender func(image.Image)

	mu          sync.Mutex
	logo        design.DataURL
	logoName    string
	exportScale int
	theme       string
	dark        bool
	themeSaved  bool
}

// New returns a session over opts.Surface and opts.Store. The form is not touched
// until Reset or Apply.
func New(opts Options) *Session {
	n := opts.Notifier
	if n == nil {
		n = NotifyFunc(func(string) {})
	}
	s := &Session{
		surf:        opts.Surface,
		store:       opts.Store,
		notify:      n,
		gallery:     gallery.New(opts.Store, opts.GalleryCapacity, n),
		renderer:    engine.New(),
		onRender:    opts.OnRender,
		exportScale: renderopts.ClampScale(opts.ExportScale),
		theme:       opts.Theme,
	}
	s.updates = scheduler.New(opts.Debounce, s.render)
	return s
}

// Close cancels any pending re-render.
func (s *Session) Close() { s.updates.Stop() }

func (s *Session) Gallery() *gallery.Manager  { return s.gallery }
func (s *Session) Renderer() *engine.Renderer { return s.renderer }

// Reset loads the default design into the form.
func (s *Session) Reset() {
	_ = s.Apply(design.Default())
}

// Gather reads the current form and logo into a design tagged with the current version.
func (s *Session) Gather() design.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gatherLocked()
}

func (s *Session) gatherLocked() design.State {
	st := uisync.Read(s.surf)
	st.LogoDataURL = s.logo
	return st
}

// Apply validates, migrates and resolves st, then writes it to the form and schedules
// one re-render. An unsupported version notifies and leaves everything unchanged.
func (s *Session) Apply(st design.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(st)
}

func (s *Session) applyLocked(st design.State) error {
	l := applog.WithOperation(applog.WithComponent("session"), "apply")
	resolved, err := design.Resolve(st)
	if err != nil {
		l.Warn("design rejected", slog.Int("version", st.Version), slog.Any("err", err))
		s.notify.Notify(MsgUnsupported)
		return err
	}
	s.logo = resolved.LogoDataURL
	s.logoName = ""
	uisync.Sync(s.surf, uisync.Project(resolved))
	s.surf.SetValue(uisync.IDLogoFilename, "")
	s.updates.Trigger()
	return nil
}

// Edit records a user edit of one control and schedules a re-render.
func (s *Session) Edit(id, value string) {
	s.mu.Lock()
	uisync.Edit(s.surf, id, value)
	s.mu.Unlock()
	s.updates.Trigger()
}

// RenderOptions builds render options from the live form.
func (s *Session) RenderOptions() renderopts.Options {
	return renderopts.Build(s.Gather())
}

// RenderNow runs a pending re-render immediately, or renders if none is pending.
func (s *Session) RenderNow() {
	if !s.updates.Flush() {
		s.render()
	}
}

// Ready reports whether a preview has been rendered.
func (s *Session) Ready() bool { return s.renderer.Ready() }

func (s *Session) render() {
	o := s.RenderOptions()
	if err := s.renderer.Update(o); err != nil {
		applog.WithOperation(applog.WithComponent("session"), "render").Error("preview render failed", slog.Any("err", err))
		return
	}
	if s.onRender != nil {
		s.onRender(s.renderer.Image())
	}
}

// SetLogo installs a logo from a data URI and schedules a re-render.
func (s *Session) SetLogo(dataURL, displayName string) error {
	if !datauri.Valid(dataURL) {
		return datauri.ErrMalformed
	}
	s.mu.Lock()
	s.logo = design.DataURL(dataURL)
	s.logoName = displayName
	s.surf.SetValue(uisync.IDLogoFilename, displayName)
	uisync.SyncLogo(s.surf, true)
	s.mu.Unlock()
	s.updates.Trigger()
	return nil
}

// ClearLogo removes the logo and schedules a re-render.
func (s *Session) ClearLogo() {
	s.mu.Lock()
	s.logo = ""
	s.logoName = ""
	s.surf.SetValue(uisync.IDLogoFilename, "")
	uisync.SyncLogo(s.surf, false)
	s.mu.Unlock()
	s.updates.Trigger()
}

// Logo returns the current logo data URI and its display name.
func (s *Session) Logo() (design.DataURL, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logo, s.logoName
}

// LoadLogoFile reads an image file and installs it as the logo. Files that do not sniff
// as images are rejected with a notification.
func (s *Session) LoadLogoFile(path string) error {
	l := applog.WithOperation(applog.WithComponent("session"), "logo").With(slog.String("path", path))
	b, err := os.ReadFile(path)
	if err != nil {
		l.Error("read logo failed", slog.Any("err", err))
		s.notify.Notify(MsgLogoReadError)
		return fmt.Errorf("read logo: %w", err)
	}
	uri, err := datauri.FromImageBytes(b)
	if err != nil {
		l.Warn("logo rejected", slog.Any("err", err))
		s.notify.Notify(MsgNotAnImage)
		return err
	}
	return s.SetLogo(uri, filepath.Base(path))
}

// ExportScale returns the scale used by Download when none is given.
func (s *Session) ExportScale() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportScale
}

// SetExportScale selects the export scale, clamped to 1..4.
func (s *Session) SetExportScale(scale int) {
	s.mu.Lock()
	s.exportScale = renderopts.ClampScale(scale)
	s.mu.Unlock()
}

// DownloadResult is delivered once per Download.
type DownloadResult struct {
	Path   string
	Result export.Result
	Err    error
}

// Download exports the current design in format f at the session's export scale into dir.
// It returns at once; the outcome is notified and sent on the returned channel.
func (s *Session) Download(f export.Format, dir string) <-chan DownloadResult {
	o := s.RenderOptions()
	scale := s.ExportScale()
	out := make(chan DownloadResult, 1)
	go func() {
		defer close(out)
		res, err := export.Render(o, f, scale)
		var path string
		if err == nil {
			path = filepath.Join(dir, res.FileName())
			err = export.WriteFile(path, res.Data)
		}
		if err != nil {
			applog.WithOperation(applog.WithComponent("session"), "download").Error("download failed", slog.Any("err", err))
			s.notify.Notify(export.FailedMessage)
			out <- DownloadResult{Err: err}
			return
		}
		s.notify.Notify(res.Message())
		out <- DownloadResult{Path: path, Result: res}
	}()
	return out
}

// ExportJSON writes the current design as indented JSON.
func (s *Session) ExportJSON(w io.Writer) error {
	if err := export.WriteDesign(w, s.Gather()); err != nil {
		return fmt.Errorf("export design: %w", err)
	}
	s.notify.Notify(MsgExportedJSON)
	return nil
}

// ImportJSON parses data as a design and applies it. Malformed JSON notifies and changes nothing.
func (s *Session) ImportJSON(data []byte) error {
	l := applog.WithOperation(applog.WithComponent("session"), "import")
	st, err := design.Decode(data)
	if err != nil {
		l.Warn("import rejected", slog.Any("err", err))
		s.notify.Notify(MsgInvalidJSON)
		return err
	}
	if err := s.Apply(st); err != nil {
		return err
	}
	s.notify.Notify(MsgImported)
	return nil
}

// ImportJSONFile reads path and imports it.
func (s *Session) ImportJSONFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		s.notify.Notify(MsgInvalidJSON)
		return fmt.Errorf("read design: %w", err)
	}
	return s.ImportJSON(b)
}

var ErrNotReady = errors.New("preview not rendered yet")

// SaveDesign stores the current design with a thumbnail of the preview.
// It reports whether the design was added.
func (s *Session) SaveDesign(ctx context.Context) (bool, error) {
	s.updates.Flush()
	img := s.renderer.Image()
	if img == nil {
		s.notify.Notify(MsgNotReady)
		return false, ErrNotReady
	}
	thumb, err := engine.ThumbnailDataURI(img)
	if err != nil {
		return false, fmt.Errorf("thumbnail: %w", err)
	}
	if !s.gallery.Add(ctx, s.Gather(), thumb) {
		return false, nil
	}
	s.notify.Notify(MsgSaved)
	return true, nil
}

// Restore applies the gallery design at index i. Out-of-range indexes do nothing.
func (s *Session) Restore(ctx context.Context, i int) bool {
	st, ok := s.gallery.State(ctx, i)
	if !ok {
		return false
	}
	if err := s.Apply(st); err != nil {
		return false
	}
	s.notify.Notify(fmt.Sprintf("Design %d restored", i+1))
	return true
}

// Delete removes the gallery design at index i.
func (s *Session) Delete(ctx context.Context, i int) {
	if i < 0 || i >= s.gallery.Len(ctx) {
		return
	}
	s.gallery.Remove(ctx, i)
	s.notify.Notify(MsgDeleted)
}
