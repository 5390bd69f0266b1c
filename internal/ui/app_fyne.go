//go:build fyne && cgo

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
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"qrstudio/internal/app"
	"qrstudio/internal/config"
	"qrstudio/internal/crash"
	"qrstudio/internal/datauri"
	"qrstudio/internal/design"
	"qrstudio/internal/designpack"
	"qrstudio/internal/engine"
	"qrstudio/internal/export"
	"qrstudio/internal/gallery"
	applog "qrstudio/internal/log"
	"qrstudio/internal/uisync"
	"qrstudio/internal/version"
)

// toastDuration is how long a notification stays in the status bar.
const toastDuration = 2500 * time.Millisecond

// variantTheme pins the default theme to one variant regardless of the OS setting.
type variantTheme struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (t *variantTheme) Color(n fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(n, t.variant)
}

// Run starts the Fyne desktop UI.
func Run(cfg config.AppConfig) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	dataDir, _ := cfg.DataDir()
	defer crash.Recover(dataDir)

	ctx := context.Background()
	fa := fyneapp.NewWithID("io.qrstudio.desktop")
	w := fa.NewWindow("QR Studio")
	prefs := fa.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1100), 800)
	winH := max(prefs.IntWithFallback("window.height", 760), 600)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	st, err := openStore(cfg, prefs)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	status := widget.NewLabel("Ready")
	var clearAt time.Time
	notifier := app.NotifyFunc(func(msg string) {
		fyne.Do(func() {
			status.SetText(msg)
			clearAt = time.Now().Add(toastDuration)
		})
		time.AfterFunc(toastDuration, func() {
			fyne.Do(func() {
				if !time.Now().Before(clearAt) {
					status.SetText("")
				}
			})
		})
	})

	preview := canvas.NewImageFromImage(nil)
	preview.FillMode = canvas.ImageFillContain
	preview.SetMinSize(fyne.NewSize(380, 380))

	pick := func(cur string, done func(string)) {
		cp := dialog.NewColorPicker("Pick a color", "", func(c color.Color) {
			done(engine.Hex(color.NRGBAModel.Convert(c).(color.NRGBA)))
		}, w)
		cp.Advanced = true
		if c, err := engine.ParseHex(cur); err == nil {
			cp.SetColor(c)
		}
		cp.Show()
	}
	form := newDesignForm(pick)

	sess := app.New(app.Options{
		Surface:         form.surf,
		Store:           st,
		Notifier:        notifier,
		GalleryCapacity: cfg.Gallery.Capacity,
		Debounce:        cfg.Render.Debounce(),
		ExportScale:     cfg.Render.ExportScale,
		Theme:           cfg.General.Theme,
		OnRender: func(img image.Image) {
			fyne.Do(func() {
				preview.Image = img
				preview.Refresh()
			})
		},
	})
	form.surf.onEdit = sess.Edit
	crash.RegisterSnapshot(func() ([]byte, error) { return design.Encode(sess.Gather()) })

	// Theme
	applyTheme := func(dark bool) {
		v := theme.VariantLight
		if dark {
			v = theme.VariantDark
		}
		fa.Settings().SetTheme(&variantTheme{Theme: theme.DefaultTheme(), variant: v})
	}
	themeCheck := widget.NewCheck("Dark", func(v bool) {
		if form.surf.syncing {
			return
		}
		applyTheme(v)
		sess.SetTheme(ctx, v)
	})
	form.surf.bind(uisync.IDThemeSwitch, func() string { return fmt.Sprint(themeCheck.Checked) }, func(v string) {
		themeCheck.SetChecked(v == "true")
		applyTheme(v == "true")
	})
	systemDark := func() bool { return fa.Settings().ThemeVariant() == theme.VariantDark }
	settingsCh := make(chan fyne.Settings)
	fa.Settings().AddChangeListener(settingsCh)
	go func() {
		for range settingsCh {
			dark := systemDark()
			fyne.Do(func() { sess.SystemThemeChanged(dark) })
		}
	}()

	// Logo
	refreshLogo := func() {
		uri, _ := sess.Logo()
		if uri == "" {
			form.logoPreview.Image = nil
		} else if img, err := datauri.DecodeImage(string(uri)); err == nil {
			form.logoPreview.Image = img
		}
		form.logoPreview.Refresh()
	}
	form.onUpload = func() {
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			if err := sess.LoadLogoFile(path); err == nil {
				refreshLogo()
			}
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".svg"}))
		open.Show()
	}
	form.onRemove = func() {
		sess.ClearLogo()
		refreshLogo()
	}

	// Gallery
	note := widget.NewLabel("")
	grid := container.NewGridWrap(fyne.NewSize(150, 200))
	var refreshGallery func()
	refreshGallery = func() {
		cards := sess.Gallery().Cards(ctx)
		grid.Objects = grid.Objects[:0]
		if len(cards) == 0 {
			grid.Objects = append(grid.Objects, widget.NewLabel(gallery.EmptyText))
		}
		for _, c := range cards {
			idx := c.Index
			thumb := canvas.NewImageFromImage(nil)
			thumb.FillMode = canvas.ImageFillContain
			thumb.SetMinSize(fyne.NewSize(120, 120))
			if img, err := datauri.DecodeImage(c.Thumbnail); err == nil {
				thumb.Image = img
			}
			restore := widget.NewButton(c.Alt, func() {
				if sess.Restore(ctx, idx) {
					refreshLogo()
				}
			})
			del := widget.NewButton("Delete", func() {
				sess.Delete(ctx, idx)
				refreshGallery()
			})
			del.Importance = widget.DangerImportance
			grid.Objects = append(grid.Objects, container.NewVBox(thumb, restore, del))
		}
		grid.Refresh()
		note.SetText(sess.Gallery().Note(ctx))
	}

	// Export controls
	scales := export.Scales()
	scaleLabels := make([]string, len(scales))
	for i, s := range scales {
		scaleLabels[i] = s.Label
	}
	scaleSel := widget.NewSelect(scaleLabels, func(v string) {
		for _, s := range scales {
			if s.Label == v {
				sess.SetExportScale(s.Scale)
				prefs.SetInt("export.scale", s.Scale)
			}
		}
	})
	if saved := prefs.IntWithFallback("export.scale", 0); saved > 0 {
		sess.SetExportScale(saved)
	}
	scaleSel.SetSelected(scales[sess.ExportScale()-1].Label)

	download := func(f export.Format) {
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uri == nil {
				return
			}
			prefs.SetString("export.dir", uri.Path())
			sess.Download(f, uri.Path())
		}, w)
		if dir := prefs.String("export.dir"); dir != "" {
			if lu, err := fstorage.ListerForURI(fstorage.NewFileURI(dir)); err == nil {
				fd.SetLocation(lu)
			}
		}
		fd.Show()
	}
	var dlButtons []fyne.CanvasObject
	for _, f := range export.Formats {
		dlButtons = append(dlButtons, widget.NewButton(strings.ToUpper(string(f)), func() { download(f) }))
	}

	saveBtn := widget.NewButton("Save to gallery", func() {
		if ok, err := sess.SaveDesign(ctx); err != nil {
			l.Warn("save failed", slog.Any("err", err))
		} else if ok {
			refreshGallery()
		}
	})
	saveBtn.Importance = widget.HighImportance

	exportJSON := func() {
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			defer func() { _ = uc.Close() }()
			if err := sess.ExportJSON(uc); err != nil {
				dialog.ShowError(err, w)
			}
		}, w)
		save.SetFileName(export.DesignFileName)
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		save.Show()
	}
	importJSON := func() {
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			b, rerr := io.ReadAll(ur)
			_ = ur.Close()
			if rerr != nil {
				notifier.Notify(app.MsgInvalidJSON)
				return
			}
			if err := sess.ImportJSON(b); err == nil {
				refreshLogo()
			}
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		open.Show()
	}
	exportPack := func() {
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			if !strings.HasSuffix(strings.ToLower(outPath), ".zip") {
				outPath += ".zip"
			}
			if err := designpack.Export(sess.Gallery().Entries(ctx), outPath); err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Export Design Pack", "Exported to "+outPath, w)
		}, w)
		save.SetFileName("qr-designs.zip")
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
		save.Show()
	}
	installPack := func() {
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			n, ierr := designpack.Install(ctx, sess.Gallery(), path)
			if ierr != nil {
				dialog.ShowError(ierr, w)
				return
			}
			refreshGallery()
			dialog.ShowInformation("Install Design Pack", fmt.Sprintf("Installed %d designs", n), w)
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
		open.Show()
	}

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Import Design JSON…", importJSON),
		fyne.NewMenuItem("Export Design JSON…", exportJSON),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Gallery as Pack…", exportPack),
		fyne.NewMenuItem("Install Design Pack…", installPack),
	)
	aboutMenu := fyne.NewMenu("About", fyne.NewMenuItem("About QR Studio", func() {
		dialog.ShowInformation("About", "QR Studio "+version.String(), w)
	}))
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, aboutMenu))

	exportBar := container.NewVBox(
		widget.NewForm(widget.NewFormItem("Resolution", scaleSel)),
		container.NewGridWithColumns(len(dlButtons), dlButtons...),
		container.NewGridWithColumns(3, saveBtn, widget.NewButton("Export JSON", exportJSON), widget.NewButton("Import JSON", importJSON)),
	)
	right := container.NewBorder(
		container.NewHBox(widget.NewLabelWithStyle("Preview", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), layout.NewSpacer(), themeCheck),
		nil, nil, nil,
		container.NewVSplit(
			container.NewBorder(nil, exportBar, nil, nil, preview),
			container.NewBorder(note, nil, nil, nil, container.NewVScroll(grid)),
		),
	)
	split := container.NewHSplit(form.content, right)
	split.Offset = 0.4
	w.SetContent(container.NewBorder(nil, status, nil, nil, split))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		sess.Close()
		crash.RegisterSnapshot(nil)
		if err := st.Close(); err != nil {
			l.Warn("close store", slog.Any("err", err))
		}
		w.Close()
	})

	sess.InitTheme(ctx, systemDark())
	sess.Reset()
	sess.RenderNow()
	refreshGallery()
	w.ShowAndRun()
	return nil
}
