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
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"qrstudio/internal/design"
	"qrstudio/internal/engine"
	"qrstudio/internal/uisync"
)

type binding struct {
	get func() string
	set func(string)
}

// formSurface is the Fyne form seen through uisync.Surface. Programmatic writes do not
// echo back as edits.
type formSurface struct {
	values  map[string]binding
	objects map[string]fyne.CanvasObject
	syncing bool
	onEdit  func(id, value string)
}

var _ uisync.Surface = (*formSurface)(nil)

func newFormSurface() *formSurface {
	return &formSurface{values: map[string]binding{}, objects: map[string]fyne.CanvasObject{}}
}

func (f *formSurface) Value(id string) string {
	if b, ok := f.values[id]; ok {
		return b.get()
	}
	return ""
}

func (f *formSurface) SetValue(id, v string) {
	b, ok := f.values[id]
	if !ok || b.get() == v {
		return
	}
	f.syncing = true
	defer func() { f.syncing = false }()
	b.set(v)
}

func (f *formSurface) SetVisible(id string, visible bool) {
	obj, ok := f.objects[id]
	if !ok {
		return
	}
	if visible {
		obj.Show()
	} else {
		obj.Hide()
	}
}

func (f *formSurface) changed(id, v string) {
	if f.syncing || f.onEdit == nil {
		return
	}
	f.onEdit(id, v)
}

func (f *formSurface) bind(id string, get func() string, set func(string)) {
	f.values[id] = binding{get: get, set: set}
}

func (f *formSurface) track(id string, obj fyne.CanvasObject) fyne.CanvasObject {
	f.objects[id] = obj
	return obj
}

func (f *formSurface) entry(id, placeholder string) *widget.Entry {
	e := widget.NewEntry()
	e.SetPlaceHolder(placeholder)
	e.OnChanged = func(v string) { f.changed(id, v) }
	f.bind(id, func() string { return e.Text }, e.SetText)
	return e
}

func (f *formSurface) label(id string) *widget.Label {
	l := widget.NewLabel("")
	f.bind(id, func() string { return l.Text }, l.SetText)
	return l
}

func (f *formSurface) selectOne(id string, options []string) *widget.Select {
	s := widget.NewSelect(options, func(v string) { f.changed(id, v) })
	f.bind(id, func() string { return s.Selected }, s.SetSelected)
	return s
}

func (f *formSurface) radio(id string, options []string) *widget.RadioGroup {
	r := widget.NewRadioGroup(options, func(v string) { f.changed(id, v) })
	r.Horizontal = true
	r.Required = true
	f.bind(id, func() string { return r.Selected }, r.SetSelected)
	return r
}

// slider binds a range dragged in whole steps; unparsable values leave the slider unchanged.
func (f *formSurface) slider(id string, lo, hi float64) *widget.Slider {
	s := widget.NewSlider(lo, hi)
	s.Step = 1
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	s.OnChanged = func(v float64) { f.changed(id, format(v)) }
	f.bind(id, func() string { return format(s.Value) }, func(v string) {
		// SetValue snaps to Step; stored fractions are kept.
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			s.Value = min(max(n, lo), hi)
			s.Refresh()
		}
	})
	return s
}

func (f *formSurface) check(id, text string) *widget.Check {
	c := widget.NewCheck(text, func(v bool) { f.changed(id, strconv.FormatBool(v)) })
	f.bind(id, func() string { return strconv.FormatBool(c.Checked) }, func(v string) { c.SetChecked(v == "true") })
	return c
}

// colorField is a hex entry with a swatch. pick, when set, opens a picker from the swatch button.
func (f *formSurface) colorField(id string, pick func(cur string, done func(string))) fyne.CanvasObject {
	swatch := canvas.NewRectangle(color.Black)
	swatch.SetMinSize(fyne.NewSize(24, 24))
	paint := func(v string) {
		if c, err := engine.ParseHex(v); err == nil {
			swatch.FillColor = c
			swatch.Refresh()
		}
	}
	e := widget.NewEntry()
	e.OnChanged = func(v string) {
		paint(v)
		if design.ValidColor(v) {
			f.changed(id, v)
		}
	}
	f.bind(id, func() string { return e.Text }, func(v string) {
		e.SetText(v)
		paint(v)
	})
	var btn *widget.Button
	if pick != nil {
		btn = widget.NewButton("…", func() {
			pick(e.Text, func(v string) { e.SetText(v) })
		})
	}
	if btn == nil {
		return container.NewBorder(nil, nil, swatch, nil, e)
	}
	return container.NewBorder(nil, nil, swatch, btn, e)
}

// designForm holds the controls that are not plain form values.
type designForm struct {
	surf        *formSurface
	content     fyne.CanvasObject
	logoPreview *canvas.Image
	onUpload    func()
	onRemove    func()
}

var regionTitles = map[design.Region]string{
	design.Background:    "Background",
	design.Dots:          "Dots",
	design.CornerSquares: "Corner squares",
	design.CornerDots:    "Corner dots",
}

// newDesignForm builds every design control with the IDs uisync expects.
func newDesignForm(pick func(cur string, done func(string))) *designForm {
	f := newFormSurface()
	df := &designForm{surf: f}

	text := f.entry(uisync.IDText, design.FallbackText)
	text.MultiLine = true

	acc := widget.NewAccordion()
	for _, r := range design.Regions {
		id := func(field string) string { return uisync.ID(r, field) }
		var rows []fyne.CanvasObject
		rows = append(rows, f.radio(id(uisync.FieldMode), r.Modes()))
		if r != design.Background {
			rows = append(rows, widget.NewForm(widget.NewFormItem("Shape", f.selectOne(id(uisync.FieldShape), r.Shapes()))))
		}
		solid := widget.NewForm(
			widget.NewFormItem("Color", f.colorField(id(uisync.FieldColor), pick)),
			widget.NewFormItem("", f.label(id(uisync.FieldColorHex))),
		)
		grad := widget.NewForm(
			widget.NewFormItem("From", f.colorField(id(uisync.FieldGradC1), pick)),
			widget.NewFormItem("", f.label(id(uisync.FieldGradHex1))),
			widget.NewFormItem("To", f.colorField(id(uisync.FieldGradC2), pick)),
			widget.NewFormItem("", f.label(id(uisync.FieldGradHex2))),
			widget.NewFormItem("Angle", container.NewBorder(nil, nil, nil, f.label(id(uisync.FieldAngleVal)), f.slider(id(uisync.FieldGradAngle), 0, 359))),
		)
		rows = append(rows, f.track(id(uisync.FieldSolidGroup), solid), f.track(id(uisync.FieldGradGroup), grad))
		acc.Append(widget.NewAccordionItem(regionTitles[r], container.NewVBox(rows...)))
	}

	df.logoPreview = canvas.NewImageFromImage(nil)
	df.logoPreview.FillMode = canvas.ImageFillContain
	df.logoPreview.SetMinSize(fyne.NewSize(64, 64))
	upload := widget.NewButton("Upload logo…", func() {
		if df.onUpload != nil {
			df.onUpload()
		}
	})
	remove := widget.NewButton("Remove", func() {
		if df.onRemove != nil {
			df.onRemove()
		}
	})
	preview := container.NewBorder(nil, nil, df.logoPreview, remove, f.label(uisync.IDLogoFilename))
	options := widget.NewForm(
		widget.NewFormItem("Size %", container.NewBorder(nil, nil, nil, f.label(uisync.IDLogoSizeVal), f.slider(uisync.IDLogoSize, 0, design.MaxLogoSize))),
	)
	margin := widget.NewForm(
		widget.NewFormItem("Margin", container.NewBorder(nil, nil, nil, f.label(uisync.IDLogoMarginVal), f.slider(uisync.IDLogoMargin, 0, design.MaxLogoMargin))),
	)
	toggle := container.NewVBox(f.check(uisync.IDLogoBehind, "Behind dots"), f.label(uisync.IDLogoModeLabel))
	logo := container.NewVBox(
		f.track(uisync.IDLogoUpload, upload),
		f.track(uisync.IDLogoPreview, preview),
		f.track(uisync.IDLogoOptions, options),
		f.track(uisync.IDLogoMarginGrp, margin),
		f.track(uisync.IDLogoModeToggle, toggle),
	)
	acc.Append(widget.NewAccordionItem("Logo", logo))
	acc.Open(1)

	df.content = container.NewBorder(widget.NewForm(widget.NewFormItem("Content", text)), nil, nil, nil, container.NewVScroll(acc))
	return df
}
