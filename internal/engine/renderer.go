/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package engine turns render options into a QR symbol: it encodes the data,
// lays out styled modules, corners and the logo as a Scene, and rasterizes it.
package engine

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"qrstudio/internal/datauri"
	applog "qrstudio/internal/log"
	"qrstudio/internal/renderopts"
)

// Renderer keeps the latest rendered symbol. It is safe for concurrent use.
type Renderer struct {
	mu      sync.RWMutex
	opts    renderopts.Options
	scene   *Scene
	img     image.Image
	logoURI string
	logo    image.Image
}

func New() *Renderer { return &Renderer{} }

// Update re-renders with o. On error the previous symbol is kept.
func (r *Renderer) Update(o renderopts.Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, img, err := r.render(o)
	if err != nil {
		return err
	}
	r.opts, r.scene, r.img = o, sc, img
	return nil
}

// Image returns the latest raster, or nil before the first successful canvas render.
func (r *Renderer) Image() image.Image {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.img
}

func (r *Renderer) Scene() *Scene {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scene
}

func (r *Renderer) Options() renderopts.Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// Ready reports whether a rendered symbol is available.
func (r *Renderer) Ready() bool { return r.Scene() != nil }

func (r *Renderer) render(o renderopts.Options) (*Scene, image.Image, error) {
	if err := o.Check(); err != nil {
		return nil, nil, err
	}
	m, err := NewMatrix(o.Data, o.QROptions.ErrorCorrectionLevel)
	if err != nil {
		return nil, nil, err
	}
	sc, err := Layout(o, m, r.logoFor(o.Image))
	if err != nil {
		return nil, nil, err
	}
	var img image.Image
	if o.Type != renderopts.TypeSVG {
		img = Rasterize(sc)
	}
	return sc, img, nil
}

// logoFor decodes the logo data URI, reusing the last decode when unchanged.
// An undecodable logo is skipped.
func (r *Renderer) logoFor(uri *string) image.Image {
	if uri == nil || *uri == "" {
		return nil
	}
	if *uri == r.logoURI {
		return r.logo
	}
	img, err := datauri.DecodeImage(*uri)
	if err != nil {
		applog.WithOperation(applog.WithComponent("engine"), "logo").
			Warn("logo not decodable, rendering without it", slog.Any("err", err))
		img = nil
	}
	r.logoURI, r.logo = *uri, img
	return img
}

// Render performs a one-off render without touching any Renderer state.
// The image is nil for svg output.
func Render(o renderopts.Options) (*Scene, image.Image, error) {
	sc, img, err := New().render(o)
	if err != nil {
		return nil, nil, fmt.Errorf("render: %w", err)
	}
	return sc, img, nil
}
