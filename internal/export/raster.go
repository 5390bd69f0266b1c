/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
)

// JPEGQuality is the encoder quality for JPEG exports.
const JPEGQuality = 92

var errNoImage = errors.New("no raster image")

func WritePNG(w io.Writer, img image.Image) error {
	if img == nil {
		return errNoImage
	}
	return png.Encode(w, img)
}

// WriteJPEG flattens img onto white, since JPEG has no alpha channel.
func WriteJPEG(w io.Writer, img image.Image) error {
	if img == nil {
		return errNoImage
	}
	return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: JPEGQuality})
}

func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}
