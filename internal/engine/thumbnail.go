/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package engine

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"qrstudio/internal/datauri"
)

// ThumbnailSize is the edge of gallery thumbnails in pixels.
const ThumbnailSize = 120

// Thumbnail scales src to fit a size x size square, keeping its aspect ratio.
func Thumbnail(src image.Image, size int) *image.NRGBA {
	b := src.Bounds()
	w, h := size, size
	if b.Dx() > b.Dy() {
		h = max(1, size*b.Dy()/b.Dx())
	} else if b.Dy() > b.Dx() {
		w = max(1, size*b.Dx()/b.Dy())
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// ThumbnailDataURI renders a PNG thumbnail of src as a data URI.
func ThumbnailDataURI(src image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Thumbnail(src, ThumbnailSize)); err != nil {
		return "", err
	}
	return datauri.Encode("image/png", buf.Bytes()), nil
}
