/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package datauri encodes and decodes RFC 2397 data URIs. Logos travel inline inside designs
// as data URIs, so this is the only place image payloads are (de)serialized.
package datauri

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	// ErrMalformed reports a string that is not a well-formed data URI.
	ErrMalformed = errors.New("malformed data URI")
	// ErrNotImage reports a payload whose content is not an image.
	ErrNotImage = errors.New("not an image")
)

// URI is a parsed data URI.
type URI struct {
	MediaType string // e.g. "image/png"; "text/plain" when omitted
	Params    map[string]string
	Data      []byte
}

// Encode returns a base64 data URI for data with the given media type.
func Encode(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Parse decodes a data URI. Both base64 and percent-encoded payloads are accepted.
func Parse(s string) (URI, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return URI{}, ErrMalformed
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return URI{}, ErrMalformed
	}
	u := URI{MediaType: "text/plain", Params: map[string]string{}}
	isBase64 := false
	for i, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		switch {
		case i == 0:
			if part != "" {
				if !strings.Contains(part, "/") {
					return URI{}, fmt.Errorf("%w: media type %q", ErrMalformed, part)
				}
				u.MediaType = strings.ToLower(part)
			}
		case part == "base64":
			isBase64 = true
		default:
			k, v, found := strings.Cut(part, "=")
			if !found {
				return URI{}, fmt.Errorf("%w: parameter %q", ErrMalformed, part)
			}
			u.Params[strings.ToLower(k)] = v
		}
	}
	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some encoders drop padding
			if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
				return URI{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		}
		u.Data = data
		return u, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return URI{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	u.Data = []byte(data)
	return u, nil
}

// Valid reports whether s is a well-formed data URI.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// FromImageBytes sniffs the content type of data and returns it as a data URI.
// Content that does not sniff as image/* is rejected with ErrNotImage.
func FromImageBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNotImage
	}
	mt := mimetype.Detect(data)
	if !isImage(mt) {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return Encode(baseType(mt.String()), data), nil
}

// DecodeImage decodes the raster image carried by a data URI.
// Vector payloads such as SVG are reported as ErrNotImage since they cannot be rasterized here.
func DecodeImage(s string) (image.Image, error) {
	u, err := Parse(s)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotImage, u.MediaType, err)
	}
	return img, nil
}

func isImage(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}

func baseType(s string) string {
	t, _, _ := strings.Cut(s, ";")
	return strings.TrimSpace(t)
}
