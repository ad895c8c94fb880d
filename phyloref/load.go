// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package phyloref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/js-arias/otresolver/webapi"
)

// A LoadError is an error found
// while loading a JSON-LD document.
type LoadError struct {
	Source string

	// Status is the HTTP status of a server error.
	Status string

	// Raw is the raw content or server response.
	Raw []byte

	Err error
}

func (e *LoadError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("could not load JSON-LD file '%s': server error %s from %s: %s", e.Source, e.Status, e.Source, e.Raw)
	}
	return fmt.Sprintf("could not load JSON-LD file '%s': file malformed: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsURL returns true if the source is an HTTP URL.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Load reads the phyloreferences of a JSON-LD document
// from a file or an URL.
// If api is nil, a default client is used.
func Load(ctx context.Context, api *webapi.Client, src string) ([]*Phyloref, error) {
	if !IsURL(src) {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return Read(f, src)
	}

	if api == nil {
		api = webapi.New()
	}
	b, err := api.Get(ctx, src)
	if err != nil {
		var apiErr *webapi.APIError
		if errors.As(err, &apiErr) {
			return nil, &LoadError{
				Source: src,
				Status: apiErr.Status,
				Raw:    apiErr.Raw,
				Err:    err,
			}
		}
		return nil, fmt.Errorf("could not load JSON-LD file '%s': %w", src, err)
	}
	return decode(b, src)
}

// Read reads the phyloreferences of a JSON-LD document
// from a reader.
func Read(r io.Reader, name string) ([]*Phyloref, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("while reading %q: %v", name, err)
	}
	return decode(b, name)
}

func decode(b []byte, src string) ([]*Phyloref, error) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &LoadError{Source: src, Raw: b, Err: err}
	}
	return Extract(doc)
}
