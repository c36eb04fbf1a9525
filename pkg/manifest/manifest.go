// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package manifest locates and parses the per-category CSV manifest that maps
// document filenames to client identifiers.
package manifest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrManifestCount is returned when a category does not hold exactly one manifest
	ErrManifestCount = errors.Base("expected exactly one manifest")
	// ErrSchema is returned when the header lacks a required field
	ErrSchema = errors.Base("manifest schema")
)

const (
	// DefaultFilenameField is the header naming the document file
	DefaultFilenameField = "filename"
	// Pattern matches manifest files, compared against the lowercased name
	Pattern = "*.csv"
	// Unidentified is the literal the manifests use for a missing identifier
	Unidentified = "None"

	identifierMarker = "qid"
	byteOrderMark    = "\ufeff"
)

// 📋 Manifest is a parsed category manifest
type Manifest struct {
	Path            string   // Source file
	Header          []string // Field names in file order
	FilenameField   string   // Header holding the filename
	IdentifierField string   // Header holding the client identifier
	Records         []Record // Rows in file order
}

// 📄 Record is one manifest row
type Record struct {
	Line       int               // 1-based line in the manifest, header is line 1
	Fields     map[string]string // All fields keyed by header name
	Filename   string            // Value of the filename field
	Identifier string            // Value of the identifier field, may be empty or "None"
}

// Identified reports whether the record carries a usable identifier
func (r Record) Identified() bool {
	return r.Identifier != "" && r.Identifier != Unidentified
}

// 🔍 Find returns the single manifest in dir
func Find(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Errorf("listing %s: %w", dir, err)
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := doublestar.Match(Pattern, strings.ToLower(entry.Name()))
		if err != nil {
			return "", errors.Errorf("matching %s: %w", entry.Name(), err)
		}
		if ok {
			found = append(found, entry.Name())
		}
	}

	if len(found) != 1 {
		return "", errors.Errorf("%w in %s: found %d %v", ErrManifestCount, dir, len(found), found)
	}

	return filepath.Join(dir, found[0]), nil
}

// 📖 Read opens and parses the manifest at path
func Read(ctx context.Context, path, filenameField string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	m, err := Parse(ctx, f, filenameField)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	m.Path = path

	return m, nil
}

// 📝 Parse reads a manifest from r. The header is validated up front: it must
// name filenameField (case-insensitive) and at least one field containing "qid".
func Parse(ctx context.Context, r io.Reader, filenameField string) (*Manifest, error) {
	logger := zerolog.Ctx(ctx)

	if filenameField == "" {
		filenameField = DefaultFilenameField
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.Errorf("%w: manifest has no header row", ErrSchema)
	}
	if err != nil {
		return nil, errors.Errorf("parsing header: %w", err)
	}

	header[0] = strings.TrimPrefix(header[0], byteOrderMark)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	m := &Manifest{Header: header}
	for _, name := range header {
		if m.FilenameField == "" && strings.EqualFold(name, filenameField) {
			m.FilenameField = name
		}
		if m.IdentifierField == "" && strings.Contains(strings.ToLower(name), identifierMarker) {
			m.IdentifierField = name
		}
	}

	if m.FilenameField == "" {
		return nil, errors.Errorf("%w: no %q field in header %v", ErrSchema, filenameField, header)
	}
	if m.IdentifierField == "" {
		return nil, errors.Errorf("%w: no field containing %q in header %v", ErrSchema, identifierMarker, header)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Errorf("parsing row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i >= len(row) {
				break
			}
			fields[name] = row[i]
		}

		m.Records = append(m.Records, Record{
			Line:       line,
			Fields:     fields,
			Filename:   strings.TrimSpace(fields[m.FilenameField]),
			Identifier: strings.TrimSpace(fields[m.IdentifierField]),
		})
	}

	if len(m.Records) == 0 {
		logger.Warn().Msg("manifest has a header but no records")
	}

	logger.Debug().
		Str("filename_field", m.FilenameField).
		Str("identifier_field", m.IdentifierField).
		Int("records", len(m.Records)).
		Msg("parsed manifest")

	return m, nil
}
