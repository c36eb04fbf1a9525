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

// Package resolve maps a filename as written in a manifest to the file that
// actually exists on disk, tolerating case and duplicated-suffix mismatches.
package resolve

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotFound is returned when no strategy finds the file
	ErrNotFound = errors.Base("file not found")
	// ErrDirectoryMissing is returned when the directory itself does not exist
	ErrDirectoryMissing = errors.Base("directory missing")
	// ErrOutsideDirectory is returned when a name would leave dir, such as
	// "../x" or an absolute path
	ErrOutsideDirectory = errors.Base("name escapes directory")
)

// 🧭 Strategy records which rule produced a match
type Strategy int

const (
	StrategyExact           Strategy = iota // Name exists as written
	StrategyCaseInsensitive                 // Name exists with different casing
	StrategySuffixVariant                   // Name exists with a rewritten or duplicated suffix
)

// String returns a string representation of Strategy
func (s Strategy) String() string {
	switch s {
	case StrategyExact:
		return "exact"
	case StrategyCaseInsensitive:
		return "case-insensitive"
	case StrategySuffixVariant:
		return "suffix-variant"
	default:
		return "unknown"
	}
}

// 📄 ResolvedFile is a manifest filename pinned to a real file
type ResolvedFile struct {
	Dir      string   // Directory holding the file
	Name     string   // On-disk filename
	Nominal  string   // Filename as requested
	Strategy Strategy // Rule that matched
}

// Path returns the full on-disk path
func (f ResolvedFile) Path() string {
	return filepath.Join(f.Dir, f.Name)
}

// 🔍 Resolve finds the on-disk file for nominal inside dir.
//
// Strategies are tried in order: exact match, case-insensitive match (first
// entry in listing order wins), then suffix variants of the best name found so
// far. A nominal name carrying path separators is resolved relative to dir,
// and must stay inside it.
func Resolve(ctx context.Context, dir, nominal string) (ResolvedFile, error) {
	logger := zerolog.Ctx(ctx)

	if nominal == "" {
		return ResolvedFile{}, errors.Errorf("%w: empty name in %s", ErrNotFound, dir)
	}
	if !filepath.IsLocal(nominal) {
		logger.Warn().Str("dir", dir).Str("file", nominal).Msg("name escapes directory")
		return ResolvedFile{}, errors.Errorf("%w: %q", ErrOutsideDirectory, nominal)
	}

	if sub := filepath.Dir(nominal); sub != "." {
		dir = filepath.Join(dir, sub)
		nominal = filepath.Base(nominal)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Str("dir", dir).Str("file", nominal).Msg("directory missing")
			return ResolvedFile{}, errors.Errorf("%w: %s", ErrDirectoryMissing, dir)
		}
		return ResolvedFile{}, errors.Errorf("listing directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}

	found := func(name string, strategy Strategy) (ResolvedFile, error) {
		logger.Debug().
			Str("dir", dir).
			Str("nominal", nominal).
			Str("resolved", name).
			Stringer("strategy", strategy).
			Msg("resolved file")
		return ResolvedFile{Dir: dir, Name: name, Nominal: nominal, Strategy: strategy}, nil
	}

	for _, name := range names {
		if name == nominal {
			return found(name, StrategyExact)
		}
	}

	candidate := nominal
	for _, name := range names {
		if strings.EqualFold(name, nominal) {
			candidate = name
			break
		}
	}

	if candidate != nominal && exists(dir, candidate) {
		return found(candidate, StrategyCaseInsensitive)
	}

	for _, variant := range SuffixVariants(candidate) {
		if name, ok := match(names, variant); ok && exists(dir, name) {
			return found(name, StrategySuffixVariant)
		}
	}

	logger.Debug().Str("dir", dir).Str("nominal", nominal).Msg("no match under any strategy")
	return ResolvedFile{}, errors.Errorf("%w: %s", ErrNotFound, filepath.Join(dir, nominal))
}

// 🔀 SuffixVariants returns the suffix spellings tried for name, split at the
// last "." of the base name. Names without a "." have no variants.
func SuffixVariants(name string) []string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return nil
	}
	prefix, suffix := name[:idx+1], name[idx+1:]
	lower, upper := strings.ToLower(suffix), strings.ToUpper(suffix)

	return []string{
		prefix + lower,
		prefix + upper,
		prefix + upper + "." + lower,
		prefix + lower + "." + lower,
	}
}

// match prefers an exact listing entry and falls back to a case-insensitive one
func match(names []string, want string) (string, bool) {
	for _, name := range names {
		if name == want {
			return name, true
		}
	}
	for _, name := range names {
		if strings.EqualFold(name, want) {
			return name, true
		}
	}
	return "", false
}

func exists(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
