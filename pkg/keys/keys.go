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

// Package keys derives remote object keys and local relocation paths. Nothing
// here touches the filesystem.
package keys

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NotUploadedFolder holds files relocated without an upload
const NotUploadedFolder = "Things that were not uploaded"

// 🔑 Deriver maps manifest records onto remote keys
type Deriver struct {
	overrides map[string]string
}

// 🏭 NewDeriver creates a deriver using the given category override table.
// The table is copied so later mutation by the caller has no effect.
func NewDeriver(overrides map[string]string) *Deriver {
	table := make(map[string]string, len(overrides))
	for from, to := range overrides {
		table[from] = to
	}
	return &Deriver{overrides: table}
}

// EffectiveCategory returns the remote folder name for a category
func (d *Deriver) EffectiveCategory(category string) string {
	if override, ok := d.overrides[category]; ok {
		return override
	}
	return category
}

// 🎯 RemoteKey returns public/{batch}/{identifier}/Internal/Onboarding/{category}/{filename}
func (d *Deriver) RemoteKey(batch, category, identifier, filename string) string {
	return fmt.Sprintf("public/%s/%s/Internal/Onboarding/%s/%s", batch, identifier, d.EffectiveCategory(category), filename)
}

// 📍 LocalDestination returns where an uploaded file is relocated. The
// identifier is inserted before the extension (split at the first ".") so
// that same-named files of different records do not collide.
func LocalDestination(outputRoot, batch, category, filename, identifier string) string {
	return filepath.Join(outputRoot, batch, category, WithIdentifier(filename, identifier))
}

// NotUploadedDestination returns where a file that was not uploaded is relocated
func NotUploadedDestination(outputRoot, batch, category, filename string) string {
	return filepath.Join(outputRoot, batch, NotUploadedFolder, category, filename)
}

// WithIdentifier inserts _{identifier} before the first "." of filename
func WithIdentifier(filename, identifier string) string {
	stem, rest, found := strings.Cut(filename, ".")
	if !found {
		return filename + "_" + identifier
	}
	return stem + "_" + identifier + "." + rest
}

// LedgerPath returns {outputRoot}/{batch}/{name}
func LedgerPath(outputRoot, batch, name string) string {
	return filepath.Join(outputRoot, batch, name)
}
