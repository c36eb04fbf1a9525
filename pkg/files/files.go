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

package files

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrMissingParent is returned when a destination directory cannot be created
var ErrMissingParent = errors.Base("destination parent missing")

// 💾 FileManager handles all file system operations
type FileManager interface {
	// Core operations
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// Relocation
	CopyFile(ctx context.Context, src, dst string) error
	RemoveFile(ctx context.Context, path string) error

	// Directory operations
	RemoveDir(ctx context.Context, path string) error

	// Atomic operations
	WriteFileAtomic(ctx context.Context, path string, content []byte) error
}

// 🔧 Manager implements FileManager on the local disk
type Manager struct {
	dryRun bool // Log relocations and removals instead of performing them
}

// 🏭 New creates a new file manager
func New(dryRun bool) *Manager {
	return &Manager{dryRun: dryRun}
}

func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

// 📦 CopyFile copies src to dst, creating parent directories as needed. The
// copy lands under a temporary name and is renamed into place.
func (m *Manager) CopyFile(ctx context.Context, src, dst string) error {
	logger := zerolog.Ctx(ctx)

	if m.dryRun {
		logger.Info().Str("src", src).Str("dst", dst).Msg("dry run: skipping copy")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Errorf("%w: %s: %s", ErrMissingParent, filepath.Dir(dst), err.Error())
	}

	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	if err := writeAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, source)
		return err
	}); err != nil {
		return errors.Errorf("copying file: %w", err)
	}

	logger.Debug().Str("src", src).Str("dst", dst).Msg("copied file")
	return nil
}

// 🗑️ RemoveFile deletes a source file whose copies have all landed
func (m *Manager) RemoveFile(ctx context.Context, path string) error {
	if m.dryRun {
		zerolog.Ctx(ctx).Info().Str("path", path).Msg("dry run: skipping file removal")
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errors.Errorf("removing source file: %w", err)
	}
	return nil
}

func (m *Manager) RemoveDir(ctx context.Context, path string) error {
	if m.dryRun {
		zerolog.Ctx(ctx).Info().Str("path", path).Msg("dry run: skipping directory removal")
		return nil
	}

	if err := os.RemoveAll(path); err != nil {
		return errors.Errorf("removing directory: %w", err)
	}
	return nil
}

// WriteFileAtomic writes content to path through a temp file and a rename.
// Ledgers are written even in dry-run mode.
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	return WriteFileAtomic(path, content)
}

// WriteFileAtomic writes content to path through a temp file and a rename,
// creating parent directories as needed
func WriteFileAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
}

func writeAtomic(path string, fill func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if err := fill(tmp); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("setting temp file mode: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}
