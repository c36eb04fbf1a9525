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

package ledger

import (
	"bytes"
	"context"
	"encoding/csv"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/files"
	"github.com/walteh/uploadrc/pkg/keys"
)

// 📒 Kind names one of the per-batch outcome ledgers
type Kind int

const (
	Uploaded Kind = iota
	NotUploaded
	Skipped
)

// Kinds lists every ledger in flush order
var Kinds = []Kind{Uploaded, NotUploaded, Skipped}

var baseHeader = []string{"qid", "folder", "sub_folder", "file_filename", "upload_name"}

func (k Kind) String() string {
	switch k {
	case Uploaded:
		return "uploaded"
	case NotUploaded:
		return "not_uploaded"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// FileName returns the ledger file name within a batch output folder
func (k Kind) FileName() string {
	return "things_that_were_" + k.String() + ".csv"
}

// Header returns the header row. The skipped ledger carries a trailing reason column.
func (k Kind) Header() []string {
	header := append([]string(nil), baseHeader...)
	if k == Skipped {
		header = append(header, "reason")
	}
	return header
}

// Path returns where the ledger of a batch is written
func Path(outputRoot, batch string, kind Kind) string {
	return keys.LedgerPath(outputRoot, batch, kind.FileName())
}

// 📝 Row is a single ledger line
type Row struct {
	QID        string
	Folder     string
	SubFolder  string
	Filename   string
	UploadName string
	Reason     string
}

func (r Row) cells(kind Kind) []string {
	cells := []string{r.QID, r.Folder, r.SubFolder, r.Filename, r.UploadName}
	if kind == Skipped {
		cells = append(cells, r.Reason)
	}
	return cells
}

// 📚 Set holds the in-memory ledgers of one batch. It is not safe for
// concurrent use; a single collector appends to it.
type Set struct {
	rows map[Kind][]Row
}

// NewSet creates an empty ledger set
func NewSet() *Set {
	return &Set{rows: make(map[Kind][]Row, len(Kinds))}
}

// Append adds a row to the given ledger
func (s *Set) Append(kind Kind, row Row) {
	s.rows[kind] = append(s.rows[kind], row)
}

// Rows returns the rows of the given ledger in append order
func (s *Set) Rows(kind Kind) []Row {
	return s.rows[kind]
}

// Len returns the number of rows in the given ledger
func (s *Set) Len(kind Kind) int {
	return len(s.rows[kind])
}

// Flush writes every ledger of the set under {outputRoot}/{batch}. A ledger
// with no rows is still written with its header.
func (s *Set) Flush(ctx context.Context, fm files.FileManager, outputRoot, batch string) error {
	for _, kind := range Kinds {
		if err := Write(ctx, fm, Path(outputRoot, batch, kind), kind, s.rows[kind]); err != nil {
			return err
		}
	}
	return nil
}

// 💾 Write overwrites path with the header and rows of kind. The file is
// replaced atomically so a crash never leaves a partial ledger.
func Write(ctx context.Context, fm files.FileManager, path string, kind Kind, rows []Row) error {
	content, err := Encode(kind, rows)
	if err != nil {
		return err
	}

	if err := fm.WriteFileAtomic(ctx, path, content); err != nil {
		return errors.Errorf("writing %s ledger: %w", kind, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("ledger", kind.String()).
		Str("path", path).
		Int("rows", len(rows)).
		Msg("ledger written")

	return nil
}

// Encode renders the header and rows of kind as CSV
func Encode(kind Kind, rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(kind.Header()); err != nil {
		return nil, errors.Errorf("encoding ledger header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.cells(kind)); err != nil {
			return nil, errors.Errorf("encoding ledger row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Errorf("flushing ledger: %w", err)
	}

	return buf.Bytes(), nil
}
