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

package manifest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		dirs     []string
		want     string
		wantErr  bool
		contains string
	}{
		{
			name:  "single_manifest",
			files: []string{"manifest.csv", "id1.pdf", "id2.jpg"},
			want:  "manifest.csv",
		},
		{
			name:  "upper_case_extension",
			files: []string{"Client IDs.CSV", "id1.pdf"},
			want:  "Client IDs.CSV",
		},
		{
			name:  "csv_directories_ignored",
			files: []string{"manifest.csv"},
			dirs:  []string{"old.csv"},
			want:  "manifest.csv",
		},
		{
			name:     "no_manifest",
			files:    []string{"id1.pdf"},
			wantErr:  true,
			contains: "found 0",
		},
		{
			name:     "two_manifests",
			files:    []string{"a.csv", "b.csv", "id1.pdf"},
			wantErr:  true,
			contains: "found 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
			}
			for _, name := range tt.dirs {
				require.NoError(t, os.Mkdir(filepath.Join(dir, name), 0755))
			}

			got, err := Find(dir)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrManifestCount), "error should be a manifest count error")
				assert.Contains(t, err.Error(), tt.contains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.want), got)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		filenameField string
		wantErr       error
		check         func(t *testing.T, m *Manifest)
	}{
		{
			name:    "basic_manifest",
			content: "filename,qid\nid1.pdf,Q1\nid2.pdf,Q2\n",
			check: func(t *testing.T, m *Manifest) {
				require.Len(t, m.Records, 2)
				assert.Equal(t, "filename", m.FilenameField)
				assert.Equal(t, "qid", m.IdentifierField)
				assert.Equal(t, "id1.pdf", m.Records[0].Filename)
				assert.Equal(t, "Q1", m.Records[0].Identifier)
				assert.Equal(t, 2, m.Records[0].Line, "first record is on line 2")
				assert.Equal(t, "Q2", m.Records[1].Fields["qid"])
			},
		},
		{
			name:    "capitalised_filename_and_labelled_qid",
			content: "Client Name,Filename,Client QID\nAcme,cheque.pdf,Q9\n",
			check: func(t *testing.T, m *Manifest) {
				require.Len(t, m.Records, 1)
				assert.Equal(t, "Filename", m.FilenameField)
				assert.Equal(t, "Client QID", m.IdentifierField)
				assert.Equal(t, "cheque.pdf", m.Records[0].Filename)
				assert.Equal(t, "Q9", m.Records[0].Identifier)
				assert.Equal(t, "Acme", m.Records[0].Fields["Client Name"])
			},
		},
		{
			name:    "first_qid_field_wins",
			content: "filename,qid_primary,qid_secondary\nid1.pdf,P,S\n",
			check: func(t *testing.T, m *Manifest) {
				assert.Equal(t, "qid_primary", m.IdentifierField)
				assert.Equal(t, "P", m.Records[0].Identifier)
			},
		},
		{
			name:    "byte_order_mark_and_padding",
			content: "\ufeff Filename , QID \nid1.pdf, Q1 \n",
			check: func(t *testing.T, m *Manifest) {
				assert.Equal(t, []string{"Filename", "QID"}, m.Header)
				assert.Equal(t, "Q1", m.Records[0].Identifier)
			},
		},
		{
			name:    "short_rows_leave_fields_missing",
			content: "filename,notes,qid\nid1.pdf\n",
			check: func(t *testing.T, m *Manifest) {
				require.Len(t, m.Records, 1)
				_, ok := m.Records[0].Fields["qid"]
				assert.False(t, ok, "qid should be absent")
				assert.Equal(t, "", m.Records[0].Identifier)
				assert.False(t, m.Records[0].Identified())
			},
		},
		{
			name:    "header_only",
			content: "filename,qid\n",
			check: func(t *testing.T, m *Manifest) {
				assert.Empty(t, m.Records)
			},
		},
		{
			name:          "custom_filename_field",
			content:       "document,qid\nid1.pdf,Q1\n",
			filenameField: "Document",
			check: func(t *testing.T, m *Manifest) {
				assert.Equal(t, "document", m.FilenameField)
				assert.Equal(t, "id1.pdf", m.Records[0].Filename)
			},
		},
		{
			name:    "missing_filename_field",
			content: "file,qid\nid1.pdf,Q1\n",
			wantErr: ErrSchema,
		},
		{
			name:    "missing_identifier_field",
			content: "filename,client\nid1.pdf,Q1\n",
			wantErr: ErrSchema,
		},
		{
			name:    "empty_file",
			content: "",
			wantErr: ErrSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

			m, err := Parse(ctx, strings.NewReader(tt.content), tt.filenameField)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "error should be %v, got %v", tt.wantErr, err)
				return
			}

			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}

func TestRead(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte("filename,qid\nid1.pdf,Q1\n"), 0644))

	m, err := Read(ctx, path, "")
	require.NoError(t, err)
	assert.Equal(t, path, m.Path)
	assert.Len(t, m.Records, 1)

	_, err = Read(ctx, filepath.Join(t.TempDir(), "missing.csv"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening manifest")
}

func TestRecordIdentified(t *testing.T) {
	tests := []struct {
		identifier string
		want       bool
	}{
		{identifier: "Q1", want: true},
		{identifier: "", want: false},
		{identifier: "None", want: false},
		{identifier: "none", want: true},
	}

	for _, tt := range tests {
		t.Run("identifier_"+tt.identifier, func(t *testing.T) {
			assert.Equal(t, tt.want, Record{Identifier: tt.identifier}.Identified())
		})
	}
}
