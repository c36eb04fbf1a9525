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
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/uploadrc/pkg/files"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestKind(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		fileName string
		header   []string
	}{
		{
			name:     "uploaded",
			kind:     Uploaded,
			fileName: "things_that_were_uploaded.csv",
			header:   []string{"qid", "folder", "sub_folder", "file_filename", "upload_name"},
		},
		{
			name:     "not_uploaded",
			kind:     NotUploaded,
			fileName: "things_that_were_not_uploaded.csv",
			header:   []string{"qid", "folder", "sub_folder", "file_filename", "upload_name"},
		},
		{
			name:     "skipped",
			kind:     Skipped,
			fileName: "things_that_were_skipped.csv",
			header:   []string{"qid", "folder", "sub_folder", "file_filename", "upload_name", "reason"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fileName, tt.kind.FileName())
			assert.Equal(t, tt.header, tt.kind.Header())
		})
	}

	t.Run("header_is_a_copy", func(t *testing.T) {
		h := Uploaded.Header()
		h[0] = "mutated"
		assert.Equal(t, "qid", Uploaded.Header()[0])
	})
}

func TestEncode(t *testing.T) {
	rows := []Row{
		{QID: "Q1", Folder: "ACME", SubFolder: "Client IDs", Filename: "id1.pdf", UploadName: "public/ACME/Q1/Internal/Onboarding/Client IDs/id1.pdf"},
		{QID: "Q2", Folder: "ACME", SubFolder: "Client IDs", Filename: "a, b.pdf", UploadName: "k"},
	}

	got, err := Encode(Uploaded, rows)
	require.NoError(t, err)

	want := "qid,folder,sub_folder,file_filename,upload_name\n" +
		"Q1,ACME,Client IDs,id1.pdf,public/ACME/Q1/Internal/Onboarding/Client IDs/id1.pdf\n" +
		"Q2,ACME,Client IDs,\"a, b.pdf\",k\n"
	assert.Equal(t, want, string(got))

	skipped, err := Encode(Skipped, []Row{{Folder: "ACME", SubFolder: "X", Filename: "f.pdf", Reason: "file not found"}})
	require.NoError(t, err)
	assert.Equal(t, "qid,folder,sub_folder,file_filename,upload_name,reason\n,ACME,X,f.pdf,,file not found\n", string(skipped))
}

func TestSetFlush(t *testing.T) {
	ctx := testContext(t)
	out := t.TempDir()

	set := NewSet()
	set.Append(Uploaded, Row{QID: "Q1", Folder: "ACME", SubFolder: "Client IDs", Filename: "id1.pdf", UploadName: "key1"})
	set.Append(Uploaded, Row{QID: "Q3", Folder: "ACME", SubFolder: "Client IDs", Filename: "id3.pdf", UploadName: "key3"})
	set.Append(NotUploaded, Row{QID: "None", Folder: "ACME", SubFolder: "Client IDs", Filename: "id2.pdf"})

	require.Equal(t, 2, set.Len(Uploaded))
	require.Equal(t, 0, set.Len(Skipped))

	require.NoError(t, set.Flush(ctx, files.New(false), out, "ACME"))

	for _, kind := range Kinds {
		assert.FileExists(t, Path(out, "ACME", kind))
	}

	content, err := os.ReadFile(filepath.Join(out, "ACME", "things_that_were_uploaded.csv"))
	require.NoError(t, err)
	assert.Equal(t, "qid,folder,sub_folder,file_filename,upload_name\nQ1,ACME,Client IDs,id1.pdf,key1\nQ3,ACME,Client IDs,id3.pdf,key3\n", string(content))

	content, err = os.ReadFile(filepath.Join(out, "ACME", "things_that_were_skipped.csv"))
	require.NoError(t, err)
	assert.Equal(t, "qid,folder,sub_folder,file_filename,upload_name,reason\n", string(content), "empty ledger keeps its header")
}

func TestWriteOverwrites(t *testing.T) {
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "things_that_were_uploaded.csv")
	fm := files.New(false)

	require.NoError(t, Write(ctx, fm, path, Uploaded, []Row{{QID: "Q1"}, {QID: "Q2"}}))
	require.NoError(t, Write(ctx, fm, path, Uploaded, []Row{{QID: "Q3"}}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "qid,folder,sub_folder,file_filename,upload_name\nQ3,,,,\n", string(content))
}

func TestWriteFailurePropagates(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := Write(ctx, files.New(false), filepath.Join(blocker, "ledger.csv"), Uploaded, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing uploaded ledger")
}

func TestWriteSummary(t *testing.T) {
	ctx := testContext(t)
	out := t.TempDir()
	started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	summary := Summary{
		RunID:       "run-1",
		Batch:       "ACME",
		StartedAt:   started,
		FinishedAt:  started.Add(time.Minute),
		Uploaded:    2,
		NotUploaded: 1,
		Skipped:     1,
		Retained:    2,
		Relocated:   3,
	}
	path := SummaryPath(out, "ACME")
	require.NoError(t, WriteSummary(ctx, files.New(true), path, summary))
	assert.Equal(t, filepath.Join(out, "ACME", "upload_summary.json"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Summary
	require.NoError(t, json.Unmarshal(content, &got))
	assert.Equal(t, summary, got)
	assert.Equal(t, 4, got.Total())
	assert.NotContains(t, string(content), `"error"`, "empty error is omitted")
}
