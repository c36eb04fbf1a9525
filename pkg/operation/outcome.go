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

package operation

import (
	"github.com/walteh/uploadrc/pkg/ledger"
	"github.com/walteh/uploadrc/pkg/log"
	"github.com/walteh/uploadrc/pkg/manifest"
)

// 📊 Status is the ledger a record lands in
type Status int

const (
	StatusUploaded Status = iota
	StatusNotUploaded
	StatusSkipped
)

// String returns a string representation of Status
func (s Status) String() string {
	switch s {
	case StatusUploaded:
		return log.StatusUploaded
	case StatusNotUploaded:
		return log.StatusNotUploaded
	case StatusSkipped:
		return log.StatusSkipped
	default:
		return "unknown"
	}
}

// Kind maps the status onto its ledger
func (s Status) Kind() ledger.Kind {
	switch s {
	case StatusUploaded:
		return ledger.Uploaded
	case StatusNotUploaded:
		return ledger.NotUploaded
	default:
		return ledger.Skipped
	}
}

// Reason explains a not-uploaded or skipped outcome
type Reason string

const (
	ReasonUnidentified     Reason = "unidentified"
	ReasonIgnored          Reason = "ignored by pattern"
	ReasonDenylisted       Reason = "denylisted"
	ReasonNotFound         Reason = "file not found"
	ReasonDirectoryMissing Reason = "directory missing"
	ReasonOutsideDirectory Reason = "outside category folder"
	ReasonReadFailed       Reason = "read failed"
	ReasonTimeout          Reason = "upload timed out"
	ReasonUploadFailed     Reason = "upload failed"
	ReasonCancelled        Reason = "cancelled"
)

// 🎯 Outcome is the result of processing one manifest record
type Outcome struct {
	Index       int // Position of the record in its manifest
	Batch       string
	Category    string
	Record      manifest.Record
	Status      Status
	Reason      Reason
	RemoteKey   string // Derived even when nothing was uploaded
	Source      string // Resolved on-disk path, empty when unresolved
	Destination string // Relocation target, empty when not relocated
	Relocated   bool   // The file now exists at Destination
	Retained    bool   // The file is still only in the input tree
	Err         error  // Underlying per-file error, if any
}

// Row renders the outcome as a ledger line
func (o Outcome) Row() ledger.Row {
	return ledger.Row{
		QID:        o.Record.Identifier,
		Folder:     o.Batch,
		SubFolder:  o.Category,
		Filename:   o.Record.Filename,
		UploadName: o.RemoteKey,
		Reason:     string(o.Reason),
	}
}

func (o Outcome) consoleOperation() log.RecordOperation {
	dest := o.Destination
	if o.Status == StatusUploaded {
		dest = o.RemoteKey
	}
	return log.RecordOperation{
		Filename:    o.Record.Filename,
		Category:    o.Category,
		QID:         o.Record.Identifier,
		Status:      o.Status.String(),
		Reason:      string(o.Reason),
		Destination: dest,
	}
}
