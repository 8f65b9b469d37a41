// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"path"
	"strings"
)

// GeneratedFile is a document or source file produced by the workflow.
type GeneratedFile struct {
	DocType     string    `json:"doc_type,omitempty"`
	Filename    string    `json:"filename"`
	Path        string    `json:"path"`
	Preview     string    `json:"content,omitempty"`
	FullContent string    `json:"full_content,omitempty"`
	AutoFocus   bool      `json:"auto_focus,omitempty"`
	Timestamp   Timestamp `json:"timestamp"`
}

// Key is the identity of the record: its path, or the filename when the
// path is missing.
func (f GeneratedFile) Key() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Filename
}

// Content returns the best available body of the file.
func (f GeneratedFile) Content() string {
	if f.FullContent != "" {
		return f.FullContent
	}
	return f.Preview
}

// DisplayName returns the filename, deriving it from the path if needed.
func (f GeneratedFile) DisplayName() string {
	if f.Filename != "" {
		return f.Filename
	}
	return path.Base(f.Path)
}

// IsMarkdown reports whether the file should be rendered as markdown.
func (f GeneratedFile) IsMarkdown() bool {
	name := strings.ToLower(f.DisplayName())
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".markdown")
}

// FileFromPath builds a record for a file known only by its path, as the
// status snapshot and the file listing report them.
func FileFromPath(p string) GeneratedFile {
	return GeneratedFile{Filename: path.Base(p), Path: p}
}
