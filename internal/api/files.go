// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
)

// ListFiles returns the workspace-relative paths of every project file.
func (c *Client) ListFiles(ctx context.Context, projectID string) ([]string, error) {
	var body struct {
		Files []string `json:"files"`
	}
	err := c.do(ctx, request{op: "list_files", method: http.MethodGet, path: projectPath(projectID, "files")}, &body)
	return body.Files, err
}

// GetFileContent reads one workspace file. The path is sent as both
// file_path and path because backend versions disagree on the name.
func (c *Client) GetFileContent(ctx context.Context, projectID, filePath string) (string, error) {
	var body struct {
		Content string `json:"content"`
	}
	err := c.do(ctx, request{
		op:     "get_file_content",
		method: http.MethodGet,
		path:   projectPath(projectID, "files", "content"),
		query:  url.Values{"file_path": {filePath}, "path": {filePath}},
	}, &body)
	return body.Content, err
}

// SaveFileContent writes a user-edited file back to the workspace.
func (c *Client) SaveFileContent(ctx context.Context, projectID, filePath, content string) error {
	body, err := jsonBody(map[string]string{"content": content})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		op:          "save_file_content",
		method:      http.MethodPut,
		path:        projectPath(projectID, "files", "content"),
		query:       url.Values{"path": {filePath}},
		body:        body,
		contentType: "application/json",
	}, nil)
}

// UploadImage attaches an inspiration image to an existing project.
func (c *Client) UploadImage(ctx context.Context, projectID string, img Image) (UploadedImage, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("project_id", projectID); err != nil {
		return UploadedImage{}, fmt.Errorf("write form field: %w", err)
	}
	if err := writeFile(w, "file", img); err != nil {
		return UploadedImage{}, err
	}
	if err := w.Close(); err != nil {
		return UploadedImage{}, fmt.Errorf("close multipart body: %w", err)
	}

	var resp UploadedImage
	err := c.do(ctx, request{
		op:          "upload_image",
		method:      http.MethodPost,
		path:        projectPath(projectID, "upload-image"),
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, &resp)
	return resp, err
}
