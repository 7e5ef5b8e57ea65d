// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/jeranaias/parley-tui/internal/model"
)

// maxPluginUploadSize caps plugin archives accepted for upload.
const maxPluginUploadSize = 50 * 1024 * 1024 // 50MB

// =============================================================================
// PLUGIN MARKETPLACE
// =============================================================================

// ListPlugins returns marketplace entries matching query (may be empty)
// in the given sort order.
func (c *Client) ListPlugins(ctx context.Context, query string, sort model.PluginSort) ([]model.Plugin, error) {
	v := url.Values{}
	if query != "" {
		v.Set("query", query)
	}
	if sort != "" {
		v.Set("sort", string(sort))
	}
	path := "/plugins"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out []model.Plugin
	if err := c.doRetry(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InstalledPlugins returns the plugins installed for this account.
func (c *Client) InstalledPlugins(ctx context.Context) ([]model.Plugin, error) {
	var out []model.Plugin
	if err := c.doRetry(ctx, http.MethodGet, "/plugins/installed", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Plugin fetches one marketplace entry.
func (c *Client) Plugin(ctx context.Context, id string) (*model.Plugin, error) {
	var out model.Plugin
	if err := c.doRetry(ctx, http.MethodGet, "/plugins/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InstallPlugin marks a marketplace plugin installed for this account.
func (c *Client) InstallPlugin(ctx context.Context, id string) (*model.Plugin, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/plugins/"+url.PathEscape(id)+"/install", nil)
	if err != nil {
		return nil, err
	}
	var out model.Plugin
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UninstallPlugin removes a plugin from this account.
func (c *Client) UninstallPlugin(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/plugins/"+url.PathEscape(id)+"/uninstall", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// SearchRepository searches the upstream plugin repository, which may list
// entries not yet mirrored in the marketplace.
func (c *Client) SearchRepository(ctx context.Context, query string) ([]model.Plugin, error) {
	v := url.Values{}
	if query != "" {
		v.Set("query", query)
	}
	path := "/plugins/repository/search"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out []model.Plugin
	if err := c.doRetry(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadPlugin submits a plugin archive to the marketplace as
// multipart/form-data. The archive is read fully up front so the size cap
// applies before any network traffic.
func (c *Client) UploadPlugin(ctx context.Context, filename string, archive io.Reader) (*model.Plugin, error) {
	data, err := io.ReadAll(io.LimitReader(archive, maxPluginUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin archive: %w", err)
	}
	if len(data) > maxPluginUploadSize {
		return nil, &ValidationError{Field: "file", Reason: "plugin archive exceeds size limit"}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, &AuthError{Reason: "no token available", Err: ErrNoCredential}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/plugins/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "parley-tui/1.0")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out model.Plugin
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
