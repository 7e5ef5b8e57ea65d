// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jeranaias/parley-tui/internal/model"
)

func TestListPluginsQueryAndSort(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"id": "p1", "name": "translator", "downloads": 12, "isInstalled": false}]`))
	}))

	plugins, err := c.ListPlugins(context.Background(), "trans", model.PluginSortDownloads)
	if err != nil {
		t.Fatalf("ListPlugins: %v", err)
	}
	if gotQuery != "query=trans&sort=downloads" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(plugins) != 1 || plugins[0].Name != "translator" {
		t.Errorf("plugins = %+v", plugins)
	}
}

func TestInstallUninstallPlugin(t *testing.T) {
	var calls []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case strings.HasSuffix(r.URL.Path, "/install"):
			w.Write([]byte(`{"id": "p1", "name": "translator", "isInstalled": true}`))
		case strings.HasSuffix(r.URL.Path, "/uninstall"):
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	p, err := c.InstallPlugin(context.Background(), "p1")
	if err != nil {
		t.Fatalf("InstallPlugin: %v", err)
	}
	if !p.Installed {
		t.Error("plugin should be installed")
	}

	if err := c.UninstallPlugin(context.Background(), "p1"); err != nil {
		t.Fatalf("UninstallPlugin: %v", err)
	}

	want := []string{
		"POST /api/v1/plugins/p1/install",
		"DELETE /api/v1/plugins/p1/uninstall",
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestUploadPluginMultipart(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		if header.Filename != "demo.zip" {
			t.Errorf("filename = %q", header.Filename)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "archive-bytes" {
			t.Errorf("file content = %q", data)
		}
		w.Write([]byte(`{"id": "p9", "name": "demo", "version": "1.0.0"}`))
	}))

	p, err := c.UploadPlugin(context.Background(), "demo.zip", strings.NewReader("archive-bytes"))
	if err != nil {
		t.Fatalf("UploadPlugin: %v", err)
	}
	if p.ID != "p9" {
		t.Errorf("id = %q", p.ID)
	}
}

func TestUploadPluginRejectsOversizedArchive(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached")
	}))

	huge := io.LimitReader(zeroReader{}, maxPluginUploadSize+1)
	_, err := c.UploadPlugin(context.Background(), "big.zip", huge)
	if !IsValidation(err) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
