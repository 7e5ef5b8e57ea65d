// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/jeranaias/parley-tui/internal/model"
)

// ListModels fetches the service's model catalog.
func (c *Client) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	var out []model.ModelInfo
	if err := c.doRetry(ctx, http.MethodGet, "/models", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
