// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// CONVERSATION CRUD
// =============================================================================

// CreateConversationRequest is the body of POST /conversations. All fields
// are optional; the service fills defaults.
type CreateConversationRequest struct {
	Title string         `json:"title,omitempty"`
	Model string         `json:"model,omitempty"`
	Meta  map[string]any `json:"meta_data,omitempty"`
}

// ListConversations returns one page of the conversation list, newest
// first.
func (c *Client) ListConversations(ctx context.Context, page, size int) (*model.ConversationPage, error) {
	var out model.ConversationPage
	if err := c.doRetry(ctx, http.MethodGet, "/conversations"+pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConversation creates a conversation record.
func (c *Client) CreateConversation(ctx context.Context, req CreateConversationRequest) (*model.Conversation, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/conversations", req)
	if err != nil {
		return nil, err
	}
	var out model.Conversation
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConversationDefaults fetches the service's suggestions for a conversation
// that does not exist yet: the default model and the available catalog.
func (c *Client) ConversationDefaults(ctx context.Context) (*model.ConversationDefaults, error) {
	var out model.ConversationDefaults
	if err := c.doRetry(ctx, http.MethodGet, "/conversations/new", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Conversation fetches one conversation record.
func (c *Client) Conversation(ctx context.Context, id string) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.doRetry(ctx, http.MethodGet, "/conversations/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateConversation applies a partial update (title, model, metadata) and
// returns the updated record.
func (c *Client) UpdateConversation(ctx context.Context, id string, upd model.ConversationUpdate) (*model.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodPut, "/conversations/"+url.PathEscape(id), upd)
	if err != nil {
		return nil, err
	}
	var out model.Conversation
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation and its history.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/conversations/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// =============================================================================
// MESSAGES AND STREAMING
// =============================================================================

// ListMessages returns one page of a conversation's history in
// chronological order.
func (c *Client) ListMessages(ctx context.Context, conversationID string, page, size int) (*model.MessagePage, error) {
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages" + pageQuery(page, size)
	var out model.MessagePage
	if err := c.doRetry(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StreamMessage submits user content and opens the reply stream. A non-nil
// return means the service acknowledged the send; the caller owns the body
// and must close it. The body carries raw UTF-8 chunks for
// stream.NewDecoder, not JSON.
//
// Streaming requests are never retried: a retry would double-submit the
// user message.
func (c *Client) StreamMessage(ctx context.Context, conversationID, content string) (io.ReadCloser, error) {
	body := struct {
		Content string `json:"content"`
	}{Content: content}

	req, err := c.newRequest(ctx, http.MethodPost,
		"/conversations/"+url.PathEscape(conversationID)+"/stream", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.execute(c.streaming, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := c.errorFromResponse(req, resp)
		resp.Body.Close()
		return nil, err
	}
	if resp.Body == nil {
		return nil, &TransportError{Op: opOf(req), Status: resp.StatusCode,
			Err: io.ErrUnexpectedEOF}
	}
	return resp.Body, nil
}

// =============================================================================
// MODEL SWITCHING
// =============================================================================

// UpdateConversationModel is the dedicated model-switch endpoint. The
// service validates the model id against its catalog and rewires the
// conversation in one step.
func (c *Client) UpdateConversationModel(ctx context.Context, conversationID, modelID string) (*model.Conversation, error) {
	body := struct {
		ModelID string `json:"model_id"`
	}{ModelID: modelID}

	req, err := c.newRequest(ctx, http.MethodPut,
		"/conversations/"+url.PathEscape(conversationID)+"/model", body)
	if err != nil {
		return nil, err
	}
	var out model.Conversation
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetConversation clears the service-side dialog state for the
// conversation, keeping the record itself. Part of the model-switch
// fallback path.
func (c *Client) ResetConversation(ctx context.Context, conversationID string) error {
	req, err := c.newRequest(ctx, http.MethodPost,
		"/conversations/"+url.PathEscape(conversationID)+"/reset", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
