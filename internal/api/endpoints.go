package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/set-night/mindchat/internal/domain"
	"github.com/shopspring/decimal"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         domain.User `json:"user"`
}

type ChatRecord struct {
	ID         domain.ID `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  Timestamp `json:"created_at"`
	UpdatedAt  Timestamp `json:"updated_at"`
	IsFavorite bool      `json:"is_favorite"`
}

type MessageRecord struct {
	Role         domain.Role      `json:"role"`
	Content      string           `json:"content"`
	ModelUsed    string           `json:"model_used"`
	CreatedAt    Timestamp        `json:"created_at"`
	TokensInput  *int             `json:"tokens_input"`
	TokensOutput *int             `json:"tokens_output"`
	Cost         *decimal.Decimal `json:"cost"`
}

type ChatDetail struct {
	ChatRecord
	Messages []MessageRecord `json:"messages"`
}

// ChatUpdate carries the fields of a partial chat update; nil fields are
// left out of the request.
type ChatUpdate struct {
	Title      *string `json:"title,omitempty"`
	IsFavorite *bool   `json:"is_favorite,omitempty"`
}

type CompletionRequest struct {
	Content     string              `json:"content"`
	Model       string              `json:"model"`
	Attachments []domain.Attachment `json:"attachments"`
}

type CompletionResponse struct {
	Content string             `json:"content"`
	Tokens  *domain.TokenUsage `json:"tokens"`
	Cost    *decimal.Decimal   `json:"cost"`
}

type ModelRecord struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Provider      string   `json:"provider"`
	PriceOutput   float64  `json:"price_output"`
	ContextLength int      `json:"context_length"`
	Capabilities  []string `json:"capabilities"`
}

func (c *Client) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/register", credentials{email, password}, &out, SkipAuth()); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", credentials{email, password}, &out, SkipAuth()); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

func (c *Client) ListChats(ctx context.Context) ([]ChatRecord, error) {
	var out []ChatRecord
	if err := c.Do(ctx, http.MethodGet, "/chats", nil, &out); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return out, nil
}

func (c *Client) CreateChat(ctx context.Context, title string) (*ChatRecord, error) {
	var out ChatRecord
	body := map[string]string{"title": title}
	if err := c.Do(ctx, http.MethodPost, "/chats", body, &out); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &out, nil
}

func (c *Client) GetChat(ctx context.Context, id domain.ID) (*ChatDetail, error) {
	var out ChatDetail
	if err := c.Do(ctx, http.MethodGet, chatPath(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get chat %s: %w", id, err)
	}
	return &out, nil
}

func (c *Client) UpdateChat(ctx context.Context, id domain.ID, update ChatUpdate) (*ChatRecord, error) {
	var out ChatRecord
	if err := c.Do(ctx, http.MethodPatch, chatPath(id), update, &out); err != nil {
		return nil, fmt.Errorf("update chat %s: %w", id, err)
	}
	return &out, nil
}

func (c *Client) DeleteChat(ctx context.Context, id domain.ID) error {
	if err := c.Do(ctx, http.MethodDelete, chatPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete chat %s: %w", id, err)
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, id domain.ID, req CompletionRequest) (*CompletionResponse, error) {
	if req.Attachments == nil {
		req.Attachments = []domain.Attachment{}
	}
	var out CompletionResponse
	endpoint := fmt.Sprintf("/llm/chat/%s/message", url.PathEscape(id.String()))
	if err := c.Do(ctx, http.MethodPost, endpoint, req, &out); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &out, nil
}

// ListModels accepts both a bare array and a {"models": [...]} envelope.
func (c *Client) ListModels(ctx context.Context) ([]ModelRecord, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/llm/models", nil, &raw); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '[' {
		var models []ModelRecord
		if err := json.Unmarshal(raw, &models); err != nil {
			return nil, fmt.Errorf("parse models: %w", err)
		}
		return models, nil
	}

	var envelope struct {
		Models []ModelRecord `json:"models"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parse models: %w", err)
	}
	return envelope.Models, nil
}

func chatPath(id domain.ID) string {
	return "/chats/" + url.PathEscape(id.String())
}
