// Package api implements the REST client for the Chika backend: OAuth
// bootstrap, room CRUD, history loads, and chat submission. Real-time
// updates are not fetched here; they arrive on the room channel.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chika/internal/model"
)

const maxResponseSize = 10 * 1024 * 1024

// Client talks to one backend instance. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the given base URL. The timeout bounds every
// request, including the chat submit round trip; zero falls back to two
// minutes rather than hanging forever.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// StatusError is a non-2xx backend reply, carrying the FastAPI-style
// detail string when one was present.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// ServerInfo is the backend's root document.
type ServerInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	AvailableAIs []string `json:"available_ais"`
}

// Authorization is a live login attempt handed out by the backend: the URL
// the user must visit plus the anti-forgery state token the code exchange
// must echo back.
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

func (c *Client) Info(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.get(ctx, "/", &info)
	return info, err
}

func (c *Client) OAuthStatus(ctx context.Context) ([]string, error) {
	var out struct {
		AuthenticatedProviders []string `json:"authenticated_providers"`
	}
	if err := c.get(ctx, "/oauth/status", &out); err != nil {
		return nil, err
	}
	return out.AuthenticatedProviders, nil
}

func (c *Client) Authorize(ctx context.Context, provider string) (Authorization, error) {
	var auth Authorization
	err := c.get(ctx, "/oauth/authorize/"+url.PathEscape(provider), &auth)
	return auth, err
}

func (c *Client) ExchangeCode(ctx context.Context, provider, code, state string) (bool, error) {
	body := map[string]string{"code": code, "state": state}
	var out struct {
		Success bool `json:"success"`
	}
	if err := c.post(ctx, "/oauth/exchange-code/"+url.PathEscape(provider), body, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

func (c *Client) ListRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := c.get(ctx, "/rooms", &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) CreateRoom(ctx context.Context, title string, activeAIs []string) (model.Room, error) {
	body := map[string]any{"title": title, "active_ais": activeAIs}
	var room model.Room
	err := c.post(ctx, "/rooms", body, &room)
	return room, err
}

func (c *Client) Messages(ctx context.Context, roomID string) ([]model.Message, error) {
	var msgs []model.Message
	if err := c.get(ctx, "/rooms/"+url.PathEscape(roomID)+"/messages", &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) Discussions(ctx context.Context, roomID string) ([]model.Discussion, error) {
	var ds []model.Discussion
	if err := c.get(ctx, "/rooms/"+url.PathEscape(roomID)+"/discussions", &ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// SendChat submits a user message. The backend only acknowledges here; the
// stored pair arrives later on the room channel.
func (c *Client) SendChat(ctx context.Context, roomID, content string) error {
	body := map[string]string{"room_id": roomID, "content": content}
	return c.post(ctx, "/chat", body, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode, Detail: decodeDetail(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func decodeDetail(data []byte) string {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return ""
}
