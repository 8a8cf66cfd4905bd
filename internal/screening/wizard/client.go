package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// Client talks to the screening API. Uploads can be large and slow,
// so the underlying http.Client carries no timeout; cancellation is
// the caller's job through the context.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{},
	}
}

type countResponse struct {
	Count int `json:"count"`
}

type uploadResponse struct {
	Key string `json:"key"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// GetCount fetches the number of screening records stored for a user.
func (c *Client) GetCount(ctx context.Context, userID string) (int, error) {
	endpoint := fmt.Sprintf("%s/api/get-count?userId=%s", c.baseURL, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch record count: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, c.apiError(resp)
	}

	var body countResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return body.Count, nil
}

// Upload sends one artifact as multipart form data and returns the
// storage key the server assigned.
func (c *Client) Upload(ctx context.Context, kind string, a *Artifact) (string, error) {
	if a == nil || a.Data == nil {
		return "", fmt.Errorf("artifact is required")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", a.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, a.Data); err != nil {
		return "", fmt.Errorf("failed to read artifact: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/upload/%s", c.baseURL, url.PathEscape(kind))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.apiError(resp)
	}

	var body uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return body.Key, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

func (c *Client) apiError(resp *http.Response) error {
	var body errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
