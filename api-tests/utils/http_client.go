// Package utils chứa HTTP client dùng chung cho các test case end-to-end.
package utils

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient bọc http.Client với base URL và các header xác thực
type HTTPClient struct {
	baseURL       string
	client        *http.Client
	token         string
	webhookSecret string
}

// NewHTTPClient tạo client với timeout tính bằng giây
func NewHTTPClient(baseURL string, timeoutSeconds int) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

// SetToken đặt bearer token cho các request sau
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// SetWebhookSecret đặt header X-Webhook-Secret cho các request sau
func (c *HTTPClient) SetWebhookSecret(secret string) {
	c.webhookSecret = secret
}

func (c *HTTPClient) do(method, path string, body []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("tạo request %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.webhookSecret != "" {
		req.Header.Set("X-Webhook-Secret", c.webhookSecret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("đọc response body: %w", err)
	}
	return resp, respBody, nil
}

// GET gửi request GET tới path (tương đối so với base URL)
func (c *HTTPClient) GET(path string) (*http.Response, []byte, error) {
	return c.do(http.MethodGet, path, nil)
}

// POST gửi request POST với JSON body
func (c *HTTPClient) POST(path string, body []byte) (*http.Response, []byte, error) {
	return c.do(http.MethodPost, path, body)
}

// PATCH gửi request PATCH với JSON body
func (c *HTTPClient) PATCH(path string, body []byte) (*http.Response, []byte, error) {
	return c.do(http.MethodPatch, path, body)
}

// DELETE gửi request DELETE tới path
func (c *HTTPClient) DELETE(path string) (*http.Response, []byte, error) {
	return c.do(http.MethodDelete, path, nil)
}
