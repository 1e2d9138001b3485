package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config holds SMS provider configuration
type Config struct {
	APIKey  string
	BaseURL string
	Sender  string
}

// Client delivers verification codes over the SMS provider HTTP API
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new SMS client
func NewClient(config Config) *Client {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
}

// SendCode delivers a verification code to a phone number.
// Best-effort like mail: an unconfigured client is a silent no-op.
func (c *Client) SendCode(ctx context.Context, phone, code string) error {
	if c.config.APIKey == "" || c.config.BaseURL == "" {
		return nil
	}

	payload := sendRequest{
		To:   phone,
		From: c.config.Sender,
		Text: fmt.Sprintf("Your ReelForge verification code: %s", code),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}
	return nil
}
