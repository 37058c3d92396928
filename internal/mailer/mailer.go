// Package mailer talks to the external email API that delivers messages.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type Message struct {
	From        string       `json:"from,omitempty"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client posts messages to {BaseURL}/api/send-email.
type Client struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
}

func New(baseURL, apiKey, from string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		http:    &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = c.from
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mailer: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/send-email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var ae apiError
		reason := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &ae) == nil {
			if ae.Error != "" {
				reason = ae.Error
			} else if ae.Message != "" {
				reason = ae.Message
			}
		}
		return fmt.Errorf("mailer: send to %s: status %d: %s", msg.To, resp.StatusCode, reason)
	}
	return nil
}
