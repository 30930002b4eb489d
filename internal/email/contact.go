package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const serviceName = "invoice-service"

// ContactConfig holds connection parameters for the contact service.
type ContactConfig struct {
	BaseURL string // e.g. http://localhost:3005
	APIKey  string // X-API-Key for service-to-service auth

	// DefaultCredentialID selects the mail credential the contact service
	// sends with when the message does not name one.
	DefaultCredentialID  string
	DefaultCredentialKey string
}

// ContactSender implements the Sender interface using the contact service's
// email API. The contact service owns the actual mail credentials; callers
// reference them by credential ID.
type ContactSender struct {
	config ContactConfig
	client *http.Client
}

type contactMessage struct {
	To          string          `json:"to"`
	Subject     string          `json:"subject"`
	Html        string          `json:"html,omitempty"`
	Text        string          `json:"text,omitempty"`
	Attachments []contactAttach `json:"attachments,omitempty"`
}

type contactAttach struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

type contactPayload struct {
	CredentialID string         `json:"credentialId"`
	Message      contactMessage `json:"message"`
}

type contactResponse struct {
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// NewContactSender creates a new contact service email sender.
func NewContactSender(config ContactConfig) *ContactSender {
	return &ContactSender{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send sends an email via the contact service.
func (c *ContactSender) Send(ctx context.Context, email *Email) (string, error) {
	credentialID := email.CredentialID
	if credentialID == "" {
		credentialID = c.config.DefaultCredentialID
	}

	payload := contactPayload{
		CredentialID: credentialID,
		Message: contactMessage{
			To:      strings.Join(email.To, ","),
			Subject: email.Subject,
			Html:    email.HTMLBody,
			Text:    email.TextBody,
		},
	}

	if len(email.Attachments) > 0 {
		attachments := make([]contactAttach, len(email.Attachments))
		for i, att := range email.Attachments {
			attachments[i] = contactAttach{
				Filename:    att.Filename,
				Content:     base64.StdEncoding.EncodeToString(att.Content),
				ContentType: att.ContentType,
			}
		}
		payload.Message.Attachments = attachments
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/api/email/send"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.config.APIKey)
	req.Header.Set("X-Service-Name", serviceName)
	req.Header.Set("X-Credential-Key", c.config.DefaultCredentialKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("contact service error (status %d): %s", resp.StatusCode, string(body))
	}

	var result contactResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error != "" {
		return "", fmt.Errorf("contact service error: %s", result.Error)
	}

	return result.MessageID, nil
}
