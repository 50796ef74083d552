package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/config"
)

// Provider talks to the transactional-email HTTP API. Without an API key it
// reports unconfigured and the caller skips the send.
type Provider struct {
	cfg    config.Mail
	client *http.Client
}

func NewProvider(cfg config.Mail, client *http.Client) *Provider {
	return &Provider{
		cfg:    cfg,
		client: client,
	}
}

func (p *Provider) Configured() bool {
	return p.cfg.APIKey != ""
}

type sendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type sendResult struct {
	ID string `json:"id"`
}

// Send submits one email and returns the provider's message id.
func (p *Provider) Send(ctx context.Context, to, subject, body string) (string, error) {
	data, err := json.Marshal(sendPayload{
		From:    p.cfg.FromAddress,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIBaseURL+"/emails", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	var result sendResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}

	return result.ID, nil
}
