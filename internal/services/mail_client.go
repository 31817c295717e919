package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Mailer is the outbound mail collaborator. Sends are synchronous, bounded
// by the client timeout, and fallible; callers decide what a failure means.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// MailClient talks to the internal mailer service.
type MailClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewMailClient(baseURL string, log *zap.Logger) *MailClient {
	return &MailClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

func (c *MailClient) Send(ctx context.Context, recipient, subject, body string) error {
	payload, err := json.Marshal(map[string]any{
		"to":      recipient,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/send", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailer unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mailer returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
