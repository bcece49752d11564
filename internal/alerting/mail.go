package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jackpot-alerts/internal/config"
)

const unreadableBody = "<unreadable response body>"

// Email is one outbound message.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// SendResult reports the outcome of a send. Transport failures never surface as errors.
type SendResult struct {
	Success     bool
	ErrorDetail string
}

// Sender delivers emails.
type Sender interface {
	Send(ctx context.Context, email Email) SendResult
}

// IsConfigured reports whether notifications can be sent at all. An
// unconfigured transport means notifications are disabled, not an error.
func IsConfigured(cfg config.EmailConfig) bool {
	return cfg.Enabled &&
		strings.TrimSpace(cfg.APIURL) != "" &&
		strings.TrimSpace(cfg.From) != "" &&
		strings.TrimSpace(cfg.To) != ""
}

// MailSender posts messages to a MailChannels-compatible HTTP mail API.
type MailSender struct {
	apiURL string
	apiKey string
	client *http.Client
	logger zerolog.Logger
}

// NewMailSender constructs the HTTP mail transport.
func NewMailSender(apiURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *MailSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MailSender{
		apiURL: strings.TrimSpace(apiURL),
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "alert_mail").Logger(),
	}
}

type mailAddress struct {
	Email string `json:"email"`
}

type mailPersonalization struct {
	To []mailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailRequest struct {
	Personalizations []mailPersonalization `json:"personalizations"`
	From             mailAddress           `json:"from"`
	Subject          string                `json:"subject"`
	Content          []mailContent         `json:"content"`
}

func newMailRequest(email Email) mailRequest {
	return mailRequest{
		Personalizations: []mailPersonalization{{To: []mailAddress{{Email: email.To}}}},
		From:             mailAddress{Email: email.From},
		Subject:          email.Subject,
		Content:          []mailContent{{Type: "text/html", Value: email.HTML}},
	}
}

// Send implements Sender.
func (m *MailSender) Send(ctx context.Context, email Email) SendResult {
	body, err := json.Marshal(newMailRequest(email))
	if err != nil {
		return failure(fmt.Sprintf("marshal mail payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return failure(fmt.Sprintf("create mail request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return failure(fmt.Sprintf("send mail request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := unreadableBody
		if raw, readErr := io.ReadAll(resp.Body); readErr == nil {
			text = strings.TrimSpace(string(raw))
		}
		return failure(fmt.Sprintf("mail api responded %d %s: %s", resp.StatusCode, statusText(resp), text))
	}

	m.logger.Info().Str("to", email.To).Str("subject", email.Subject).Msg("告警邮件已发送")
	return SendResult{Success: true}
}

func failure(detail string) SendResult {
	return SendResult{Success: false, ErrorDetail: detail}
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

var _ Sender = (*MailSender)(nil)
