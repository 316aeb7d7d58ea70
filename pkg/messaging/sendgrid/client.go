// Package sendgrid sends transactional email through the SendGrid v3 API.
package sendgrid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/dropship-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/metrics"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

const (
	providerName   = "sendgrid"
	DefaultBaseURL = "https://api.sendgrid.com"

	// unknownMessageID is reported when SendGrid omits X-Message-Id.
	unknownMessageID = "unknown"
)

type Client struct {
	req      *vendors.Requester
	apiKey   string
	from     string
	fromName string
}

func NewClient(cfg config.SendgridConfig, httpClient *http.Client, m *metrics.VendorMetrics) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("sendgrid: %w", vendors.ErrMissingCredentials)
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: vendors.DefaultTimeout}
	}
	return &Client{
		req: &vendors.Requester{
			Vendor:     providerName,
			BaseURL:    baseURL,
			HTTPClient: httpClient,
			Metrics:    m,
			DecodeErr:  decodeError,
		},
		apiKey:   cfg.APIKey,
		from:     cfg.DefaultFrom,
		fromName: cfg.FromName,
	}, nil
}

func decodeError(status int, body []byte) string {
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 && payload.Errors[0].Message != "" {
		return "SendGrid error: " + payload.Errors[0].Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return "SendGrid error: " + text
	}
	return fmt.Sprintf("SendGrid error: status %d", status)
}

// Email is one outbound message. HTML is optional.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type personalization struct {
	To []address `json:"to"`
}

type mailRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Send returns the SendGrid message id from the X-Message-Id header.
func (c *Client) Send(ctx context.Context, email Email) (string, error) {
	to := strings.TrimSpace(email.To)
	if to == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email recipient is required")
	}
	if strings.TrimSpace(email.Subject) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email subject is required")
	}
	body := mailRequest{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: c.from, Name: c.fromName},
		Subject:          email.Subject,
		Content:          []content{{Type: "text/plain", Value: email.Text}},
	}
	if email.HTML != "" {
		body.Content = append(body.Content, content{Type: "text/html", Value: email.HTML})
	}

	resp, err := c.req.Send(ctx, vendors.Request{
		Operation: "send_email",
		Method:    http.MethodPost,
		Path:      "/v3/mail/send",
		Headers:   vendors.BearerHeaders(c.apiKey),
		Body:      body,
	})
	if err != nil {
		return "", err
	}
	if id := resp.Header.Get("X-Message-Id"); id != "" {
		return id, nil
	}
	return unknownMessageID, nil
}
