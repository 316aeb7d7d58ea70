// Package twilio sends SMS through the Twilio Messages API.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/dropship-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/metrics"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

const (
	providerName   = "twilio"
	DefaultBaseURL = "https://api.twilio.com"
)

type Client struct {
	req        *vendors.Requester
	accountSID string
	authToken  string
	from       string
}

// NewClient fails with vendors.ErrMissingCredentials when cfg is incomplete.
func NewClient(cfg config.TwilioConfig, httpClient *http.Client, m *metrics.VendorMetrics) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("twilio: %w", vendors.ErrMissingCredentials)
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
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
	}, nil
}

func decodeError(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fmt.Sprintf("Failed to send SMS: status %d", status)
}

// SendSMS returns the Twilio message sid.
func (c *Client) SendSMS(ctx context.Context, to, body string) (string, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sms recipient is required")
	}
	if strings.TrimSpace(body) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sms body is required")
	}
	var out struct {
		SID string `json:"sid"`
	}
	err := c.req.DoJSON(ctx, vendors.Request{
		Operation: "send_sms",
		Method:    http.MethodPost,
		Path:      "/2010-04-01/Accounts/" + url.PathEscape(c.accountSID) + "/Messages.json",
		Headers:   vendors.BasicHeaders(c.accountSID, c.authToken),
		Form:      url.Values{"To": {to}, "From": {c.from}, "Body": {body}},
	}, &out)
	if err != nil {
		return "", err
	}
	return out.SID, nil
}
