package vendors

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/metrics"
	"github.com/angelmondragon/dropship-backend/pkg/telemetry"
)

const (
	// DefaultTimeout bounds every supplier call.
	DefaultTimeout = 10 * time.Second

	responseBodyReadLimit int64 = 1 << 20
	errorBodyReadLimit    int64 = 1024
)

// ErrorDecoder turns a non-2xx response body into the message surfaced to callers.
type ErrorDecoder func(status int, body []byte) string

// Requester executes requests against one external API.
type Requester struct {
	Vendor     string
	BaseURL    string
	HTTPClient *http.Client
	Metrics    *metrics.VendorMetrics
	DecodeErr  ErrorDecoder
}

// Request describes one call.
type Request struct {
	Operation string
	Method    string
	Path      string
	Headers   http.Header
	Body      any
	// Form is sent url-encoded instead of Body when set.
	Form url.Values
}

// Response is a 2xx answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do sends req and returns the raw response body of a 2xx answer.
func (r *Requester) Do(ctx context.Context, req Request) ([]byte, error) {
	resp, err := r.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Send is Do for callers that need the response headers.
func (r *Requester) Send(ctx context.Context, req Request) (out *Response, err error) {
	started := time.Now()
	ctx, span := telemetry.StartSpan(ctx, r.Vendor+"."+req.Operation, trace.SpanKindClient,
		attribute.String("vendor", r.Vendor),
		attribute.String("http.request.method", req.Method),
	)
	defer func() {
		r.Metrics.Observe(r.Vendor, req.Operation, started, err)
		telemetry.End(span, err)
	}()

	var reader io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		reader = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		contentType = "application/json"
		payload, mErr := json.Marshal(req.Body)
		if mErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, mErr, fmt.Sprintf("marshal %s request", r.Vendor))
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := strings.TrimRight(r.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("build %s request", r.Vendor))
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	client := r.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", r.Vendor))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		msg := strings.TrimSpace(string(raw))
		if r.DecodeErr != nil {
			msg = r.DecodeErr(resp.StatusCode, raw)
		}
		return nil, NewAPIError(r.Vendor, resp.StatusCode, msg)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("read %s response", r.Vendor))
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: body}, nil
}

// DoJSON sends req and decodes a 2xx answer into out.
func (r *Requester) DoJSON(ctx context.Context, req Request, out any) error {
	body, err := r.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", r.Vendor))
	}
	return nil
}

// BearerHeaders returns the Authorization header used by token based vendors.
func BearerHeaders(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

// BasicHeaders returns an HTTP basic Authorization header.
func BasicHeaders(user, password string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(user+":"+password)))
	return h
}
