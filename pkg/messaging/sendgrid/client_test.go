package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dropship-backend/pkg/config"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(config.SendgridConfig{
		APIKey:      "SG.key",
		DefaultFrom: "shop@example.com",
		FromName:    "Shop",
		BaseURL:     srv.URL,
	}, srv.Client(), nil)
	require.NoError(t, err)
	return c
}

func TestSendBuildsMailRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
		var body mailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body.Personalizations[0].To[0].Email)
		assert.Equal(t, "shop@example.com", body.From.Email)
		require.Len(t, body.Content, 2)
		assert.Equal(t, "text/plain", body.Content[0].Type)
		assert.Equal(t, "text/html", body.Content[1].Type)
		w.Header().Set("X-Message-Id", "abc123")
		w.WriteHeader(http.StatusAccepted)
	})

	id, err := c.Send(context.Background(), Email{To: "ada@example.com", Subject: "Shipped", Text: "hi", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

func TestSendWithoutMessageIDHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	id, err := c.Send(context.Background(), Email{To: "ada@example.com", Subject: "Hi", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, unknownMessageID, id)
}

func TestSendErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"The provided authorization grant is invalid"}]}`))
	})
	_, err := c.Send(context.Background(), Email{To: "ada@example.com", Subject: "Hi", Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, "SendGrid error: The provided authorization grant is invalid", vendors.Message(err))
}
