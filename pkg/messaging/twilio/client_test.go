package twilio

import (
	"context"
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
	c, err := NewClient(config.TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550000",
		BaseURL:    srv.URL,
	}, srv.Client(), nil)
	require.NoError(t, err)
	return c
}

func TestSendSMS(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551234", r.PostForm.Get("To"))
		assert.Equal(t, "+15550000", r.PostForm.Get("From"))
		assert.Equal(t, "Your order shipped", r.PostForm.Get("Body"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42","status":"queued"}`))
	})

	sid, err := c.SendSMS(context.Background(), "+15551234", "Your order shipped")
	require.NoError(t, err)
	assert.Equal(t, "SM42", sid)
}

func TestSendSMSSurfacesProviderMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not valid."}`))
	})

	_, err := c.SendSMS(context.Background(), "+1", "hi")
	require.Error(t, err)
	assert.Equal(t, "The 'To' number is not valid.", vendors.Message(err))
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(config.TwilioConfig{AccountSID: "AC1"}, nil, nil)
	assert.ErrorIs(t, err, vendors.ErrMissingCredentials)
}
