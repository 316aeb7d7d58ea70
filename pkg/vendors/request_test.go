package vendors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

func TestRequesterDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/items", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"lamp"}`))
	}))
	defer srv.Close()

	r := &Requester{Vendor: "test", BaseURL: srv.URL + "/v1/"}
	var out struct {
		Name string `json:"name"`
	}
	err := r.DoJSON(context.Background(), Request{
		Operation: "create",
		Method:    http.MethodPost,
		Path:      "/items",
		Headers:   BearerHeaders("tok"),
		Body:      map[string]string{"a": "b"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "lamp", out.Name)
}

func TestRequesterNon2xxBecomesDependencyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream down`))
	}))
	defer srv.Close()

	r := &Requester{Vendor: "test", BaseURL: srv.URL}
	_, err := r.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Equal(t, "upstream down", Message(err))
}

func TestRequesterCustomErrorDecoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := &Requester{Vendor: "test", BaseURL: srv.URL, DecodeErr: func(status int, body []byte) string {
		return "custom"
	}}
	_, err := r.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "custom", apiErr.Message)
}

func TestRequesterSendFormKeepsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550001", r.PostForm.Get("To"))
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	r := &Requester{Vendor: "test", BaseURL: srv.URL}
	resp, err := r.Send(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/send",
		Form:   url.Values{"To": {"+15550001"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "msg-1", resp.Header.Get("X-Message-Id"))
}
