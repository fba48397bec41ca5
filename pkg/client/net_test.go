package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "powerctl", r.Header.Get("User-Agent"))
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "1", string(body))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	header := HTTPHeader{}.BasicAuth("admin", "secret").ContentType("text/plain")
	res, body, err := MakeRequest(NewClient(WithTimeout(time.Second)), srv.URL, http.MethodPut, HTTPBody("1"), header)
	require.NoError(t, err)
	assert.True(t, StatusOK(res))
	assert.Equal(t, "ok", string(body))
}

func TestMakeRequestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, _, err := MakeRequest(nil, url, http.MethodGet, nil, nil)
	assert.Error(t, err)
}

func TestStatusOK(t *testing.T) {
	assert.False(t, StatusOK(nil))
	assert.True(t, StatusOK(&http.Response{StatusCode: 204}))
	assert.False(t, StatusOK(&http.Response{StatusCode: 500}))
}

func TestHeaders(t *testing.T) {
	h := HTTPHeader{}.Authorization("").BasicAuth("", "")
	assert.Empty(t, h)
	h = HTTPHeader{}.Authorization("tok")
	assert.Equal(t, "Bearer tok", h["Authorization"])
}
