package rest

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outlet struct {
	mu       sync.Mutex
	state    string
	requests []string
}

func (o *outlet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, r.Method+" "+r.URL.Path)
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		o.state = string(body)
	case http.MethodGet:
		_, _ = w.Write([]byte(o.state + "\n"))
	}
}

func TestOnOffGet(t *testing.T) {
	o := &outlet{state: "0"}
	srv := httptest.NewServer(o)
	defer srv.Close()

	b, err := New(power.BackendOptions{Client: srv.Client()})
	require.NoError(t, err)
	target := power.Target{URL: srv.URL + "/outlet/1"}

	require.NoError(t, b.On(target))
	on, err := b.Get(target)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, b.Off(target))
	on, err = b.Get(target)
	require.NoError(t, err)
	assert.False(t, on)

	assert.Equal(t, []string{
		"PUT /outlet/1", "GET /outlet/1",
		"PUT /outlet/1", "GET /outlet/1",
	}, o.requests)
}

func TestValuePlaceholder(t *testing.T) {
	o := &outlet{state: "1"}
	srv := httptest.NewServer(o)
	defer srv.Close()

	b, _ := New(power.BackendOptions{Client: srv.Client()})
	target := power.Target{URL: srv.URL + "/outlet/2/{value}"}

	require.NoError(t, b.Off(target))
	_, err := b.Get(target)
	require.NoError(t, err)
	assert.Equal(t, []string{"PUT /outlet/2/0", "GET /outlet/2"}, o.requests)
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "outlet locked", http.StatusConflict)
	}))
	defer srv.Close()

	b, _ := New(power.BackendOptions{Client: srv.Client()})
	err := b.On(power.Target{URL: srv.URL + "/1"})

	var netErr *power.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusConflict, netErr.StatusCode)
	assert.Equal(t, Model, netErr.Model)
}

func TestMalformedState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("maybe"))
	}))
	defer srv.Close()

	b, _ := New(power.BackendOptions{Client: srv.Client()})
	_, err := b.Get(power.Target{URL: srv.URL + "/1"})

	var netErr *power.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestParseState(t *testing.T) {
	on, err := ParseState(Model, "http://pdu:80/1", []byte("1"))
	require.NoError(t, err)
	assert.True(t, on)

	on, err = ParseState(Model, "http://pdu:80/1", []byte(" 0\r\n"))
	require.NoError(t, err)
	assert.False(t, on)
}

func TestStatusURL(t *testing.T) {
	assert.Equal(t, "http://pdu:80/1", StatusURL("http://pdu:80/1"))
	assert.Equal(t, "http://pdu:80/relay/1", StatusURL("http://pdu:80/relay/1/{value}"))
}
