package pdu

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendToSMD(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SMDEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var record map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&record))

		mu.Lock()
		defer mu.Unlock()
		ids = append(ids, record["ID"].(string))
		if record["ID"] == "x3000m0p0v2" {
			w.WriteHeader(http.StatusConflict)
		}
	}))
	defer srv.Close()

	records := []map[string]any{{"ID": "x3000m0p0v1"}, {"ID": "x3000m0p0v2"}}
	require.NoError(t, SendToSMD(srv.Client(), srv.URL+"/", "tok", records))
	assert.Equal(t, []string{"x3000m0p0v1", "x3000m0p0v2"}, ids)
}

func TestSendToSMDRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad record", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := SendToSMD(srv.Client(), srv.URL, "", []map[string]any{{"ID": "x3000m0p0v1"}})
	assert.ErrorContains(t, err, "bad record")
}
