package cmd

import (
	"incback/internal/config"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	prev := cfg
	cfg = &config.Config{DaemonPort: port}
	t.Cleanup(func() {
		cfg = prev
	})
}

func TestStopCmd(t *testing.T) {
	var method, path string
	useServer(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"stopping"}`))
	})

	require.NoError(t, stopCmd.RunE(stopCmd, nil))
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/stop", path)
}

func TestStopCmd_RejectedAndMalformed(t *testing.T) {
	useServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	err := stopCmd.RunE(stopCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused to stop")

	useServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	err = stopCmd.RunE(stopCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
