package fetchtool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callArgs(t *testing.T, u string) string {
	t.Helper()
	b, err := json.Marshal(args{URL: u})
	require.NoError(t, err)
	return string(b)
}

func TestFetchURLReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	tl := New(Config{})
	out, err := tl.Execute(context.Background(), callArgs(t, srv.URL))
	require.NoError(t, err)
	assert.False(t, out.IsError)
	assert.Contains(t, out.Content, "hello world")
	assert.Contains(t, out.Content, "200")
}

func TestFetchURLRejectsNonHTTPScheme(t *testing.T) {
	tl := New(Config{})
	out, err := tl.Execute(context.Background(), callArgs(t, "file:///etc/passwd"))
	require.NoError(t, err)
	assert.True(t, out.IsError)
}

func TestFetchURLRejectsDeniedDomain(t *testing.T) {
	tl := New(Config{DeniedDomains: []string{"example.com"}})
	out, err := tl.Execute(context.Background(), callArgs(t, "http://example.com/page"))
	require.NoError(t, err)
	assert.True(t, out.IsError)
}

func TestFetchURLReportsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tl := New(Config{})
	out, err := tl.Execute(context.Background(), callArgs(t, srv.URL))
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Contains(t, out.Content, "404")
}
