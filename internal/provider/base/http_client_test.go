package base

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSONHeaders(t *testing.T) {
	var gotCT, gotUA, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("test", 0)
	resp, err := c.PostJSON(context.Background(), srv.URL, map[string]int{"a": 1},
		map[string]string{"Content-Type": "application/json;charset=UTF-8", "Authorization": "key"}, false)
	require.NoError(t, err)

	assert.Equal(t, "application/json;charset=UTF-8", gotCT)
	assert.Equal(t, "CreditGW/test", gotUA)
	assert.Equal(t, "key", gotAuth)
	assert.JSONEq(t, `{"a":1}`, gotBody)

	assert.True(t, resp.IsSuccess())
	var out map[string]bool
	require.NoError(t, resp.DecodeJSON(&out))
	assert.True(t, out["ok"])
}

func TestNonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	resp, err := NewHTTPClient("test", 5).Get(context.Background(), srv.URL, nil, false)
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, resp.String(), "nope")
}

func TestTLSVerificationIsPerCall(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient("test", 5)

	resp, err := c.Get(context.Background(), srv.URL, nil, false)
	require.NoError(t, err, "self-signed certificate accepted when verification is off")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = c.Get(context.Background(), srv.URL, nil, true)
	assert.Error(t, err, "self-signed certificate rejected when verification is on")
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPClient("test", 5).Get(ctx, srv.URL, nil, false)
	assert.Error(t, err)
}
