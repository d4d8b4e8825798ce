package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedrive-io/safedrive/internal/companion/model"
)

func TestLoginInstallsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var in LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "dana@example.com", in.Email)

		json.NewEncoder(w).Encode(LoginResponse{
			Token: "tok-123",
			User:  model.User{ID: "user-1", Name: "Dana"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	res, err := c.Login(context.Background(), "dana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", res.Token)
	assert.Equal(t, "tok-123", c.Token(), "token installed for later calls")
}

func TestBearerTokenAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(model.User{ID: "user-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	c.SetToken("tok-123")
	_, err := c.Me(context.Background())
	require.NoError(t, err)
}

func TestActiveRequestNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	info, err := c.ActiveRequest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, info, "null body means no open request")
}

func TestActiveRequestOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ActiveRequestInfo{RequestID: "req-1", Status: model.StatusPending})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	info, err := c.ActiveRequest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "req-1", info.RequestID)
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "not allowed"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Context(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
	assert.Contains(t, err.Error(), "403")
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session", "token")

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Empty(t, tok, "missing file is signed out, not an error")

	require.NoError(t, SaveToken(path, "tok-123"))
	tok, err = LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)

	require.NoError(t, ClearToken(path))
	tok, err = LoadToken(path)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, ClearToken(path), "clearing twice is fine")
}
