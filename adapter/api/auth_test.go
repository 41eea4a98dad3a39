package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTokenVerifier(t *testing.T) {
	userID := uuid.New()

	got, err := LocalTokenVerifier{}.Verify(context.Background(), userID.String())
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = LocalTokenVerifier{}.Verify(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRemoteTokenVerifier(t *testing.T) {
	userID := uuid.New()

	t.Run("accepts a valid token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/verify", r.URL.Path)
			assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"user_id":"` + userID.String() + `"}`))
		}))
		defer srv.Close()

		got, err := NewRemoteTokenVerifier(srv.URL).Verify(context.Background(), "token-123")
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("rejects a non-200 response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := NewRemoteTokenVerifier(srv.URL).Verify(context.Background(), "bad-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects a nil user id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"user_id":"00000000-0000-0000-0000-000000000000"}`))
		}))
		defer srv.Close()

		_, err := NewRemoteTokenVerifier(srv.URL).Verify(context.Background(), "bad-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
