package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// LocalTokenVerifier accepts the user ID itself as the bearer token. Intended
// for development and tests only.
type LocalTokenVerifier struct{}

func (LocalTokenVerifier) Verify(_ context.Context, token string) (uuid.UUID, error) {
	userID, err := uuid.Parse(token)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// RemoteTokenVerifier validates bearer tokens against an external auth
// service.
type RemoteTokenVerifier struct {
	baseURL string
	client  *http.Client
}

// NewRemoteTokenVerifier creates a verifier backed by the auth service at
// baseURL.
func NewRemoteTokenVerifier(baseURL string) *RemoteTokenVerifier {
	return &RemoteTokenVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (v *RemoteTokenVerifier) Verify(ctx context.Context, token string) (uuid.UUID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/v1/verify", nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to verify token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uuid.Nil, ErrInvalidToken
	}

	var body struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode verify response: %w", err)
	}
	if body.UserID == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	return body.UserID, nil
}
