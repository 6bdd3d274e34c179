// Package auth validates session tokens against an external account
// service. The game server never stores credentials; it only maps a
// token to a stable player identity.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	// ErrInvalidToken indicates the token is definitively invalid.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrUnavailable indicates the auth service is unreachable.
	ErrUnavailable = errors.New("auth: unavailable")
)

// Identity is an authenticated player
type Identity struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

// Validator validates session tokens.
// Returns:
//   - (*Identity, nil) if the token is valid
//   - (nil, ErrInvalidToken) if the token is definitively invalid
//   - (nil, ErrUnavailable) if the auth service cannot answer
type Validator interface {
	Validate(ctx context.Context, token string) (*Identity, error)
}

// HTTPValidator validates tokens via callback to an external account
// service
type HTTPValidator struct {
	url    string
	client *http.Client
}

// NewHTTPValidator creates a validator that calls an external HTTP
// endpoint
func NewHTTPValidator(url string) *HTTPValidator {
	return &HTTPValidator{
		url: url,
		client: &http.Client{
			Timeout: 500 * time.Millisecond,
		},
	}
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid       bool   `json:"valid"`
	PlayerID    string `json:"player_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (v *HTTPValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	reqBody, err := json.Marshal(validateRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	// Cap the body so a misbehaving service cannot balloon memory.
	limited := io.LimitReader(resp.Body, 1<<20)

	var authResp validateResponse
	if err := json.NewDecoder(limited).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrUnavailable, err)
	}
	if !authResp.Valid {
		return nil, ErrInvalidToken
	}
	return &Identity{
		PlayerID:    authResp.PlayerID,
		DisplayName: authResp.DisplayName,
	}, nil
}

// StaticValidator resolves tokens from a fixed table, for development
// and tests. Tokens of the form "id:name" that are not in the table
// are accepted as-is, so a dev client can mint identities freely.
type StaticValidator struct {
	mu     sync.RWMutex
	tokens map[string]Identity
}

// NewStaticValidator creates a validator over a fixed token table
func NewStaticValidator(tokens map[string]Identity) *StaticValidator {
	if tokens == nil {
		tokens = make(map[string]Identity)
	}
	return &StaticValidator{tokens: tokens}
}

func (v *StaticValidator) Validate(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	v.mu.RLock()
	identity, ok := v.tokens[token]
	v.mu.RUnlock()
	if ok {
		return &identity, nil
	}
	if id, name, found := strings.Cut(token, ":"); found && id != "" && name != "" {
		return &Identity{PlayerID: id, DisplayName: name}, nil
	}
	return nil, ErrInvalidToken
}

// Add registers a token
func (v *StaticValidator) Add(token string, identity Identity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens[token] = identity
}
