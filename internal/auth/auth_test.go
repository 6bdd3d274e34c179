package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPValidatorValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "good-token", req.Token)
		json.NewEncoder(w).Encode(validateResponse{
			Valid:       true,
			PlayerID:    "p42",
			DisplayName: "Pat",
		})
	}))
	defer srv.Close()

	identity, err := NewHTTPValidator(srv.URL).Validate(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "p42", identity.PlayerID)
	assert.Equal(t, "Pat", identity.DisplayName)
}

func TestHTTPValidatorRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewHTTPValidator(srv.URL).Validate(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHTTPValidatorInvalidFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(validateResponse{Valid: false, Error: "expired"})
	}))
	defer srv.Close()

	_, err := NewHTTPValidator(srv.URL).Validate(context.Background(), "expired-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHTTPValidatorUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPValidator(srv.URL).Validate(context.Background(), "any")
	assert.ErrorIs(t, err, ErrUnavailable)

	srv.Close()
	_, err = NewHTTPValidator(srv.URL).Validate(context.Background(), "any")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPValidatorEmptyToken(t *testing.T) {
	_, err := NewHTTPValidator("http://unused").Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStaticValidator(t *testing.T) {
	v := NewStaticValidator(map[string]Identity{
		"fixed": {PlayerID: "p1", DisplayName: "One"},
	})

	identity, err := v.Validate(context.Background(), "fixed")
	require.NoError(t, err)
	assert.Equal(t, "p1", identity.PlayerID)

	// Free-form dev tokens mint identities.
	identity, err = v.Validate(context.Background(), "p9:Niner")
	require.NoError(t, err)
	assert.Equal(t, "p9", identity.PlayerID)
	assert.Equal(t, "Niner", identity.DisplayName)

	_, err = v.Validate(context.Background(), "garbage")
	assert.True(t, errors.Is(err, ErrInvalidToken))
	_, err = v.Validate(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	v.Add("minted", Identity{PlayerID: "p2", DisplayName: "Two"})
	identity, err = v.Validate(context.Background(), "minted")
	require.NoError(t, err)
	assert.Equal(t, "p2", identity.PlayerID)
}
