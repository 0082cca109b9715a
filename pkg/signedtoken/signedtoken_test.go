package signedtoken

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret-key-for-signing")

func TestSignVerify_RoundTrip(t *testing.T) {
	now := time.Now()
	token, err := Sign(Claims{"uid": "user-1", "workflows": []string{"a", "b"}}, secret, now, time.Hour)
	require.NoError(t, err)

	claims, err := Verify(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", String(claims, "uid"))
	assert.Equal(t, []string{"a", "b"}, Strings(claims, "workflows"))

	exp, ok := Time(claims, "exp")
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour).Unix(), exp.Unix())
}

func TestVerify_Expired(t *testing.T) {
	token, err := Sign(Claims{"uid": "user-1"}, secret, time.Now().Add(-11*time.Minute), 10*time.Minute)
	require.NoError(t, err)

	_, err = Verify(token, secret)
	assert.True(t, errors.Is(err, ErrExpired), "got %v", err)
}

func TestVerify_At(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	token, err := Sign(Claims{"uid": "user-1"}, secret, issuedAt, 10*time.Minute)
	require.NoError(t, err)

	claims, err := Verify(token, secret, At(func() time.Time { return issuedAt.Add(9 * time.Minute) }))
	require.NoError(t, err)
	assert.Equal(t, "user-1", String(claims, "uid"))

	_, err = Verify(token, secret, At(func() time.Time { return issuedAt.Add(11 * time.Minute) }))
	assert.True(t, errors.Is(err, ErrExpired), "got %v", err)

	_, err = Verify(token, secret)
	assert.True(t, errors.Is(err, ErrExpired), "got %v", err)
}

func TestVerify_Invalid(t *testing.T) {
	other, err := Sign(Claims{"uid": "user-1"}, []byte("different-secret"), time.Now(), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "garbage token", token: "not-a-token"},
		{name: "malformed token", token: "header.payload.signature"},
		{name: "wrong secret", token: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Verify(tt.token, secret)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestSign_EmptySecret(t *testing.T) {
	_, err := Sign(Claims{}, nil, time.Now(), time.Hour)
	assert.Error(t, err)
}
