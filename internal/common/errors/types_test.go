package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	err := UpstreamError("failed to fetch leaderboard data", 404)
	assert.Contains(t, err.Error(), "upstream")
	assert.Contains(t, err.Error(), "failed to fetch leaderboard data")
	assert.Contains(t, err.Error(), "status=404")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := TransportError("request failed", cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestAppError_WithContext(t *testing.T) {
	err := AuthError("token exchange failed", nil).
		WithStatus(401).
		WithContext("body", `{"error":"invalid_client"}`)

	assert.Equal(t, 401, err.Status)
	assert.Equal(t, `{"error":"invalid_client"}`, err.Context["body"])
	assert.Contains(t, err.Error(), "status=401")
}

func TestIsType(t *testing.T) {
	assert.True(t, IsType(AuthError("x", nil), ErrTypeAuth))
	assert.False(t, IsType(AuthError("x", nil), ErrTypeUpstream))
	assert.False(t, IsType(stderrors.New("plain"), ErrTypeAuth))
	assert.False(t, IsType(nil, ErrTypeAuth))
}

func TestGetType(t *testing.T) {
	assert.Equal(t, ErrTypeValidation, GetType(ValidationError("bad input")))
	assert.Equal(t, ErrTypeInternal, GetType(stderrors.New("plain")))
	assert.Equal(t, ErrorType(""), GetType(nil))
}

func TestGetStatus(t *testing.T) {
	assert.Equal(t, 404, GetStatus(NotFoundError("hero"), 500))
	assert.Equal(t, 502, GetStatus(UpstreamError("bad gateway", 502), 500))
	assert.Equal(t, 500, GetStatus(ValidationError("no status"), 500))
	assert.Equal(t, 500, GetStatus(stderrors.New("plain"), 500))
}
