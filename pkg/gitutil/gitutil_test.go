package gitutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError("HTTP 401: Unauthorized"))
	assert.True(t, IsAuthError("GITHUB_TOKEN not found"))
	assert.True(t, IsAuthError("access forbidden"))
	assert.False(t, IsAuthError("connection reset by peer"))
}

func TestIsHexString(t *testing.T) {
	assert.True(t, IsHexString("abc123DEF"))
	assert.False(t, IsHexString(""))
	assert.False(t, IsHexString("xyz"))
	assert.False(t, IsHexString("abc-123"))
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "deadbeef", ShortSHA("deadbeefcafe0123"))
	assert.Equal(t, "abc", ShortSHA("abc"))
}
