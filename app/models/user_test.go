package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPasswordHashing(t *testing.T) {
	user := &User{Name: "alice", Email: "alice@example.com", Password: "hunter22", Status: STATUS_ACTIVE}
	require.NoError(t, user.Validate())

	require.NoError(t, user.HashPassword())
	assert.NotEqual(t, "hunter22", user.Password)
	assert.True(t, strings.HasPrefix(user.Password, "$2"))

	assert.True(t, user.CheckPassword("hunter22"))
	assert.False(t, user.CheckPassword("hunter23"))
}
