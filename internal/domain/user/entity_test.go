package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases", input: "Alice@Example.COM", expected: "alice@example.com"},
		{name: "trims whitespace", input: "  bob@example.com ", expected: "bob@example.com"},
		{name: "already normalized", input: "carol@example.com", expected: "carol@example.com"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestUser_Normalize_KeepsLookupFieldsInSync(t *testing.T) {
	u := &User{
		UserName: "Alice@Example.com",
		Email:    "Alice@Example.com",
	}

	u.Normalize()

	assert.Equal(t, "alice@example.com", u.NormalizedUserName)
	assert.Equal(t, "alice@example.com", u.NormalizedEmail)

	// Changing the display fields leaves the normalized copies stale until
	// Normalize runs again.
	u.Email = "New@Example.com"
	assert.Equal(t, "alice@example.com", u.NormalizedEmail)
	u.Normalize()
	assert.Equal(t, "new@example.com", u.NormalizedEmail)
}

func TestUser_AddLogin_IgnoresDuplicatePair(t *testing.T) {
	u := &User{}
	login := ExternalLogin{ProviderName: "amazon", ProviderKey: "abc123", ProviderDisplayName: "Amazon"}

	u.AddLogin(login)
	u.AddLogin(login)

	assert.Len(t, u.Logins, 1)
	assert.True(t, u.HasLogin("amazon", "abc123"))
	assert.False(t, u.HasLogin("amazon", "other"))
	assert.False(t, u.HasLogin("google", "abc123"))
}

func TestUser_RemoveLogin(t *testing.T) {
	u := &User{
		Logins: []ExternalLogin{
			{ProviderName: "amazon", ProviderKey: "abc123"},
			{ProviderName: "google", ProviderKey: "xyz789"},
		},
	}

	assert.True(t, u.RemoveLogin("amazon", "abc123"))
	assert.Len(t, u.Logins, 1)
	assert.False(t, u.HasLogin("amazon", "abc123"))

	// Removing a login that is not present reports false.
	assert.False(t, u.RemoveLogin("amazon", "abc123"))
	assert.Len(t, u.Logins, 1)
}
