package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	amazon := NewAmazon("id", "secret", "https://localhost/auth/callback")
	google := NewGoogle("id", "secret", "https://localhost/auth/callback")
	registry := NewRegistry(google, amazon)

	assert.Equal(t, amazon, registry.Get("amazon"))
	assert.Equal(t, google, registry.Get("google"))
	assert.Nil(t, registry.Get("myspace"))
	assert.Equal(t, []string{"amazon", "google"}, registry.Names())
}

func TestAuthCodeURLCarriesState(t *testing.T) {
	p := NewAmazon("client-id", "secret", "https://localhost/auth/callback")

	url := p.AuthCodeURL("anti-forgery")

	assert.Contains(t, url, "https://www.amazon.com/ap/oa")
	assert.Contains(t, url, "state=anti-forgery")
	assert.Contains(t, url, "client_id=client-id")
}

func TestParseAmazonProfile(t *testing.T) {
	key, claims, err := parseAmazonProfile([]byte(`{
		"user_id": "amzn1.account.K2",
		"email": "john.smith@example.com",
		"name": "John Winston Smith"
	}`))

	require.NoError(t, err)
	assert.Equal(t, "amzn1.account.K2", key)
	assert.Equal(t, "john.smith@example.com", claims.Email)
	assert.Equal(t, "John", claims.GivenName)
	assert.Equal(t, "Winston Smith", claims.Surname)
}

func TestParseAmazonProfileMissingUserID(t *testing.T) {
	_, _, err := parseAmazonProfile([]byte(`{"email": "x@example.com"}`))
	assert.Error(t, err)
}

func TestParseGoogleProfile(t *testing.T) {
	key, claims, err := parseGoogleProfile([]byte(`{
		"sub": "109876543210",
		"email": "jane@example.com",
		"given_name": "Jane",
		"family_name": "Doe"
	}`))

	require.NoError(t, err)
	assert.Equal(t, "109876543210", key)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "Jane", claims.GivenName)
	assert.Equal(t, "Doe", claims.Surname)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name    string
		given   string
		surname string
	}{
		{"", "", ""},
		{"Cher", "Cher", ""},
		{"John Smith", "John", "Smith"},
		{"John Winston Smith", "John", "Winston Smith"},
	}

	for _, tt := range tests {
		given, surname := splitName(tt.name)
		assert.Equal(t, tt.given, given)
		assert.Equal(t, tt.surname, surname)
	}
}
