package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// amazonProfile is the payload of Login with Amazon's profile endpoint.
type amazonProfile struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// NewAmazon creates the Login with Amazon provider.
func NewAmazon(clientID, clientSecret, redirectURL string) Provider {
	return &oauthProvider{
		name:        "amazon",
		displayName: "Amazon",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://www.amazon.com/ap/oa",
				TokenURL: "https://api.amazon.com/auth/o2/token",
			},
		},
		profileURL:   "https://api.amazon.com/user/profile",
		parseProfile: parseAmazonProfile,
	}
}

func parseAmazonProfile(body []byte) (string, *Claims, error) {
	var profile amazonProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", nil, fmt.Errorf("failed to parse amazon profile: %w", err)
	}
	if profile.UserID == "" {
		return "", nil, fmt.Errorf("amazon profile has no user_id")
	}

	given, surname := splitName(profile.Name)
	return profile.UserID, &Claims{
		Email:     profile.Email,
		GivenName: given,
		Surname:   surname,
	}, nil
}

// splitName splits a single display name into given name and surname.
// Amazon only exposes the combined form.
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
