package provider

import (
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
)

// googleProfile is the payload of Google's OpenID userinfo endpoint.
type googleProfile struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// NewGoogle creates the Google provider.
func NewGoogle(clientID, clientSecret, redirectURL string) Provider {
	return &oauthProvider{
		name:        "google",
		displayName: "Google",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
		profileURL:   "https://openidconnect.googleapis.com/v1/userinfo",
		parseProfile: parseGoogleProfile,
	}
}

func parseGoogleProfile(body []byte) (string, *Claims, error) {
	var profile googleProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", nil, fmt.Errorf("failed to parse google profile: %w", err)
	}
	if profile.Sub == "" {
		return "", nil, fmt.Errorf("google profile has no subject")
	}

	return profile.Sub, &Claims{
		Email:     profile.Email,
		GivenName: profile.GivenName,
		Surname:   profile.FamilyName,
	}, nil
}
