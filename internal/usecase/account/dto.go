package account

import "time"

// GetAccountRequest represents the request payload for retrieving an account.
type GetAccountRequest struct {
	UserID string `validate:"required"`
}

// ExternalLogin represents a linked external login for API responses.
type ExternalLogin struct {
	ProviderName        string `json:"provider"`
	ProviderKey         string `json:"providerKey"`
	ProviderDisplayName string `json:"providerDisplayName,omitempty"`
}

// GetAccountResponse represents the account details returned to the caller.
type GetAccountResponse struct {
	ID            string          `json:"id"`
	UserName      string          `json:"userName"`
	Email         string          `json:"email"`
	GivenName     string          `json:"givenName,omitempty"`
	Surname       string          `json:"surname,omitempty"`
	FavoriteLines []string        `json:"favoriteLines"`
	Logins        []ExternalLogin `json:"logins"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// UpdateProfileRequest represents the request payload for updating profile
// fields. Empty fields are left unchanged.
type UpdateProfileRequest struct {
	UserID    string `validate:"required"`
	UserName  string `validate:"omitempty,min=3,max=100"`
	GivenName string `validate:"omitempty,max=100"`
	Surname   string `validate:"omitempty,max=100"`
}

// UpdateFavoritesRequest represents the request payload for replacing the
// user's favourite lines.
type UpdateFavoritesRequest struct {
	UserID        string `validate:"required"`
	FavoriteLines []string
}

// LinkLoginRequest represents the request payload for linking an additional
// external login to an account.
type LinkLoginRequest struct {
	UserID              string `validate:"required"`
	ProviderName        string `validate:"required"`
	ProviderKey         string `validate:"required"`
	ProviderDisplayName string
}

// UnlinkLoginRequest represents the request payload for removing a linked
// external login.
type UnlinkLoginRequest struct {
	UserID       string `validate:"required"`
	ProviderName string `validate:"required"`
	ProviderKey  string `validate:"required"`
}

// AccessTokenResponse carries a freshly generated API access token. The
// token is only ever returned once, at generation time.
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// DeleteAccountRequest represents the request payload for deleting an
// account.
type DeleteAccountRequest struct {
	UserID string `validate:"required"`
}
