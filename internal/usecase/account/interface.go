package account

import "context"

// Usecase defines the interface for account management operations.
type Usecase interface {
	GetAccount(ctx context.Context, in GetAccountRequest) (*GetAccountResponse, error)
	UpdateProfile(ctx context.Context, in UpdateProfileRequest) (*GetAccountResponse, error)
	UpdateFavorites(ctx context.Context, in UpdateFavoritesRequest) (*GetAccountResponse, error)
	LinkLogin(ctx context.Context, in LinkLoginRequest) (*GetAccountResponse, error)
	UnlinkLogin(ctx context.Context, in UnlinkLoginRequest) (*GetAccountResponse, error)
	GenerateAccessToken(ctx context.Context, in GetAccountRequest) (*AccessTokenResponse, error)
	DeleteAccount(ctx context.Context, in DeleteAccountRequest) error
}
