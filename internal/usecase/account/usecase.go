// Package account implements the business logic for self-service account
// management: profile edits, favourite lines, linked logins, API access
// tokens and account deletion. Every mutation re-reads the account, applies
// the change and writes it back under its concurrency token; a conflicting
// write surfaces as a ConcurrencyError for the caller to retry from a fresh
// read.
package account

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/go-playground/validator/v10"

	"travel-account-service/internal/audit"
	domain "travel-account-service/internal/domain/user"
	apperrors "travel-account-service/pkg/errors"
	"travel-account-service/pkg/security"
)

// usecase implements the account management business logic.
type usecase struct {
	repo     domain.Repository
	audit    *audit.Recorder
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new account usecase on top of the user repository.
func New(repo domain.Repository, rec *audit.Recorder, log *zap.Logger) Usecase {
	return &usecase{repo: repo, audit: rec, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a
// ValidationError with human-readable field messages.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
			case "min":
				messages = append(messages, fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
			default:
				messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
			}
		}
		return apperrors.NewValidationError("", strings.Join(messages, ", "))
	}
	return err
}

// load fetches the account or returns a NotFoundError.
func (uc *usecase) load(ctx context.Context, userID string) (*domain.User, error) {
	u, err := uc.repo.FindByID(ctx, userID)
	if err != nil {
		uc.log.Error("failed to load account", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if u == nil {
		return nil, apperrors.NewNotFoundError("account", fmt.Sprintf("account %q not found", userID))
	}
	return u, nil
}

func toResponse(u *domain.User) *GetAccountResponse {
	logins := make([]ExternalLogin, 0, len(u.Logins))
	for _, l := range u.Logins {
		logins = append(logins, ExternalLogin{
			ProviderName:        l.ProviderName,
			ProviderKey:         l.ProviderKey,
			ProviderDisplayName: l.ProviderDisplayName,
		})
	}
	favorites := u.FavoriteLines
	if favorites == nil {
		favorites = []string{}
	}
	return &GetAccountResponse{
		ID:            u.ID,
		UserName:      u.UserName,
		Email:         u.Email,
		GivenName:     u.GivenName,
		Surname:       u.Surname,
		FavoriteLines: favorites,
		Logins:        logins,
		CreatedAt:     u.CreatedAt,
	}
}

// GetAccount retrieves the account details for the signed-in user.
func (uc *usecase) GetAccount(ctx context.Context, in GetAccountRequest) (*GetAccountResponse, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, formatValidationError(err)
	}

	u, err := uc.load(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	return toResponse(u), nil
}

// UpdateProfile updates the account's profile fields. Empty request fields
// are left unchanged; the normalized lookup fields are kept in sync.
func (uc *usecase) UpdateProfile(ctx context.Context, in UpdateProfileRequest) (*GetAccountResponse, error) {
	uc.log.Info("updating profile", zap.String("user_id", in.UserID))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	u, err := uc.load(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.UserName != "" {
		u.UserName = in.UserName
	}
	if in.GivenName != "" {
		u.GivenName = in.GivenName
	}
	if in.Surname != "" {
		u.Surname = in.Surname
	}
	u.Normalize()

	if err := uc.repo.Update(ctx, u); err != nil {
		uc.log.Error("failed to update profile", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, err
	}
	return toResponse(u), nil
}

// UpdateFavorites replaces the account's favourite lines with the validated,
// de-duplicated set from the request.
func (uc *usecase) UpdateFavorites(ctx context.Context, in UpdateFavoritesRequest) (*GetAccountResponse, error) {
	uc.log.Info("updating favourite lines", zap.String("user_id", in.UserID), zap.Int("count", len(in.FavoriteLines)))

	if err := uc.validate.Struct(in); err != nil {
		return nil, formatValidationError(err)
	}

	lines, err := security.ValidateFavoriteLines(in.FavoriteLines)
	if err != nil {
		uc.log.Warn("rejected favourite lines", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, apperrors.NewValidationError("favoriteLines", err.Error())
	}

	u, err := uc.load(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	u.FavoriteLines = lines
	if err := uc.repo.Update(ctx, u); err != nil {
		uc.log.Error("failed to update favourite lines", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, err
	}
	return toResponse(u), nil
}

// LinkLogin links an additional external login to the account. A login
// already held by another account is rejected as a duplicate; re-linking a
// login the account already holds is a no-op.
func (uc *usecase) LinkLogin(ctx context.Context, in LinkLoginRequest) (*GetAccountResponse, error) {
	uc.log.Info("linking external login",
		zap.String("user_id", in.UserID), zap.String("provider", in.ProviderName))

	if err := uc.validate.Struct(in); err != nil {
		return nil, formatValidationError(err)
	}

	holder, err := uc.repo.FindByLogin(ctx, in.ProviderName, in.ProviderKey)
	if err != nil {
		uc.log.Error("failed to check login uniqueness", zap.String("provider", in.ProviderName), zap.Error(err))
		return nil, err
	}
	if holder != nil && holder.ID != in.UserID {
		uc.log.Warn("login already linked to another account",
			zap.String("provider", in.ProviderName), zap.String("holder_id", holder.ID))
		return nil, apperrors.NewDuplicateLoginError(in.ProviderName, in.ProviderKey)
	}

	u, err := uc.load(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if u.HasLogin(in.ProviderName, in.ProviderKey) {
		return toResponse(u), nil
	}

	u.AddLogin(domain.ExternalLogin{
		ProviderName:        in.ProviderName,
		ProviderKey:         in.ProviderKey,
		ProviderDisplayName: in.ProviderDisplayName,
	})
	if err := uc.repo.Update(ctx, u); err != nil {
		uc.log.Error("failed to link login", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, err
	}
	return toResponse(u), nil
}

// UnlinkLogin removes a linked external login. The last remaining login
// cannot be removed or the account would become unreachable.
func (uc *usecase) UnlinkLogin(ctx context.Context, in UnlinkLoginRequest) (*GetAccountResponse, error) {
	uc.log.Info("unlinking external login",
		zap.String("user_id", in.UserID), zap.String("provider", in.ProviderName))

	if err := uc.validate.Struct(in); err != nil {
		return nil, formatValidationError(err)
	}

	u, err := uc.load(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if !u.HasLogin(in.ProviderName, in.ProviderKey) {
		return nil, apperrors.NewNotFoundError("external login",
			fmt.Sprintf("login %s/%s is not linked to this account", in.ProviderName, in.ProviderKey))
	}
	if len(u.Logins) == 1 {
		uc.log.Warn("refusing to remove the last login", zap.String("user_id", in.UserID))
		return nil, apperrors.NewValidationError("logins", "the last external login cannot be removed")
	}

	u.RemoveLogin(in.ProviderName, in.ProviderKey)
	if err := uc.repo.Update(ctx, u); err != nil {
		uc.log.Error("failed to unlink login", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, err
	}
	return toResponse(u), nil
}

// GenerateAccessToken rotates the account's API access token. The previous
// token stops working as soon as the write lands.
func (uc *usecase) GenerateAccessToken(ctx context.Context, in GetAccountRequest) (*AccessTokenResponse, error) {
	uc.log.Info("rotating access token", zap.String("user_id", in.UserID))

	if err := uc.validate.Struct(in); err != nil {
		return nil, formatValidationError(err)
	}

	u, err := uc.load(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	token, err := security.GenerateAccessToken()
	if err != nil {
		uc.log.Error("failed to generate access token", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to generate access token", err)
	}

	u.ExternalAccessToken = token
	if err := uc.repo.Update(ctx, u); err != nil {
		uc.log.Error("failed to store access token", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, err
	}
	return &AccessTokenResponse{AccessToken: token}, nil
}

// DeleteAccount permanently deletes the account. Deletion is terminal and
// deliberately succeeds even when a concurrent edit has bumped the token.
func (uc *usecase) DeleteAccount(ctx context.Context, in DeleteAccountRequest) error {
	uc.log.Info("deleting account", zap.String("user_id", in.UserID))

	if err := uc.validate.Struct(in); err != nil {
		return formatValidationError(err)
	}

	u, err := uc.load(ctx, in.UserID)
	if err != nil {
		return err
	}

	deleted, err := uc.repo.Delete(ctx, u)
	if err != nil {
		uc.log.Error("failed to delete account", zap.String("user_id", in.UserID), zap.Error(err))
		return err
	}
	if deleted {
		uc.audit.AccountDeleted(u.ID)
	}
	return nil
}
