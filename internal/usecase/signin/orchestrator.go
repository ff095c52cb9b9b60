// Package signin implements the external-login callback orchestration. One
// callback from an OAuth provider is resolved to exactly one terminal
// outcome: an existing account signed in, a new account created, a duplicate
// rejected, a locked-out refusal, or a provider failure.
package signin

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/go-playground/validator/v10"

	"travel-account-service/internal/adapter/lockout"
	"travel-account-service/internal/audit"
	domain "travel-account-service/internal/domain/user"
	apperrors "travel-account-service/pkg/errors"
)

// Claims are the profile attributes carried on a callback. All optional.
type Claims struct {
	Email     string `validate:"omitempty,email"`
	GivenName string
	Surname   string
}

// Callback is the input to the orchestrator: what the OAuth redirect
// handler learned from the provider. A nil Callback means the redirect
// arrived without any usable state.
type Callback struct {
	ProviderName        string `validate:"required"`
	ProviderKey         string `validate:"required"`
	ProviderDisplayName string
	Claims              Claims

	// RemoteError is the error message the provider itself sent back, if
	// any. When set, nothing else on the callback is trusted.
	RemoteError string

	// Persistent asks for a long-lived session on success.
	Persistent bool
}

// Sessions is the contract with the session authority: mark a user as
// authenticated, optionally with a long-lived session.
type Sessions interface {
	SignIn(ctx context.Context, userID string, persistent bool) (string, error)
}

// Orchestrator resolves provider callbacks against the user repository.
type Orchestrator struct {
	repo     domain.Repository
	sessions Sessions
	lockout  lockout.Policy
	audit    *audit.Recorder
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a sign-in orchestrator.
func New(repo domain.Repository, sessions Sessions, lock lockout.Policy, rec *audit.Recorder, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		repo:     repo,
		sessions: sessions,
		lockout:  lock,
		audit:    rec,
		log:      log,
		validate: validator.New(),
	}
}

// HandleCallback runs the callback through the sign-in state machine and
// returns its terminal outcome. Branch order matters: a remote provider
// error short-circuits before any store access, and a lost callback is a
// recoverable re-prompt rather than a failure.
func (o *Orchestrator) HandleCallback(ctx context.Context, cb *Callback) (*Result, error) {
	if cb == nil {
		o.log.Info("callback arrived without state, re-prompting sign-in")
		return &Result{Status: StatusSignInRequired}, nil
	}

	if cb.RemoteError != "" {
		o.log.Warn("provider reported an error",
			zap.String("provider", cb.ProviderName),
			zap.String("remote_error", cb.RemoteError))
		return &Result{Status: StatusProviderError, Provider: cb.ProviderName}, nil
	}

	if err := o.validate.Struct(cb); err != nil {
		o.log.Warn("callback failed validation", zap.String("provider", cb.ProviderName), zap.Error(err))
		return &Result{Status: StatusProviderError, Provider: cb.ProviderName}, nil
	}

	existing, err := o.repo.FindByLogin(ctx, cb.ProviderName, cb.ProviderKey)
	if err != nil {
		o.log.Error("failed to look up external login",
			zap.String("provider", cb.ProviderName), zap.Error(err))
		return &Result{Status: StatusProviderError, Provider: cb.ProviderName}, nil
	}
	if existing != nil {
		return o.signInExisting(ctx, cb, existing)
	}

	return o.createAccount(ctx, cb)
}

// signInExisting establishes a session for the account already holding the
// external login. Claims on the callback never override the stored account:
// the (provider, key) pair is the identity, not the claimed email.
func (o *Orchestrator) signInExisting(ctx context.Context, cb *Callback, u *domain.User) (*Result, error) {
	locked, err := o.lockout.IsLockedOut(ctx, u.ID)
	if err != nil {
		o.log.Error("lockout check failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	if locked {
		o.log.Warn("sign-in refused, account locked out",
			zap.String("user_id", u.ID), zap.String("provider", cb.ProviderName))
		return &Result{Status: StatusLockedOut, Provider: cb.ProviderName}, nil
	}

	token, err := o.sessions.SignIn(ctx, u.ID, cb.Persistent)
	if err != nil {
		o.log.Error("failed to establish session", zap.String("user_id", u.ID), zap.Error(err))
		if err := o.lockout.RecordFailure(ctx, u.ID); err != nil {
			o.log.Warn("failed to record sign-in failure", zap.String("user_id", u.ID), zap.Error(err))
		}
		return &Result{Status: StatusProviderError, Provider: cb.ProviderName}, nil
	}

	if err := o.lockout.Reset(ctx, u.ID); err != nil {
		o.log.Warn("failed to reset lockout counter", zap.String("user_id", u.ID), zap.Error(err))
	}

	o.audit.SignedIn(u.ID, cb.ProviderName)
	return &Result{
		Status:       StatusSignedIn,
		UserID:       u.ID,
		Provider:     cb.ProviderName,
		SessionToken: token,
	}, nil
}

// createAccount builds a candidate user from the callback claims and asks
// the repository to create it. The repository owns uniqueness: a duplicate
// email or duplicate external login comes back as a DuplicateError.
func (o *Orchestrator) createAccount(ctx context.Context, cb *Callback) (*Result, error) {
	candidate := &domain.User{
		UserName:       cb.Claims.Email,
		Email:          cb.Claims.Email,
		EmailConfirmed: false,
		GivenName:      cb.Claims.GivenName,
		Surname:        cb.Claims.Surname,
	}
	candidate.AddLogin(domain.ExternalLogin{
		ProviderName:        cb.ProviderName,
		ProviderKey:         cb.ProviderKey,
		ProviderDisplayName: cb.ProviderDisplayName,
	})

	id, err := o.repo.Create(ctx, candidate)
	if err != nil {
		var dup *apperrors.DuplicateError
		if errors.As(err, &dup) {
			o.audit.DuplicateRejected(cb.ProviderName, dup.Resource)
			return &Result{
				Status:            StatusRejected,
				Provider:          cb.ProviderName,
				AlreadyRegistered: true,
				Messages:          []string{dup.Message},
			}, nil
		}

		var validation *apperrors.ValidationError
		if errors.As(err, &validation) {
			return &Result{
				Status:   StatusRejected,
				Provider: cb.ProviderName,
				Messages: []string{validation.Message},
			}, nil
		}

		o.log.Error("failed to create account",
			zap.String("provider", cb.ProviderName), zap.Error(err))
		return &Result{Status: StatusProviderError, Provider: cb.ProviderName}, nil
	}

	token, err := o.sessions.SignIn(ctx, id, cb.Persistent)
	if err != nil {
		o.log.Error("account created but session failed", zap.String("user_id", id), zap.Error(err))
		return &Result{Status: StatusProviderError, Provider: cb.ProviderName}, nil
	}

	o.audit.AccountCreated(id, cb.ProviderName)
	return &Result{
		Status:       StatusCreated,
		UserID:       id,
		Provider:     cb.ProviderName,
		SessionToken: token,
	}, nil
}
