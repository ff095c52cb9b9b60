// Package audit emits one-line structured events for account activity. The
// events ride the service's zap pipeline on a dedicated logger name so they
// can be routed to a separate sink without touching call sites.
package audit

import "go.uber.org/zap"

// Recorder writes structured audit events.
type Recorder struct {
	log *zap.Logger
}

// NewRecorder creates an audit recorder on top of the service logger.
func NewRecorder(log *zap.Logger) *Recorder {
	return &Recorder{log: log.Named("audit")}
}

// SignedIn records a successful sign-in through an external provider.
func (r *Recorder) SignedIn(userID, provider string) {
	r.log.Info("user signed in",
		zap.String("event", "account.signed_in"),
		zap.String("user_id", userID),
		zap.String("provider", provider),
	)
}

// AccountCreated records a new account created through an external provider.
func (r *Recorder) AccountCreated(userID, provider string) {
	r.log.Info("new account created",
		zap.String("event", "account.created"),
		zap.String("user_id", userID),
		zap.String("provider", provider),
	)
}

// DuplicateRejected records a sign-in attempt rejected because the candidate
// collided with an existing account. The user id is unknown at this point.
func (r *Recorder) DuplicateRejected(provider, reason string) {
	r.log.Warn("duplicate account rejected",
		zap.String("event", "account.duplicate_rejected"),
		zap.String("provider", provider),
		zap.String("reason", reason),
	)
}

// SignedOut records an explicit sign-out.
func (r *Recorder) SignedOut(userID string) {
	r.log.Info("user signed out",
		zap.String("event", "account.signed_out"),
		zap.String("user_id", userID),
	)
}

// AccountDeleted records an account deletion.
func (r *Recorder) AccountDeleted(userID string) {
	r.log.Info("account deleted",
		zap.String("event", "account.deleted"),
		zap.String("user_id", userID),
	)
}
