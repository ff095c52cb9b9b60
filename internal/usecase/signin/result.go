package signin

// Status is the terminal state of one external-login callback.
type Status int

const (
	// StatusSignedIn means the external login matched an existing account
	// and a session was issued for it.
	StatusSignedIn Status = iota

	// StatusCreated means no account held the login, a new account was
	// created from the callback claims, and a session was issued for it.
	StatusCreated

	// StatusRejected means the candidate account collided with an existing
	// one and nothing was created or signed in.
	StatusRejected

	// StatusLockedOut means the matched account has exceeded the
	// failed-attempt policy and sign-in is refused without touching it.
	StatusLockedOut

	// StatusProviderError means the provider reported a failure or the
	// store failed; the attempt is over and the user retries from scratch.
	StatusProviderError

	// StatusSignInRequired means the callback carried no usable state
	// (lost session) and the user should be re-prompted to sign in.
	StatusSignInRequired
)

// String returns the status name for logging.
func (s Status) String() string {
	switch s {
	case StatusSignedIn:
		return "signed_in"
	case StatusCreated:
		return "created"
	case StatusRejected:
		return "rejected"
	case StatusLockedOut:
		return "locked_out"
	case StatusProviderError:
		return "provider_error"
	case StatusSignInRequired:
		return "sign_in_required"
	default:
		return "unknown"
	}
}

// Result is the outcome of handling one provider callback. Exactly one
// status is set; the remaining fields are populated per status.
type Result struct {
	Status   Status
	UserID   string // set for SignedIn and Created
	Provider string // provider name the callback came through

	// SessionToken is the signed session token for the user, set for
	// SignedIn and Created. The HTTP layer turns it into a cookie.
	SessionToken string

	// AlreadyRegistered distinguishes a duplicate-account rejection from
	// other validation failures so the caller can point the user at
	// account recovery instead of a generic retry. Only meaningful for
	// StatusRejected.
	AlreadyRegistered bool

	// Messages holds the user-visible validation messages for
	// StatusRejected.
	Messages []string
}
