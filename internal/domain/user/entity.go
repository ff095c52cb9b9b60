package user

import (
	"strings"
	"time"
)

// ExternalLogin identifies a user's identity at a third-party OAuth provider.
// A (ProviderName, ProviderKey) pair is unique across the entire user
// population: no two users may hold the same external login. Once stored the
// value is immutable.
type ExternalLogin struct {
	ProviderName        string `json:"loginProvider"`                 // provider identifier, e.g. "amazon"
	ProviderKey         string `json:"providerKey"`                   // the user's opaque key at the provider
	ProviderDisplayName string `json:"providerDisplayName,omitempty"` // human-readable provider name for display
}

// User is the persisted account aggregate. It is stored as-is in the document
// store; ETag carries the optimistic concurrency token assigned by the store
// on every successful write.
type User struct {
	ID                  string          `json:"id"`
	UserName            string          `json:"userName"`
	NormalizedUserName  string          `json:"userNameNormalized"`
	Email               string          `json:"email"`
	NormalizedEmail     string          `json:"emailNormalized"`
	EmailConfirmed      bool            `json:"emailConfirmed"`
	GivenName           string          `json:"givenName,omitempty"`
	Surname             string          `json:"surname,omitempty"`
	Logins              []ExternalLogin `json:"logins"`
	FavoriteLines       []string        `json:"favoriteLines"`
	ExternalAccessToken string          `json:"externalAccessToken,omitempty"`
	ETag                string          `json:"_etag,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// Normalize converts a user name or email address to its canonical form for
// case-insensitive lookups.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize recomputes the normalized lookup fields from UserName and Email.
// It must be called on every write path that changes either field.
func (u *User) Normalize() {
	u.NormalizedUserName = Normalize(u.UserName)
	u.NormalizedEmail = Normalize(u.Email)
}

// HasLogin reports whether the user already holds the given external login.
func (u *User) HasLogin(providerName, providerKey string) bool {
	for _, l := range u.Logins {
		if l.ProviderName == providerName && l.ProviderKey == providerKey {
			return true
		}
	}
	return false
}

// AddLogin appends an external login to the user's login set. It is a no-op
// if the user already holds the login.
func (u *User) AddLogin(login ExternalLogin) {
	if u.HasLogin(login.ProviderName, login.ProviderKey) {
		return
	}
	u.Logins = append(u.Logins, login)
}

// RemoveLogin removes an external login from the user's login set and reports
// whether it was present.
func (u *User) RemoveLogin(providerName, providerKey string) bool {
	for i, l := range u.Logins {
		if l.ProviderName == providerName && l.ProviderKey == providerKey {
			u.Logins = append(u.Logins[:i], u.Logins[i+1:]...)
			return true
		}
	}
	return false
}

// DocumentID returns the document identifier for storage.
func (u *User) DocumentID() string {
	return u.ID
}

// SetDocumentID assigns the document identifier on creation.
func (u *User) SetDocumentID(id string) {
	u.ID = id
}

// ConcurrencyToken returns the opaque version stamp of the last read.
func (u *User) ConcurrencyToken() string {
	return u.ETag
}

// SetConcurrencyToken assigns a fresh version stamp after a successful write.
func (u *User) SetConcurrencyToken(etag string) {
	u.ETag = etag
}
