// Package provider holds the pluggable external identity providers. A
// provider is identified by an opaque name; the service never assumes a
// fixed provider list. Each provider turns an OAuth authorization code into
// the (provider key, claims) pair the sign-in orchestrator consumes.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/oauth2"
)

// Claims are the profile attributes an authenticated principal carries back
// from a provider. All fields are optional; absent claims are empty.
type Claims struct {
	Email     string
	GivenName string
	Surname   string
}

// Provider converts an OAuth redirect round-trip into an external identity.
type Provider interface {
	// Name is the opaque provider identifier, e.g. "amazon".
	Name() string

	// DisplayName is the human-readable provider name for audit and display.
	DisplayName() string

	// AuthCodeURL builds the provider's authorization URL for the challenge
	// redirect, carrying the anti-forgery state value.
	AuthCodeURL(state string) string

	// Exchange redeems an authorization code and fetches the principal's
	// profile, returning the provider key (the user's stable identifier at
	// the provider) and the claims.
	Exchange(ctx context.Context, code string) (string, *Claims, error)
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry over the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider registered under name, or nil.
func (r *Registry) Get(name string) Provider {
	return r.providers[name]
}

// Names returns the registered provider names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// oauthProvider is the shared x/oauth2 implementation behind the concrete
// providers. parseProfile maps the provider's userinfo payload onto the
// provider key and claims.
type oauthProvider struct {
	name         string
	displayName  string
	config       *oauth2.Config
	profileURL   string
	parseProfile func([]byte) (string, *Claims, error)
	client       *http.Client
}

func (p *oauthProvider) Name() string {
	return p.name
}

func (p *oauthProvider) DisplayName() string {
	return p.displayName
}

func (p *oauthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *oauthProvider) Exchange(ctx context.Context, code string) (string, *Claims, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("%s code exchange failed: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build %s profile request: %w", p.name, err)
	}
	token.SetAuthHeader(req)

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%s profile request failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("%s profile request returned status %d", p.name, resp.StatusCode)
	}

	var body []byte
	body, err = readAll(resp)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s profile response: %w", p.name, err)
	}

	return p.parseProfile(body)
}

func (p *oauthProvider) httpClient() *http.Client {
	if p.client != nil {
		return p.client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// readAll decodes the response body into raw bytes via json.RawMessage so a
// truncated or non-JSON body fails loudly instead of yielding empty claims.
func readAll(resp *http.Response) ([]byte, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}
