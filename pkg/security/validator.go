package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// MaxReturnURLLength defines the maximum allowed length for return URLs
	MaxReturnURLLength = 2048

	// MaxFavoriteLineLength defines the maximum allowed length for a line id
	MaxFavoriteLineLength = 32

	// accessTokenBytes is the entropy of a generated API access token
	accessTokenBytes = 32
)

// favoriteLinePattern matches the ids transit lines are published under:
// lowercase words joined by hyphens, e.g. "victoria" or "hammersmith-city".
var favoriteLinePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// IsLocalReturnURL reports whether a post-sign-in return URL stays on this
// site. Anything absolute, scheme-relative or otherwise escaping the site
// must be discarded in favour of the site root to prevent open redirects.
func IsLocalReturnURL(returnURL string) bool {
	if returnURL == "" || len(returnURL) > MaxReturnURLLength {
		return false
	}

	// "//evil.example" parses as a scheme-relative absolute URL.
	if !strings.HasPrefix(returnURL, "/") || strings.HasPrefix(returnURL, "//") || strings.HasPrefix(returnURL, "/\\") {
		return false
	}

	u, err := url.Parse(returnURL)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && !strings.ContainsAny(returnURL, "\r\n")
}

// SafeReturnURL returns the given return URL if it is local, or fallback.
func SafeReturnURL(returnURL, fallback string) string {
	if IsLocalReturnURL(returnURL) {
		return returnURL
	}
	return fallback
}

// ValidateFavoriteLines validates a set of favourite line ids. It returns
// the trimmed, de-duplicated set or an error naming the first bad id.
func ValidateFavoriteLines(lines []string) ([]string, error) {
	seen := make(map[string]struct{}, len(lines))
	valid := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > MaxFavoriteLineLength || !favoriteLinePattern.MatchString(line) {
			return nil, &InvalidLineError{Line: line}
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		valid = append(valid, line)
	}
	return valid, nil
}

// InvalidLineError names a rejected favourite line id.
type InvalidLineError struct {
	Line string
}

// Error implements the error interface
func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("invalid line id %q", e.Line)
}

// GenerateAccessToken creates a new URL-safe random API access token.
func GenerateAccessToken() (string, error) {
	buf := make([]byte, accessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
