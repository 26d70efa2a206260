package auth

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// ErrConsentRequired means the user has to sign in (again) before a token
// can be issued. Callers pass it up unchanged so the page can redirect.
var ErrConsentRequired = errors.New("user consent required")

// TokenProvider hands out bearer tokens for Azure Resource Manager.
type TokenProvider interface {
	AccessToken(ctx context.Context, scopes ...string) (string, error)
}

type staticProvider struct {
	src oauth2.TokenSource
}

// NewStaticProvider wraps an already issued token, used by the command line.
func NewStaticProvider(token string) TokenProvider {
	return &staticProvider{src: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})}
}

// ProviderFromEnv reads the token from the environment variable key.
func ProviderFromEnv(key string) (TokenProvider, error) {
	token, ok := os.LookupEnv(key)
	if !ok || token == "" {
		return nil, errors.Errorf("env: %s not exist", key)
	}
	return NewStaticProvider(token), nil
}

func (p *staticProvider) AccessToken(_ context.Context, _ ...string) (string, error) {
	tok, err := p.src.Token()
	if err != nil {
		return "", errors.Wrap(err, "static token")
	}
	if tok.AccessToken == "" {
		return "", ErrConsentRequired
	}
	return tok.AccessToken, nil
}
