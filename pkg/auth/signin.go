package auth

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"spotplacement/pkg/known"
)

const (
	stateTTL     = 10 * time.Minute
	sessionIdle  = 12 * time.Hour
	offlineScope = "offline_access"
)

// Config describes the Entra ID app registration used to sign users in.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// Endpoint overrides the Microsoft identity platform endpoint.
	Endpoint *oauth2.Endpoint
}

// Authenticator runs the OAuth2 authorization code flow and caches the
// delegated ARM token per browser session.
type Authenticator struct {
	lock     sync.Mutex
	conf     oauth2.Config
	states   map[string]time.Time
	sessions *SessionStore
	now      func() time.Time
}

func NewAuthenticator(c Config) *Authenticator {
	endpoint := microsoft.AzureADEndpoint(c.TenantID)
	if c.Endpoint != nil {
		endpoint = *c.Endpoint
	}
	return &Authenticator{
		conf: oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{known.ARMScope, offlineScope},
		},
		states:   make(map[string]time.Time),
		sessions: NewSessionStore(sessionIdle),
		now:      time.Now,
	}
}

// Sessions exposes the token cache.
func (a *Authenticator) Sessions() *SessionStore {
	return a.sessions
}

// NewState issues a single use state value for one sign-in round trip.
func (a *Authenticator) NewState() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	now := a.now()
	for s, expires := range a.states {
		if now.After(expires) {
			delete(a.states, s)
		}
	}
	state := uuid.NewString()
	a.states[state] = now.Add(stateTTL)
	return state
}

// ValidateState consumes state; false when unknown or expired.
func (a *Authenticator) ValidateState(state string) bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	expires, ok := a.states[state]
	if !ok {
		return false
	}
	delete(a.states, state)
	return !a.now().After(expires)
}

// AuthCodeURL is where the browser is sent to sign in. redirectURI must match
// the one later passed to Exchange.
func (a *Authenticator) AuthCodeURL(state, redirectURI string) string {
	return a.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
}

// Exchange trades the callback code for a token and opens a session.
func (a *Authenticator) Exchange(ctx context.Context, code, redirectURI string) (string, error) {
	tok, err := a.conf.Exchange(ctx, code, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	if err != nil {
		return "", errors.Wrap(err, "exchange authorization code")
	}
	id := a.sessions.Create(tok)
	hlog.CtxInfof(ctx, "signed in, %d active sessions", a.sessions.Len())
	return id, nil
}

func (a *Authenticator) SignOut(sessionID string) {
	a.sessions.Delete(sessionID)
}

// SessionProvider returns the token provider of one browser session.
func (a *Authenticator) SessionProvider(sessionID string) TokenProvider {
	return &sessionProvider{auth: a, id: sessionID}
}

type sessionProvider struct {
	auth *Authenticator
	id   string
}

func (p *sessionProvider) AccessToken(ctx context.Context, scopes ...string) (string, error) {
	a := p.auth
	for _, scope := range scopes {
		if !contains(a.conf.Scopes, scope) {
			return "", errors.Wrapf(ErrConsentRequired, "scope %s not granted", scope)
		}
	}
	if p.id == "" {
		return "", ErrConsentRequired
	}
	tok, ok := a.sessions.Get(p.id)
	if !ok {
		return "", ErrConsentRequired
	}

	fresh, err := a.conf.TokenSource(ctx, tok).Token()
	if err != nil {
		hlog.CtxWarnf(ctx, "token refresh failed, sign-in required: %v", err)
		a.sessions.Delete(p.id)
		return "", errors.Wrapf(ErrConsentRequired, "refresh token: %v", err)
	}
	if fresh.AccessToken != tok.AccessToken {
		a.sessions.Put(p.id, fresh)
	}
	return fresh.AccessToken, nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
