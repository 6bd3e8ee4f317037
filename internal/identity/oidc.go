package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
)

var (
	ErrIdpNotFound       = errors.New("identity provider not found")
	ErrIdpDisabled       = errors.New("identity provider is not enabled")
	ErrLoginStateExpired = errors.New("login state expired or unknown")
)

// LoginState is the server-side half of an in-flight OIDC authorization
// request, keyed by its own ID and held in Redis between the redirect and
// the provider's callback.
type LoginState struct {
	ID           string
	IdpName      string
	Nonce        string
	CodeVerifier string
	UserID       uuid.UUID
}

// StateStore persists LoginState for the lifetime of an authorization
// request.
type StateStore interface {
	Put(ctx context.Context, state LoginState, ttl time.Duration) error
	Take(ctx context.Context, id string) (LoginState, error)
}

// Redirector builds authorization-code redirects for the configured
// identity providers and resolves the callback state, mirroring the
// teacher's OAuthManager/baseProvider split between provider lookup and
// per-request state.
type Redirector struct {
	repo  Repository
	store StateStore
	ttl   time.Duration
}

// NewRedirector builds a Redirector backed by repo and store, with login
// states held for ttl.
func NewRedirector(repo Repository, store StateStore, ttl time.Duration) *Redirector {
	return &Redirector{repo: repo, store: store, ttl: ttl}
}

// BeginLogin looks up an enabled idp by name, mints a nonce and PKCE code
// verifier, stores the resulting LoginState, and returns the authorization
// URL the caller should redirect to.
func (r *Redirector) BeginLogin(ctx context.Context, idpName, redirectURI string) (authzURL string, stateID string, err error) {
	idp, err := r.repo.IdpByName(ctx, idpName)
	if err != nil {
		return "", "", ErrIdpNotFound
	}
	if !idp.Enabled {
		return "", "", ErrIdpDisabled
	}

	nonce, err := randomToken(32)
	if err != nil {
		return "", "", err
	}
	verifier, err := randomToken(32)
	if err != nil {
		return "", "", err
	}

	id := uuid.Must(uuid.NewV7()).String()
	state := LoginState{ID: id, IdpName: idpName, Nonce: nonce, CodeVerifier: verifier}

	if err := r.store.Put(ctx, state, r.ttl); err != nil {
		return "", "", err
	}

	params := url.Values{}
	params.Set("client_id", idp.ClientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")
	params.Set("state", id)
	params.Set("nonce", nonce)
	params.Set("code_challenge", codeChallenge(verifier))
	params.Set("code_challenge_method", "S256")

	return idp.OIDCConfigURL + "/authorize?" + params.Encode(), id, nil
}

// ResolveCallback consumes the LoginState for id, failing if it is unknown
// or has expired. The returned state carries the nonce and code verifier
// needed to complete the token exchange.
func (r *Redirector) ResolveCallback(ctx context.Context, id string) (LoginState, error) {
	state, err := r.store.Take(ctx, id)
	if err != nil {
		return LoginState{}, ErrLoginStateExpired
	}
	return state, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func codeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
