package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tmakar/coscribe/internal/domain"
	"github.com/tmakar/coscribe/internal/token"
)

// ErrAuthRejected covers every authentication failure: missing or bad
// credential, unknown subject, disabled account, collaborator errors.
// The caller sends a single auth-error event and closes the connection.
var ErrAuthRejected = errors.New("authentication rejected")

// UserStore resolves accounts. A nil user with nil error means "not
// found"; errors are reserved for lookup failures.
type UserStore interface {
	UserByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TokenVerifier checks signature and expiry of the access credential.
type TokenVerifier interface {
	Verify(raw string) (token.Claims, error)
}

// RevocationStore answers whether a token id has been killed since it
// was issued (logout-everywhere, admin kill switch).
type RevocationStore interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthConfig struct {
	Disabled         bool
	SystemUsername   string
	FallbackUsername string
	CookieName       string
}

// Authenticator resolves an inbound connection to an identity or
// rejects it. It fails closed: any error from a collaborator is a
// rejection, never a crash.
type Authenticator struct {
	Cfg     AuthConfig
	Tokens  TokenVerifier
	Users   UserStore
	Revoked RevocationStore // optional; nil skips the revocation check
}

func NewAuthenticator(cfg AuthConfig, tokens TokenVerifier, users UserStore, revoked RevocationStore) *Authenticator {
	if cfg.CookieName == "" {
		cfg.CookieName = "access_token"
	}
	return &Authenticator{Cfg: cfg, Tokens: tokens, Users: users, Revoked: revoked}
}

// Authenticate inspects the handshake request and returns the identity
// this connection will hold for its lifetime.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (domain.Identity, error) {
	if a.Cfg.Disabled {
		return a.systemIdentity(ctx)
	}

	cookie, err := r.Cookie(a.Cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return domain.Identity{}, ErrAuthRejected
	}

	claims, err := a.Tokens.Verify(cookie.Value)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.auth").Msg("token verification failed")
		return domain.Identity{}, ErrAuthRejected
	}

	if a.Revoked != nil && claims.JTI != "" {
		revoked, err := a.Revoked.IsRevoked(ctx, claims.JTI)
		if err != nil {
			log.Error().Err(err).Str("module", "app.auth").Msg("revocation lookup failed, rejecting")
			return domain.Identity{}, ErrAuthRejected
		}
		if revoked {
			return domain.Identity{}, ErrAuthRejected
		}
	}

	user, err := a.Users.UserByID(ctx, domain.UserID(claims.Subject))
	if err != nil {
		log.Error().Err(err).Str("module", "app.auth").Str("sub", claims.Subject).Msg("user lookup failed, rejecting")
		return domain.Identity{}, ErrAuthRejected
	}
	if user == nil || user.Disabled {
		return domain.Identity{}, ErrAuthRejected
	}
	return user.Identity(), nil
}

// systemIdentity resolves the configured system account when global
// authentication is turned off, falling back to the secondary default.
func (a *Authenticator) systemIdentity(ctx context.Context) (domain.Identity, error) {
	for _, name := range []string{a.Cfg.SystemUsername, a.Cfg.FallbackUsername} {
		if name == "" {
			continue
		}
		user, err := a.Users.UserByUsername(ctx, name)
		if err != nil {
			log.Error().Err(err).Str("module", "app.auth").Str("username", name).Msg("system user lookup failed")
			continue
		}
		if user != nil && !user.Disabled {
			return user.Identity(), nil
		}
	}
	return domain.Identity{}, ErrAuthRejected
}
