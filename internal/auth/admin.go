package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnauthorized       = errors.New("admin authentication required")
	ErrInvalidCredentials = errors.New("invalid password")
)

// Admin is the explicit authentication context handed to admin operations.
// The zero value is an anonymous caller.
type Admin struct {
	Authenticated bool
	Subject       string
	ExpiresAt     time.Time
}

// Anonymous is the unauthenticated caller.
var Anonymous = Admin{}

// Require returns ErrUnauthorized unless a is an authenticated admin.
func (a Admin) Require() error {
	if !a.Authenticated {
		return ErrUnauthorized
	}
	return nil
}

// Authenticator turns a password into a session token and a token back into
// an Admin.
type Authenticator struct {
	verifier PasswordVerifier
	jwt      *JWTManager
}

func NewAuthenticator(verifier PasswordVerifier, jwt *JWTManager) *Authenticator {
	return &Authenticator{verifier: verifier, jwt: jwt}
}

func (a *Authenticator) Login(_ context.Context, password string) (string, Admin, error) {
	if password == "" || !a.verifier.Verify(password) {
		return "", Anonymous, ErrInvalidCredentials
	}
	token, exp, err := a.jwt.Generate()
	if err != nil {
		return "", Anonymous, err
	}
	return token, Admin{Authenticated: true, Subject: adminSubject, ExpiresAt: exp}, nil
}

// CheckPassword reports whether candidate is the admin password without
// issuing a session.
func (a *Authenticator) CheckPassword(candidate string) bool {
	return candidate != "" && a.verifier.Verify(candidate)
}

// Session resolves a session token. Invalid or expired tokens yield Anonymous.
func (a *Authenticator) Session(token string) Admin {
	if token == "" {
		return Anonymous
	}
	claims, err := a.jwt.Verify(token)
	if err != nil {
		return Anonymous
	}
	admin := Admin{Authenticated: true, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		admin.ExpiresAt = claims.ExpiresAt.Time
	}
	return admin
}

func (a *Authenticator) SessionTTL() time.Duration { return a.jwt.TTL() }

type ctxKey struct{}

func WithAdmin(ctx context.Context, a Admin) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// AdminFrom returns the Admin stored in ctx, or Anonymous.
func AdminFrom(ctx context.Context) Admin {
	if a, ok := ctx.Value(ctxKey{}).(Admin); ok {
		return a
	}
	return Anonymous
}
