// Package auth defines the pluggable credential-provider abstraction.
// Historically a plaintext credential literal sat inline next to the
// login logic as a fallback; here the bootstrap credential is an explicit
// provider variant configured from the environment, chained in front of
// the persisted user store and never mixed into business logic.
package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-guest-registration/internal/model"
	"github.com/iliyamo/event-guest-registration/internal/repository"
	"github.com/iliyamo/event-guest-registration/internal/utils"
)

// ErrInvalidCredentials is returned when no provider accepts the
// email/password pair. Handlers translate it into 401 without revealing
// which part was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity is the authenticated principal a provider resolves a valid
// credential pair into.
type Identity struct {
	UserID uint64 // zero for identities not backed by a users row
	Email  string
	Role   string
}

// CredentialProvider verifies an email/password pair. Implementations
// return ErrInvalidCredentials when the pair is not theirs to accept;
// any other error is infrastructure failure.
type CredentialProvider interface {
	Verify(ctx context.Context, email, password string) (*Identity, error)
}

// StaticProvider accepts exactly one bootstrap credential pair seeded
// from the environment. It exists so a fresh deployment (or a demo) can
// log in before any user row exists. With an empty seed it accepts
// nothing.
type StaticProvider struct {
	Email    string
	Password string
}

// Verify compares against the seeded pair. The seeded identity is always
// an admin.
func (p *StaticProvider) Verify(_ context.Context, email, password string) (*Identity, error) {
	if p.Email == "" || p.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if email != p.Email || password != p.Password {
		return nil, ErrInvalidCredentials
	}
	return &Identity{Email: email, Role: model.RoleAdmin}, nil
}

// StoreProvider verifies credentials against the persisted users table
// with bcrypt comparison. This is the production path.
type StoreProvider struct {
	Users *repository.UserRepo
}

// Verify looks the user up by email and compares the password hash.
// Inactive accounts are rejected the same way as wrong passwords.
func (p *StoreProvider) Verify(ctx context.Context, email, password string) (*Identity, error) {
	u, err := p.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &Identity{UserID: u.ID, Email: u.Email, Role: u.Role}, nil
}

// Chain tries each provider in order and returns the first accepting
// identity. Infrastructure errors abort the chain immediately;
// ErrInvalidCredentials moves on to the next provider.
type Chain []CredentialProvider

func (c Chain) Verify(ctx context.Context, email, password string) (*Identity, error) {
	for _, p := range c {
		id, err := p.Verify(ctx, email, password)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
	}
	return nil, ErrInvalidCredentials
}
