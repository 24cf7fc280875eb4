package model

import "time"

// User roles. ADMIN may run maintenance operations; STAFF may check
// companions in at the door.
const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

// User represents an application user record as stored in the `users`
// table. Handlers define separate response types with their own JSON
// shape; the json tags here exist only for the export/import snapshot.
type User struct {
	ID           uint64    `json:"id"`            // users.id
	Email        string    `json:"email"`         // users.email
	PasswordHash string    `json:"password_hash"` // users.password_hash
	Role         string    `json:"role"`          // users.role
	IsActive     bool      `json:"is_active"`     // users.is_active
	CreatedAt    time.Time `json:"created_at"`    // users.created_at
	UpdatedAt    time.Time `json:"updated_at"`    // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. The plain
// token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
