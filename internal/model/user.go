package model

import "time"

// Roles recognised by the authorization gate.
const (
    RoleAdmin = "admin"
    RoleUser  = "user"
)

// User represents an account as stored in the `users` collection/table.
// The password hash and the refresh-token slot never leave the server;
// their json tags are "-" so handlers can encode a User directly.
//
// Fields:
//  ID               – string identifier (client supplied or UUIDv4).
//  FullName         – display name.
//  Email            – unique, lower-cased login name.
//  PasswordHash     – bcrypt hash of the password.
//  Role             – RoleAdmin or RoleUser.
//  RefreshTokenHash – SHA-256 hex of the single live refresh token; empty after logout.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last modification timestamp.
type User struct {
    ID               string    `json:"_id" bson:"_id"`
    FullName         string    `json:"fullName" bson:"fullName"`
    Email            string    `json:"email" bson:"email"`
    PasswordHash     string    `json:"-" bson:"password"`
    Role             string    `json:"role" bson:"role"`
    RefreshTokenHash string    `json:"-" bson:"refreshToken"`
    CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
    UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool { return r == RoleAdmin || r == RoleUser }
