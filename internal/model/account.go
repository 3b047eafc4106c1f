package model

import "time"

// Role enumerates the account groups recognised by the catalog.
// Roles form a strict hierarchy: ADMIN outranks MODERATOR which
// outranks USER.  Authorization checks compare levels rather than
// matching names so a single "minimum role" rule covers a route.
type Role string

const (
    RoleUser      Role = "USER"      // regular customer
    RoleModerator Role = "MODERATOR" // may manage the movie catalog
    RoleAdmin     Role = "ADMIN"     // full access
)

// level maps each role to its rank in the hierarchy.  Unknown roles
// rank below USER so a forged or missing role never passes a check.
func (r Role) level() int {
    switch r {
    case RoleAdmin:
        return 3
    case RoleModerator:
        return 2
    case RoleUser:
        return 1
    }
    return 0
}

// AtLeast reports whether r satisfies the required minimum role.
func (r Role) AtLeast(min Role) bool { return r.level() >= min.level() }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r.level() > 0 }

// AccountStatus tracks where an account sits in its activation
// lifecycle.  Accounts are created PENDING, become ACTIVE once the
// activation token is used, and are soft-disabled instead of being
// deleted so purchases and comments keep a valid owner.
type AccountStatus string

const (
    StatusPending  AccountStatus = "PENDING"
    StatusActive   AccountStatus = "ACTIVE"
    StatusDisabled AccountStatus = "DISABLED"
)

// Account mirrors the `users` table.  The password hash is a bcrypt
// digest; the raw password is never stored or logged.
//
// Fields:
//  ID           – primary key identifier of the account.
//  Email        – unique, lowercased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – account group (USER, MODERATOR, ADMIN).
//  Status       – activation state (PENDING, ACTIVE, DISABLED).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Account struct {
    ID           uint64        // users.id
    Email        string        // users.email
    PasswordHash string        // users.password_hash
    Role         Role          // users.role
    Status       AccountStatus // users.status
    CreatedAt    time.Time     // users.created_at
    UpdatedAt    time.Time     // users.updated_at
}
