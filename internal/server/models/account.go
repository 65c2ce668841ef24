// Package models defines server-side data models persisted in the database.
package models

import "time"

// Role names known to the authorization gate.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuest = "guest"
)

// DefaultRole is assigned to every newly registered account.
const DefaultRole = RoleUser

// KnownRoles lists every role an account may carry.
var KnownRoles = []string{RoleAdmin, RoleUser, RoleGuest}

// IsKnownRole reports whether role is one of KnownRoles.
func IsKnownRole(role string) bool {
	for _, r := range KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Account is the identity record behind authentication and authorization.
//
// ID is assigned from the users key sequence on insert and is never taken
// from a client. Username and Email are each unique.
type Account struct {
	ID           int64
	SSOSubject   string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	Gender       string
	DateOfBirth  time.Time
	Active       bool
	LastLogin    time.Time
	Roles        []string
}

// Key returns the surrogate key (0 when not assigned yet).
func (a *Account) Key() int64 { return a.ID }

// SetKey assigns the surrogate key.
func (a *Account) SetKey(id int64) { a.ID = id }

// PrimaryRole is the first role of the role set, or "" for none.
func (a *Account) PrimaryRole() string {
	if len(a.Roles) == 0 {
		return ""
	}
	return a.Roles[0]
}
