package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
)

// Role is the closed set of account roles. It is a login-time gate,
// not a privilege hierarchy.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// RequestedRole maps the role named at login to a gate: "admin" selects
// RoleAdmin, anything else RoleUser.
func RequestedRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Role         Role
	Mobile       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount builds an Account, rejecting an empty email or an unknown role.
func NewAccount(name, email, mobile string, role Role, passwordHash []byte) (*Account, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", common.ErrValidation)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, common.ErrValidation)
	}
	return &Account{
		Name:         name,
		Email:        email,
		Mobile:       mobile,
		Role:         role,
		PasswordHash: passwordHash,
	}, nil
}

// HasPassword reports whether a password was ever set. Accounts created by
// federated login have none until a reset.
func (a *Account) HasPassword() bool {
	return len(a.PasswordHash) > 0
}

// AccountView is the externally visible shape of an Account; it never carries the hash.
type AccountView struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Mobile    string    `json:"mobile,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

func (a *Account) View() AccountView {
	return AccountView{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		Mobile:    a.Mobile,
		CreatedAt: a.CreatedAt,
	}
}
