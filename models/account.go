package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// Account is a login identity. PasswordHash holds a bcrypt hash, or the raw
// password for records written before hashing was introduced.
type Account struct {
	ID           string        `json:"id" db:"id"`
	Username     string        `json:"username" db:"username"`
	Email        string        `json:"email" db:"email"`
	PasswordHash string        `json:"passwordHash,omitempty" db:"password_hash"`
	Role         Role          `json:"role" db:"role"`
	Status       AccountStatus `json:"status" db:"status"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
}

func (a Account) RecordID() string { return a.ID }

func (a Account) FieldValue(field string) (string, bool) {
	switch field {
	case "id":
		return a.ID, true
	case "username":
		return a.Username, true
	case "email":
		return a.Email, true
	case "role":
		return string(a.Role), true
	case "status":
		return string(a.Status), true
	}
	return "", false
}

// Public returns a copy safe to hand to clients.
func (a Account) Public() Account {
	a.PasswordHash = ""
	return a
}

type CreateAccountRequest struct {
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	Password        string        `json:"password"`
	ConfirmPassword string        `json:"confirmPassword"`
	Role            Role          `json:"role"`
	Status          AccountStatus `json:"status"`
}

// UpdateAccountRequest carries only the fields being changed. A nil or empty
// Password leaves the stored hash untouched.
type UpdateAccountRequest struct {
	Username        *string        `json:"username"`
	Email           *string        `json:"email"`
	Password        *string        `json:"password"`
	ConfirmPassword *string        `json:"confirmPassword"`
	Role            *Role          `json:"role"`
	Status          *AccountStatus `json:"status"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Account   Account   `json:"account"`
}

type AccountQuery struct {
	Search  string        `form:"search"`
	Role    Role          `form:"role"`
	Status  AccountStatus `form:"status"`
	Page    int           `form:"page"`
	PerPage int           `form:"per_page"`
}

type AccountsResponse struct {
	Accounts   []Account `json:"accounts"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"perPage"`
	TotalPages int       `json:"totalPages"`
}
