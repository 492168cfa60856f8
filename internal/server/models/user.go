package models

import "time"

// MaxPasswordBytes bounds the plaintext accepted for hashing.
const MaxPasswordBytes = 1024

// User is a stored account. PasswordHash never leaves the process; use
// Filtered for anything that is serialised.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ApplicationID string    `json:"-"`
}

// FilteredUser is the public projection of User.
type FilteredUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) Filtered() FilteredUser {
	return FilteredUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

// NewUser is the payload of POST /api/auth/users/{app_id}.
type NewUser struct {
	Username string `json:"username" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

func (n NewUser) Validate() error {
	if err := validateStruct(n); err != nil {
		return err
	}
	return validatePasswordLen(n.Password)
}

// LoginRequest is the payload of the login endpoints. ApplicationID scopes
// the username lookup to one tenant when set.
type LoginRequest struct {
	ApplicationID string `json:"application_id,omitempty" validate:"omitempty,uuid"`
	Username      string `json:"username" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

func (l LoginRequest) Validate() error {
	if err := validateStruct(l); err != nil {
		return err
	}
	return validatePasswordLen(l.Password)
}
