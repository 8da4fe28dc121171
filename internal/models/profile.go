package models

import "time"

// Profile is the application's own record about an identity. Its ID always equals the identity UID.
type Profile struct {
	ID           string     `json:"id"`
	UID          string     `json:"uid"`
	Email        string     `json:"email"`
	FullName     string     `json:"fullName"`
	Phone        string     `json:"phone"`
	Address      string     `json:"address"`
	ProfileImage string     `json:"profileImage"`
	IsAdmin      bool       `json:"isAdmin"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// ProfileUpdate carries the user-editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	FullName     *string `json:"fullName" validate:"omitempty,max=200"`
	Phone        *string `json:"phone" validate:"omitempty,max=40"`
	Address      *string `json:"address" validate:"omitempty,max=500"`
	ProfileImage *string `json:"profileImage" validate:"omitempty,max=2048"`
}

// Empty reports whether the update touches no field.
func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.Phone == nil && u.Address == nil && u.ProfileImage == nil
}

// UserSummary is the minimal user projection returned by the auth endpoints.
type UserSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// AuthResult is the payload of every successful register/login call.
type AuthResult struct {
	User  UserSummary `json:"user"`
	Token string      `json:"token"`
}
