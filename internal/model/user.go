package model

import "time"

// User roles within a tenant
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleHR         = "hr"
	RoleViewer     = "viewer"
)

// Roles lists every assignable role
var Roles = []string{RoleOwner, RoleAdmin, RoleAccountant, RoleHR, RoleViewer}

// User belongs to exactly one tenant
type User struct {
	Base
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	PasswordHash string `json:"password_hash,omitempty"`
	Role         string `json:"role" validate:"required,oneof=owner admin accountant hr viewer"`
	Locale       string `json:"locale,omitempty"`
	IsActive     bool   `json:"is_active"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

// UserView is the user as returned to clients
type UserView struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Locale       string     `json:"locale,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsSuperAdmin bool       `json:"is_super_admin"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// Public strips the password hash
func (u User) Public() UserView {
	return UserView{
		ID:           u.ID,
		TenantID:     u.TenantID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Locale:       u.Locale,
		IsActive:     u.IsActive,
		IsSuperAdmin: u.IsSuperAdmin,
		CreatedAt:    u.CreatedAt,
	}
}

// PublicUsers strips the password hash from every user
func PublicUsers(users []User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.Public())
	}
	return views
}
