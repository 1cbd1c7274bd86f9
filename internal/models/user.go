package models

import "time"

type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleStaff    UserRole = "staff"
	UserRoleAdmin    UserRole = "admin"
)

// StaffRoles are the roles allowed to join any project room on demand.
var StaffRoles = []UserRole{UserRoleStaff, UserRoleAdmin}

// IsStaffRole reports whether the role belongs to the staff roster.
func IsStaffRole(role UserRole) bool {
	return role == UserRoleStaff || role == UserRoleAdmin
}

type User struct {
	ID           string   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name         string   `gorm:"not null" json:"name"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);default:'customer';index" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
