package domain

import "time"

// Role type to distinguish between user roles
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleViewer     Role = "viewer"
)

// User represents an account in the catalog. Accounts are created either by
// local signup (with a password hash) or on first delegated-provider login
// (no password, default viewer role).
type User struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	ExternalID string    `gorm:"uniqueIndex;size:255;not null" json:"externalId"`
	Name       string    `json:"name"`
	AvatarURL  string    `json:"avatarUrl"`
	Bio        string    `json:"bio"`
	Website    string    `json:"website"`
	Phone      string    `json:"phone"`
	Location   string    `json:"location"`
	Role       Role      `gorm:"size:32;default:viewer" json:"role"`
	// PasswordHash is empty for users provisioned via the delegated provider.
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor || u.Role == RoleAdmin
}
