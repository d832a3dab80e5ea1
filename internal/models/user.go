package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleProctor UserRole = "proctor"
	RoleAdmin   UserRole = "admin"
)

// User is the authenticated caller, built from token claims. It is not
// persisted by this service.
type User struct {
	ID        string   `json:"id"`
	FullName  string   `json:"full_name"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	AvatarURL *string  `json:"avatar_url,omitempty"`
}

// CanManageVariants reports whether the user may generate and read batches.
func (u *User) CanManageVariants() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}
