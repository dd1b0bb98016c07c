package profile

import "errors"

// ErrUnknownField is returned by SetField for keys outside the identity set.
var ErrUnknownField = errors.New("unknown profile field")

// ErrInvalidEmail is returned by SetField for a malformed email address.
var ErrInvalidEmail = errors.New("invalid email")

// Profile keys in the user_profile table.
const (
	KeyID    = "identity.id"
	KeyName  = "identity.name"
	KeyEmail = "identity.email"
	KeyRole  = "identity.role"
)

// editableKeys are the keys SetField accepts. The id is assigned, not edited.
var editableKeys = map[string]bool{
	KeyName:  true,
	KeyEmail: true,
	KeyRole:  true,
}

// Profile is the structured view of the user shown on the settings screen.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Fields returns the editable keys in display order.
func Fields() []string {
	return []string{KeyName, KeyEmail, KeyRole}
}
