// Package domain contains entity without logic, just meta-data
package domain

type UserID string

// User is the persisted account record as the store returns it.
type User struct {
	ID          UserID `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Disabled    bool   `json:"-"`
}

// Identity is the per-connection view of a user, resolved once at
// authentication time and immutable for the connection's lifetime.
type Identity struct {
	UserID      UserID `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Identity strips account-management fields down to what rooms broadcast.
func (u *User) Identity() Identity {
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	return Identity{UserID: u.ID, DisplayName: name, AvatarURL: u.AvatarURL}
}
