package users

import (
	"encoding/json"
	"maps"
	"time"
)

type User struct {
	ID           string
	FullName     string
	UserName     string
	Email        string
	PasswordHash []byte
	Verified     bool
	VerifyToken  string
	AvatarKey    string
	CreatedAt    time.Time

	// Profile holds the editable profile fields keyed by their JSON name.
	Profile map[string]json.RawMessage
}

func (u *User) clone() *User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	c.Profile = maps.Clone(u.Profile)
	return &c
}
