package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an account identifier. The backend sends it either as a JSON number
// or as a string; both decode to the same textual form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Identity is the read-only projection of the signed-in account.
type Identity struct {
	ID       ID     `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// DisplayName prefers the full name, then the username, then the email.
func (i *Identity) DisplayName() string {
	switch {
	case i == nil:
		return ""
	case i.FullName != "":
		return i.FullName
	case i.Username != "":
		return i.Username
	default:
		return i.Email
	}
}

// Registration is the payload of POST /api/register.
type Registration struct {
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials is the payload of POST /api/login. Identifier may be an email
// or a username; the backend field is named "email" either way.
type Credentials struct {
	Identifier string `json:"email"`
	Password   string `json:"password"`
}

// AccountSettings is the payload of PATCH /api/me/account. Nil fields are
// left unchanged.
type AccountSettings struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}
