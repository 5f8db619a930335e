package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Profile is the cached copy of the account profile. Fields the client does
// not know about are kept in Extra and survive a decode/encode cycle.
type Profile struct {
	ID               ID       `json:"id"`
	Email            string   `json:"email,omitempty"`
	Username         string   `json:"username,omitempty"`
	FullName         string   `json:"full_name,omitempty"`
	AvatarURL        string   `json:"avatar_url,omitempty"`
	Bio              string   `json:"bio,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	DateOfBirth      string   `json:"date_of_birth,omitempty"`
	HeightCM         *float64 `json:"height_cm,omitempty"`
	WeightKG         *float64 `json:"weight_kg,omitempty"`
	TargetSleepHours *float64 `json:"target_sleep_hours,omitempty"`
	TargetWaterML    *int     `json:"target_water_ml,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// profileFields is the set of keys mapped onto Profile struct fields.
var profileFields = map[string]struct{}{
	"id": {}, "email": {}, "username": {}, "full_name": {}, "avatar_url": {},
	"bio": {}, "gender": {}, "date_of_birth": {}, "height_cm": {},
	"weight_kg": {}, "target_sleep_hours": {}, "target_water_ml": {},
}

type profileAlias Profile

func (p *Profile) UnmarshalJSON(b []byte) error {
	var a profileAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	for k, v := range raw {
		if _, known := profileFields[k]; known {
			continue
		}
		// a null extension value means the field is gone
		if strings.TrimSpace(string(v)) == "null" {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[k] = v
	}

	*p = Profile(a)
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(profileAlias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return b, nil
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, known := profileFields[k]; !known {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// Merge returns a new Profile with the keys present in data laid over p.
// Keys absent from data keep their cached value; an explicit null clears
// a known field and removes an extension field. A nil receiver yields the decoded data itself.
func (p *Profile) Merge(data json.RawMessage) (*Profile, error) {
	if len(data) == 0 || string(data) == "null" {
		return p.Clone(), nil
	}

	if p == nil {
		var np Profile
		if err := json.Unmarshal(data, &np); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		return &np, nil
	}

	var patch map[string]json.RawMessage
	if err := json.Unmarshal(data, &patch); err != nil {
		return nil, fmt.Errorf("decode profile patch: %w", err)
	}

	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var base map[string]json.RawMessage
	if err := json.Unmarshal(b, &base); err != nil {
		return nil, err
	}

	for k, v := range patch {
		base[k] = v
	}

	merged, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}

	var np Profile
	if err := json.Unmarshal(merged, &np); err != nil {
		return nil, fmt.Errorf("decode merged profile: %w", err)
	}
	return &np, nil
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}

	c := *p
	c.HeightCM = clonePtr(p.HeightCM)
	c.WeightKG = clonePtr(p.WeightKG)
	c.TargetSleepHours = clonePtr(p.TargetSleepHours)
	c.TargetWaterML = clonePtr(p.TargetWaterML)

	if p.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ProfilePatch is the payload of PATCH /api/me/profile. Only non-nil fields
// are sent. Extra carries fields outside the known set.
type ProfilePatch struct {
	FullName         *string  `json:"full_name,omitempty"`
	Username         *string  `json:"username,omitempty"`
	Bio              *string  `json:"bio,omitempty"`
	Gender           *string  `json:"gender,omitempty"`
	DateOfBirth      *string  `json:"date_of_birth,omitempty"`
	HeightCM         *float64 `json:"height_cm,omitempty"`
	WeightKG         *float64 `json:"weight_kg,omitempty"`
	TargetSleepHours *float64 `json:"target_sleep_hours,omitempty"`
	TargetWaterML    *int     `json:"target_water_ml,omitempty"`

	Extra map[string]any `json:"-"`
}

type patchAlias ProfilePatch

func (p ProfilePatch) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(patchAlias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return b, nil
	}

	out := make(map[string]any)
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, set := out[k]; !set {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// IsEmpty reports whether the patch would send no fields.
func (p ProfilePatch) IsEmpty() bool {
	b, err := json.Marshal(p)
	return err == nil && string(b) == "{}"
}

// Set assigns a field by its JSON name from user input. Numeric fields are
// parsed; unknown names land in Extra as strings.
func (p *ProfilePatch) Set(field, value string) error {
	field = strings.TrimSpace(field)
	switch field {
	case "full_name":
		p.FullName = &value
	case "username":
		p.Username = &value
	case "bio":
		p.Bio = &value
	case "gender":
		p.Gender = &value
	case "date_of_birth":
		p.DateOfBirth = &value
	case "height_cm", "weight_kg", "target_sleep_hours":
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%s must be a number", field)
		}
		switch field {
		case "height_cm":
			p.HeightCM = &f
		case "weight_kg":
			p.WeightKG = &f
		default:
			p.TargetSleepHours = &f
		}
	case "target_water_ml":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s must be a whole number", field)
		}
		p.TargetWaterML = &n
	case "id", "email", "avatar_url":
		return fmt.Errorf("%s cannot be changed here", field)
	case "":
		return fmt.Errorf("field name is required")
	default:
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[field] = value
	}
	return nil
}
