package domain

import "time"

// Profile is the locally stored user profile.
type Profile struct {
	Email        string
	FirstName    string
	LastName     string
	State        string
	Language     string
	PasswordHash []byte
	Demo         bool
	CreatedAt    time.Time
}

func (p *Profile) DisplayName() string {
	if p.FirstName == "" {
		return p.Email
	}
	return p.FirstName
}
