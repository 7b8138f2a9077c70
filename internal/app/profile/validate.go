package profile

import (
	"regexp"
	"slices"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const MinPasswordLength = 8

// USStates lists the accepted state codes, DC included.
var USStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY", "DC",
}

var Languages = []string{"English", "Spanish", "Chinese", "Hindi"}

// ValidationError describes the first problem found in a form.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func validate(in SignUpInput) error {
	required := []struct{ field, value string }{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"email", in.Email},
		{"password", in.Password},
		{"confirm_password", in.ConfirmPassword},
		{"state", in.State},
		{"language", in.Language},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid(r.field, "Please fill in all fields")
		}
	}

	if !ValidEmail(in.Email) {
		return invalid("email", "Please enter a valid email address")
	}
	if len(in.Password) < MinPasswordLength {
		return invalid("password", "Password must be at least 8 characters long")
	}
	if in.Password != in.ConfirmPassword {
		return invalid("confirm_password", "Passwords do not match")
	}
	if !slices.Contains(USStates, in.State) {
		return invalid("state", "Please select a valid US state")
	}
	if !slices.Contains(Languages, in.Language) {
		return invalid("language", "Please select a supported language")
	}
	return nil
}
