// Package validate holds the pure form checks used before anything reaches the API.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"kiosk/apperr"
)

// MinPasswordLength is the shortest password the forms accept.
const MinPasswordLength = 8

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail checks the local@domain.tld shape only. No DNS or MX lookups.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// Requirements is the password checklist shown next to the field.
type Requirements struct {
	MinLength bool `json:"minLength"`
	Upper     bool `json:"upper"`
	Lower     bool `json:"lower"`
	Digit     bool `json:"digit"`
	Special   bool `json:"special"`
}

type Strength struct {
	IsValid      bool         `json:"isValid"`
	Requirements Requirements `json:"requirements"`
}

// PasswordStrength evaluates s. A special character is advisory: it is reported in the
// checklist but not required for IsValid.
func PasswordStrength(s string) Strength {
	var req Requirements
	req.MinLength = utf8.RuneCountInString(s) >= MinPasswordLength
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			req.Upper = true
		case unicode.IsLower(r):
			req.Lower = true
		case unicode.IsDigit(r):
			req.Digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			req.Special = true
		}
	}
	return Strength{
		IsValid:      req.MinLength && req.Upper && req.Lower && req.Digit,
		Requirements: req,
	}
}

// Missing lists what still needs fixing, in checklist order.
func (s Strength) Missing() []string {
	var out []string
	if !s.Requirements.MinLength {
		out = append(out, "at least 8 characters")
	}
	if !s.Requirements.Upper {
		out = append(out, "an uppercase letter")
	}
	if !s.Requirements.Lower {
		out = append(out, "a lowercase letter")
	}
	if !s.Requirements.Digit {
		out = append(out, "a number")
	}
	return out
}

func passwordMessage(s Strength) string {
	return "Password needs " + strings.Join(s.Missing(), ", ") + "."
}

// Login rejects obviously incomplete credentials before a round trip.
func Login(email, password string) error {
	fields := map[string]string{}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "Email is required."
	} else if !IsValidEmail(strings.TrimSpace(email)) {
		fields["email"] = "Enter a valid email address."
	}
	if password == "" {
		fields["password"] = "Password is required."
	}
	return apperr.Validation(fields)
}

// CustomerSignup is the customer registration form.
type CustomerSignup struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	Phone           string `json:"phone,omitempty"`
	Location        string `json:"location,omitempty"`
}

func (f CustomerSignup) Validate() error {
	fields := map[string]string{}
	required(fields, "name", f.Name, "Name is required.")
	checkCredentials(fields, f.Email, f.Password, f.ConfirmPassword)
	return apperr.Validation(fields)
}

// SellerSignup is the seller registration form.
type SellerSignup struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	Phone           string `json:"phone"`
	BusinessName    string `json:"businessName"`
	BusinessType    string `json:"businessType,omitempty"`
	Description     string `json:"description,omitempty"`
	Location        string `json:"location"`
}

func (f SellerSignup) Validate() error {
	fields := map[string]string{}
	required(fields, "name", f.Name, "Name is required.")
	required(fields, "businessName", f.BusinessName, "Business name is required.")
	required(fields, "phone", f.Phone, "Phone number is required.")
	required(fields, "location", f.Location, "Pick your shop location.")
	checkCredentials(fields, f.Email, f.Password, f.ConfirmPassword)
	return apperr.Validation(fields)
}

// Fields flattens the form for a multipart submission.
func (f SellerSignup) Fields() map[string]string {
	out := map[string]string{
		"name":         f.Name,
		"email":        strings.TrimSpace(f.Email),
		"password":     f.Password,
		"phone":        f.Phone,
		"businessName": f.BusinessName,
		"location":     f.Location,
	}
	if f.BusinessType != "" {
		out["businessType"] = f.BusinessType
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	return out
}

func required(fields map[string]string, name, value, msg string) {
	if strings.TrimSpace(value) == "" {
		fields[name] = msg
	}
}

func checkCredentials(fields map[string]string, email, password, confirm string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		fields["email"] = "Email is required."
	case !IsValidEmail(email):
		fields["email"] = "Enter a valid email address."
	}
	if s := PasswordStrength(password); !s.IsValid {
		fields["password"] = passwordMessage(s)
	}
	if confirm != "" && confirm != password {
		fields["confirmPassword"] = "Passwords do not match."
	}
}
