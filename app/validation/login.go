package validation

import (
	"encoding/json"
	"net/mail"
	"strings"
)

// LoginInput is the raw login body.
type LoginInput struct {
	Email    json.RawMessage `json:"email"`
	Password json.RawMessage `json:"password"`
}

// Login checks the credential fields are present and well formed.
func Login(in LoginInput) (email, password string, errs *Errors) {
	errs = &Errors{}

	if s, ok := requiredString(errs, "email", in.Email); ok {
		email = strings.TrimSpace(s)
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			errs.Add("email", "The email field must be a valid email address.")
		}
	}
	if s, ok := requiredString(errs, "password", in.Password); ok {
		password = s
	}
	return email, password, errs
}

// CategoryInput is the raw category body.
type CategoryInput struct {
	Name json.RawMessage `json:"name"`
}

// CategoryName validates a new category's name.
func CategoryName(in CategoryInput) (string, *Errors) {
	errs := &Errors{}
	name, ok := requiredString(errs, "name", in.Name)
	if !ok {
		return "", errs
	}
	name = strings.TrimSpace(name)
	if len([]rune(name)) > maxNameLength {
		errs.Add("name", "The name field must not be greater than 255 characters.")
	}
	return name, errs
}

func requiredString(errs *Errors, field string, raw json.RawMessage) (string, bool) {
	if !present(raw) || isNull(raw) {
		errs.Add(field, "The "+label(field)+" field is required.")
		return "", false
	}
	s, ok := asString(raw)
	if !ok {
		errs.Add(field, "The "+label(field)+" field must be a string.")
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		errs.Add(field, "The "+label(field)+" field is required.")
		return "", false
	}
	return s, true
}
