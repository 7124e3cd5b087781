package models

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 8
)

// Validate checks the registration fields and returns a
// *common.ValidationError listing every rejected field, or nil.
func (r *RegisterRequest) Validate() error {
	fields := map[string]string{}

	checkEmail(fields, r.Email)

	switch {
	case strings.TrimSpace(r.Username) == "":
		fields["username"] = "username is required"
	case utf8.RuneCountInString(r.Username) < MinUsernameLength:
		fields["username"] = "username must be at least 3 characters"
	}

	switch {
	case r.Password == "":
		fields["password"] = "password is required"
	case utf8.RuneCountInString(r.Password) < MinPasswordLength:
		fields["password"] = "password must be at least 8 characters"
	}

	return result(fields)
}

// Validate checks the login fields are present and the email is well formed.
func (r *LoginRequest) Validate() error {
	fields := map[string]string{}

	checkEmail(fields, r.Email)
	if r.Password == "" {
		fields["password"] = "password is required"
	}

	return result(fields)
}

func checkEmail(fields map[string]string, email string) {
	if strings.TrimSpace(email) == "" {
		fields["email"] = "email is required"
		return
	}
	if !isBareAddress(email) {
		fields["email"] = "email must be a valid email address"
	}
}

// isBareAddress accepts only "local@domain", rejecting display names and
// angle-bracket forms that net/mail would otherwise parse.
func isBareAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == s
}

func result(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &common.ValidationError{Fields: fields}
}
