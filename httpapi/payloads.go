package httpapi

import (
	"errors"
	"regexp"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._'-]+$`)

const (
	usernameMinLength = 3
	usernameMaxLength = 30
	passwordMinLength = 8
	passwordMaxLength = 128
)

type signInRequest struct {
	Login      string `json:"login"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type signUpRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Validate will run validation rules
func (r signUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(usernameMinLength, usernameMaxLength),
			validation.Match(usernamePattern).Error("may only contain letters, digits, dots, dashes, underscores and apostrophes"),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(passwordMinLength, passwordMaxLength),
			validation.By(strongPassword),
		),
		validation.Field(
			&r.DisplayName,
			validation.Length(0, 100),
		),
	)
}

// strongPassword wants one lowercase letter, one uppercase letter, one digit
// and one symbol.
func strongPassword(value any) error {
	s, _ := value.(string)
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !lower || !upper || !digit || !symbol {
		return errors.New("must contain a lowercase letter, an uppercase letter, a digit and a symbol")
	}
	return nil
}
