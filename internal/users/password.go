package users

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const passwordSpecials = "@$!%*?&"

// ValidPassword reports whether pw has an upper and a lower case letter, a
// digit and one of @$!%*?&.
func ValidPassword(pw string) bool {
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

func passwordRule(fl validator.FieldLevel) bool {
	return ValidPassword(fl.Field().String())
}
