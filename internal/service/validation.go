package service

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"booknest/internal/model"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	maxEmailLength    = 100
	minUsernameLength = 3
	maxUsernameLength = 20
	minPasswordLength = 8
)

func validEmail(email string) bool {
	return emailPattern.MatchString(email) && utf8.RuneCountInString(email) <= maxEmailLength
}

func validUsername(username string) bool {
	n := utf8.RuneCountInString(username)
	return n >= minUsernameLength && n <= maxUsernameLength
}

// validPassword requires a lowercase and an uppercase ASCII letter, a digit
// and a character that is none of those.
func validPassword(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

func validationFailure(fields map[string]string) *Failure {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fields[k])
	}

	f := newFailure(KindValidation, strings.Join(parts, "; "), model.ErrInvalidInput)
	f.Fields = fields
	return f
}

func utf8Len(s string) int {
	return utf8.RuneCountInString(s)
}
