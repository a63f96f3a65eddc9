package validator

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidName     = errors.New("invalid name")
	ErrNoteTooLong     = errors.New("note exceeds 100 characters")
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)
)

func ValidateEmail(email string) error {
	if len(email) > 30 || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 || len(password) > 20 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateName(name string) error {
	length := utf8.RuneCountInString(name)
	if length < 3 || length > 15 {
		return ErrInvalidName
	}
	return nil
}

func ValidateNote(note string) error {
	if utf8.RuneCountInString(note) > 100 {
		return ErrNoteTooLong
	}
	return nil
}
