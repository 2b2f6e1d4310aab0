package service

import "errors"

var (
	ErrMissingField         = errors.New("please provide all fields")
	ErrDuplicateUser        = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user doesn't exist")
	ErrInvalidCredentials   = errors.New("please provide the correct information")
	ErrInvalidToken         = errors.New("invalid token")
	ErrOldPasswordIncorrect = errors.New("old password is incorrect")
	ErrPasswordMismatch     = errors.New("password doesn't match")
	ErrAvatarRequired       = errors.New("please provide an avatar")
	ErrAddressTypeRequired  = errors.New("address type is required")

	// ErrDuplicateAddressType is wrapped as "<type> address already exists".
	ErrDuplicateAddressType = errors.New("address already exists")
)
