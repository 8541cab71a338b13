package cashback

import "errors"

var (
	ErrNotFound         = errors.New("cashback code not found")
	ErrAlreadyUsed      = errors.New("cashback code already used")
	ErrExpired          = errors.New("cashback code expired")
	ErrInvalidValue     = errors.New("invalid code value")
	ErrInvalidCount     = errors.New("invalid code count")
	ErrCodeCollision    = errors.New("generated code collided")
	ErrGenerationFailed = errors.New("could not generate unique codes")
)
