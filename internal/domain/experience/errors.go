package experience

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidAmount = errors.New("xp amount must be positive")
	ErrInvalidSource = errors.New("invalid xp source")
)
