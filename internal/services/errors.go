package services

import "errors"

var (
	ErrVoiceNoteNotFound = errors.New("voice note not found")
	ErrForbidden         = errors.New("you are not allowed to perform this action")
	ErrInvalidInput      = errors.New("invalid input")
)
