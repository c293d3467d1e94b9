package services

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrAlreadyExists is returned by Register when the username is taken (any case).
	ErrAlreadyExists = errors.New("username already exists")
	// ErrThreadNotFound is returned when replying to a thread that does not exist.
	ErrThreadNotFound = errors.New("thread not found")
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
