package collection

import "errors"

var (
	ErrNotFound = errors.New("collection not found")
	ErrInvalid  = errors.New("invalid collection input")
)
