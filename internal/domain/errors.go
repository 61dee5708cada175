package domain

import "errors"

var (
	ErrInvalidID    = errors.New("invalid menu item id")
	ErrInvalidPrice = errors.New("price is out of range")
	ErrNotFound     = errors.New("menu item not found")
)
