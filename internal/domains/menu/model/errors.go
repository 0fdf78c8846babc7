package model

import "errors"

var (
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrMenuItemNameExists  = errors.New("menu item name already exists")
)
