package bot

import "errors"

var (
	ErrUnauthorized      = errors.New("user not authorized")
	ErrSessionExpired    = errors.New("purchase session expired")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrOutOfStock        = errors.New("product out of stock")
	ErrInsufficientStock = errors.New("not enough stock available")
	ErrLinkNotFound      = errors.New("link not found")
)
