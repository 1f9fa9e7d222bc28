package service

import "errors"

// Sentinel errors for the distinct failure classes. Handlers map these
// to HTTP status codes with errors.Is, so services wrap them with
// fmt.Errorf("%w: ...") when adding detail.
var (
	ErrEmptyCart          = errors.New("order must contain at least one item")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrMissingDetails     = errors.New("required customer details are missing")
	ErrProductNotFound    = errors.New("product not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidProduct     = errors.New("invalid product data")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
