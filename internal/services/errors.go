package services

import "github.com/juju/errors"

const (
	ErrBadCreds           = errors.ConstError("invalid email or password")
	ErrCartEmpty          = errors.ConstError("cart is empty")
	ErrProductUnavailable = errors.ConstError("product unavailable")
	ErrNotOwner           = errors.ConstError("not your product")
)
