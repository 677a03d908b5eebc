package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrNotApproved         = errors.New("package is not approved")
	ErrUnsupportedResource = errors.New("unsupported resource")
	ErrInvalidTransition   = errors.New("invalid status transition")
)
