package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every input validation failure.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidID     = fmt.Errorf("%w: invalid id", ErrValidation)
	ErrInvalidName   = fmt.Errorf("%w: invalid name", ErrValidation)
	ErrInvalidTitle  = fmt.Errorf("%w: invalid title", ErrValidation)
	ErrInvalidColumn = fmt.Errorf("%w: invalid column id", ErrValidation)
	ErrInvalidOrder  = fmt.Errorf("%w: invalid order", ErrValidation)
	ErrInvalidLayout = fmt.Errorf("%w: invalid column layout", ErrValidation)
)
