package session

import "errors"

// ErrValidation marks user input rejected before any request is issued.
var ErrValidation = errors.New("session: invalid input")
